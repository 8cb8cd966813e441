// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package luai

import (
	"net/http"
	"os"

	"github.com/croessner/luascope/definitions"
	"github.com/croessner/luascope/errors"
	"github.com/croessner/luascope/lualib"
	"github.com/croessner/luascope/stats"
	"github.com/croessner/luascope/util"

	"github.com/segmentio/ksuid"
	lua "github.com/yuin/gopher-lua"
)

// Options sizes the underlying Lua state. Zero values select the defaults
// from the definitions package.
type Options struct {
	// RegistrySize is the initial allocation of the Lua registry.
	RegistrySize int

	// RegistryMaxSize caps registry growth.
	RegistryMaxSize int

	// CallStackSize is the fixed call stack allocation.
	CallStackSize int
}

func (o Options) registrySize() int {
	if o.RegistrySize <= 0 {
		return definitions.LuaRegistrySize
	}

	return o.RegistrySize
}

func (o Options) registryMaxSize() int {
	if o.RegistryMaxSize <= 0 {
		return definitions.LuaRegistryMaxSize
	}

	return o.RegistryMaxSize
}

func (o Options) callStackSize() int {
	if o.CallStackSize <= 0 {
		return definitions.LuaCallStackSize
	}

	return o.CallStackSize
}

// Interpreter owns one Lua state. It runs chunks and reads global variables
// back as typed Go values. Create instances with NewInterpreter; the zero
// value is unusable. An Interpreter must not be shared between goroutines.
type Interpreter struct {
	state    *vmState
	opts     Options
	closed   bool
	libsOpen bool
	extOpen  bool
}

// NewInterpreter creates a fresh Lua state with the standard libraries not
// yet opened. A runtime panic during state allocation is surfaced as
// ErrStateCreation.
func NewInterpreter(opts Options) (ipr *Interpreter, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ipr = nil
			err = errors.ErrStateCreation
		}
	}()

	L := lua.NewState(lua.Options{
		SkipOpenLibs:    true,
		RegistrySize:    opts.registrySize(),
		RegistryMaxSize: opts.registryMaxSize(),
		CallStackSize:   opts.callStackSize(),
	})
	if L == nil {
		return nil, errors.ErrStateCreation
	}

	state := &vmState{L: L, guid: ksuid.New().String(), refs: 1}

	stats.InterpreterCreated.Inc()
	util.DebugModule(definitions.DbgInterp,
		definitions.LogKeyGUID, state.guid,
		definitions.LogKeyMsg, "interpreter created",
	)

	return &Interpreter{state: state, opts: opts}, nil
}

// GUID returns the instance identifier used in logs and detailed errors.
func (i *Interpreter) GUID() string {
	return i.state.guid
}

// OpenLibraries loads the Lua standard libraries into the state. Repeated
// calls are no-ops.
func (i *Interpreter) OpenLibraries() error {
	if i.closed {
		return errors.ErrInterpreterClosed
	}

	if i.libsOpen {
		return nil
	}

	i.state.L.OpenLibs()
	i.libsOpen = true

	return nil
}

// OpenExtendedLibraries preloads the bundled third party modules: all of
// gopher-lua-libs, glua_crypto and, when client is not nil, glua_http bound
// to that client. The standard libraries are opened first when they are not
// loaded yet, since require resolves the preloaded modules through the
// package library. Repeated calls are no-ops.
func (i *Interpreter) OpenExtendedLibraries(client *http.Client) error {
	if i.closed {
		return errors.ErrInterpreterClosed
	}

	if i.extOpen {
		return nil
	}

	if err := i.OpenLibraries(); err != nil {
		return err
	}

	lualib.Preload(i.state.L, client)
	i.extOpen = true

	return nil
}

// RunChunk compiles and runs a chunk of Lua source. Failures come back as
// *errors.ChunkError carrying the compiler or runtime diagnostic. The stack
// depth is the same before and after the call on every path.
func (i *Interpreter) RunChunk(source string) error {
	if i.closed {
		return errors.ErrInterpreterClosed
	}

	if err := i.state.guard(); err != nil {
		return err
	}

	L := i.state.L

	fn, err := L.LoadString(source)
	if err != nil {
		stats.ChunksExecuted.WithLabelValues(definitions.ChunkResultCompileError).Inc()

		return &errors.ChunkError{Message: err.Error()}
	}

	L.Push(fn)

	if err := L.PCall(0, 0, nil); err != nil {
		stats.ChunksExecuted.WithLabelValues(definitions.ChunkResultRunError).Inc()

		util.DebugModule(definitions.DbgInterp,
			definitions.LogKeyGUID, i.state.guid,
			definitions.LogKeyError, err,
			definitions.LogKeyMsg, "chunk failed",
		)

		return &errors.ChunkError{Message: err.Error()}
	}

	stats.ChunksExecuted.WithLabelValues(definitions.ChunkResultOK).Inc()

	return nil
}

// RunFile reads path and runs its contents as a chunk.
func (i *Interpreter) RunFile(path string) error {
	if i.closed {
		return errors.ErrInterpreterClosed
	}

	if path == "" {
		return errors.ErrNoScriptSource
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return i.RunChunk(string(content))
}

// RunCompiled runs a chunk precompiled with lualib.CompileChunk or
// lualib.CompileFile. The error contract matches RunChunk.
func (i *Interpreter) RunCompiled(proto *lua.FunctionProto) error {
	if i.closed {
		return errors.ErrInterpreterClosed
	}

	if err := i.state.guard(); err != nil {
		return err
	}

	if proto == nil {
		return errors.ErrNoScriptSource
	}

	L := i.state.L

	L.Push(L.NewFunctionFromProto(proto))

	if err := L.PCall(0, 0, nil); err != nil {
		stats.ChunksExecuted.WithLabelValues(definitions.ChunkResultRunError).Inc()

		return &errors.ChunkError{Message: err.Error()}
	}

	stats.ChunksExecuted.WithLabelValues(definitions.ChunkResultOK).Inc()

	return nil
}

// GetGlobal reads the global variable name as the requested kind. The value
// is pushed, checked, converted and popped again; a value of the wrong type
// is reported as *errors.TypeMismatchError.
func (i *Interpreter) GetGlobal(name string, kind Kind) (Value, error) {
	if i.closed {
		return Value{}, errors.ErrInterpreterClosed
	}

	if err := i.state.guard(); err != nil {
		return Value{}, err
	}

	L := i.state.L

	L.Push(L.GetGlobal(name))

	return i.state.takeTop(name, kind)
}

// GetGlobalInt reads an integral global.
func (i *Interpreter) GetGlobalInt(name string) (int64, error) {
	value, err := i.GetGlobal(name, KindInt)

	return value.Int(), err
}

// GetGlobalNumber reads a numeric global, accepting convertible strings.
func (i *Interpreter) GetGlobalNumber(name string) (float64, error) {
	value, err := i.GetGlobal(name, KindNumber)

	return value.Number(), err
}

// GetGlobalString reads a string global, accepting numbers.
func (i *Interpreter) GetGlobalString(name string) (string, error) {
	value, err := i.GetGlobal(name, KindString)
	if err != nil {
		return "", err
	}

	return value.String(), nil
}

// GetGlobalBool reads a boolean global.
func (i *Interpreter) GetGlobalBool(name string) (bool, error) {
	value, err := i.GetGlobal(name, KindBool)

	return value.Bool(), err
}

// TypeOfGlobal classifies the runtime type of a global without converting
// it. Missing globals classify as KindNil.
func (i *Interpreter) TypeOfGlobal(name string) (Kind, error) {
	value, err := i.GetGlobal(name, KindType)

	return value.Kind(), err
}

// GetGlobalTable opens a handle on the table stored in the global name. The
// handle occupies one stack slot until it is closed.
func (i *Interpreter) GetGlobalTable(name string) (*TableHandle, error) {
	if i.closed {
		return nil, errors.ErrInterpreterClosed
	}

	if err := i.state.guard(); err != nil {
		return nil, err
	}

	L := i.state.L

	L.Push(L.GetGlobal(name))

	return i.state.adoptTableTop(name, nil)
}

// StackDepth returns the current depth of the operand stack. Open table
// handles hold one slot each; a closed interpreter reports zero.
func (i *Interpreter) StackDepth() int {
	if i.closed {
		return 0
	}

	return i.state.L.GetTop()
}

// ClearGlobals sets the named globals to nil. Pools use this to strip
// script residue from an interpreter before reuse.
func (i *Interpreter) ClearGlobals(names ...string) error {
	if i.closed {
		return errors.ErrInterpreterClosed
	}

	if err := i.state.guard(); err != nil {
		return err
	}

	for _, name := range names {
		i.state.L.SetGlobal(name, lua.LNil)
	}

	return nil
}

// Reset prepares the interpreter for reuse. This is a best effort approach
// since gopher-lua does not provide a reset method: the operand stack is
// truncated, the state context is detached and the named globals are set to
// nil. Reset refuses to run while table handles are still open because
// truncating the stack would invalidate the slots they reference.
func (i *Interpreter) Reset(globals ...string) error {
	if i.closed {
		return errors.ErrInterpreterClosed
	}

	if err := i.state.guard(); err != nil {
		return err
	}

	if i.state.refs > 1 {
		return errors.ErrHandlesOpen
	}

	i.state.L.SetTop(0)
	i.state.L.SetContext(nil)

	for _, name := range globals {
		i.state.L.SetGlobal(name, lua.LNil)
	}

	return nil
}

// Closed reports whether Close was already called.
func (i *Interpreter) Closed() bool {
	return i.closed
}

// Corrupted reports whether a stack depth violation poisoned the underlying
// state. A corrupted interpreter must not go back into a pool.
func (i *Interpreter) Corrupted() bool {
	return i.state.corrupt != nil
}

// Close releases the interpreter's reference on the Lua state. Handles that
// are still open keep the state alive until the last of them closes. Close
// is idempotent.
func (i *Interpreter) Close() error {
	if i.closed {
		return nil
	}

	i.closed = true

	stats.InterpreterClosed.Inc()
	util.DebugModule(definitions.DbgInterp,
		definitions.LogKeyGUID, i.state.guid,
		definitions.LogKeyMsg, "interpreter closed",
	)

	i.state.release()

	return nil
}

// LuaVersion returns the version string of the embedded Lua runtime.
func LuaVersion() string {
	return lua.LuaVersion
}
