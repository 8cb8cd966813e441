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

package errors

import (
	"errors"
	"fmt"
)

type DetailedError struct {
	err      error
	guid     string
	details  string
	instance string
}

func (d *DetailedError) Error() string {
	return d.err.Error()
}

func (d *DetailedError) WithGUID(guid string) *DetailedError {
	if d == nil {
		return nil
	}

	d.guid = guid

	return d
}

func (d *DetailedError) WithDetail(detail string) *DetailedError {
	if d == nil {
		return nil
	}

	d.details = detail

	return d
}

func (d *DetailedError) WithInstance(instance string) *DetailedError {
	if d == nil {
		return nil
	}

	d.instance = instance

	return d
}

func (d *DetailedError) GetGUID() string {
	return d.guid
}

func (d *DetailedError) GetDetails() string {
	return d.details
}

func (d *DetailedError) GetInstance() string {
	return d.instance
}

func NewDetailedError(err string) *DetailedError {
	return &DetailedError{err: errors.New(err)}
}

// interpreter.

var (
	ErrStateCreation      = errors.New("cannot create lua state: out of memory")
	ErrInterpreterClosed  = errors.New("interpreter already closed")
	ErrHandleClosed       = errors.New("table handle already closed")
	ErrHandlesOpen        = errors.New("table handles still open")
	ErrKindNotRequestable = errors.New("kind cannot be requested as a scalar")
	ErrNoScriptSource     = errors.New("no script source given")
)

// env.

var (
	ErrWrongVerboseLevel = errors.New("wrong verbose level: <%s>")
	ErrWrongDebugModule  = errors.New("wrong debug module: <%s>")
)

// pool.

var (
	ErrPoolClosed = errors.New("lua state pool is closed")
)

// lua.

var (
	ErrScriptCompile = NewDetailedError("script_compile_failed")
	ErrScriptRun     = NewDetailedError("script_execution_failed")
)

// TypeMismatchError is returned when a Lua value does not satisfy the
// requested kind. Accessor identifies the global, field or index that was
// read and Expected names the acceptable Lua types.
type TypeMismatchError struct {
	Accessor string
	Expected string
}

func (t *TypeMismatchError) Error() string {
	return fmt.Sprintf("variable %s is not %s", t.Accessor, t.Expected)
}

// CorruptedStackError reports that the Lua stack no longer holds the depth an
// accessor recorded when it was created. The owning interpreter is unusable
// afterwards.
type CorruptedStackError struct {
	Op       string
	Recorded int
	Current  int
	GUID     string
}

func (c *CorruptedStackError) Error() string {
	return fmt.Sprintf("lua stack corrupted in %s: recorded depth %d, current top %d", c.Op, c.Recorded, c.Current)
}

// ChunkError carries the diagnostic a Lua chunk produced while loading or
// running. The message is taken verbatim from the Lua runtime.
type ChunkError struct {
	Message string
}

func (c *ChunkError) Error() string {
	return c.Message
}
