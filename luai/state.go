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
	"github.com/croessner/luascope/definitions"
	"github.com/croessner/luascope/errors"
	"github.com/croessner/luascope/log"
	"github.com/croessner/luascope/log/level"
	"github.com/croessner/luascope/stats"
	"github.com/croessner/luascope/util"

	lua "github.com/yuin/gopher-lua"
)

// vmState wraps one Lua state shared between an Interpreter and the table
// handles descended from it. The state is reference counted so a handle can
// outlive the interpreter value that produced it; the last owner releasing
// its reference closes the underlying LState. A detected stack corruption
// poisons the state for every owner.
type vmState struct {
	L       *lua.LState
	guid    string
	refs    int
	corrupt *errors.CorruptedStackError
}

// retain adds an owner reference.
func (s *vmState) retain() {
	s.refs++
}

// release drops an owner reference and closes the LState with the last one.
func (s *vmState) release() {
	s.refs--
	if s.refs > 0 {
		return
	}

	s.L.Close()

	util.DebugModule(definitions.DbgInterp,
		definitions.LogKeyGUID, s.guid,
		definitions.LogKeyMsg, "lua state closed",
	)
}

// guard fails fast once the state has been marked corrupted.
func (s *vmState) guard() error {
	if s.corrupt != nil {
		return s.corrupt
	}

	return nil
}

// markCorrupted records the first detected stack corruption, logs it and
// counts it. Later detections keep returning the first error so the
// operation that broke the stack stays visible in diagnostics.
func (s *vmState) markCorrupted(op string, recorded, current int) *errors.CorruptedStackError {
	if s.corrupt != nil {
		return s.corrupt
	}

	s.corrupt = &errors.CorruptedStackError{Op: op, Recorded: recorded, Current: current, GUID: s.guid}

	stats.CorruptedStacks.Inc()
	level.Error(log.Logger).Log(
		definitions.LogKeyGUID, s.guid,
		definitions.LogKeyStackWant, recorded,
		definitions.LogKeyStackTop, current,
		definitions.LogKeyError, s.corrupt,
		definitions.LogKeyMsg, "lua stack corrupted",
	)

	return s.corrupt
}

// takeTop checks the value on top of the stack against the requested kind,
// converts it and pops exactly one slot again. The net stack effect is zero
// on every path.
func (s *vmState) takeTop(accessor string, kind Kind) (Value, error) {
	spec, ok := kindSpecs[kind]
	if !ok {
		s.L.Pop(1)

		return Value{}, errors.ErrKindNotRequestable
	}

	lv := s.L.Get(-1)
	if !spec.check(lv) {
		s.L.Pop(1)
		stats.TypeMismatches.Inc()

		util.DebugModule(definitions.DbgConvert,
			definitions.LogKeyGUID, s.guid,
			definitions.LogKeyVariable, accessor,
			definitions.LogKeyKind, kind,
			definitions.LogKeyLuaType, lv.Type().String(),
			definitions.LogKeyMsg, "kind mismatch",
		)

		return Value{}, &errors.TypeMismatchError{Accessor: accessor, Expected: spec.expected}
	}

	value := spec.convert(lv)

	s.L.Pop(1)

	return value, nil
}

// adoptTableTop turns the value on top of the stack into a table handle,
// transferring ownership of the pushed slot to the handle. Values of any
// other type are popped again and reported as a mismatch.
func (s *vmState) adoptTableTop(accessor string, parent *TableHandle) (*TableHandle, error) {
	if s.L.Get(-1).Type() != lua.LTTable {
		s.L.Pop(1)
		stats.TypeMismatches.Inc()

		return nil, &errors.TypeMismatchError{Accessor: accessor, Expected: definitions.KindTableName}
	}

	s.retain()
	stats.HandlesOpened.Inc()

	handle := &TableHandle{state: s, parent: parent, depth: s.L.GetTop()}

	util.DebugModule(definitions.DbgStack,
		definitions.LogKeyGUID, s.guid,
		definitions.LogKeyVariable, accessor,
		definitions.LogKeyStackTop, handle.depth,
		definitions.LogKeyMsg, "table handle opened",
	)

	return handle, nil
}
