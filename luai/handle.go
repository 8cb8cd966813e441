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
	"strconv"

	"github.com/croessner/luascope/definitions"
	"github.com/croessner/luascope/errors"
	"github.com/croessner/luascope/stats"
	"github.com/croessner/luascope/util"

	lua "github.com/yuin/gopher-lua"
)

// TableHandle is a live reference to a table occupying one slot of the Lua
// operand stack. It reads string-keyed fields, integer-keyed indices and
// the table length as typed Go values and opens child handles on nested
// tables. A handle holds a reference on the interpreter state, so it stays
// usable after the Interpreter value closed. Handles close in reverse
// creation order; at most one child chain per handle may be open at a time.
type TableHandle struct {
	state  *vmState
	parent *TableHandle
	depth  int
	closed bool
}

// guard validates that the handle is open, the state is intact and the slot
// recorded for this handle is still on the stack.
func (h *TableHandle) guard(op string) error {
	if h.closed {
		return errors.ErrHandleClosed
	}

	if err := h.state.guard(); err != nil {
		return err
	}

	if top := h.state.L.GetTop(); top < h.depth {
		return h.state.markCorrupted(op, h.depth, top)
	}

	return nil
}

// table returns the Lua value resident at the handle's recorded depth.
func (h *TableHandle) table() lua.LValue {
	return h.state.L.Get(h.depth)
}

// GetField reads the field name of the table as the requested kind.
func (h *TableHandle) GetField(name string, kind Kind) (Value, error) {
	if err := h.guard("GetField"); err != nil {
		return Value{}, err
	}

	L := h.state.L

	L.Push(L.GetField(h.table(), name))

	return h.state.takeTop(name, kind)
}

// FieldInt reads an integral field.
func (h *TableHandle) FieldInt(name string) (int64, error) {
	value, err := h.GetField(name, KindInt)

	return value.Int(), err
}

// FieldNumber reads a numeric field, accepting convertible strings.
func (h *TableHandle) FieldNumber(name string) (float64, error) {
	value, err := h.GetField(name, KindNumber)

	return value.Number(), err
}

// FieldString reads a string field, accepting numbers.
func (h *TableHandle) FieldString(name string) (string, error) {
	value, err := h.GetField(name, KindString)
	if err != nil {
		return "", err
	}

	return value.String(), nil
}

// FieldBool reads a boolean field.
func (h *TableHandle) FieldBool(name string) (bool, error) {
	value, err := h.GetField(name, KindBool)

	return value.Bool(), err
}

// TypeOfField classifies the runtime type of the field name. Missing fields
// classify as KindNil.
func (h *TableHandle) TypeOfField(name string) (Kind, error) {
	value, err := h.GetField(name, KindType)

	return value.Kind(), err
}

// GetFieldTable opens a child handle on the table stored in field name.
func (h *TableHandle) GetFieldTable(name string) (*TableHandle, error) {
	if err := h.guard("GetFieldTable"); err != nil {
		return nil, err
	}

	L := h.state.L

	L.Push(L.GetField(h.table(), name))

	return h.state.adoptTableTop(name, h)
}

// GetIndex reads the array slot idx of the table as the requested kind.
func (h *TableHandle) GetIndex(idx int, kind Kind) (Value, error) {
	if err := h.guard("GetIndex"); err != nil {
		return Value{}, err
	}

	L := h.state.L

	L.Push(L.GetTable(h.table(), lua.LNumber(idx)))

	return h.state.takeTop(strconv.Itoa(idx), kind)
}

// IndexInt reads an integral array slot.
func (h *TableHandle) IndexInt(idx int) (int64, error) {
	value, err := h.GetIndex(idx, KindInt)

	return value.Int(), err
}

// IndexNumber reads a numeric array slot, accepting convertible strings.
func (h *TableHandle) IndexNumber(idx int) (float64, error) {
	value, err := h.GetIndex(idx, KindNumber)

	return value.Number(), err
}

// IndexString reads a string array slot, accepting numbers.
func (h *TableHandle) IndexString(idx int) (string, error) {
	value, err := h.GetIndex(idx, KindString)
	if err != nil {
		return "", err
	}

	return value.String(), nil
}

// IndexBool reads a boolean array slot.
func (h *TableHandle) IndexBool(idx int) (bool, error) {
	value, err := h.GetIndex(idx, KindBool)

	return value.Bool(), err
}

// TypeOfIndex classifies the runtime type of the array slot idx. Missing
// slots classify as KindNil.
func (h *TableHandle) TypeOfIndex(idx int) (Kind, error) {
	value, err := h.GetIndex(idx, KindType)

	return value.Kind(), err
}

// GetIndexTable opens a child handle on the table stored in array slot idx.
func (h *TableHandle) GetIndexTable(idx int) (*TableHandle, error) {
	if err := h.guard("GetIndexTable"); err != nil {
		return nil, err
	}

	L := h.state.L

	L.Push(L.GetTable(h.table(), lua.LNumber(idx)))

	return h.state.adoptTableTop(strconv.Itoa(idx), h)
}

// Length evaluates the Lua length operator on the handle's table.
func (h *TableHandle) Length() (int, error) {
	if err := h.guard("Length"); err != nil {
		return 0, err
	}

	return h.state.L.ObjLen(h.table()), nil
}

// Depth returns the stack depth recorded when the handle was opened.
func (h *TableHandle) Depth() int {
	return h.depth
}

// Close pops the handle's stack slot and releases its reference on the Lua
// state. The pop happens only when the recorded depth is still reachable;
// otherwise the state is marked corrupted. Close is idempotent.
func (h *TableHandle) Close() error {
	if h.closed {
		return nil
	}

	h.closed = true

	defer h.state.release()

	stats.HandlesClosed.Inc()

	if err := h.state.guard(); err != nil {
		return err
	}

	top := h.state.L.GetTop()
	if top < h.depth {
		return h.state.markCorrupted("Close", h.depth, top)
	}

	h.state.L.Pop(1)

	util.DebugModule(definitions.DbgStack,
		definitions.LogKeyGUID, h.state.guid,
		definitions.LogKeyStackTop, h.depth,
		definitions.LogKeyMsg, "table handle closed",
	)

	return nil
}
