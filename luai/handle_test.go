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
	stderrors "errors"
	"testing"

	errors2 "github.com/croessner/luascope/errors"
)

func newTestTable(t *testing.T, script, global string) (*Interpreter, *TableHandle) {
	t.Helper()

	ipr := newTestInterpreter(t)

	if err := ipr.RunChunk(script); err != nil {
		t.Fatalf("RunChunk() error = %v", err)
	}

	handle, err := ipr.GetGlobalTable(global)
	if err != nil {
		t.Fatalf("GetGlobalTable(%s) error = %v", global, err)
	}

	return ipr, handle
}

func TestGetGlobalTableAndLength(t *testing.T) {
	ipr, handle := newTestTable(t, `t = {1, 2, 3}`, "t")

	requireDepth(t, ipr, 1)

	if handle.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", handle.Depth())
	}

	length, err := handle.Length()
	if err != nil {
		t.Fatalf("Length() error = %v", err)
	}

	if length != 3 {
		t.Errorf("Length() = %d, want 3", length)
	}

	for idx := 1; idx <= 3; idx++ {
		if got, err := handle.IndexInt(idx); err != nil || got != int64(idx) {
			t.Errorf("IndexInt(%d) = %d, %v, want %d, nil", idx, got, err, idx)
		}
	}

	requireDepth(t, ipr, 1)

	if err := handle.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	requireDepth(t, ipr, 0)
}

func TestLengthOfEmptyTable(t *testing.T) {
	_, handle := newTestTable(t, `t = {}`, "t")

	length, err := handle.Length()
	if err != nil {
		t.Fatalf("Length() error = %v", err)
	}

	if length != 0 {
		t.Errorf("Length() = %d, want 0", length)
	}
}

func TestFieldTypedLookups(t *testing.T) {
	ipr, handle := newTestTable(t, `t = {a = 5, f = 1.5, s = "hi", ns = "7", b = true}`, "t")

	if got, err := handle.FieldInt("a"); err != nil || got != 5 {
		t.Errorf("FieldInt(a) = %d, %v, want 5, nil", got, err)
	}

	if got, err := handle.FieldNumber("f"); err != nil || got != 1.5 {
		t.Errorf("FieldNumber(f) = %g, %v, want 1.5, nil", got, err)
	}

	if got, err := handle.FieldNumber("ns"); err != nil || got != 7 {
		t.Errorf("FieldNumber(ns) = %g, %v, want 7, nil", got, err)
	}

	if got, err := handle.FieldString("s"); err != nil || got != "hi" {
		t.Errorf("FieldString(s) = %q, %v, want %q, nil", got, err, "hi")
	}

	if got, err := handle.FieldString("a"); err != nil || got != "5" {
		t.Errorf("FieldString(a) = %q, %v, want %q, nil", got, err, "5")
	}

	if got, err := handle.FieldBool("b"); err != nil || !got {
		t.Errorf("FieldBool(b) = %v, %v, want true, nil", got, err)
	}

	requireDepth(t, ipr, 1)
}

func TestFieldMismatches(t *testing.T) {
	ipr, handle := newTestTable(t, `t = {s = "text", b = true}`, "t")

	tests := []struct {
		name    string
		field   string
		kind    Kind
		wantMsg string
	}{
		{"string as int", "s", KindInt, "variable s is not integer"},
		{"bool as string", "b", KindString, "variable b is not string or number"},
		{"missing as number", "missing", KindNumber, "variable missing is not number or string convertible to number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handle.GetField(tt.field, tt.kind)

			var mismatch *errors2.TypeMismatchError
			if !stderrors.As(err, &mismatch) {
				t.Fatalf("GetField() error = %v, want TypeMismatchError", err)
			}

			if err.Error() != tt.wantMsg {
				t.Errorf("error = %q, want %q", err.Error(), tt.wantMsg)
			}

			requireDepth(t, ipr, 1)
		})
	}
}

func TestIndexMismatchNamesIndex(t *testing.T) {
	ipr, handle := newTestTable(t, `t = {1, 2, 3}`, "t")

	_, err := handle.GetIndex(99, KindString)
	if err == nil || err.Error() != "variable 99 is not string or number" {
		t.Errorf("GetIndex(99) error = %v, want mismatch naming index 99", err)
	}

	requireDepth(t, ipr, 1)
}

func TestTypeOfFieldAndIndex(t *testing.T) {
	_, handle := newTestTable(t, `t = {a = 1, nested = {}, fn = function() end, "first", 2.5}`, "t")

	tests := []struct {
		name  string
		probe func() (Kind, error)
		want  Kind
	}{
		{"int field", func() (Kind, error) { return handle.TypeOfField("a") }, KindInt},
		{"table field", func() (Kind, error) { return handle.TypeOfField("nested") }, KindTable},
		{"function field", func() (Kind, error) { return handle.TypeOfField("fn") }, KindOther},
		{"missing field", func() (Kind, error) { return handle.TypeOfField("missing") }, KindNil},
		{"string index", func() (Kind, error) { return handle.TypeOfIndex(1) }, KindString},
		{"number index", func() (Kind, error) { return handle.TypeOfIndex(2) }, KindNumber},
		{"missing index", func() (Kind, error) { return handle.TypeOfIndex(9) }, KindNil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.probe()
			if err != nil {
				t.Fatalf("probe error = %v", err)
			}

			if got != tt.want {
				t.Errorf("probe = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNestedTables(t *testing.T) {
	ipr, handle := newTestTable(t, `t = {{b = "hi"}}`, "t")

	child, err := handle.GetIndexTable(1)
	if err != nil {
		t.Fatalf("GetIndexTable(1) error = %v", err)
	}

	requireDepth(t, ipr, 2)

	if child.Depth() != 2 {
		t.Errorf("child Depth() = %d, want 2", child.Depth())
	}

	if got, err := child.FieldString("b"); err != nil || got != "hi" {
		t.Errorf("FieldString(b) = %q, %v, want %q, nil", got, err, "hi")
	}

	if err := child.Close(); err != nil {
		t.Fatalf("child Close() error = %v", err)
	}

	requireDepth(t, ipr, 1)

	if err := handle.Close(); err != nil {
		t.Fatalf("parent Close() error = %v", err)
	}

	requireDepth(t, ipr, 0)
}

func TestFieldTableChain(t *testing.T) {
	ipr, handle := newTestTable(t, `t = {inner = {deep = {x = 3}}}`, "t")

	inner, err := handle.GetFieldTable("inner")
	if err != nil {
		t.Fatalf("GetFieldTable(inner) error = %v", err)
	}

	deep, err := inner.GetFieldTable("deep")
	if err != nil {
		t.Fatalf("GetFieldTable(deep) error = %v", err)
	}

	requireDepth(t, ipr, 3)

	if got, err := deep.FieldInt("x"); err != nil || got != 3 {
		t.Errorf("FieldInt(x) = %d, %v, want 3, nil", got, err)
	}

	// A parent lookup is fine while descendants are open; the slot above it
	// stays untouched.
	if got, err := handle.TypeOfField("inner"); err != nil || got != KindTable {
		t.Errorf("TypeOfField(inner) = %v, %v, want KindTable, nil", got, err)
	}

	for _, h := range []*TableHandle{deep, inner, handle} {
		if err := h.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}

	requireDepth(t, ipr, 0)
}

func TestSequentialSiblings(t *testing.T) {
	ipr, handle := newTestTable(t, `t = {one = {v = 1}, two = {v = 2}}`, "t")

	for _, tt := range []struct {
		field string
		want  int64
	}{
		{"one", 1},
		{"two", 2},
	} {
		child, err := handle.GetFieldTable(tt.field)
		if err != nil {
			t.Fatalf("GetFieldTable(%s) error = %v", tt.field, err)
		}

		if got, err := child.FieldInt("v"); err != nil || got != tt.want {
			t.Errorf("FieldInt(v) = %d, %v, want %d, nil", got, err, tt.want)
		}

		if err := child.Close(); err != nil {
			t.Fatalf("child Close() error = %v", err)
		}

		requireDepth(t, ipr, 1)
	}
}

func TestGetGlobalTableMismatch(t *testing.T) {
	ipr := newTestInterpreter(t)

	if err := ipr.RunChunk(`x = 42`); err != nil {
		t.Fatalf("RunChunk() error = %v", err)
	}

	_, err := ipr.GetGlobalTable("x")
	if err == nil || err.Error() != "variable x is not table" {
		t.Errorf("GetGlobalTable(x) error = %v, want table mismatch", err)
	}

	requireDepth(t, ipr, 0)
}

func TestGetFieldTableMismatch(t *testing.T) {
	ipr, handle := newTestTable(t, `t = {a = 1}`, "t")

	_, err := handle.GetFieldTable("a")
	if err == nil || err.Error() != "variable a is not table" {
		t.Errorf("GetFieldTable(a) error = %v, want table mismatch", err)
	}

	requireDepth(t, ipr, 1)

	// The parent handle stays usable after the failed child open.
	if got, err := handle.FieldInt("a"); err != nil || got != 1 {
		t.Errorf("FieldInt(a) = %d, %v, want 1, nil", got, err)
	}
}

func TestHandleKindNotRequestable(t *testing.T) {
	ipr, handle := newTestTable(t, `t = {a = 1}`, "t")

	if _, err := handle.GetField("a", KindTable); !stderrors.Is(err, errors2.ErrKindNotRequestable) {
		t.Errorf("GetField() error = %v, want ErrKindNotRequestable", err)
	}

	if _, err := handle.GetIndex(1, KindNil); !stderrors.Is(err, errors2.ErrKindNotRequestable) {
		t.Errorf("GetIndex() error = %v, want ErrKindNotRequestable", err)
	}

	requireDepth(t, ipr, 1)
}

func TestHandleUseAfterClose(t *testing.T) {
	_, handle := newTestTable(t, `t = {a = 1}`, "t")

	if err := handle.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := handle.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if _, err := handle.FieldInt("a"); !stderrors.Is(err, errors2.ErrHandleClosed) {
		t.Errorf("FieldInt() error = %v, want ErrHandleClosed", err)
	}

	if _, err := handle.Length(); !stderrors.Is(err, errors2.ErrHandleClosed) {
		t.Errorf("Length() error = %v, want ErrHandleClosed", err)
	}

	if _, err := handle.GetFieldTable("a"); !stderrors.Is(err, errors2.ErrHandleClosed) {
		t.Errorf("GetFieldTable() error = %v, want ErrHandleClosed", err)
	}
}

func TestCloseParentBeforeChildCorrupts(t *testing.T) {
	ipr, parent := newTestTable(t, `t = {inner = {v = 1}}`, "t")

	child, err := parent.GetFieldTable("inner")
	if err != nil {
		t.Fatalf("GetFieldTable(inner) error = %v", err)
	}

	// Closing the parent pops the slot on top of the stack, which belongs to
	// the child. The parent cannot tell, so its Close succeeds.
	if err := parent.Close(); err != nil {
		t.Fatalf("parent Close() error = %v", err)
	}

	_, err = child.FieldInt("v")

	var corrupted *errors2.CorruptedStackError
	if !stderrors.As(err, &corrupted) {
		t.Fatalf("child FieldInt() error = %v, want CorruptedStackError", err)
	}

	if corrupted.Recorded != 2 || corrupted.Current != 1 {
		t.Errorf("CorruptedStackError depths = %d/%d, want 2/1", corrupted.Recorded, corrupted.Current)
	}

	if corrupted.GUID != ipr.GUID() {
		t.Errorf("CorruptedStackError GUID = %q, want %q", corrupted.GUID, ipr.GUID())
	}

	// The corruption poisons every accessor of this interpreter.
	if _, err := ipr.GetGlobal("t", KindType); !stderrors.As(err, &corrupted) {
		t.Errorf("GetGlobal() error = %v, want CorruptedStackError", err)
	}

	if err := ipr.RunChunk(`x = 1`); !stderrors.As(err, &corrupted) {
		t.Errorf("RunChunk() error = %v, want CorruptedStackError", err)
	}

	if _, err := ipr.GetGlobalTable("t"); !stderrors.As(err, &corrupted) {
		t.Errorf("GetGlobalTable() error = %v, want CorruptedStackError", err)
	}

	if err := ipr.ClearGlobals("t"); !stderrors.As(err, &corrupted) {
		t.Errorf("ClearGlobals() error = %v, want CorruptedStackError", err)
	}

	if err := child.Close(); !stderrors.As(err, &corrupted) {
		t.Errorf("child Close() error = %v, want CorruptedStackError", err)
	}
}

func TestInterpreterCloseKeepsHandleAlive(t *testing.T) {
	ipr, handle := newTestTable(t, `t = {a = 11, inner = {b = 12}}`, "t")

	if err := ipr.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// The handle holds its own reference on the shared state, so lookups
	// keep working after the interpreter value closed.
	if got, err := handle.FieldInt("a"); err != nil || got != 11 {
		t.Errorf("FieldInt(a) = %d, %v, want 11, nil", got, err)
	}

	child, err := handle.GetFieldTable("inner")
	if err != nil {
		t.Fatalf("GetFieldTable(inner) error = %v", err)
	}

	if got, err := child.FieldInt("b"); err != nil || got != 12 {
		t.Errorf("FieldInt(b) = %d, %v, want 12, nil", got, err)
	}

	if err := child.Close(); err != nil {
		t.Fatalf("child Close() error = %v", err)
	}

	if err := handle.Close(); err != nil {
		t.Fatalf("handle Close() error = %v", err)
	}
}
