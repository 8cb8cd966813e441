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
)

// Value is the result of a typed lookup. It carries the Kind that was
// requested, or classified for KindType probes, plus at most one native
// payload. The zero Value has KindNil and no payload.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
}

// Kind returns the kind stored in the value.
func (v Value) Kind() Kind {
	return v.kind
}

// Int returns the integer payload of a KindInt value.
func (v Value) Int() int64 {
	return v.i
}

// Number returns the floating point payload. KindInt values convert to
// their float form.
func (v Value) Number() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}

	return v.f
}

// Bool returns the boolean payload of a KindBool value.
func (v Value) Bool() bool {
	return v.b
}

// String implements fmt.Stringer. KindString values return their payload,
// the other scalar kinds format theirs, payload-free kinds return the kind
// name.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindNumber:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.kind.String()
	}
}
