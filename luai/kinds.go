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
	"math"
	"strconv"
	"strings"

	"github.com/croessner/luascope/definitions"

	lua "github.com/yuin/gopher-lua"
)

// Kind selects the native type a lookup converts a Lua value into.
type Kind uint8

const (
	// KindNil classifies a missing value. It appears as the result of
	// KindType probes and is not requestable as a scalar.
	KindNil Kind = iota

	// KindInt requests an integral number. Numbers with a fractional part
	// and numeric strings are rejected.
	KindInt

	// KindNumber requests a floating point number. Strings convertible to a
	// number are accepted, following the runtime's coercion rules.
	KindNumber

	// KindString requests a string. Numbers convert to their string form.
	KindString

	// KindBool requests a boolean. No coercion takes place.
	KindBool

	// KindTable classifies a table. Tables are opened with GetGlobalTable,
	// GetFieldTable and GetIndexTable, never read as scalars.
	KindTable

	// KindType requests a classification of the found value instead of a
	// payload. Lookups with KindType never fail with a type mismatch.
	KindType

	// KindOther classifies functions, userdata and threads. It appears as
	// the result of KindType probes and is not requestable as a scalar.
	KindOther
)

// String returns the name of the kind as used in configuration and logging.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return definitions.KindNilName
	case KindInt:
		return definitions.KindIntName
	case KindNumber:
		return definitions.KindNumberName
	case KindString:
		return definitions.KindStringName
	case KindBool:
		return definitions.KindBoolName
	case KindTable:
		return definitions.KindTableName
	case KindType:
		return definitions.KindTypeName
	case KindOther:
		return definitions.KindOtherName
	}

	return ""
}

// kindSpec couples the acceptance check of a requestable kind with its
// converter and the diagnostic fragment used in mismatch errors.
type kindSpec struct {
	expected string
	check    func(lv lua.LValue) bool
	convert  func(lv lua.LValue) Value
}

// kindSpecs drives the scalar lookups. Kinds without an entry cannot be
// requested as scalars and are rejected with ErrKindNotRequestable.
var kindSpecs = map[Kind]kindSpec{
	KindInt:    {expected: "integer", check: checkInt, convert: convertInt},
	KindNumber: {expected: "number or string convertible to number", check: checkNumber, convert: convertNumber},
	KindString: {expected: "string or number", check: checkString, convert: convertString},
	KindBool:   {expected: "boolean", check: checkBool, convert: convertBool},
	KindType:   {check: checkAny, convert: convertType},
}

func checkInt(lv lua.LValue) bool {
	_, ok := integralNumber(lv)

	return ok
}

func convertInt(lv lua.LValue) Value {
	i, _ := integralNumber(lv)

	return Value{kind: KindInt, i: i}
}

func checkNumber(lv lua.LValue) bool {
	_, ok := toNumber(lv)

	return ok
}

func convertNumber(lv lua.LValue) Value {
	f, _ := toNumber(lv)

	return Value{kind: KindNumber, f: f}
}

func checkString(lv lua.LValue) bool {
	return lua.LVCanConvToString(lv)
}

func convertString(lv lua.LValue) Value {
	return Value{kind: KindString, s: lua.LVAsString(lv)}
}

func checkBool(lv lua.LValue) bool {
	return lv.Type() == lua.LTBool
}

func convertBool(lv lua.LValue) Value {
	return Value{kind: KindBool, b: lua.LVAsBool(lv)}
}

func checkAny(_ lua.LValue) bool {
	return true
}

func convertType(lv lua.LValue) Value {
	return Value{kind: classify(lv)}
}

// classify maps a runtime value to its Kind, splitting Lua numbers into
// integral and fractional ones.
func classify(lv lua.LValue) Kind {
	switch lv.Type() {
	case lua.LTNil:
		return KindNil
	case lua.LTBool:
		return KindBool
	case lua.LTNumber:
		if _, ok := integralNumber(lv); ok {
			return KindInt
		}

		return KindNumber
	case lua.LTString:
		return KindString
	case lua.LTTable:
		return KindTable
	default:
		return KindOther
	}
}

// integralNumber reports whether lv is a Lua number without a fractional
// part that fits into an int64. Numeric strings do not qualify.
func integralNumber(lv lua.LValue) (int64, bool) {
	n, ok := lv.(lua.LNumber)
	if !ok {
		return 0, false
	}

	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return 0, false
	}

	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}

	return int64(f), true
}

// toNumber converts Lua numbers directly and strings through the same rules
// the runtime applies for arithmetic coercion: integer syntax in any base
// strconv understands first, floating point syntax second.
func toNumber(lv lua.LValue) (float64, bool) {
	switch v := lv.(type) {
	case lua.LNumber:
		return float64(v), true
	case lua.LString:
		return numberFromString(string(v))
	default:
		return 0, false
	}
}

func numberFromString(s string) (float64, bool) {
	s = strings.Trim(s, " \t\n")
	if s == "" {
		return 0, false
	}

	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return float64(i), true
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}

	return 0, false
}
