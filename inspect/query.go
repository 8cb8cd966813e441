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

package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/croessner/luascope/definitions"
	"github.com/croessner/luascope/luai"
)

// query is one typed lookup against the globals a script run left behind.
// The path descends through tables; the kind applies to the last step.
type query struct {
	raw  string
	path []step
	kind luai.Kind

	// auto marks a query without an explicit kind suffix. The value is
	// probed first and then fetched as whatever kind the probe reported.
	auto bool
}

// step is one segment of a dotted path, either a field name or a 1-based
// index.
type step struct {
	field   string
	index   int
	isIndex bool
}

var kindsByName = map[string]luai.Kind{
	definitions.KindIntName:    luai.KindInt,
	definitions.KindNumberName: luai.KindNumber,
	definitions.KindStringName: luai.KindString,
	definitions.KindBoolName:   luai.KindBool,
	definitions.KindTableName:  luai.KindTable,
	definitions.KindTypeName:   luai.KindType,
}

// parseQueries turns the raw --query arguments into evaluatable queries.
func parseQueries(raw []string) ([]query, error) {
	queries := make([]query, 0, len(raw))

	for _, one := range raw {
		q, err := parseQuery(one)
		if err != nil {
			return nil, err
		}

		queries = append(queries, q)
	}

	return queries, nil
}

// parseQuery parses PATH[:KIND]. The path grammar is
//
//	path    := name ( '.' name | '[' digits ']' )*
//
// where name is a Lua identifier. The optional kind is one of int, number,
// string, bool, table and type; without it the query probes the value and
// fetches it as the probed kind.
func parseQuery(raw string) (query, error) {
	spec := raw
	kind := luai.KindType
	auto := true

	if i := strings.LastIndexByte(spec, ':'); i >= 0 {
		name := spec[i+1:]
		spec = spec[:i]

		k, ok := kindsByName[name]
		if !ok {
			return query{}, fmt.Errorf("unknown kind %q in query %q", name, raw)
		}

		kind = k
		auto = false
	}

	path, err := parsePath(spec)
	if err != nil {
		return query{}, fmt.Errorf("invalid query %q: %w", raw, err)
	}

	return query{raw: raw, path: path, kind: kind, auto: auto}, nil
}

func parsePath(spec string) ([]step, error) {
	if spec == "" {
		return nil, fmt.Errorf("empty path")
	}

	var steps []step

	rest := spec
	expectName := true

	for len(rest) > 0 {
		switch {
		case rest[0] == '.':
			if expectName {
				return nil, fmt.Errorf("empty segment")
			}

			rest = rest[1:]
			expectName = true
		case rest[0] == '[':
			if expectName {
				if len(steps) == 0 {
					return nil, fmt.Errorf("path must start with a global name")
				}

				return nil, fmt.Errorf("expected a name after '.'")
			}

			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated index")
			}

			index, err := strconv.Atoi(rest[1:end])
			if err != nil {
				return nil, fmt.Errorf("invalid index %q", rest[1:end])
			}

			steps = append(steps, step{index: index, isIndex: true})
			rest = rest[end+1:]
		default:
			if !expectName {
				return nil, fmt.Errorf("unexpected character %q", rest[0])
			}

			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}

			name := rest[:end]
			if !validName(name) {
				return nil, fmt.Errorf("invalid name %q", name)
			}

			steps = append(steps, step{field: name})
			rest = rest[end:]
			expectName = false
		}
	}

	if expectName {
		return nil, fmt.Errorf("trailing '.'")
	}

	return steps, nil
}

// validName reports whether name is a Lua identifier.
func validName(name string) bool {
	if name == "" {
		return false
	}

	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}

		if i > 0 && unicode.IsDigit(r) {
			continue
		}

		return false
	}

	return true
}

// queryResult is the outcome of one evaluated query.
type queryResult struct {
	Query  string
	Kind   luai.Kind
	Value  luai.Value
	Length int

	// Probe marks a ':type' query whose answer is the classification alone.
	Probe bool

	Err error
}

// evaluate walks the query path through table handles and reads the final
// step with the requested kind. All handles are closed again in reverse
// order, so the interpreter comes back with a balanced stack.
func evaluate(ipr *luai.Interpreter, q query) queryResult {
	result := queryResult{
		Query: q.raw,
		Probe: !q.auto && q.kind == luai.KindType,
	}

	last := len(q.path) - 1

	if last == 0 {
		result.Kind, result.Value, result.Length, result.Err = readGlobal(ipr, q.path[0].field, q)

		return result
	}

	var handles []*luai.TableHandle

	defer func() {
		for i := len(handles) - 1; i >= 0; i-- {
			_ = handles[i].Close()
		}
	}()

	current, err := ipr.GetGlobalTable(q.path[0].field)
	if err != nil {
		result.Err = err

		return result
	}

	handles = append(handles, current)

	for _, s := range q.path[1:last] {
		var child *luai.TableHandle

		if s.isIndex {
			child, err = current.GetIndexTable(s.index)
		} else {
			child, err = current.GetFieldTable(s.field)
		}

		if err != nil {
			result.Err = err

			return result
		}

		handles = append(handles, child)
		current = child
	}

	result.Kind, result.Value, result.Length, result.Err = readStep(current, q.path[last], q)

	return result
}

func readGlobal(ipr *luai.Interpreter, name string, q query) (luai.Kind, luai.Value, int, error) {
	return readTyped(
		func(kind luai.Kind) (luai.Value, error) { return ipr.GetGlobal(name, kind) },
		func() (*luai.TableHandle, error) { return ipr.GetGlobalTable(name) },
		q,
	)
}

func readStep(handle *luai.TableHandle, s step, q query) (luai.Kind, luai.Value, int, error) {
	if s.isIndex {
		return readTyped(
			func(kind luai.Kind) (luai.Value, error) { return handle.GetIndex(s.index, kind) },
			func() (*luai.TableHandle, error) { return handle.GetIndexTable(s.index) },
			q,
		)
	}

	return readTyped(
		func(kind luai.Kind) (luai.Value, error) { return handle.GetField(s.field, kind) },
		func() (*luai.TableHandle, error) { return handle.GetFieldTable(s.field) },
		q,
	)
}

// readTyped resolves the kind to fetch and reads the value. Auto queries
// probe first and follow the probed kind; tables are opened briefly to take
// their length.
func readTyped(read func(luai.Kind) (luai.Value, error), openTable func() (*luai.TableHandle, error), q query) (luai.Kind, luai.Value, int, error) {
	kind := q.kind

	if q.auto {
		value, err := read(luai.KindType)
		if err != nil {
			return kind, luai.Value{}, 0, err
		}

		probed := value.Kind()

		switch probed {
		case luai.KindNil, luai.KindOther:
			return probed, value, 0, nil
		}

		kind = probed
	} else if kind == luai.KindType {
		value, err := read(luai.KindType)

		return value.Kind(), value, 0, err
	}

	if kind == luai.KindTable {
		handle, err := openTable()
		if err != nil {
			return kind, luai.Value{}, 0, err
		}

		length, err := handle.Length()
		if closeErr := handle.Close(); err == nil {
			err = closeErr
		}

		return luai.KindTable, luai.Value{}, length, err
	}

	value, err := read(kind)

	return kind, value, 0, err
}
