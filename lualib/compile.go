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

// Package lualib provides chunk precompilation and third party module
// preloading for embedded Lua states.
package lualib

import (
	"bufio"
	"os"
	"strings"

	"github.com/croessner/luascope/definitions"
	"github.com/croessner/luascope/stats"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// CompileChunk parses and compiles a chunk of Lua source into a function
// proto. The name appears in compiler and runtime diagnostics. Protos are
// stateless and can be run on any number of states.
func CompileChunk(source, name string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(strings.NewReader(source), name)
	if err != nil {
		return nil, err
	}

	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, err
	}

	return proto, nil
}

// CompileFile reads the passed Lua file from disk and compiles it.
func CompileFile(filePath string) (*lua.FunctionProto, error) {
	stopTimer := stats.PrometheusTimer(definitions.PromCompile, "lua_compile_file_total")

	if stopTimer != nil {
		defer stopTimer()
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}

	defer file.Close()

	reader := bufio.NewReader(file)

	chunk, err := parse.Parse(reader, filePath)
	if err != nil {
		return nil, err
	}

	proto, err := lua.Compile(chunk, filePath)
	if err != nil {
		return nil, err
	}

	return proto, nil
}
