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

// Package luai wraps the embedded gopher-lua virtual machine behind a typed
// accessor layer. An Interpreter owns one Lua state: it runs chunks and reads
// global variables back as native Go values. A TableHandle walks nested
// tables while the read value stays resident on the Lua operand stack.
//
// Every scalar lookup pushes exactly one value onto the stack, checks it
// against the requested Kind, converts it and pops it again, so the stack
// depth is unchanged after the call. Table lookups transfer the pushed slot
// to a handle instead; the handle releases the slot on Close. Handles must
// close in reverse creation order. A violated depth invariant marks the
// whole interpreter state corrupted and every further operation on it fails
// with a CorruptedStackError.
//
// Neither Interpreter nor TableHandle is safe for concurrent use. The
// luapool package hands out pooled interpreters for concurrent hosts.
package luai
