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

package definitions

// DbgModule represents a debug module identifier.
type DbgModule uint8

func (d DbgModule) String() string {
	switch d {
	case DbgNone:
		return DbgNoneName
	case DbgAll:
		return DbgAllName
	case DbgInterp:
		return DbgInterpName
	case DbgStack:
		return DbgStackName
	case DbgConvert:
		return DbgConvertName
	case DbgCompile:
		return DbgCompileName
	case DbgCache:
		return DbgCacheName
	case DbgPool:
		return DbgPoolName
	case DbgStats:
		return DbgStatsName
	default:
		return ""
	}
}
