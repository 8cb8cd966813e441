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

package lualib

import (
	stdhttp "net/http"

	"github.com/cjoudrey/gluahttp"
	gluacrypto "github.com/tengattack/gluacrypto/crypto"
	libs "github.com/vadv/gopher-lua-libs"
	lua "github.com/yuin/gopher-lua"
)

// Preload registers the bundled third party modules on L. Scripts pull them
// in with require after the state opened its standard libraries.
func Preload(L *lua.LState, httpClient *stdhttp.Client) {
	// Preload all gopher-lua-libs at once.
	libs.Preload(L)

	L.PreloadModule("glua_crypto", gluacrypto.Loader)

	// Special case glua_http: needs an httpClient.
	if httpClient != nil {
		httpModule := gluahttp.NewHttpModule(httpClient)

		L.PreloadModule("glua_http", httpModule.Loader)
	}
}
