package lualib

import (
	"net/http"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestPreloadRegistersModules(t *testing.T) {
	L := lua.NewState()

	defer L.Close()

	Preload(L, nil)

	err := L.DoString(`
		local json = require("json")
		encoded = json.encode({1, 2, 3})

		local crypto = require("glua_crypto")
		has_crypto = type(crypto) == "table"

		local ok = pcall(require, "glua_http")
		http_absent = not ok
	`)
	if err != nil {
		t.Fatalf("Lua code execution failed: %v", err)
	}

	if got := lua.LVAsString(L.GetGlobal("encoded")); got != "[1,2,3]" {
		t.Errorf("encoded = %q, want %q", got, "[1,2,3]")
	}

	if L.GetGlobal("has_crypto") != lua.LTrue {
		t.Error("glua_crypto should be requirable")
	}

	if L.GetGlobal("http_absent") != lua.LTrue {
		t.Error("glua_http must not load without an HTTP client")
	}
}

func TestPreloadWithHTTPClient(t *testing.T) {
	L := lua.NewState()

	defer L.Close()

	Preload(L, &http.Client{})

	err := L.DoString(`
		local http = require("glua_http")
		has_http = type(http) == "table"
	`)
	if err != nil {
		t.Fatalf("Lua code execution failed: %v", err)
	}

	if L.GetGlobal("has_http") != lua.LTrue {
		t.Error("glua_http should be requirable with an HTTP client")
	}
}
