// Package luapool provides pools for reusing Lua interpreters.
package luapool

import (
	"sync"

	"github.com/croessner/luascope/config"
	"github.com/croessner/luascope/definitions"
	"github.com/croessner/luascope/luai"
	"github.com/croessner/luascope/util"
)

// interpreterPool parks interpreters for the package-level Get and Put
// helpers.
var interpreterPool = sync.Pool{}

// NewDefaultInterpreter creates an interpreter sized from the environment
// configuration, with the standard libraries opened and, when configured,
// the extended module set preloaded.
// Note: The returned interpreter is not thread-safe. It is recommended to
// use a pool for managing interpreters in a concurrent environment.
func NewDefaultInterpreter() (*luai.Interpreter, error) {
	cfg := config.GetEnvironment()

	ipr, err := luai.NewInterpreter(luai.Options{
		RegistrySize:    cfg.LuaRegistrySize,
		RegistryMaxSize: cfg.LuaRegistryMaxSize,
		CallStackSize:   cfg.LuaCallStackSize,
	})
	if err != nil {
		return nil, err
	}

	if err = ipr.OpenLibraries(); err != nil {
		_ = ipr.Close()

		return nil, err
	}

	if cfg.ExtendedLibs {
		if err = ipr.OpenExtendedLibraries(nil); err != nil {
			_ = ipr.Close()

			return nil, err
		}
	}

	return ipr, nil
}

// Get returns an interpreter from the pool or creates a new one if the pool
// is empty.
func Get() (*luai.Interpreter, error) {
	if x := interpreterPool.Get(); x != nil {
		return x.(*luai.Interpreter), nil
	}

	util.DebugModule(
		definitions.DbgPool,
		definitions.LogKeyMsg, "creating new interpreter",
	)

	return NewDefaultInterpreter()
}

// Put resets the interpreter and returns it to the pool. Interpreters that
// are closed, corrupted or still hold stack slots are closed and dropped
// instead of being reused.
func Put(ipr *luai.Interpreter) {
	if ipr == nil {
		return
	}

	if ipr.Closed() || ipr.Corrupted() || ipr.StackDepth() != 0 {
		_ = ipr.Close()

		util.DebugModule(
			definitions.DbgPool,
			definitions.LogKeyGUID, ipr.GUID(),
			definitions.LogKeyMsg, "dirty interpreter dropped",
		)

		return
	}

	if err := ipr.Reset(); err != nil {
		_ = ipr.Close()

		return
	}

	interpreterPool.Put(ipr)
}
