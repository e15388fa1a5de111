package lua

import (
	"strings"

	"github.com/hashicorp/go-hclog"
	lua "github.com/yuin/gopher-lua"
)

// ModuleName is the global table scripts use to reach the host.
const ModuleName = "threadline"

// removedGlobals can load code from outside the script being executed.
var removedGlobals = []string{"dofile", "loadfile", "load", "loadstring"}

// requirable lists the modules require may return.
var requirable = map[string]bool{
	"string":   true,
	"table":    true,
	"math":     true,
	ModuleName: true,
}

// openSandbox opens the safe standard libraries on L and installs the
// restricted globals. io, os, debug and package are never opened.
func openSandbox(L *lua.LState, logger hclog.Logger) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		logger.Info(strings.Join(parts, "\t"))
		return 0
	}))

	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if !requirable[name] {
			L.RaiseError("module %q is not available", name)
			return 0
		}
		L.Push(L.GetGlobal(name))
		return 1
	}))
}
