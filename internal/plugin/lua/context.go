package lua

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/threadline/internal/plugin"
)

// contextTable builds the ctx table handed to a Lua plugin.
func (r *Runtime) contextTable(L *lua.LState, wc plugin.Context, origin string) *lua.LTable {
	t := L.NewTable()

	L.SetField(t, "conf", L.NewFunction(func(L *lua.LState) int {
		L.Push(ToLua(L, wc.Conf()))
		return 1
	}))

	L.SetField(t, "update_conf", L.NewFunction(func(L *lua.LState) int {
		conf := tableToMap(L.Get(1))
		if conf == nil {
			L.ArgError(1, "table expected")
			return 0
		}
		wc.UpdateConf(conf)
		return 0
	}))

	L.SetField(t, "trigger", L.NewFunction(func(L *lua.LState) int {
		wc.Trigger(L.CheckString(1), ToGo(L.Get(2)))
		return 0
	}))

	L.SetField(t, "on", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		fn := L.CheckFunction(2)
		id := wc.On(name, func(payload any) {
			err := r.exec.Go(func(L *lua.LState) error {
				return r.call(context.Background(), L, origin, fn, ToLua(L, payload))
			})
			if err != nil {
				r.logger.Warn("dropping lua event handler", "event", name, "error", err)
			}
		})
		L.Push(lua.LString(id))
		return 1
	}))

	L.SetField(t, "off", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(wc.Off(L.CheckString(1))))
		return 1
	}))

	L.SetField(t, "service", L.NewFunction(func(L *lua.LState) int {
		svc, ok := wc.Service(L.CheckString(1))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(ToLua(L, svc))
		return 1
	}))

	L.SetField(t, "log", L.NewFunction(func(L *lua.LState) int {
		level := L.CheckString(1)
		msg := L.CheckString(2)
		logger := wc.Logger().With("plugin", origin)
		switch level {
		case "trace":
			logger.Trace(msg)
		case "debug":
			logger.Debug(msg)
		case "warn":
			logger.Warn(msg)
		case "error":
			logger.Error(msg)
		default:
			logger.Info(msg)
		}
		return 0
	}))

	return t
}
