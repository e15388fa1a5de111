// Package lua hosts plugin scripts written in Lua.
//
// A Runtime owns one gopher-lua state. Because an LState is not
// goroutine-safe, every operation on it is marshalled through an Executor
// goroutine. Scripts announce their plugins through the host registration
// channel:
//
//	threadline.register("hello", function(ctx, options)
//	    ctx.log("info", "hello from " .. ctx.conf().site)
//	    ctx.on("conf-updated", function(conf) end)
//	end)
//
// Each registered function becomes a *plugin.Plugin whose identity is
// stable for the lifetime of the Runtime: registering the same function
// twice yields the same plugin.
//
// # Sandbox
//
// Only the base, string, table and math libraries are opened. dofile,
// loadfile, load and loadstring are removed, print writes to the runtime
// logger and require resolves the opened libraries and the threadline
// module only.
//
// # Context table
//
// The first argument passed to a Lua plugin is a table bound to the widget
// Context:
//
//	ctx.conf()                 effective configuration
//	ctx.update_conf(tbl)       deep-merge into the configuration
//	ctx.trigger(name, payload) publish an event
//	ctx.on(name, fn) -> id     subscribe; handlers run asynchronously
//	ctx.off(id) -> bool        unsubscribe
//	ctx.log(level, msg)        write to the instance logger
//
// The second argument is the decoded plugin options, or nil.
package lua
