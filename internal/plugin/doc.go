// Package plugin provides the plugin registry for threadline.
//
// A plugin is a named callable that extends a mounted widget by mutating the
// shared Context it is handed: registering event handlers, injecting
// services or adjusting configuration. Plugins come from three places:
//
//   - built-in defaults (package builtin)
//   - Go code calling Use or Instance.Use
//   - Lua scripts executed by the network loader (package netload), which
//     register their exports through threadline.register(name, fn)
//
// # Identity
//
// Plugins are compared by identity, never by value. Registering the same
// *Plugin twice is a no-op, and a Set of loaded plugins guarantees each plugin is
// invoked at most once per mount lifecycle:
//
//	reg := plugin.Global()
//	reg.Register(p)
//	reg.Register(p) // ignored
//
//	loaded := plugin.NewSet()
//	_ = plugin.LoadAll(ctx, wc, reg.Plugins(), loaded, reg)
//	_ = plugin.LoadAll(ctx, wc, reg.Plugins(), loaded, reg) // p is skipped
//
// # Options
//
// The registry doubles as the options store. Options are keyed by plugin ID
// and looked up when the plugin is invoked, so options attached after
// registration are still observed:
//
//	reg.SetOptions(p, &plugin.Options{Raw: `{"size":3}`, Value: map[string]any{"size": 3}})
//
// Plugins without stored options receive nil.
package plugin
