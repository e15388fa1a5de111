// Package config provides configuration handling for threadline.
//
// A configuration is a partial record of named options held in a nested
// map (Conf). Two sources contribute to the effective configuration of a
// mounted widget:
//
//	┌─────────────────────────────┐
//	│  remote (frontend_conf)     │  ← fetched from the server at mount
//	├─────────────────────────────┤
//	│  local                      │  ← caller options, files, environment
//	├─────────────────────────────┤
//	│  defaults                   │
//	└─────────────────────────────┘
//
// Which of local and remote wins on conflicting leaf keys is decided by the
// local preferRemoteConf flag; see Resolve. Merging is deep: nested maps are
// merged key by key, every other value is replaced as a whole.
//
// # Sub-packages
//
//   - loader: local configuration files (TOML, YAML, JSON) and environment variables
//   - watcher: fsnotify-based live reload of local configuration files
package config
