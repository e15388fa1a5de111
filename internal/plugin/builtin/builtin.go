package builtin

import (
	"github.com/dshills/threadline/internal/plugin"
)

// Event names triggered by the built-in plugins.
const (
	EventVersionMismatch = "version-mismatch"
	EventDarkMode        = "dark-mode"
	EventConfUpdated     = "conf-updated"
)

// Defaults returns fresh instances of the built-in plugins.
func Defaults(clientVersion string) []*plugin.Plugin {
	return []*plugin.Plugin{
		VersionCheck(clientVersion),
		DarkMode(),
	}
}
