package builtin

import (
	"context"
	"sync"

	"github.com/dshills/threadline/internal/config"
	"github.com/dshills/threadline/internal/plugin"
)

// DarkMode returns a plugin that triggers dark-mode with the current
// darkMode value (true, false or "auto") when loaded and whenever it
// changes.
func DarkMode() *plugin.Plugin {
	return plugin.New("dark-mode", func(_ context.Context, wc plugin.Context, _ *plugin.Options) error {
		var (
			mu      sync.Mutex
			current any
			seen    bool
		)
		apply := func(conf config.Conf) {
			mode := darkModeValue(conf)
			mu.Lock()
			if seen && mode == current {
				mu.Unlock()
				return
			}
			seen, current = true, mode
			mu.Unlock()

			wc.Trigger(EventDarkMode, mode)
		}

		wc.On(EventConfUpdated, func(payload any) {
			if conf, ok := payload.(config.Conf); ok {
				apply(conf)
			}
		})
		apply(wc.Conf())
		return nil
	})
}

// darkModeValue normalizes darkMode to true, false or "auto".
func darkModeValue(conf config.Conf) any {
	v, _ := config.GetByPath(conf, config.KeyDarkMode)
	switch m := v.(type) {
	case bool:
		return m
	case string:
		switch m {
		case "auto":
			return "auto"
		case "true", "1":
			return true
		}
	}
	return false
}
