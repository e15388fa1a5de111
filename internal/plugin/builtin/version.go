package builtin

import (
	"context"
	"sync"

	"github.com/hashicorp/go-version"

	"github.com/dshills/threadline/internal/config"
	"github.com/dshills/threadline/internal/plugin"
)

// VersionCheck returns a plugin that compares the server version recorded
// in apiVersion with clientVersion and triggers version-mismatch when
// their major.minor differ. The payload is a map with the keys client,
// server and outdated ("client" or "server").
func VersionCheck(clientVersion string) *plugin.Plugin {
	return plugin.New("version-check", func(_ context.Context, wc plugin.Context, _ *plugin.Options) error {
		client, err := version.NewVersion(clientVersion)
		if err != nil {
			wc.Logger().Debug("version check disabled", "client_version", clientVersion, "error", err)
			return nil
		}

		var (
			mu      sync.Mutex
			checked string
		)
		check := func(conf config.Conf) {
			server := config.String(conf, config.KeyAPIVersion)
			mu.Lock()
			if server == "" || server == checked {
				mu.Unlock()
				return
			}
			checked = server
			mu.Unlock()

			mismatch, outdated := compareMinor(client, server)
			if !mismatch {
				return
			}
			wc.Logger().Warn("client and server versions differ",
				"client", client.String(), "server", server, "outdated", outdated)
			wc.Trigger(EventVersionMismatch, map[string]any{
				"client":   client.String(),
				"server":   server,
				"outdated": outdated,
			})
		}

		wc.On(EventConfUpdated, func(payload any) {
			if conf, ok := payload.(config.Conf); ok {
				check(conf)
			}
		})
		check(wc.Conf())
		return nil
	})
}

// compareMinor reports whether client and server differ in major.minor
// and which side is older. Unparseable server versions never mismatch.
func compareMinor(client *version.Version, server string) (bool, string) {
	sv, err := version.NewVersion(server)
	if err != nil {
		return false, ""
	}

	cs, ss := client.Segments(), sv.Segments()
	for i := 0; i < 2; i++ {
		if cs[i] == ss[i] {
			continue
		}
		if cs[i] < ss[i] {
			return true, "client"
		}
		return true, "server"
	}
	return false, ""
}
