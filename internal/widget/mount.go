package widget

import (
	"context"

	"github.com/dshills/threadline/internal/api"
	"github.com/dshills/threadline/internal/config"
	"github.com/dshills/threadline/internal/plugin"
)

// Mount runs the mount steps for wc with local as the local configuration.
//
// An error invoking a local plugin is returned as is. A failure fetching
// the server configuration is shown once through the ErrorSurface, with a
// retry that calls Mount again with the same local configuration and
// Context, and then returned. Remote plugin failures are logged only.
func Mount(ctx context.Context, local config.Conf, wc *Context) error {
	logger := wc.logger.Named("mount")
	store := wc.Registry()

	if err := plugin.LoadAll(ctx, wc, wc.Plugins(), wc.loaded, store); err != nil {
		return err
	}
	if wc.localLoaded.CompareAndSwap(false, true) {
		// Catch plugins added while the first pass ran.
		if err := plugin.LoadAll(ctx, wc, wc.Plugins(), wc.loaded, store); err != nil {
			return err
		}
	}

	data, err := wc.fetchConf(ctx, local)
	if err != nil {
		logger.Error("failed to fetch server configuration", "error", err)
		wc.surface.ShowMountError(wc, err, func(ctx context.Context) error {
			return Mount(ctx, local, wc)
		})
		return err
	}

	conf := config.Resolve(local, data.FrontendConf, data.Version.Version)
	wc.UpdateConf(conf)

	if len(data.Plugins) > 0 && wc.loader != nil {
		base := config.String(wc.Conf(), config.KeyServer)
		remote := wc.loader.Load(ctx, data.Plugins, base)
		logger.Debug("remote plugins loaded", "descriptors", len(data.Plugins), "plugins", len(remote))
		if err := plugin.LoadAll(ctx, wc, remote, wc.loaded, store); err != nil {
			logger.Error("failed to load remote plugins", "error", err)
		}
	}

	wc.mounted.Store(true)
	wc.Trigger(EventMounted, wc.Conf())
	return nil
}

// fetchConf returns the server configuration. With useBackendConf set to
// false in the local configuration no request is made and the result is
// empty.
func (c *Context) fetchConf(ctx context.Context, local config.Conf) (*api.ConfData, error) {
	if _, ok := local[config.KeyUseBackendConf]; ok && !config.Bool(local, config.KeyUseBackendConf) {
		return &api.ConfData{}, nil
	}

	client, err := c.API()
	if err != nil {
		return nil, err
	}
	data, err := client.Conf(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = &api.ConfData{}
	}
	return data, nil
}
