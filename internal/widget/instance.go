package widget

import (
	"context"
	"io"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/dshills/threadline/internal/config"
	"github.com/dshills/threadline/internal/plugin"
	"github.com/dshills/threadline/internal/plugin/builtin"
	"github.com/dshills/threadline/internal/plugin/lua"
	"github.com/dshills/threadline/internal/plugin/netload"
)

// ClientVersion is the default version reported to the server.
const ClientVersion = "2.9.1"

var (
	sharedOnce   sync.Once
	sharedLoader *netload.Loader
)

// SharedLoader returns the loader used by instances drawing from the
// process-wide registry. Scripts it attaches are shared by all of them.
func SharedLoader() *netload.Loader {
	sharedOnce.Do(func() {
		logger := hclog.Default().Named("netload")
		rt := lua.NewRuntime(lua.WithLogger(logger.Named("lua")), lua.WithVersion(ClientVersion))
		sharedLoader = netload.NewLoader(rt, netload.WithLogger(logger))
	})
	return sharedLoader
}

// Instance is a mountable widget.
type Instance struct {
	ctx *Context

	mu        sync.Mutex
	local     config.Conf
	destroyed bool
	owned     io.Closer
}

// New creates an instance from the local configuration conf. Nothing is
// invoked or fetched until Mount.
func New(conf config.Conf, opts ...Option) *Instance {
	o := &options{
		logger:        hclog.NewNullLogger(),
		clientVersion: ClientVersion,
	}
	for _, opt := range opts {
		opt(o)
	}

	i := &Instance{local: config.Clone(conf)}
	if i.local == nil {
		i.local = config.Conf{}
	}

	if o.loader == nil {
		if o.registry == nil {
			o.loader = SharedLoader()
		} else {
			rt := lua.NewRuntime(lua.WithLogger(o.logger.Named("lua")), lua.WithVersion(o.clientVersion))
			o.loader = netload.NewLoader(rt,
				netload.WithLogger(o.logger.Named("netload")),
				netload.WithOptionsStore(o.registry),
			)
			i.owned = rt
		}
	}

	i.ctx = newContext(config.Merge(config.Defaults(), i.local), o)
	if !o.noDefaults {
		for _, p := range builtin.Defaults(o.clientVersion) {
			i.ctx.plugins.Add(p)
		}
	}
	return i
}

// Context returns the instance Context.
func (i *Instance) Context() *Context {
	return i.ctx
}

// ID returns the instance ID.
func (i *Instance) ID() string {
	return i.ctx.id
}

// Conf returns a copy of the effective configuration.
func (i *Instance) Conf() config.Conf {
	return i.ctx.Conf()
}

// Mount mounts the instance. Calling Mount again after a failure retries;
// plugins already invoked are skipped.
func (i *Instance) Mount(ctx context.Context) error {
	i.mu.Lock()
	if i.destroyed {
		i.mu.Unlock()
		return ErrDestroyed
	}
	local := config.Clone(i.local)
	i.mu.Unlock()

	return Mount(ctx, local, i.ctx)
}

// Use adds p to the instance. Once a mount has invoked the local plugins,
// including while the rest of that mount is still running, p is invoked
// immediately.
func (i *Instance) Use(ctx context.Context, p *plugin.Plugin) error {
	if i.isDestroyed() {
		return ErrDestroyed
	}
	if !i.ctx.plugins.Add(p) || !i.ctx.localLoaded.Load() {
		return nil
	}
	return plugin.LoadAll(ctx, i.ctx, []*plugin.Plugin{p}, i.ctx.loaded, i.ctx.Registry())
}

// Update merges conf into the local and effective configuration.
func (i *Instance) Update(conf config.Conf) *Instance {
	i.mu.Lock()
	i.local = config.Merge(i.local, conf)
	i.mu.Unlock()

	i.ctx.UpdateConf(conf)
	return i
}

// SetDarkMode sets darkMode to true, false or "auto".
func (i *Instance) SetDarkMode(mode any) {
	i.Update(config.Conf{config.KeyDarkMode: mode})
}

// On subscribes fn to events named name.
func (i *Instance) On(name string, fn func(payload any)) string {
	return i.ctx.On(name, fn)
}

// Off cancels a subscription.
func (i *Instance) Off(id string) bool {
	return i.ctx.Off(id)
}

// Trigger publishes an event.
func (i *Instance) Trigger(name string, payload any) {
	i.ctx.Trigger(name, payload)
}

// Loaded returns the plugins invoked so far.
func (i *Instance) Loaded() []*plugin.Plugin {
	return i.ctx.Loaded()
}

// Destroy triggers destroy, drops every subscription and releases the
// resources owned by the instance. It is safe to call more than once.
func (i *Instance) Destroy() error {
	i.mu.Lock()
	if i.destroyed {
		i.mu.Unlock()
		return nil
	}
	i.destroyed = true
	owned := i.owned
	i.mu.Unlock()

	i.ctx.Trigger(EventDestroy, nil)
	i.ctx.bus.Clear()

	if owned != nil {
		return owned.Close()
	}
	return nil
}

func (i *Instance) isDestroyed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.destroyed
}
