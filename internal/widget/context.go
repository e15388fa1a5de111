package widget

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/dshills/threadline/internal/api"
	"github.com/dshills/threadline/internal/config"
	"github.com/dshills/threadline/internal/event"
	"github.com/dshills/threadline/internal/plugin"
)

// API is the server API used while mounting.
type API interface {
	Conf(ctx context.Context) (*api.ConfData, error)
}

// RemoteLoader loads the plugins listed by the server.
type RemoteLoader interface {
	Load(ctx context.Context, items []api.PluginItem, apiBase string) []*plugin.Plugin
}

// Context is the per-instance object shared with every plugin.
// It implements plugin.Context.
type Context struct {
	id      string
	logger  hclog.Logger
	bus     *event.Bus
	surface ErrorSurface
	loader  RemoteLoader
	version string

	// registry is nil when the process-wide registry is used.
	registry *plugin.Registry
	plugins  *plugin.Set
	loaded   *plugin.Set
	mounted  atomic.Bool

	// localLoaded is set once the local plugins of a mount have been
	// invoked. Plugins added after that are invoked by Use directly.
	localLoaded atomic.Bool

	mu        sync.RWMutex
	conf      config.Conf
	services  map[string]any
	api       API
	apiFixed  bool
	apiServer string
}

// ID returns the instance ID.
func (c *Context) ID() string {
	return c.id
}

// Conf returns a copy of the effective configuration.
func (c *Context) Conf() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return config.Clone(c.conf)
}

// UpdateConf deep-merges conf into the effective configuration and
// triggers conf-updated with a copy of the result.
func (c *Context) UpdateConf(conf map[string]any) {
	c.mu.Lock()
	old := c.conf
	c.conf = config.Merge(old, conf)
	changed := config.ChangedPaths(old, c.conf)
	snapshot := config.Clone(c.conf)
	c.mu.Unlock()

	c.logger.Debug("configuration updated", "changed", changed)
	c.bus.Trigger(EventConfUpdated, snapshot)
}

// Trigger publishes an event.
func (c *Context) Trigger(name string, payload any) {
	c.bus.Trigger(name, payload)
}

// On subscribes fn to events named name.
func (c *Context) On(name string, fn func(payload any)) string {
	return c.bus.On(name, fn)
}

// Off cancels a subscription.
func (c *Context) Off(id string) bool {
	return c.bus.Off(id)
}

// Inject registers a named service, replacing any previous one.
func (c *Context) Inject(name string, svc any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = svc
}

// Service returns an injected service.
func (c *Context) Service(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	svc, ok := c.services[name]
	return svc, ok
}

// Logger returns the instance logger.
func (c *Context) Logger() hclog.Logger {
	return c.logger
}

// Registry returns the registry the instance draws plugins and options from.
func (c *Context) Registry() *plugin.Registry {
	if c.registry != nil {
		return c.registry
	}
	return plugin.Global()
}

// Plugins returns the plugins invoked in the local step of a mount:
// the registry's plugins followed by the instance's own.
func (c *Context) Plugins() []*plugin.Plugin {
	set := plugin.NewSet(c.Registry().Plugins()...)
	for _, p := range c.plugins.List() {
		set.Add(p)
	}
	return set.List()
}

// Loaded returns the plugins invoked so far, in invocation order.
func (c *Context) Loaded() []*plugin.Plugin {
	return c.loaded.List()
}

// Mounted reports whether a mount has completed.
func (c *Context) Mounted() bool {
	return c.mounted.Load()
}

// API returns the API client for the configured server. Unless a client
// was supplied with WithAPI, it is created from the server key and
// recreated when the server changes.
func (c *Context) API() (API, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.apiFixed {
		return c.api, nil
	}

	server, err := config.ServerURL(c.conf)
	if err != nil {
		return nil, err
	}
	if c.api != nil && c.apiServer == server {
		return c.api, nil
	}

	client, err := api.New(server,
		api.WithLogger(c.logger.Named("api")),
		api.WithVersion(c.version),
	)
	if err != nil {
		return nil, err
	}
	c.api = client
	c.apiServer = server
	c.services[ServiceAPI] = client
	return client, nil
}

// newContext builds a Context. conf becomes the effective configuration.
func newContext(conf config.Conf, o *options) *Context {
	c := &Context{
		id:       uuid.NewString(),
		surface:  o.surface,
		loader:   o.loader,
		version:  o.clientVersion,
		registry: o.registry,
		plugins:  plugin.NewSet(),
		loaded:   plugin.NewSet(),
		conf:     conf,
		services: make(map[string]any),
	}
	c.logger = o.logger.With("instance", c.id)
	c.bus = event.NewBus(event.WithLogger(c.logger.Named("event")))
	if c.surface == nil {
		c.surface = eventSurface{}
	}
	if o.api != nil {
		c.api = o.api
		c.apiFixed = true
		c.services[ServiceAPI] = o.api
	}
	c.services[ServiceVersion] = o.clientVersion
	return c
}
