package plugin

import (
	"context"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
)

// Context is the shared per-instance object handed to every plugin.
// It is implemented by widget.Context.
type Context interface {
	// Conf returns a copy of the effective configuration.
	Conf() map[string]any

	// UpdateConf deep-merges conf into the effective configuration.
	UpdateConf(conf map[string]any)

	// Trigger publishes an event to subscribers of name.
	Trigger(name string, payload any)

	// On subscribes fn to events named name and returns the subscription ID.
	On(name string, fn func(payload any)) string

	// Off cancels a subscription. Returns false if id is unknown.
	Off(id string) bool

	// Inject registers a named service.
	Inject(name string, svc any)

	// Service returns a previously injected service.
	Service(name string) (any, bool)

	// Logger returns the instance logger.
	Logger() hclog.Logger
}

// Func is the callable behind a plugin.
type Func func(ctx context.Context, wc Context, opts *Options) error

// Options holds the options attached to a plugin.
type Options struct {
	// Raw is the options payload as received (JSON text for remote plugins).
	Raw string

	// Value is the decoded payload.
	Value any
}

var nextID atomic.Uint64

// Plugin is a registered callable. Plugins are compared by identity.
type Plugin struct {
	id     uint64
	name   string
	origin string
	fn     Func
}

// New creates a plugin with a fresh identity.
func New(name string, fn Func) *Plugin {
	return NewWithOrigin(name, "", fn)
}

// NewWithOrigin creates a plugin that records where it was loaded from
// (a script URL or file path).
func NewWithOrigin(name, origin string, fn Func) *Plugin {
	return &Plugin{
		id:     nextID.Add(1),
		name:   name,
		origin: origin,
		fn:     fn,
	}
}

// ID returns the stable identifier of the plugin.
func (p *Plugin) ID() uint64 {
	return p.id
}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return p.name
}

// Origin returns where the plugin was loaded from, or "" for Go plugins.
func (p *Plugin) Origin() string {
	return p.origin
}

// Callable reports whether the plugin can be invoked.
func (p *Plugin) Callable() bool {
	return p != nil && p.fn != nil
}

// String returns the plugin name.
func (p *Plugin) String() string {
	if p == nil {
		return "<nil>"
	}
	return p.name
}
