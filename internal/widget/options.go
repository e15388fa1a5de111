package widget

import (
	"github.com/hashicorp/go-hclog"

	"github.com/dshills/threadline/internal/plugin"
)

type options struct {
	api           API
	registry      *plugin.Registry
	loader        RemoteLoader
	logger        hclog.Logger
	surface       ErrorSurface
	clientVersion string
	noDefaults    bool
}

// Option configures an Instance.
type Option func(*options)

// WithAPI sets a fixed API client instead of one built from the server key.
func WithAPI(a API) Option {
	return func(o *options) {
		o.api = a
	}
}

// WithRegistry makes the instance draw plugins and options from r instead
// of the process-wide registry.
func WithRegistry(r *plugin.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithLoader sets the remote plugin loader.
func WithLoader(l RemoteLoader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithLogger sets the instance logger.
func WithLogger(l hclog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithErrorSurface sets how fatal mount errors are shown.
func WithErrorSurface(s ErrorSurface) Option {
	return func(o *options) {
		o.surface = s
	}
}

// WithClientVersion sets the version compared against the server's.
func WithClientVersion(v string) Option {
	return func(o *options) {
		o.clientVersion = v
	}
}

// WithoutDefaultPlugins skips the built-in plugins.
func WithoutDefaultPlugins() Option {
	return func(o *options) {
		o.noDefaults = true
	}
}
