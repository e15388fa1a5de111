package plugin

import "sync"

// OptionsStore resolves the options attached to a plugin.
type OptionsStore interface {
	Options(p *Plugin) (*Options, bool)
}

// Registry is the append-only collection of globally registered plugins
// together with their options. Entries are never removed.
type Registry struct {
	plugins *Set

	mu      sync.RWMutex
	options map[uint64]*Options
}

// NewRegistry creates a registry seeded with plugins.
func NewRegistry(plugins ...*Plugin) *Registry {
	return &Registry{
		plugins: NewSet(plugins...),
		options: make(map[uint64]*Options),
	}
}

// Register adds p if it is not already registered.
// Returns true if p was added.
func (r *Registry) Register(p *Plugin) bool {
	return r.plugins.Add(p)
}

// Has reports whether p is registered.
func (r *Registry) Has(p *Plugin) bool {
	return r.plugins.Has(p)
}

// Plugins returns the registered plugins in registration order.
func (r *Registry) Plugins() []*Plugin {
	return r.plugins.List()
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	return r.plugins.Len()
}

// SetOptions attaches opts to p, replacing any previous value.
// The plugin does not need to be registered.
func (r *Registry) SetOptions(p *Plugin, opts *Options) {
	if p == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.options[p.id] = opts
}

// Options returns the options attached to p.
func (r *Registry) Options(p *Plugin) (*Options, bool) {
	if p == nil {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	opts, ok := r.options[p.id]
	if !ok || opts == nil {
		return nil, false
	}
	return opts, true
}

var (
	globalMu sync.RWMutex
	global   = NewRegistry()
)

// Global returns the process-wide registry. Plugins registered here are
// available to every instance created afterwards.
func Global() *Registry {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// Use registers p in the process-wide registry.
func Use(p *Plugin) {
	Global().Register(p)
}

// ResetGlobal replaces the process-wide registry with an empty one.
// It exists for tests; instances already created keep their snapshot.
func ResetGlobal() {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = NewRegistry()
}
