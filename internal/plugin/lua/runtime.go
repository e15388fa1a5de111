package lua

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/threadline/internal/plugin"
)

// DefaultTimeout bounds a single script execution or plugin call.
const DefaultTimeout = 5 * time.Second

// Runtime executes plugin scripts and keeps the host registry of the
// plugins they register.
type Runtime struct {
	L       *lua.LState
	exec    *Executor
	logger  hclog.Logger
	timeout time.Duration
	version string
	queue   int

	// Only touched on the executor goroutine.
	chunk   string
	collect *[]*plugin.Plugin
	byFunc  map[*lua.LFunction]*plugin.Plugin

	mu      sync.RWMutex
	exports map[string]*plugin.Plugin
	order   []string

	closeOnce sync.Once
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(l hclog.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTimeout bounds each script execution and plugin call.
// Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		r.timeout = d
	}
}

// WithVersion sets threadline.version as seen by scripts.
func WithVersion(v string) Option {
	return func(r *Runtime) {
		r.version = v
	}
}

// WithQueueSize sets the executor queue length.
func WithQueueSize(n int) Option {
	return func(r *Runtime) {
		r.queue = n
	}
}

// NewRuntime creates a sandboxed runtime and starts its executor.
func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		logger:  hclog.NewNullLogger(),
		timeout: DefaultTimeout,
		byFunc:  make(map[*lua.LFunction]*plugin.Plugin),
		exports: make(map[string]*plugin.Plugin),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSandbox(r.L, r.logger.Named("print"))

	mod := r.L.NewTable()
	r.L.SetField(mod, "register", r.L.NewFunction(r.register))
	r.L.SetField(mod, "version", lua.LString(r.version))
	r.L.SetGlobal(ModuleName, mod)

	r.exec = NewExecutor(r.L, r.queue)
	r.exec.onAsyncError = func(err error) {
		r.logger.Error("lua handler failed", "error", err)
	}
	r.exec.Start()
	return r
}

// Exec compiles and runs code as chunk and returns the plugins it
// registered, in registration order.
func (r *Runtime) Exec(ctx context.Context, chunk, code string) ([]*plugin.Plugin, error) {
	var found []*plugin.Plugin
	err := r.exec.Execute(ctx, func(L *lua.LState) error {
		fn, err := L.Load(strings.NewReader(code), chunk)
		if err != nil {
			return &ScriptError{Chunk: chunk, Err: err}
		}
		r.collect = &found
		defer func() { r.collect = nil }()
		return r.call(ctx, L, chunk, fn)
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Lookup returns the plugin last registered under name.
func (r *Runtime) Lookup(name string) (*plugin.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.exports[name]
	return p, ok
}

// Exports returns the host registry in first-registration order.
func (r *Runtime) Exports() []*plugin.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*plugin.Plugin, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.exports[name])
	}
	return out
}

// Close stops the executor and releases the Lua state.
func (r *Runtime) Close() error {
	r.closeOnce.Do(func() {
		r.exec.Close()
		r.L.Close()
	})
	return nil
}

// register implements threadline.register(name, fn).
func (r *Runtime) register(L *lua.LState) int {
	name := L.CheckString(1)
	fn, ok := L.Get(2).(*lua.LFunction)
	if !ok {
		r.logger.Warn("ignoring plugin export that is not a function",
			"name", name, "type", L.Get(2).Type().String(), "chunk", r.chunk)
		return 0
	}

	p, ok := r.byFunc[fn]
	if !ok {
		p = r.newPlugin(name, r.chunk, fn)
		r.byFunc[fn] = p
	}

	r.mu.Lock()
	if _, exists := r.exports[name]; !exists {
		r.order = append(r.order, name)
	}
	r.exports[name] = p
	r.mu.Unlock()

	if r.collect != nil {
		for _, seen := range *r.collect {
			if seen == p {
				return 0
			}
		}
		*r.collect = append(*r.collect, p)
	}
	return 0
}

// newPlugin wraps a Lua function as a plugin invoked on the executor.
func (r *Runtime) newPlugin(name, origin string, fn *lua.LFunction) *plugin.Plugin {
	return plugin.NewWithOrigin(name, origin, func(ctx context.Context, wc plugin.Context, opts *plugin.Options) error {
		return r.exec.Execute(ctx, func(L *lua.LState) error {
			var options lua.LValue = lua.LNil
			if opts != nil {
				options = ToLua(L, opts.Value)
			}
			return r.call(ctx, L, origin, fn, r.contextTable(L, wc, origin), options)
		})
	})
}

// call runs fn in protected mode under the runtime timeout.
// Must run on the executor goroutine.
func (r *Runtime) call(ctx context.Context, L *lua.LState, chunk string, fn *lua.LFunction, args ...lua.LValue) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	L.SetContext(ctx)
	defer L.RemoveContext()

	prev := r.chunk
	r.chunk = chunk
	defer func() { r.chunk = prev }()

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...); err != nil {
		return &ScriptError{Chunk: chunk, Err: err}
	}
	return nil
}
