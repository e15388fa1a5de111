package lua

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/dshills/threadline/internal/event"
	"github.com/dshills/threadline/internal/plugin"
)

// busContext is a plugin.Context backed by a real event bus.
type busContext struct {
	mu   sync.Mutex
	conf map[string]any
	bus  *event.Bus
}

func newBusContext(conf map[string]any) *busContext {
	return &busContext{conf: conf, bus: event.NewBus()}
}

func (c *busContext) Conf() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]any, len(c.conf))
	for k, v := range c.conf {
		out[k] = v
	}
	return out
}

func (c *busContext) UpdateConf(conf map[string]any) {
	c.mu.Lock()
	for k, v := range conf {
		c.conf[k] = v
	}
	c.mu.Unlock()
}

func (c *busContext) Trigger(name string, payload any)            { c.bus.Trigger(name, payload) }
func (c *busContext) On(name string, fn func(payload any)) string { return c.bus.On(name, fn) }
func (c *busContext) Off(id string) bool                          { return c.bus.Off(id) }
func (c *busContext) Inject(string, any)                          {}
func (c *busContext) Service(name string) (any, bool) {
	if name == "greeting" {
		return "hi", true
	}
	return nil, false
}
func (c *busContext) Logger() hclog.Logger { return hclog.NewNullLogger() }

func newTestRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	r := NewRuntime(opts...)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRuntimeExecRegisters(t *testing.T) {
	r := newTestRuntime(t)

	found, err := r.Exec(context.Background(), "two.lua", `
		threadline.register("first", function(ctx, opts) end)
		threadline.register("second", function(ctx, opts) end)
	`)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("Exec() found %d plugins, want 2", len(found))
	}
	if found[0].Name() != "first" || found[1].Name() != "second" {
		t.Errorf("names = %s, %s; want first, second", found[0], found[1])
	}
	if found[0].Origin() != "two.lua" {
		t.Errorf("Origin() = %q, want two.lua", found[0].Origin())
	}

	p, ok := r.Lookup("second")
	if !ok || p != found[1] {
		t.Errorf("Lookup(second) = %v, %v", p, ok)
	}
	if n := len(r.Exports()); n != 2 {
		t.Errorf("Exports() has %d entries, want 2", n)
	}
}

func TestRuntimeSameFunctionSameIdentity(t *testing.T) {
	r := newTestRuntime(t)

	found, err := r.Exec(context.Background(), "alias.lua", `
		local f = function(ctx) end
		threadline.register("a", f)
		threadline.register("b", f)
	`)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("Exec() found %d plugins, want 1", len(found))
	}

	a, _ := r.Lookup("a")
	b, _ := r.Lookup("b")
	if a != b {
		t.Error("same function registered twice produced different plugins")
	}
}

func TestRuntimeRegisterNonFunction(t *testing.T) {
	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Warn})
	r := newTestRuntime(t, WithLogger(logger))

	found, err := r.Exec(context.Background(), "bad.lua", `threadline.register("broken", 42)`)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if len(found) != 0 {
		t.Errorf("Exec() found %d plugins, want 0", len(found))
	}
	if _, ok := r.Lookup("broken"); ok {
		t.Error("non-function export reached the host registry")
	}
	if !strings.Contains(buf.String(), "not a function") {
		t.Errorf("expected warning, got %q", buf.String())
	}
}

func TestRuntimeScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"syntax", `threadline.register("x", function(`},
		{"runtime", `error("boom")`},
		{"undefined", `undefined_function()`},
	}

	r := newTestRuntime(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Exec(context.Background(), tt.name+".lua", tt.code)
			var se *ScriptError
			if !errors.As(err, &se) {
				t.Fatalf("Exec() error = %v, want *ScriptError", err)
			}
			if se.Chunk != tt.name+".lua" {
				t.Errorf("Chunk = %q", se.Chunk)
			}
		})
	}
}

func TestRuntimeTimeout(t *testing.T) {
	r := newTestRuntime(t, WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := r.Exec(context.Background(), "spin.lua", `while true do end`)
	if err == nil {
		t.Fatal("Exec() of an endless loop returned nil")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout was not enforced")
	}

	// The state stays usable.
	if _, err := r.Exec(context.Background(), "after.lua", `local x = 1`); err != nil {
		t.Errorf("Exec() after timeout error = %v", err)
	}
}

func TestRuntimeSandbox(t *testing.T) {
	r := newTestRuntime(t)

	allowed := []string{
		`assert(os == nil)`,
		`assert(io == nil)`,
		`assert(debug == nil)`,
		`assert(dofile == nil and loadfile == nil and load == nil and loadstring == nil)`,
		`assert(require("string").upper("a") == "A")`,
		`assert(require("threadline").register ~= nil)`,
	}
	for _, code := range allowed {
		if _, err := r.Exec(context.Background(), "sandbox.lua", code); err != nil {
			t.Errorf("Exec(%q) error = %v", code, err)
		}
	}

	for _, mod := range []string{"os", "io", "debug", "socket"} {
		if _, err := r.Exec(context.Background(), "require.lua", `require("`+mod+`")`); err == nil {
			t.Errorf("require(%q) succeeded", mod)
		}
	}
}

func TestRuntimeVersion(t *testing.T) {
	r := newTestRuntime(t, WithVersion("2.9.1"))
	if _, err := r.Exec(context.Background(), "v.lua", `assert(threadline.version == "2.9.1")`); err != nil {
		t.Errorf("Exec() error = %v", err)
	}
}

func TestLuaPluginInvocation(t *testing.T) {
	r := newTestRuntime(t)
	found, err := r.Exec(context.Background(), "greeter.lua", `
		threadline.register("greeter", function(ctx, opts)
			ctx.update_conf({ site = ctx.conf().site .. "!", greeting = opts.greeting })
			ctx.trigger("greeted", ctx.service("greeting"))
		end)
	`)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	wc := newBusContext(map[string]any{"site": "blog"})
	var got any
	wc.On("greeted", func(payload any) { got = payload })

	reg := plugin.NewRegistry()
	reg.SetOptions(found[0], &plugin.Options{Raw: `{"greeting":"hello"}`, Value: map[string]any{"greeting": "hello"}})

	if err := plugin.LoadAll(context.Background(), wc, found, plugin.NewSet(), reg); err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	conf := wc.Conf()
	if conf["site"] != "blog!" {
		t.Errorf("site = %v, want blog!", conf["site"])
	}
	if conf["greeting"] != "hello" {
		t.Errorf("greeting = %v, want hello", conf["greeting"])
	}
	if got != "hi" {
		t.Errorf("greeted payload = %v, want hi", got)
	}
}

func TestLuaPluginErrorPropagates(t *testing.T) {
	r := newTestRuntime(t)
	found, err := r.Exec(context.Background(), "fail.lua", `
		threadline.register("fail", function(ctx) error("nope") end)
	`)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	err = plugin.LoadAll(context.Background(), newBusContext(map[string]any{}), found, plugin.NewSet(), nil)
	var se *ScriptError
	if !errors.As(err, &se) {
		t.Fatalf("LoadAll() error = %v, want *ScriptError", err)
	}
}

func TestLuaEventHandlers(t *testing.T) {
	r := newTestRuntime(t)
	found, err := r.Exec(context.Background(), "echo.lua", `
		threadline.register("echo", function(ctx)
			ctx.on("ping", function(v) ctx.trigger("pong", v + 1) end)
		end)
	`)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	wc := newBusContext(map[string]any{})
	pong := make(chan any, 1)
	wc.On("pong", func(payload any) { pong <- payload })

	if err := plugin.LoadAll(context.Background(), wc, found, plugin.NewSet(), nil); err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	wc.Trigger("ping", 1)

	select {
	case v := <-pong:
		if v != int64(2) {
			t.Errorf("pong payload = %v (%T), want 2", v, v)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("lua handler never triggered pong")
	}
}

func TestRuntimeClosed(t *testing.T) {
	r := NewRuntime()
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := r.Exec(context.Background(), "x.lua", `local x = 1`); !errors.Is(err, ErrRuntimeClosed) {
		t.Errorf("Exec() after Close error = %v, want ErrRuntimeClosed", err)
	}
}
