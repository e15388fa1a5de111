package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/threadline/internal/api"
	"github.com/dshills/threadline/internal/plugin"
)

// syncBuffer is a bytes.Buffer safe for use by the watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func confServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != api.ConfPath {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{
			"frontend_conf": {"locale": "fr", "pageKey": "/remote"},
			"plugins": [],
			"version": {"app": "artalk", "version": "2.9.1"}
		}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func newTestApp(t *testing.T, opts Options) (*Application, *syncBuffer) {
	t.Helper()
	t.Cleanup(plugin.ResetGlobal)

	out := &syncBuffer{}
	opts.Output = out
	opts.LogOutput = &bytes.Buffer{}
	if opts.Environ == nil {
		opts.Environ = func() []string { return nil }
	}

	app, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(app.Shutdown)
	return app, out
}

func TestRunReportsEffectiveConf(t *testing.T) {
	srv := confServer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "threadline.toml")
	writeFile(t, path, "server = \""+srv.URL+"\"\npageKey = \"/post/1\"\n")

	app, out := newTestApp(t, Options{ConfigPath: path})

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"locale fr\n",
		`"/post/1"`,
		"version-check",
		"dark-mode",
		"instance " + app.Instance().ID(),
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestOverridePrecedence(t *testing.T) {
	srv := confServer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "threadline.yaml")
	writeFile(t, path, "server: http://unused.invalid\nsite: file-site\npageKey: /file\n")

	app, _ := newTestApp(t, Options{
		ConfigPath: path,
		Server:     srv.URL,
		Environ: func() []string {
			return []string{"THREADLINE_SITE=env-site", "THREADLINE_PAGE_KEY=/env"}
		},
		PageKey: "/flag",
	})

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	conf := app.Instance().Conf()
	if conf["server"] != srv.URL {
		t.Errorf("server = %v, want flag value %s", conf["server"], srv.URL)
	}
	if conf["site"] != "env-site" {
		t.Errorf("site = %v, want env-site", conf["site"])
	}
	if conf["pageKey"] != "/flag" {
		t.Errorf("pageKey = %v, want /flag", conf["pageKey"])
	}
}

func TestRunLoadsPluginDir(t *testing.T) {
	srv := confServer(t)
	plugins := t.TempDir()
	writeFile(t, filepath.Join(plugins, "greet.lua"), `
		threadline.register("greet", function(ctx, opts)
			ctx.update_conf({ greeting = "hello" })
		end)
	`)
	writeFile(t, filepath.Join(plugins, "README.md"), "not a plugin")

	app, out := newTestApp(t, Options{Server: srv.URL, PluginDir: plugins})

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := app.Instance().Conf()["greeting"]; got != "hello" {
		t.Errorf("greeting = %v, want hello", got)
	}
	if !strings.Contains(out.String(), "greet (") {
		t.Errorf("report does not list greet with its origin:\n%s", out.String())
	}
}

func TestNewConfigError(t *testing.T) {
	_, err := New(Options{
		ConfigPath: filepath.Join(t.TempDir(), "missing.toml"),
		LogOutput:  &bytes.Buffer{},
	})

	var initErr *InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("New() error = %v, want *InitError", err)
	}
	if initErr.Component != "config" {
		t.Errorf("Component = %q, want config", initErr.Component)
	}
}

func TestRunMissingServer(t *testing.T) {
	app, _ := newTestApp(t, Options{})

	if err := app.Run(context.Background()); err == nil {
		t.Fatal("Run() without a server should fail")
	}
	if app.IsRunning() {
		t.Error("IsRunning() should be false after Run returns")
	}
}

func TestRunAfterShutdown(t *testing.T) {
	srv := confServer(t)
	app, _ := newTestApp(t, Options{Server: srv.URL})

	app.Shutdown()
	app.Shutdown()

	if err := app.Run(context.Background()); !errors.Is(err, ErrShutdown) {
		t.Errorf("Run() error = %v, want ErrShutdown", err)
	}
}

func TestWatchReloadsConfig(t *testing.T) {
	srv := confServer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "threadline.toml")
	writeFile(t, path, "server = \""+srv.URL+"\"\npageKey = \"/post/1\"\n")

	app, out := newTestApp(t, Options{ConfigPath: path, Watch: true})

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	waitFor(t, func() bool { return strings.Contains(out.String(), `"/post/1"`) })

	if err := app.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}

	writeFile(t, path, "server = \""+srv.URL+"\"\npageKey = \"/post/2\"\n")
	waitFor(t, func() bool { return app.Instance().Conf()["pageKey"] == "/post/2" })

	app.Shutdown()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after Shutdown")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
