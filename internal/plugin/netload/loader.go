package netload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/threadline/internal/api"
	"github.com/dshills/threadline/internal/plugin"
)

// DefaultConcurrency bounds the number of scripts loaded at once.
const DefaultConcurrency = 8

// Runtime executes a script and returns the plugins it registered.
type Runtime interface {
	Exec(ctx context.Context, chunk, code string) ([]*plugin.Plugin, error)
}

// OptionsSetter stores descriptor options for a plugin.
type OptionsSetter interface {
	SetOptions(p *plugin.Plugin, opts *plugin.Options)
}

// globalOptions stores into the process-wide registry current at call time.
type globalOptions struct{}

func (globalOptions) SetOptions(p *plugin.Plugin, opts *plugin.Options) {
	plugin.Global().SetOptions(p, opts)
}

// script is an attached script. plugins is set once it has run.
type script struct {
	mu      sync.Mutex
	done    bool
	plugins []*plugin.Plugin
}

func (s *script) finish(plugins []*plugin.Plugin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	s.plugins = plugins
}

// discovered returns the plugins the script registered, or nil while it
// is still loading.
func (s *script) discovered() []*plugin.Plugin {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.done {
		return nil
	}
	return append([]*plugin.Plugin(nil), s.plugins...)
}

// Loader fetches and executes plugin scripts.
type Loader struct {
	runtime     Runtime
	fetcher     Fetcher
	store       OptionsSetter
	logger      hclog.Logger
	concurrency int

	mu      sync.Mutex
	scripts map[string]*script
}

// Option configures a Loader.
type Option func(*Loader)

// WithFetcher sets the script fetcher.
func WithFetcher(f Fetcher) Option {
	return func(l *Loader) {
		l.fetcher = f
	}
}

// WithOptionsStore sets where descriptor options are stored.
func WithOptionsStore(s OptionsSetter) Option {
	return func(l *Loader) {
		l.store = s
	}
}

// WithLogger sets the loader logger.
func WithLogger(logger hclog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithConcurrency bounds the number of scripts loaded at once.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// NewLoader creates a loader executing scripts in rt. Options default to
// an HTTP fetcher and the global registry as the options store.
func NewLoader(rt Runtime, opts ...Option) *Loader {
	l := &Loader{
		runtime:     rt,
		logger:      hclog.NewNullLogger(),
		concurrency: DefaultConcurrency,
		scripts:     make(map[string]*script),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.fetcher == nil {
		l.fetcher = NewHTTPFetcher(api.NewRetryClient(l.logger.Named("http"), ""))
	}
	if l.store == nil {
		l.store = globalOptions{}
	}
	return l
}

// Load loads every descriptor and returns the plugins their scripts
// registered, in descriptor order without duplicates. Failures are logged.
func (l *Loader) Load(ctx context.Context, items []api.PluginItem, apiBase string) []*plugin.Plugin {
	plugins, _ := l.LoadWithReport(ctx, items, apiBase)
	return plugins
}

// LoadWithReport is Load that also returns the failures, combined with
// go-multierror. The plugins are returned even when some scripts failed.
func (l *Loader) LoadWithReport(ctx context.Context, items []api.PluginItem, apiBase string) ([]*plugin.Plugin, error) {
	results := make([][]*plugin.Plugin, len(items))
	errs := make([]error, len(items))

	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for i, item := range items {
		if item.Source == "" {
			continue
		}
		i, item := i, item
		g.Go(func() error {
			results[i], errs[i] = l.loadOne(ctx, item, apiBase)
			return nil
		})
	}
	_ = g.Wait()

	out := plugin.NewSet()
	for _, ps := range results {
		for _, p := range ps {
			out.Add(p)
		}
	}

	var merr *multierror.Error
	for _, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return out.List(), merr.ErrorOrNil()
}

// loadOne loads a single descriptor.
func (l *Loader) loadOne(ctx context.Context, item api.PluginItem, apiBase string) ([]*plugin.Plugin, error) {
	url := ResolveSource(item.Source, apiBase)

	s, attached := l.attach(url)
	if attached {
		l.logger.Debug("plugin script already attached", "url", url)
		return s.discovered(), nil
	}

	plugins, err := l.run(ctx, url, item.Integrity)
	if err != nil {
		l.detach(url, s)
		l.logger.Error("failed to load plugin script", "url", url, "error", err)
		return nil, &LoadError{URL: url, Err: err}
	}
	s.finish(plugins)

	l.logger.Debug("loaded plugin script", "url", url, "plugins", len(plugins))
	l.applyOptions(url, item.Options, plugins)
	return plugins, nil
}

// attach records url as attached. Returns the existing script and true if
// it was already attached.
func (l *Loader) attach(url string) (*script, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.scripts[url]; ok {
		return s, true
	}
	s := &script{}
	l.scripts[url] = s
	return s, false
}

// detach forgets a failed script so a later load can retry it.
func (l *Loader) detach(url string, s *script) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.scripts[url] == s {
		delete(l.scripts, url)
	}
}

// Attached reports whether a script for url has been attached.
func (l *Loader) Attached(url string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.scripts[url]
	return ok
}

// run fetches, verifies and executes a script. Once fetched, execution is
// not cancelled with ctx.
func (l *Loader) run(ctx context.Context, url, integrity string) ([]*plugin.Plugin, error) {
	body, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if integrity != "" {
		if err := VerifyIntegrity(url, integrity, body); err != nil {
			return nil, err
		}
	}
	return l.runtime.Exec(context.WithoutCancel(ctx), url, string(body))
}

// applyOptions parses raw as JSON and stores it for every plugin. Malformed
// options are logged once and nothing is stored.
func (l *Loader) applyOptions(url, raw string, plugins []*plugin.Plugin) {
	if raw == "" {
		return
	}
	if !gjson.Valid(raw) {
		l.logger.Error("failed to parse plugin options", "url", url, "error", ErrMalformedOptions)
		return
	}
	for _, p := range plugins {
		l.store.SetOptions(p, &plugin.Options{Raw: raw, Value: gjson.Parse(raw).Value()})
	}
}

// LoadDir executes every .lua file in dir, in name order, and returns the
// plugins they registered. Files are attached by absolute path, so a file
// is executed at most once per Loader.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]*plugin.Plugin, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading plugin dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".lua") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	out := plugin.NewSet()
	var merr *multierror.Error
	for _, path := range files {
		plugins, err := l.LoadFile(ctx, path)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		for _, p := range plugins {
			out.Add(p)
		}
	}
	return out.List(), merr.ErrorOrNil()
}

// LoadFile executes a single .lua file.
func (l *Loader) LoadFile(ctx context.Context, path string) ([]*plugin.Plugin, error) {
	if !strings.EqualFold(filepath.Ext(path), ".lua") {
		return nil, fmt.Errorf("%w: %s", ErrNotLuaScript, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	s, attached := l.attach(abs)
	if attached {
		return s.discovered(), nil
	}

	code, err := os.ReadFile(abs)
	if err == nil {
		var plugins []*plugin.Plugin
		plugins, err = l.runtime.Exec(ctx, abs, string(code))
		if err == nil {
			s.finish(plugins)
			l.logger.Debug("loaded local plugin script", "path", abs, "plugins", len(plugins))
			return plugins, nil
		}
	}

	l.detach(abs, s)
	l.logger.Error("failed to load local plugin script", "path", abs, "error", err)
	return nil, &LoadError{URL: abs, Err: err}
}
