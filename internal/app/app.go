// Package app runs a headless widget instance for the threadline command.
// It wires local configuration, logging, local Lua plugins and the widget
// together and manages their lifecycle.
package app

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	"github.com/dshills/threadline/internal/config"
	"github.com/dshills/threadline/internal/config/loader"
	"github.com/dshills/threadline/internal/config/watcher"
	"github.com/dshills/threadline/internal/logging"
	"github.com/dshills/threadline/internal/plugin"
	"github.com/dshills/threadline/internal/widget"
)

// Options configures the application.
type Options struct {
	// ConfigPath is a TOML, YAML or JSON configuration file.
	ConfigPath string

	// Server, Site and PageKey override the configuration file.
	Server  string
	Site    string
	PageKey string

	// PluginDir holds local .lua plugins registered before mounting.
	PluginDir string

	// Watch keeps running and re-applies ConfigPath when it changes.
	Watch bool

	// LogLevel sets the logging verbosity.
	LogLevel string

	// JSONLog switches logs to JSON lines.
	JSONLog bool

	// Version is the client version compared against the server.
	Version string

	// Output receives the mount report. Defaults to os.Stdout.
	Output io.Writer

	// LogOutput receives logs. Defaults to os.Stderr.
	LogOutput io.Writer

	// Environ overrides the process environment, for tests.
	Environ func() []string
}

// Application owns one widget instance.
type Application struct {
	opts   Options
	logger hclog.Logger

	instance *widget.Instance
	watcher  *watcher.Watcher

	mu     sync.Mutex
	cancel context.CancelFunc

	running atomic.Bool
	closed  atomic.Bool
	done    chan struct{}
}

// New creates an application with the given options.
func New(opts Options) (*Application, error) {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Version == "" {
		opts.Version = widget.ClientVersion
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(opts.LogLevel)
	logCfg.JSON = opts.JSONLog
	if opts.LogOutput != nil {
		logCfg.Output = opts.LogOutput
	}
	logger := logging.New(logCfg)
	hclog.SetDefault(logger)

	app := &Application{
		opts:   opts,
		logger: logger,
		done:   make(chan struct{}),
	}

	local, err := app.localConf()
	if err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}

	app.instance = widget.New(local,
		widget.WithLogger(logger.Named("widget")),
		widget.WithClientVersion(opts.Version),
	)

	if opts.Watch && opts.ConfigPath != "" {
		if err := app.startWatcher(); err != nil {
			app.instance.Destroy()
			return nil, &InitError{Component: "watcher", Err: err}
		}
	}
	return app, nil
}

// localConf merges the configuration file, THREADLINE_ environment
// variables and the command-line overrides, in that order.
func (app *Application) localConf() (config.Conf, error) {
	conf := config.Conf{}

	if app.opts.ConfigPath != "" {
		fileConf, err := loader.LoadFile(app.opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		conf = config.Merge(conf, fileConf)
	}

	env := loader.NewEnvLoader(loader.DefaultEnvPrefix)
	if app.opts.Environ != nil {
		env.SetEnviron(app.opts.Environ)
	}
	envConf, err := env.Load()
	if err != nil {
		return nil, err
	}
	conf = config.Merge(conf, envConf)

	for key, v := range map[string]string{
		config.KeyServer:  app.opts.Server,
		config.KeySite:    app.opts.Site,
		config.KeyPageKey: app.opts.PageKey,
	} {
		if v != "" {
			conf[key] = v
		}
	}
	return conf, nil
}

func (app *Application) startWatcher() error {
	w, err := watcher.New(watcher.WithErrorHandler(func(err error) {
		app.logger.Warn("config watcher error", "error", err)
	}))
	if err != nil {
		return err
	}
	if err := w.Watch(app.opts.ConfigPath); err != nil {
		w.Stop()
		return err
	}
	w.OnChange(func(ev watcher.Event) {
		if ev.Op == watcher.OpRemove {
			return
		}
		app.reload()
	})
	w.Start()
	app.watcher = w
	return nil
}

// reload re-reads the local configuration and applies it to the instance.
func (app *Application) reload() {
	conf, err := app.localConf()
	if err != nil {
		app.logger.Error("failed to reload configuration", "error", err)
		return
	}
	app.instance.Update(conf)
	app.logger.Info("configuration reloaded", "path", app.opts.ConfigPath)
	app.report()
}

// Run registers local plugins, mounts the instance and writes the mount
// report. With Watch set it then blocks until ctx is done or Shutdown is
// called.
func (app *Application) Run(ctx context.Context) error {
	if app.closed.Load() {
		return ErrShutdown
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.mu.Lock()
	app.cancel = cancel
	app.mu.Unlock()

	if app.opts.PluginDir != "" {
		plugins, err := widget.SharedLoader().LoadDir(ctx, app.opts.PluginDir)
		if err != nil {
			app.logger.Warn("some local plugins failed to load", "dir", app.opts.PluginDir, "error", err)
		}
		for _, p := range plugins {
			plugin.Use(p)
		}
		app.logger.Debug("local plugins registered", "count", len(plugins))
	}

	if err := app.instance.Mount(ctx); err != nil {
		return err
	}
	app.report()

	if app.watcher == nil {
		return nil
	}

	select {
	case <-ctx.Done():
	case <-app.done:
	}
	return nil
}

// Instance returns the widget instance.
func (app *Application) Instance() *widget.Instance {
	return app.instance
}

// IsRunning returns true while Run is executing.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Shutdown stops watching, cancels a running mount and destroys the
// instance. It is safe to call more than once.
func (app *Application) Shutdown() {
	if !app.closed.CompareAndSwap(false, true) {
		return
	}
	close(app.done)

	app.mu.Lock()
	if app.cancel != nil {
		app.cancel()
	}
	app.mu.Unlock()

	if app.watcher != nil {
		if err := app.watcher.Stop(); err != nil {
			app.logger.Warn("failed to stop config watcher", "error", err)
		}
	}
	if err := app.instance.Destroy(); err != nil {
		app.logger.Warn("failed to destroy instance", "error", err)
	}
}
