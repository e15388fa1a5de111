// Package main is the entry point for the threadline command. It mounts a
// headless comment widget against a server and reports the effective
// configuration and plugins.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/threadline/internal/app"
	"github.com/dshills/threadline/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() app.Options {
	var opts app.Options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (.toml, .yaml, .json)")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.Server, "server", "", "Comment server URL")
	flag.StringVar(&opts.Site, "site", "", "Site name")
	flag.StringVar(&opts.PageKey, "page", "", "Page key")
	flag.StringVar(&opts.PluginDir, "plugins", "", "Directory of local .lua plugins")
	flag.BoolVar(&opts.Watch, "watch", false, "Keep running and re-apply the config file on change")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	flag.BoolVar(&opts.JSONLog, "json-log", false, "Write logs as JSON")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "threadline - headless comment widget runner\n\n")
		fmt.Fprintf(os.Stderr, "Usage: threadline [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
		fmt.Fprintf(os.Stderr, "  THREADLINE_SERVER, THREADLINE_SITE, THREADLINE_PAGE_KEY, ...\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  threadline -server https://comments.example.com -page /post/1\n")
		fmt.Fprintf(os.Stderr, "  threadline -c threadline.toml -plugins ./plugins\n")
		fmt.Fprintf(os.Stderr, "  threadline -c threadline.yaml -watch\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("threadline %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if !logging.ValidLevel(opts.LogLevel) {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be trace, debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	return opts
}
