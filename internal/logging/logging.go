// Package logging builds the hclog loggers used across threadline.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Config configures the root logger.
type Config struct {
	// Level is the minimum log level to output.
	Level hclog.Level
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
	// Name is prepended to all log messages.
	Name string
	// JSON switches to one JSON object per line.
	JSON bool
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  hclog.Info,
		Output: os.Stderr,
		Name:   "threadline",
	}
}

// New creates a root logger.
func New(cfg Config) hclog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.Level == hclog.NoLevel {
		cfg.Level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:              cfg.Name,
		Level:             cfg.Level,
		Output:            cfg.Output,
		JSONFormat:        cfg.JSON,
		IndependentLevels: true,
	})
}

// ParseLevel parses a level name, defaulting to info.
func ParseLevel(s string) hclog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warning":
		return hclog.Warn
	case "":
		return hclog.Info
	}
	level := hclog.LevelFromString(s)
	if level == hclog.NoLevel {
		return hclog.Info
	}
	return level
}

// ValidLevel reports whether s names a known log level.
func ValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "trace", "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}

// OrNull returns l, or a logger that discards everything when l is nil.
func OrNull(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}
