// Package loader provides local configuration loading for threadline.
//
// The loader package parses configuration files (TOML, YAML, JSON) and
// environment variables into configuration maps that are merged into the
// local configuration of a widget instance.
package loader

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Loader is the interface for configuration loaders.
type Loader interface {
	// Load reads configuration from the source and returns a map.
	// Returns nil, nil if the source doesn't exist (not an error).
	Load() (map[string]any, error)
}

// ReaderLoader is the interface for loaders that read from io.Reader.
type ReaderLoader interface {
	// LoadFromReader reads configuration from a reader.
	LoadFromReader(r io.Reader) (map[string]any, error)
}

// FileSystem is an abstraction for file system operations.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}

// parser turns file contents into a configuration map.
type parser func(source string, data []byte) (map[string]any, error)

// FileLoader reads a configuration file through a FileSystem and parses it.
type FileLoader struct {
	fs    FileSystem
	path  string
	parse parser
}

// Load reads configuration from the configured path.
func (l *FileLoader) Load() (map[string]any, error) {
	data, err := l.fs.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) || err == fs.ErrNotExist {
			return nil, nil // File doesn't exist, not an error
		}
		return nil, fmt.Errorf("reading config file %s: %w", l.path, err)
	}
	return l.parse(l.path, data)
}

// LoadFromReader reads configuration from an io.Reader.
func (l *FileLoader) LoadFromReader(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return l.parse("<reader>", data)
}

// ForFile returns a loader for path chosen by its extension.
func ForFile(fsys FileSystem, path string) (Loader, error) {
	if fsys == nil {
		fsys = DefaultFS()
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return NewTOMLLoader(fsys, path), nil
	case ".yaml", ".yml":
		return NewYAMLLoader(fsys, path), nil
	case ".json":
		return NewJSONLoader(fsys, path), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadFile loads the configuration file at path from the OS file system.
func LoadFile(path string) (map[string]any, error) {
	l, err := ForFile(DefaultFS(), path)
	if err != nil {
		return nil, err
	}
	return l.Load()
}
