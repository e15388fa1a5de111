package loader

import (
	"errors"

	"github.com/pelletier/go-toml/v2"
)

// NewTOMLLoader creates a loader for a TOML file.
func NewTOMLLoader(fsys FileSystem, path string) *FileLoader {
	return &FileLoader{fs: fsys, path: path, parse: parseTOML}
}

func parseTOML(source string, data []byte) (map[string]any, error) {
	var config map[string]any
	if err := toml.Unmarshal(data, &config); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			perr.Line, perr.Column = decodeErr.Position()
		}
		return nil, perr
	}
	return normalize(config), nil
}
