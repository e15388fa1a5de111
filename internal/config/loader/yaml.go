package loader

import (
	"errors"

	"gopkg.in/yaml.v3"
)

// NewYAMLLoader creates a loader for a YAML file.
func NewYAMLLoader(fsys FileSystem, path string) *FileLoader {
	return &FileLoader{fs: fsys, path: path, parse: parseYAML}
}

func parseYAML(source string, data []byte) (map[string]any, error) {
	var config map[string]any
	if err := yaml.Unmarshal(data, &config); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
			perr.Message = typeErr.Errors[0]
		}
		return nil, perr
	}
	return normalize(config), nil
}
