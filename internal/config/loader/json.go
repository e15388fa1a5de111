package loader

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NewJSONLoader creates a loader for a JSON file.
func NewJSONLoader(fsys FileSystem, path string) *FileLoader {
	return &FileLoader{fs: fsys, path: path, parse: parseJSON}
}

func parseJSON(source string, data []byte) (map[string]any, error) {
	var config map[string]any
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	return config, nil
}
