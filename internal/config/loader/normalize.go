package loader

import "fmt"

// normalize converts decoder-specific container types into the
// map[string]any / []any shapes the config package merges.
func normalize(config map[string]any) map[string]any {
	if config == nil {
		return nil
	}
	for k, v := range config {
		config[k] = normalizeValue(v)
	}
	return config
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalize(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[fmt.Sprint(k)] = normalizeValue(item)
		}
		return m
	case []any:
		for i, item := range val {
			val[i] = normalizeValue(item)
		}
		return val
	case []map[string]any:
		s := make([]any, len(val))
		for i, item := range val {
			s[i] = normalize(item)
		}
		return s
	default:
		return v
	}
}
