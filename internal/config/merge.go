package config

import (
	"reflect"
	"sort"
	"strings"
)

// Merge returns a new configuration holding base overlaid with overlay.
// Neither input is modified.
func Merge(base, overlay Conf) Conf {
	return DeepMerge(Clone(base), overlay)
}

// DeepMerge recursively merges src into dst and returns dst.
// Values in src override values in dst.
// Maps are merged recursively; other types are replaced.
func DeepMerge(dst, src Conf) Conf {
	if dst == nil {
		dst = make(Conf)
	}
	if src == nil {
		return dst
	}

	for key, srcVal := range src {
		dstVal, exists := dst[key]
		if !exists {
			dst[key] = cloneValue(srcVal)
			continue
		}

		// If both are maps, merge recursively
		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dstVal.(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dstMap, srcMap)
		} else {
			dst[key] = cloneValue(srcVal)
		}
	}

	return dst
}

// Clone creates a deep copy of a configuration.
func Clone(src Conf) Conf {
	if src == nil {
		return nil
	}

	dst := make(Conf, len(src))
	for key, val := range src {
		dst[key] = cloneValue(val)
	}
	return dst
}

func cloneValue(val any) any {
	switch v := val.(type) {
	case map[string]any:
		return Clone(v)
	case []any:
		return cloneSlice(v)
	default:
		return val
	}
}

func cloneSlice(src []any) []any {
	if src == nil {
		return nil
	}

	dst := make([]any, len(src))
	for i, val := range src {
		dst[i] = cloneValue(val)
	}
	return dst
}

// GetByPath retrieves a value from a nested map using a dot-separated path.
func GetByPath(data Conf, path string) (any, bool) {
	if data == nil || path == "" {
		return nil, false
	}

	current := any(data)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		val, exists := m[part]
		if !exists {
			return nil, false
		}
		current = val
	}

	return current, true
}

// SetByPath sets a value in a nested map using a dot-separated path.
// Creates intermediate maps as needed.
func SetByPath(data Conf, path string, value any) error {
	if data == nil {
		return nil
	}
	if path == "" || strings.HasPrefix(path, ".") || strings.HasSuffix(path, ".") {
		return ErrInvalidPath
	}

	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}

	current[parts[len(parts)-1]] = value
	return nil
}

// FlattenMap flattens a nested map into a single-level map with dot-separated keys.
func FlattenMap(data Conf) map[string]any {
	result := make(map[string]any)
	flattenMapRecursive(data, "", result)
	return result
}

func flattenMapRecursive(data map[string]any, prefix string, result map[string]any) {
	for key, val := range data {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := val.(map[string]any); ok && len(nested) > 0 {
			flattenMapRecursive(nested, fullKey, result)
		} else {
			result[fullKey] = val
		}
	}
}

// ChangedPaths returns the sorted leaf paths whose values differ between
// old and new, including added and removed paths.
func ChangedPaths(old, new Conf) []string {
	oldFlat := FlattenMap(old)
	newFlat := FlattenMap(new)

	var changed []string
	for path, newVal := range newFlat {
		if oldVal, exists := oldFlat[path]; !exists || !reflect.DeepEqual(oldVal, newVal) {
			changed = append(changed, path)
		}
	}
	for path := range oldFlat {
		if _, exists := newFlat[path]; !exists {
			changed = append(changed, path)
		}
	}

	sort.Strings(changed)
	return changed
}
