package loader

import (
	"os"
	"strconv"
	"strings"
)

// DefaultEnvPrefix is the prefix of threadline environment variables.
const DefaultEnvPrefix = "THREADLINE_"

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "THREADLINE_")
	mapping map[string]string // Env var -> config path
	environ func() []string
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "THREADLINE_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
		environ: os.Environ,
	}
}

// defaultEnvMapping maps top-level widget settings whose names don't
// follow the section_setting convention.
func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "SERVER":             "server",
		prefix + "SITE":               "site",
		prefix + "PAGE_KEY":           "pageKey",
		prefix + "PAGE_TITLE":         "pageTitle",
		prefix + "LOCALE":             "locale",
		prefix + "DARK_MODE":          "darkMode",
		prefix + "PREFER_REMOTE_CONF": "preferRemoteConf",
		prefix + "USE_BACKEND_CONF":   "useBackendConf",
	}
}

// Load reads environment variables and returns a configuration map.
// Note: Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for _, env := range l.environ() {
		if !strings.HasPrefix(env, l.prefix) {
			continue
		}

		name, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}

		path, mapped := l.mapping[name]
		if !mapped {
			// THREADLINE_PAGINATION_PAGE_SIZE -> pagination.pageSize
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}
		setByPath(config, path, parseValue(value))
	}

	return config, nil
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	if l.mapping == nil {
		l.mapping = make(map[string]string)
	}
	l.mapping[envVar] = configPath
}

// envToPath converts PREFIX_SECTION_SETTING_NAME to section.settingName.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.TrimPrefix(env, l.prefix)
	if name == "" {
		return ""
	}

	parts := strings.Split(name, "_")
	section := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return section
	}

	settingParts := parts[1:]
	settingName := strings.ToLower(settingParts[0])
	for _, part := range settingParts[1:] {
		if len(part) > 0 {
			settingName += strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
		}
	}

	return section + "." + settingName
}

// parseValue attempts to parse the string value into an appropriate type.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	lower := strings.ToLower(s)
	if lower == "true" || lower == "yes" || lower == "on" {
		return true
	}
	if lower == "false" || lower == "no" || lower == "off" {
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	// Only treat values with a decimal point as floats
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.UnmarshalFromString(s, &v); err == nil {
			return v
		}
	}

	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
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
}

// SetEnviron replaces the environment source. It is used by tests and by
// callers that build configuration from a fixed environment.
func (l *EnvLoader) SetEnviron(fn func() []string) {
	if fn == nil {
		fn = os.Environ
	}
	l.environ = fn
}
