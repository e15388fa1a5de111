package config

import (
	"fmt"
	"strings"
)

// Conf is a partial configuration record.
type Conf = map[string]any

// Well-known configuration keys.
const (
	KeyServer           = "server"
	KeySite             = "site"
	KeyPageKey          = "pageKey"
	KeyPageTitle        = "pageTitle"
	KeyLocale           = "locale"
	KeyDarkMode         = "darkMode"
	KeyEmoticons        = "emoticons"
	KeyPreferRemoteConf = "preferRemoteConf"
	KeyAPIVersion       = "apiVersion"
	KeyUseBackendConf   = "useBackendConf"
)

// Defaults returns the built-in configuration.
func Defaults() Conf {
	return Conf{
		KeyServer:           "",
		KeySite:             "",
		KeyPageKey:          "",
		KeyPageTitle:        "",
		KeyLocale:           "en",
		KeyDarkMode:         false,
		KeyPreferRemoteConf: false,
		KeyUseBackendConf:   true,
		"flatMode":          "auto",
		"nestMax":           2,
		"nestSort":          "DATE_ASC",
		"vote":              true,
		"voteDown":          false,
		"imgUpload":         true,
		"pagination": map[string]any{
			"pageSize": 20,
			"readMore": true,
			"autoLoad": true,
		},
		"heightLimit": map[string]any{
			"content":    300,
			"children":   400,
			"scrollable": false,
		},
	}
}

// String returns the string at path, or "" when absent or not a string.
func String(conf Conf, path string) string {
	v, ok := GetByPath(conf, path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Bool returns the boolean at path. Strings "true" and "1" count as true,
// which covers values coming from environment variables.
func Bool(conf Conf, path string) bool {
	v, ok := GetByPath(conf, path)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "1"
	default:
		return false
	}
}

// ServerURL returns the normalized server address of conf.
func ServerURL(conf Conf) (string, error) {
	server := strings.TrimSpace(String(conf, KeyServer))
	if server == "" {
		return "", ErrMissingServer
	}
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		return "", fmt.Errorf("config: server %q must be an http(s) URL", server)
	}
	return strings.TrimSuffix(server, "/"), nil
}
