package config

import (
	"strings"

	"github.com/tidwall/gjson"
)

// remoteExcludedKeys are page-bound settings the server must never override.
var remoteExcludedKeys = []string{
	"el",
	KeyPageKey,
	KeyPageTitle,
	KeyServer,
	KeySite,
	"pvEl",
	"countEl",
	"statPageKeyAttr",
	"pageVote",
}

// SanitizeRemote returns a copy of the server-provided frontend
// configuration suitable for merging:
//
//   - page-bound keys (server, site, pageKey, ...) are dropped
//   - darkMode is kept only when it is "auto"
//   - a string emoticons value holding JSON is decoded, "false" becomes false
//
// A nil input yields an empty configuration.
func SanitizeRemote(remote Conf) Conf {
	conf := Clone(remote)
	if conf == nil {
		return make(Conf)
	}

	for _, key := range remoteExcludedKeys {
		delete(conf, key)
	}

	if v, ok := conf[KeyDarkMode]; ok && v != "auto" {
		delete(conf, KeyDarkMode)
	}

	if s, ok := conf[KeyEmoticons].(string); ok {
		conf[KeyEmoticons] = patchEmoticons(s)
	}

	return conf
}

// patchEmoticons converts the string form of the emoticons setting.
func patchEmoticons(s string) any {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{"):
		if !gjson.Valid(s) {
			return s
		}
		return gjson.Parse(s).Value()
	case s == "false":
		return false
	default:
		return s
	}
}
