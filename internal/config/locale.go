package config

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLocale is used when the configured locale is missing or invalid.
const DefaultLocale = "en"

// Locale returns the configured locale as a canonical BCP 47 tag, so
// "zh-cn" and "zh_CN" both become "zh-CN". The value "auto" is returned
// unchanged. Missing or unparseable values yield DefaultLocale.
func Locale(conf Conf) string {
	raw := String(conf, KeyLocale)
	if raw == "auto" {
		return raw
	}
	if raw == "" {
		return DefaultLocale
	}
	tag, err := language.Parse(strings.ReplaceAll(raw, "_", "-"))
	if err != nil {
		return DefaultLocale
	}
	return tag.String()
}
