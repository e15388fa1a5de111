package netload

import "strings"

// ResolveSource returns the URL a script source is fetched from.
// Absolute http(s) URLs are returned verbatim; anything else is joined to
// apiBase with exactly one slash between them.
func ResolveSource(source, apiBase string) string {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return source
	}
	return strings.TrimSuffix(apiBase, "/") + "/" + strings.TrimPrefix(source, "/")
}
