package api

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strings"
)

// AppendUserAgentEnvVar names an environment variable whose value is
// appended to the User-Agent.
const AppendUserAgentEnvVar = "THREADLINE_APPEND_USER_AGENT"

// UserAgent returns the User-Agent sent with every request.
func UserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	ua := fmt.Sprintf("threadline/%s (%s; %s)", version, runtime.GOOS, runtime.GOARCH)
	if extra := strings.TrimSpace(os.Getenv(AppendUserAgentEnvVar)); extra != "" {
		ua += " " + extra
	}
	return ua
}

type userAgentRoundTripper struct {
	inner     http.RoundTripper
	userAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if _, ok := req.Header["User-Agent"]; !ok {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", rt.userAgent)
	}
	return rt.inner.RoundTrip(req)
}
