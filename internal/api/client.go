package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-retryablehttp"
	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Defaults for the retrying HTTP client.
const (
	DefaultRetryMax     = 2
	DefaultRetryWaitMin = 200 * time.Millisecond
	DefaultRetryWaitMax = 2 * time.Second
	DefaultTimeout      = 15 * time.Second

	// MaxBodySize caps response bodies read by the client.
	MaxBodySize = 8 << 20
)

// NewRetryClient returns a retrying client over a pooled cleanhttp
// transport that sends the threadline User-Agent. The returned client has
// no cookie jar. Non-2xx responses are passed through to the caller once
// retries are exhausted.
func NewRetryClient(logger hclog.Logger, version string) *retryablehttp.Client {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = DefaultTimeout
	hc.Transport = &userAgentRoundTripper{
		inner:     hc.Transport,
		userAgent: UserAgent(version),
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = hc
	rc.RetryMax = DefaultRetryMax
	rc.RetryWaitMin = DefaultRetryWaitMin
	rc.RetryWaitMax = DefaultRetryWaitMax
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil
	if logger != nil {
		rc.Logger = logger
	}
	return rc
}

// Client talks to one comment server.
type Client struct {
	base    string
	http    *retryablehttp.Client
	logger  hclog.Logger
	version string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the retrying HTTP client.
func WithHTTPClient(c *retryablehttp.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithLogger sets the client logger.
func WithLogger(l hclog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// WithVersion sets the client version reported in the User-Agent.
func WithVersion(v string) Option {
	return func(cl *Client) {
		cl.version = v
	}
}

// New creates a client for server, an absolute http(s) URL.
func New(server string, opts ...Option) (*Client, error) {
	u, err := url.Parse(server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidServer, server)
	}

	c := &Client{
		base:   strings.TrimSuffix(server, "/"),
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = NewRetryClient(c.logger.Named("http"), c.version)
	}
	return c, nil
}

// Base returns the server URL without a trailing slash.
func (c *Client) Base() string {
	return c.base
}

// Conf fetches the server configuration.
func (c *Client) Conf(ctx context.Context) (*ConfData, error) {
	body, err := c.get(ctx, ConfPath)
	if err != nil {
		return nil, err
	}
	data, err := DecodeConf(body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", c.base+ConfPath, err)
	}
	c.logger.Debug("fetched server configuration",
		"version", data.Version.Version, "plugins", len(data.Plugins))
	return data, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	u := c.base + path
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: u, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("GET %s: reading body: %w", u, err)
	}
	return body, nil
}

// confWire mirrors the configuration response.
type confWire struct {
	FrontendConf jsoniter.RawMessage `json:"frontend_conf"`
	Plugins      PluginList          `json:"plugins"`
	Version      VersionInfo         `json:"version"`
}

// DecodeConf decodes a configuration response body.
func DecodeConf(body []byte) (*ConfData, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidResponse
	}

	var wire confWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	data := &ConfData{
		Plugins: wire.Plugins,
		Version: wire.Version,
	}
	if gjson.ParseBytes(wire.FrontendConf).IsObject() {
		var fc map[string]any
		if err := json.Unmarshal(wire.FrontendConf, &fc); err != nil {
			return nil, fmt.Errorf("%w: frontend_conf: %v", ErrInvalidResponse, err)
		}
		data.FrontendConf = fc
	}
	return data, nil
}
