package netload

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/dshills/threadline/internal/api"
)

// MaxScriptSize caps the size of a fetched script.
const MaxScriptSize = 4 << 20

// Fetcher retrieves script bodies.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Fetch calls f(ctx, url).
func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// HTTPFetcher fetches scripts over HTTP without credentials.
type HTTPFetcher struct {
	client *retryablehttp.Client
}

// NewHTTPFetcher creates a fetcher using client, or a default retrying
// client when client is nil.
func NewHTTPFetcher(client *retryablehttp.Client) *HTTPFetcher {
	if client == nil {
		client = api.NewRetryClient(nil, "")
	}
	return &HTTPFetcher{client: client}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &api.StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxScriptSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxScriptSize {
		return nil, fmt.Errorf("script exceeds %d bytes", MaxScriptSize)
	}
	return body, nil
}
