package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for the API client.
var (
	// ErrInvalidServer is returned when the server URL is empty or not http(s).
	ErrInvalidServer = errors.New("invalid server url")

	// ErrInvalidResponse is returned when a response body is not valid JSON.
	ErrInvalidResponse = errors.New("invalid response body")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %s", e.URL, e.Status)
}
