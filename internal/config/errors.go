package config

import "errors"

// Errors returned by configuration operations.
var (
	// ErrMissingServer indicates the configuration has no server address.
	ErrMissingServer = errors.New("config: server is required")

	// ErrInvalidPath indicates an invalid setting path format.
	ErrInvalidPath = errors.New("invalid setting path")
)
