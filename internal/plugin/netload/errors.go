package netload

import (
	"errors"
	"fmt"
)

// Sentinel errors for plugin script loading.
var (
	// ErrIntegrityMismatch is returned when a script does not match its
	// integrity hash.
	ErrIntegrityMismatch = errors.New("integrity mismatch")

	// ErrMalformedOptions is reported when descriptor options are not JSON.
	ErrMalformedOptions = errors.New("malformed plugin options")

	// ErrNotLuaScript is returned by LoadDir for a path that is not a .lua file.
	ErrNotLuaScript = errors.New("not a lua script")
)

// IntegrityError reports a script whose digest did not match.
type IntegrityError struct {
	URL       string
	Integrity string
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %v (expected %s)", e.URL, ErrIntegrityMismatch, e.Integrity)
}

// Unwrap returns ErrIntegrityMismatch.
func (e *IntegrityError) Unwrap() error {
	return ErrIntegrityMismatch
}

// LoadError wraps a failure to load one script.
type LoadError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}
