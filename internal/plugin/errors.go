package plugin

import (
	"errors"
	"fmt"
)

// Plugin system errors.
var (
	// ErrPluginPanic is returned when a plugin panics during invocation.
	ErrPluginPanic = errors.New("plugin panicked")
)

// InvokeError wraps an error returned by a plugin invocation.
type InvokeError struct {
	// Plugin is the name of the failing plugin.
	Plugin string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *InvokeError) Error() string {
	return fmt.Sprintf("plugin %q: %v", e.Plugin, e.Err)
}

// Unwrap returns the underlying error.
func (e *InvokeError) Unwrap() error {
	return e.Err
}
