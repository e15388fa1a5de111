package lua

import (
	"errors"
	"fmt"
)

// Errors for Lua runtime operations.
var (
	// ErrRuntimeClosed is returned when operating on a closed runtime.
	ErrRuntimeClosed = errors.New("lua runtime is closed")

	// ErrQueueFull is returned by Go when the executor cannot accept more work.
	ErrQueueFull = errors.New("lua executor queue full")
)

// ScriptError reports a script that failed to compile or run.
type ScriptError struct {
	// Chunk is the chunk name, usually the script URL or path.
	Chunk string

	// Err is the underlying Lua error.
	Err error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("lua script %s: %v", e.Chunk, e.Err)
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}
