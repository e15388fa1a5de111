package widget

import "errors"

// Sentinel errors for widget instances.
var (
	// ErrDestroyed is returned when using a destroyed instance.
	ErrDestroyed = errors.New("widget instance destroyed")
)
