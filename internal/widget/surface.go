package widget

import "context"

// RetryFunc re-runs a failed mount with its original arguments.
type RetryFunc func(ctx context.Context) error

// MountError is the payload of the mount-error event.
type MountError struct {
	Err   error
	Retry RetryFunc
}

// ErrorSurface presents a fatal mount error to the user.
type ErrorSurface interface {
	ShowMountError(wc *Context, err error, retry RetryFunc)
}

// ErrorSurfaceFunc adapts a function to ErrorSurface.
type ErrorSurfaceFunc func(wc *Context, err error, retry RetryFunc)

// ShowMountError calls f(wc, err, retry).
func (f ErrorSurfaceFunc) ShowMountError(wc *Context, err error, retry RetryFunc) {
	f(wc, err, retry)
}

// eventSurface publishes mount errors on the Context event bus.
type eventSurface struct{}

func (eventSurface) ShowMountError(wc *Context, err error, retry RetryFunc) {
	wc.Trigger(EventMountError, &MountError{Err: err, Retry: retry})
}
