package lua

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultQueueSize is the executor queue length used when none is given.
const DefaultQueueSize = 128

// job is a Lua operation waiting to run.
type job struct {
	fn     func(L *lua.LState) error
	result chan error
}

// Executor serializes all operations on an LState through one goroutine.
//
// Functions passed to Execute run on the executor goroutine and must not
// call Execute themselves; use Go to schedule follow-up work.
type Executor struct {
	L    *lua.LState
	jobs chan *job

	started   atomic.Bool
	closed    atomic.Bool
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// onAsyncError receives failures of operations scheduled with Go.
	onAsyncError func(error)
}

// NewExecutor creates an executor for L. Call Start before submitting work.
func NewExecutor(L *lua.LState, queueSize int) *Executor {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Executor{
		L:       L,
		jobs:    make(chan *job, queueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start launches the executor goroutine.
func (e *Executor) Start() {
	if e.started.CompareAndSwap(false, true) {
		go e.run()
	}
}

func (e *Executor) run() {
	defer close(e.stopped)
	for {
		select {
		case <-e.done:
			e.drain()
			return
		case j := <-e.jobs:
			err := e.call(j.fn)
			j.result <- err
			close(j.result)
		}
	}
}

// call runs fn with panic recovery.
func (e *Executor) call(fn func(L *lua.LState) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case error:
				err = v
			default:
				err = fmt.Errorf("lua panic: %v", v)
			}
		}
	}()
	return fn(e.L)
}

// drain fails every queued job with ErrRuntimeClosed.
func (e *Executor) drain() {
	for {
		select {
		case j := <-e.jobs:
			j.result <- ErrRuntimeClosed
			close(j.result)
		default:
			return
		}
	}
}

// Execute runs fn on the executor goroutine and waits for its result.
//
// If ctx is cancelled while waiting, Execute returns ctx.Err(); an
// operation already queued still runs.
func (e *Executor) Execute(ctx context.Context, fn func(L *lua.LState) error) error {
	if e.closed.Load() {
		return ErrRuntimeClosed
	}

	j := &job{fn: fn, result: make(chan error, 1)}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrRuntimeClosed
	case e.jobs <- j:
	}

	return e.wait(ctx, j)
}

// wait returns the result of j. A job still queued when the executor
// goroutine has stopped fails with ErrRuntimeClosed.
func (e *Executor) wait(ctx context.Context, j *job) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err, ok := <-j.result:
		if !ok {
			return ErrRuntimeClosed
		}
		return err
	case <-e.stopped:
		select {
		case err, ok := <-j.result:
			if ok {
				return err
			}
		default:
		}
		return ErrRuntimeClosed
	}
}

// Go schedules fn without waiting. Failures are reported to the async
// error handler. It is safe to call from the executor goroutine.
func (e *Executor) Go(fn func(L *lua.LState) error) error {
	if e.closed.Load() {
		return ErrRuntimeClosed
	}

	j := &job{fn: fn, result: make(chan error, 1)}

	select {
	case <-e.done:
		return ErrRuntimeClosed
	case e.jobs <- j:
	default:
		return ErrQueueFull
	}

	go func() {
		if err := e.wait(context.Background(), j); err != nil && !errors.Is(err, ErrRuntimeClosed) && e.onAsyncError != nil {
			e.onAsyncError(err)
		}
	}()
	return nil
}

// Close stops the executor and waits for the goroutine to exit.
// Queued operations fail with ErrRuntimeClosed. An executor that was never
// started cannot be started afterwards.
func (e *Executor) Close() {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.done)
		if e.started.CompareAndSwap(false, true) {
			e.drain()
			close(e.stopped)
		}
	})
	<-e.stopped
}

// IsClosed reports whether Close has been called.
func (e *Executor) IsClosed() bool {
	return e.closed.Load()
}
