package plugin

import (
	"context"
	"fmt"
)

// LoadAll invokes every callable plugin in plugins that is not yet in
// loaded, in order, passing the options found in store. Each successfully
// invoked plugin is added to loaded, so a later call skips it. A plugin is
// claimed in loaded while it runs, so concurrent calls sharing loaded
// invoke it at most once.
//
// Invocation errors are not contained: the first failure stops the loop
// and is returned as an *InvokeError.
func LoadAll(ctx context.Context, wc Context, plugins []*Plugin, loaded *Set, store OptionsStore) error {
	for _, p := range plugins {
		if !p.Callable() {
			continue
		}
		if !loaded.Claim(p) {
			continue
		}

		var opts *Options
		if store != nil {
			opts, _ = store.Options(p)
		}

		if err := invoke(ctx, wc, p, opts); err != nil {
			loaded.Release(p)
			return &InvokeError{Plugin: p.name, Err: err}
		}
		loaded.Add(p)
	}
	return nil
}

// invoke calls the plugin function, converting panics into errors.
func invoke(ctx context.Context, wc Context, p *Plugin, opts *Options) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPluginPanic, r)
		}
	}()
	return p.fn(ctx, wc, opts)
}
