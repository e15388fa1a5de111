// Package widget mounts a comment widget instance.
//
// An Instance owns a Context holding the effective configuration, the API
// client, the event bus and injected services. Mounting runs five steps in
// order:
//
//  1. invoke the locally registered plugins
//  2. fetch the server configuration
//  3. resolve it against the local configuration
//  4. apply the result to the Context (conf-updated)
//  5. load and invoke the remote plugins listed by the server
//
// A failed fetch in step 2 is reported once through the ErrorSurface with a
// retry function and returned; nothing has been applied at that point.
// Failures in step 5 are logged and do not fail the mount. Each plugin is
// invoked at most once per Context, across retries and remounts.
//
//	inst := widget.New(config.Conf{"server": "https://comments.example.com", "site": "blog"})
//	defer inst.Destroy()
//	if err := inst.Mount(ctx); err != nil {
//	    // the mount-error event carries a Retry func
//	}
package widget
