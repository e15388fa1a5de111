// Package event provides the event bus shared by a widget Context and its
// plugins.
//
// Events are identified by plain names ("conf-updated", "mount-error",
// "destroy", ...). Handlers run synchronously in the goroutine that
// triggers the event, in subscription order. A panicking handler is
// recovered and reported through the bus logger; it never prevents the
// remaining handlers from running.
//
//	bus := event.NewBus()
//	id := bus.On("conf-updated", func(payload any) {
//	    // react to the new configuration
//	})
//	bus.Trigger("conf-updated", conf)
//	bus.Off(id)
//
// Subscribing to the wildcard name "*" receives every event wrapped in an
// Envelope.
package event
