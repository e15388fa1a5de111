package event

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// Wildcard subscribes to every event.
const Wildcard = "*"

// Handler receives an event payload.
type Handler func(payload any)

// Envelope is the payload delivered to wildcard subscribers.
type Envelope struct {
	Name    string
	Payload any
}

// subscription is a registered handler.
type subscription struct {
	id      string
	name    string
	handler Handler
	once    bool
	fired   atomic.Bool
}

// Stats contains bus counters.
type Stats struct {
	Subscriptions    int
	EventsTriggered  uint64
	HandlersExecuted uint64
	HandlerPanics    uint64
}

// Bus delivers named events to subscribed handlers.
// It is safe for concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]*subscription
	byID map[string]*subscription

	logger hclog.Logger

	eventsTriggered  atomic.Uint64
	handlersExecuted atomic.Uint64
	handlerPanics    atomic.Uint64
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used to report handler panics.
func WithLogger(l hclog.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBus creates a new event bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subs:   make(map[string][]*subscription),
		byID:   make(map[string]*subscription),
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// On subscribes handler to events named name and returns the subscription ID.
// A nil handler is ignored and yields an empty ID.
func (b *Bus) On(name string, handler Handler) string {
	return b.add(name, handler, false)
}

// Once subscribes handler for the next event named name only.
func (b *Bus) Once(name string, handler Handler) string {
	return b.add(name, handler, true)
}

func (b *Bus) add(name string, handler Handler, once bool) string {
	if handler == nil {
		return ""
	}

	sub := &subscription{
		id:      uuid.NewString(),
		name:    name,
		handler: handler,
		once:    once,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[name] = append(b.subs[name], sub)
	b.byID[sub.id] = sub
	return sub.id
}

// Off removes the subscription with the given ID.
// Returns false if no such subscription exists.
func (b *Bus) Off(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.removeLocked(id)
}

func (b *Bus) removeLocked(id string) bool {
	sub, ok := b.byID[id]
	if !ok {
		return false
	}
	delete(b.byID, id)

	subs := b.subs[sub.name]
	for i, s := range subs {
		if s.id == id {
			b.subs[sub.name] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[sub.name]) == 0 {
		delete(b.subs, sub.name)
	}
	return true
}

// Trigger delivers payload to the handlers subscribed to name, then to
// wildcard handlers. Handlers subscribed during delivery are not called
// for the current event.
func (b *Bus) Trigger(name string, payload any) {
	b.eventsTriggered.Add(1)

	b.mu.RLock()
	direct := append([]*subscription(nil), b.subs[name]...)
	var wild []*subscription
	if name != Wildcard {
		wild = append(wild, b.subs[Wildcard]...)
	}
	b.mu.RUnlock()

	for _, sub := range direct {
		b.deliver(sub, name, payload)
	}
	if len(wild) > 0 {
		env := Envelope{Name: name, Payload: payload}
		for _, sub := range wild {
			b.deliver(sub, name, env)
		}
	}
}

func (b *Bus) deliver(sub *subscription, name string, payload any) {
	if sub.once {
		if !sub.fired.CompareAndSwap(false, true) {
			return
		}
		b.Off(sub.id)
	}

	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			err := &HandlerError{
				SubscriptionID: sub.id,
				Event:          name,
				Err:            fmt.Errorf("%w: %v", ErrHandlerPanic, r),
			}
			b.logger.Error("event handler panicked", "event", name, "error", err)
		}
	}()

	b.handlersExecuted.Add(1)
	sub.handler(payload)
}

// Has reports whether any handler is subscribed to name.
func (b *Bus) Has(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name]) > 0
}

// Clear removes every subscription.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string][]*subscription)
	b.byID = make(map[string]*subscription)
}

// Stats returns the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.byID)
	b.mu.RUnlock()

	return Stats{
		Subscriptions:    n,
		EventsTriggered:  b.eventsTriggered.Load(),
		HandlersExecuted: b.handlersExecuted.Load(),
		HandlerPanics:    b.handlerPanics.Load(),
	}
}
