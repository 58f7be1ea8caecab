package event

import (
	"fmt"
	"log/slog"
)

// Handler consumes one event. Handlers run synchronously on the publishing
// goroutine and must not mutate the graph.
type Handler func(Event)

// Dispatcher is a synchronous pub/sub hub. Subscribers are invoked in
// subscription order; a handler panic is recovered and logged so later
// handlers still see the event.
//
// The dispatcher inherits the core's single-writer discipline: Publish and
// Subscribe are called from the same goroutine as graph mutation, so no
// locking is needed or provided.
type Dispatcher struct {
	logger *slog.Logger
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn Handler
}

// NewDispatcher creates a Dispatcher. A nil logger falls back to
// slog.Default().
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

// Subscribe registers a handler and returns a function that removes it.
// Unsubscribing during delivery takes effect for subsequent events.
func (d *Dispatcher) Subscribe(fn Handler) func() {
	d.nextID++
	id := d.nextID
	d.subs = append(d.subs, subscription{id: id, fn: fn})

	return func() {
		for i, s := range d.subs {
			if s.id == id {
				d.subs = append(d.subs[:i], d.subs[i+1:]...)
				return
			}
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (d *Dispatcher) SubscriberCount() int {
	return len(d.subs)
}

// Publish delivers an event to every current subscriber, in subscription
// order. Delivery is isolated: one misbehaving handler never hides an event
// from the rest.
func (d *Dispatcher) Publish(e Event) {
	// Snapshot so handlers that subscribe or unsubscribe during delivery
	// do not perturb this delivery pass.
	subs := make([]subscription, len(d.subs))
	copy(subs, d.subs)

	for _, s := range subs {
		d.deliver(s, e)
	}
}

func (d *Dispatcher) deliver(s subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("event handler panicked",
				"event", Name(e),
				"subscriber", s.id,
				"error", fmt.Sprint(r))
		}
	}()
	s.fn(e)
}
