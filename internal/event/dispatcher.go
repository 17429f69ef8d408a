package event

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Handler reacts to one delivered event.  Handlers run synchronously on
// the dispatching goroutine; a handler that performs I/O (publishing a
// notification, say) blocks delivery of subsequent events in the same
// DispatchAll call.  Retrying a failed side effect is the handler's own
// concern, the dispatcher attempts each handler exactly once per event.
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, ev Event) error

func (f HandlerFunc) Handle(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Registry is the static mapping from event name to the ordered list of
// handlers interested in it.  It is built once at process start and
// passed to the dispatcher; nothing mutates it afterwards, which keeps
// the registration set inspectable and trivially safe to read from any
// goroutine.
type Registry map[string][]Handler

// Register appends a handler for the named event and returns the registry
// so registrations chain during startup wiring.
func (r Registry) Register(name string, h Handler) Registry {
	r[name] = append(r[name], h)
	return r
}

// DispatchError aggregates handler failures for a single event.  By the
// time it is returned the booking's transition has already been committed;
// the error exists so the operator learns a side effect (an email, a
// broker publish) did not complete, not so the caller can roll back.
type DispatchError struct {
	EventName string
	Errs      []error
}

func (e *DispatchError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("dispatch %s: %s", e.EventName, strings.Join(msgs, "; "))
}

// Dispatcher delivers events to the handlers registered for their name.
type Dispatcher struct {
	registry Registry
}

// NewDispatcher returns a dispatcher reading from the given registry.  The
// registry must be fully built before the first Dispatch call.
func NewDispatcher(registry Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch invokes every handler registered for the event, sequentially,
// in registration order.  A failing handler does not stop later handlers
// of the same event from running: each is attempted, failures are logged
// as they happen, and the collected failures come back as one
// DispatchError.  Events with no registered handlers are silently dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	handlers := d.registry[ev.Name()]
	var errs []error
	for _, h := range handlers {
		if err := h.Handle(ctx, ev); err != nil {
			log.Printf("event: handler for %s failed (booking=%d): %v", ev.Name(), ev.Booking(), err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &DispatchError{EventName: ev.Name(), Errs: errs}
	}
	return nil
}

// DispatchAll delivers a sequence of events one at a time, in the order
// they were recorded.  The first event whose handlers fail stops the
// sequence and its DispatchError propagates; deliveries that already
// succeeded are not undone.
func (d *Dispatcher) DispatchAll(ctx context.Context, events []Event) error {
	for _, ev := range events {
		if err := d.Dispatch(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
