package event

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testEvent(name string) Event {
	switch name {
	case NameBookingCreated:
		return NewBookingCreated(1, 2, 3, 4, time.Now().UTC(), time.Now().UTC().Add(time.Hour))
	case NameBookingConfirmed:
		return NewBookingConfirmed(1, 2, 3, 4, time.Now().UTC(), time.Now().UTC().Add(time.Hour))
	case NameBookingCancelled:
		return NewBookingCancelled(1, 2, "reason")
	default:
		return NewBookingCompleted(1, 2, 100)
	}
}

func TestDispatchRunsHandlersInRegistrationOrder(t *testing.T) {
	var order []string
	mark := func(tag string) Handler {
		return HandlerFunc(func(ctx context.Context, ev Event) error {
			order = append(order, tag)
			return nil
		})
	}
	reg := Registry{}.
		Register(NameBookingConfirmed, mark("audit")).
		Register(NameBookingConfirmed, mark("email"))
	d := NewDispatcher(reg)

	if err := d.Dispatch(context.Background(), testEvent(NameBookingConfirmed)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(order) != 2 || order[0] != "audit" || order[1] != "email" {
		t.Fatalf("handlers ran out of order: %v", order)
	}
}

func TestDispatchAttemptsAllHandlersDespiteFailure(t *testing.T) {
	boom := errors.New("smtp down")
	var ran []string
	reg := Registry{}.
		Register(NameBookingCancelled, HandlerFunc(func(ctx context.Context, ev Event) error {
			ran = append(ran, "first")
			return boom
		})).
		Register(NameBookingCancelled, HandlerFunc(func(ctx context.Context, ev Event) error {
			ran = append(ran, "second")
			return nil
		}))
	d := NewDispatcher(reg)

	err := d.Dispatch(context.Background(), testEvent(NameBookingCancelled))
	// The second handler still ran.
	if len(ran) != 2 {
		t.Fatalf("all handlers must be attempted, ran %v", ran)
	}
	var de *DispatchError
	if !errors.As(err, &de) {
		t.Fatalf("want *DispatchError, got %v", err)
	}
	if de.EventName != NameBookingCancelled || len(de.Errs) != 1 || !errors.Is(de.Errs[0], boom) {
		t.Fatalf("dispatch error contents wrong: %+v", de)
	}
}

func TestDispatchUnregisteredEventIsNoop(t *testing.T) {
	d := NewDispatcher(Registry{})
	if err := d.Dispatch(context.Background(), testEvent(NameBookingCompleted)); err != nil {
		t.Fatalf("events without handlers must be dropped silently, got %v", err)
	}
}

func TestDispatchAllStopsAtFirstFailingEvent(t *testing.T) {
	var delivered []string
	reg := Registry{}.
		Register(NameBookingCreated, HandlerFunc(func(ctx context.Context, ev Event) error {
			delivered = append(delivered, ev.Name())
			return nil
		})).
		Register(NameBookingConfirmed, HandlerFunc(func(ctx context.Context, ev Event) error {
			delivered = append(delivered, ev.Name())
			return errors.New("broker unreachable")
		})).
		Register(NameBookingCompleted, HandlerFunc(func(ctx context.Context, ev Event) error {
			delivered = append(delivered, ev.Name())
			return nil
		}))
	d := NewDispatcher(reg)

	events := []Event{
		testEvent(NameBookingCreated),
		testEvent(NameBookingConfirmed),
		testEvent(NameBookingCompleted),
	}
	err := d.DispatchAll(context.Background(), events)
	if err == nil {
		t.Fatal("failing event must propagate")
	}
	// The created event was delivered, the confirmed one failed and the
	// completed one was never attempted.
	if len(delivered) != 2 || delivered[0] != NameBookingCreated || delivered[1] != NameBookingConfirmed {
		t.Fatalf("delivery sequence wrong: %v", delivered)
	}
}

func TestRegisterChains(t *testing.T) {
	reg := Registry{}.
		Register(NameBookingCreated, HandlerFunc(func(ctx context.Context, ev Event) error { return nil })).
		Register(NameBookingCreated, HandlerFunc(func(ctx context.Context, ev Event) error { return nil }))
	if len(reg[NameBookingCreated]) != 2 {
		t.Fatalf("want 2 handlers, got %d", len(reg[NameBookingCreated]))
	}
}
