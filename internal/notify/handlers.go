package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/minhtran/spa-booking/internal/event"
	"github.com/minhtran/spa-booking/internal/queue"
)

// EmailDirectory resolves a customer's notification address.  The
// production implementation is repository.CustomerRepo.
type EmailDirectory interface {
	GetEmail(ctx context.Context, customerID uint64) (string, error)
}

// ConfirmationPublisher handles BookingConfirmed events by publishing a
// confirmation payload to the booking.confirmed queue.
type ConfirmationPublisher struct {
	Emails EmailDirectory
}

// Handle implements event.Handler.
func (p *ConfirmationPublisher) Handle(ctx context.Context, ev event.Event) error {
	conf, ok := ev.(event.BookingConfirmed)
	if !ok {
		return fmt.Errorf("notify: unexpected event %s", ev.Name())
	}
	email, err := p.Emails.GetEmail(ctx, conf.Customer())
	if err != nil {
		return fmt.Errorf("resolve customer email: %w", err)
	}
	payload := queue.BookingConfirmedPayload{
		BookingID:     conf.Booking(),
		CustomerID:    conf.Customer(),
		CustomerEmail: email,
		StaffID:       conf.StaffID,
		RoomID:        conf.RoomID,
		StartsAt:      conf.Start.UTC().Format(time.RFC3339),
		ConfirmedAt:   conf.OccurredAt().Format(time.RFC3339),
	}
	if !conf.End.IsZero() {
		payload.EndsAt = conf.End.UTC().Format(time.RFC3339)
	}
	return Publish(ctx, queue.BookingConfirmedQueue, payload)
}

// CancellationPublisher handles BookingCancelled events by publishing a
// cancellation payload to the booking.cancelled queue.
type CancellationPublisher struct {
	Emails EmailDirectory
}

// Handle implements event.Handler.
func (p *CancellationPublisher) Handle(ctx context.Context, ev event.Event) error {
	can, ok := ev.(event.BookingCancelled)
	if !ok {
		return fmt.Errorf("notify: unexpected event %s", ev.Name())
	}
	email, err := p.Emails.GetEmail(ctx, can.Customer())
	if err != nil {
		return fmt.Errorf("resolve customer email: %w", err)
	}
	payload := queue.BookingCancelledPayload{
		BookingID:     can.Booking(),
		CustomerID:    can.Customer(),
		CustomerEmail: email,
		Reason:        can.Reason,
		CancelledAt:   can.OccurredAt().Format(time.RFC3339),
	}
	return Publish(ctx, queue.BookingCancelledQueue, payload)
}

// AuditLogger handles any booking event by writing a structured line to
// the process log.  It is registered for the created and completed
// variants, which have no outbound notification but should still leave a
// trace for the operator.
type AuditLogger struct{}

// Handle implements event.Handler.  It never fails.
func (AuditLogger) Handle(_ context.Context, ev event.Event) error {
	log.Printf("booking-event: %s | booking_id=%d | customer_id=%d | at=%s",
		ev.Name(), ev.Booking(), ev.Customer(), ev.OccurredAt().Format(time.RFC3339))
	return nil
}

// NewRegistry builds the process-wide handler registry.  Registration
// order is delivery order: the audit line is written before the broker
// publish for the variants that have both.  The registry is constructed
// once at startup and never mutated afterwards.
func NewRegistry(emails EmailDirectory) event.Registry {
	r := event.Registry{}
	r.Register(event.NameBookingCreated, AuditLogger{})
	r.Register(event.NameBookingConfirmed, AuditLogger{})
	r.Register(event.NameBookingConfirmed, &ConfirmationPublisher{Emails: emails})
	r.Register(event.NameBookingCancelled, AuditLogger{})
	r.Register(event.NameBookingCancelled, &CancellationPublisher{Emails: emails})
	r.Register(event.NameBookingCompleted, AuditLogger{})
	return r
}
