package model

import (
	"fmt"
	"time"

	"github.com/minhtran/spa-booking/internal/event"
)

// BookingStatus enumerates the lifecycle states of a booking.  PENDING is
// the initial state of every new booking; COMPLETED and CANCELLED are
// terminal.
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCompleted BookingStatus = "COMPLETED"
	StatusCancelled BookingStatus = "CANCELLED"
)

// ValidStatus reports whether s is one of the four known statuses.
func ValidStatus(s BookingStatus) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// InvalidTransitionError is returned when a lifecycle operation is called
// on a booking whose current status does not permit it, e.g. completing a
// booking that was never confirmed, or cancelling one twice.
type InvalidTransitionError struct {
	BookingID uint64
	From      BookingStatus
	To        BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking %d: illegal transition %s -> %s", e.BookingID, e.From, e.To)
}

// Booking represents one scheduled spa appointment.  It references (but
// does not own) the customer, the staff member performing the services and
// the room they happen in.  Status changes only through the transition
// methods below, each of which records a domain event; the pending event
// list belongs to the booking until the dispatcher drains it via
// PullEvents.
//
// Fields:
//  ID         – primary key identifier, assigned by the store.
//  CustomerID – customer who booked.
//  StaffID    – staff member assigned to the appointment.
//  RoomID     – room the appointment takes place in.
//  StartAt    – inclusive start of the occupied window.
//  EndAt      – exclusive end; zero means "no explicit end" and the
//               window is widened by the configured default duration.
//  Status     – current lifecycle state.
//  TotalCents – total amount across service lines, in cents.
//  Lines      – service lines (service + quantity + price snapshot).
//  Notes      – optional free-text note from the customer.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Booking struct {
	ID         uint64
	CustomerID uint64
	StaffID    uint64
	RoomID     uint64
	StartAt    time.Time
	EndAt      time.Time
	Status     BookingStatus
	TotalCents uint32
	Lines      []ServiceLine
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	pending []event.Event
}

// ServiceLine is one service included in a booking with the quantity and
// the unit price at the time of booking.  Prices are snapshotted so later
// catalog edits do not change what the customer was quoted.
type ServiceLine struct {
	ID         uint64
	BookingID  uint64
	ServiceID  uint64
	Quantity   uint32
	PriceCents uint32
}

// NewBooking builds a PENDING booking and records its Created event.  The
// caller has already validated the input and verified availability; the
// store assigns the ID afterwards, so the Created event is recorded by
// RecordCreated once the ID is known.
func NewBooking(customerID, staffID, roomID uint64, start, end time.Time, lines []ServiceLine, notes string) *Booking {
	var total uint32
	for _, l := range lines {
		total += l.PriceCents * l.Quantity
	}
	return &Booking{
		CustomerID: customerID,
		StaffID:    staffID,
		RoomID:     roomID,
		StartAt:    start,
		EndAt:      end,
		Status:     StatusPending,
		TotalCents: total,
		Lines:      lines,
		Notes:      notes,
	}
}

// RecordCreated appends the Created event.  Called after the store has
// assigned the booking's ID.
func (b *Booking) RecordCreated() {
	b.record(event.NewBookingCreated(b.ID, b.CustomerID, b.StaffID, b.RoomID, b.StartAt, b.EndAt))
}

// Confirm moves the booking from PENDING to CONFIRMED and records the
// Confirmed event.  Any other starting status is an invalid transition.
func (b *Booking) Confirm() error {
	if b.Status != StatusPending {
		return &InvalidTransitionError{BookingID: b.ID, From: b.Status, To: StatusConfirmed}
	}
	b.Status = StatusConfirmed
	b.record(event.NewBookingConfirmed(b.ID, b.CustomerID, b.StaffID, b.RoomID, b.StartAt, b.EndAt))
	return nil
}

// Cancel moves the booking to CANCELLED from PENDING or CONFIRMED and
// records the Cancelled event carrying the reason verbatim.  Cancelling is
// deliberately not idempotent: a second cancel is an invalid transition,
// not a no-op.
func (b *Booking) Cancel(reason string) error {
	if b.Status != StatusPending && b.Status != StatusConfirmed {
		return &InvalidTransitionError{BookingID: b.ID, From: b.Status, To: StatusCancelled}
	}
	b.Status = StatusCancelled
	b.record(event.NewBookingCancelled(b.ID, b.CustomerID, reason))
	return nil
}

// Complete moves the booking from CONFIRMED to COMPLETED and records the
// Completed event carrying the total amount.
func (b *Booking) Complete() error {
	if b.Status != StatusConfirmed {
		return &InvalidTransitionError{BookingID: b.ID, From: b.Status, To: StatusCompleted}
	}
	b.Status = StatusCompleted
	b.record(event.NewBookingCompleted(b.ID, b.CustomerID, b.TotalCents))
	return nil
}

// Reschedule replaces the booking's window in place.  The status does not
// change and no lifecycle event is recorded; availability for the new
// window has already been re-verified by the caller with this booking's
// own ID excluded.
func (b *Booking) Reschedule(start, end time.Time) {
	b.StartAt = start
	b.EndAt = end
}

// PullEvents returns the pending events in the order they were recorded
// and clears the list.  The dispatcher calls this once after the state
// change has been committed; a second call returns nil until a new
// transition records more events.
func (b *Booking) PullEvents() []event.Event {
	evs := b.pending
	b.pending = nil
	return evs
}

func (b *Booking) record(ev event.Event) {
	b.pending = append(b.pending, ev)
}
