// Package event defines the domain events a booking records when it moves
// through its lifecycle, and the dispatcher that delivers them to
// registered handlers once the transition has been committed.  Events are
// immutable facts; they are produced by state transitions and consumed
// exactly once per registered handler.
package event

import "time"

// Event names.  Handlers are registered against these values.
const (
	NameBookingCreated   = "booking.created"
	NameBookingConfirmed = "booking.confirmed"
	NameBookingCancelled = "booking.cancelled"
	NameBookingCompleted = "booking.completed"
)

// Event is one recorded state transition.  Every variant carries the
// booking and customer it concerns plus the moment it occurred.
type Event interface {
	Name() string
	Booking() uint64
	Customer() uint64
	OccurredAt() time.Time
}

// base holds the fields shared by every variant.
type base struct {
	BookingID  uint64
	CustomerID uint64
	At         time.Time
}

func (b base) Booking() uint64       { return b.BookingID }
func (b base) Customer() uint64      { return b.CustomerID }
func (b base) OccurredAt() time.Time { return b.At }

// BookingCreated is recorded when a new booking passes availability and is
// saved in PENDING state.
type BookingCreated struct {
	base
	StaffID uint64
	RoomID  uint64
	Start   time.Time
	End     time.Time
}

func (BookingCreated) Name() string { return NameBookingCreated }

// NewBookingCreated builds a BookingCreated event stamped with the current
// UTC time.
func NewBookingCreated(bookingID, customerID, staffID, roomID uint64, start, end time.Time) BookingCreated {
	return BookingCreated{
		base:    base{BookingID: bookingID, CustomerID: customerID, At: time.Now().UTC()},
		StaffID: staffID,
		RoomID:  roomID,
		Start:   start,
		End:     end,
	}
}

// BookingConfirmed is recorded when a pending booking is confirmed by the
// spa.  Downstream handlers typically send the confirmation email.
type BookingConfirmed struct {
	base
	StaffID uint64
	RoomID  uint64
	Start   time.Time
	End     time.Time
}

func (BookingConfirmed) Name() string { return NameBookingConfirmed }

func NewBookingConfirmed(bookingID, customerID, staffID, roomID uint64, start, end time.Time) BookingConfirmed {
	return BookingConfirmed{
		base:    base{BookingID: bookingID, CustomerID: customerID, At: time.Now().UTC()},
		StaffID: staffID,
		RoomID:  roomID,
		Start:   start,
		End:     end,
	}
}

// BookingCancelled is recorded when a booking is cancelled from PENDING or
// CONFIRMED.  Reason is the free-text explanation supplied by whoever
// cancelled and is preserved verbatim for the notification.
type BookingCancelled struct {
	base
	Reason string
}

func (BookingCancelled) Name() string { return NameBookingCancelled }

func NewBookingCancelled(bookingID, customerID uint64, reason string) BookingCancelled {
	return BookingCancelled{
		base:   base{BookingID: bookingID, CustomerID: customerID, At: time.Now().UTC()},
		Reason: reason,
	}
}

// BookingCompleted is recorded when a confirmed appointment has taken
// place.  TotalCents is the booking's final amount across its service
// lines.
type BookingCompleted struct {
	base
	TotalCents uint32
}

func (BookingCompleted) Name() string { return NameBookingCompleted }

func NewBookingCompleted(bookingID, customerID uint64, totalCents uint32) BookingCompleted {
	return BookingCompleted{
		base:       base{BookingID: bookingID, CustomerID: customerID, At: time.Now().UTC()},
		TotalCents: totalCents,
	}
}
