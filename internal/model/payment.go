package model

import "time"

// Payment records money received against a booking.  The platform only
// records payments here; gateway interaction happens outside this service
// and reports back through the reference field.
//
// Fields:
//  ID          – primary key identifier.
//  BookingID   – booking the payment applies to.
//  AmountCents – amount paid, in cents.
//  Method      – how the customer paid (CASH, CARD, TRANSFER).
//  Reference   – optional external gateway reference.
//  PaidAt      – when the payment was taken.
//  CreatedAt   – creation timestamp.
type Payment struct {
	ID          uint64
	BookingID   uint64
	AmountCents uint32
	Method      string
	Reference   *string
	PaidAt      time.Time
	CreatedAt   time.Time
}
