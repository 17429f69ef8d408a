// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used for booking notifications.  Both queues are declared
// durable by publisher and consumer alike.
const (
	BookingConfirmedQueue = "booking.confirmed"
	BookingCancelledQueue = "booking.cancelled"
)

// BookingConfirmedPayload is published when a booking is confirmed.  It
// contains enough information for the notification worker to compose the
// confirmation email without querying the primary database.
type BookingConfirmedPayload struct {
	BookingID     uint64 `json:"booking_id"`
	CustomerID    uint64 `json:"customer_id"`
	CustomerEmail string `json:"customer_email"`
	StaffID       uint64 `json:"staff_id"`
	RoomID        uint64 `json:"room_id"`
	StartsAt      string `json:"starts_at"`
	EndsAt        string `json:"ends_at,omitempty"`
	ConfirmedAt   string `json:"confirmed_at"`
}

// BookingCancelledPayload is published when a booking is cancelled.  The
// reason string is carried verbatim into the cancellation notice.
type BookingCancelledPayload struct {
	BookingID     uint64 `json:"booking_id"`
	CustomerID    uint64 `json:"customer_id"`
	CustomerEmail string `json:"customer_email"`
	Reason        string `json:"reason,omitempty"`
	CancelledAt   string `json:"cancelled_at"`
}
