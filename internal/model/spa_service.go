package model

import "time"

// SpaService is a catalog entry a customer can add to a booking: a
// massage, a facial, and so on.  DurationMin informs the default window
// length suggested by the storefront; PriceCents is the current list
// price, snapshotted onto the booking's service lines at creation time.
type SpaService struct {
	ID          uint64
	Name        string
	Description *string
	DurationMin uint32
	PriceCents  uint32
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
