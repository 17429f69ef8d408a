package model

import "time"

// Customer is a storefront account that can place bookings.  The email is
// where lifecycle notifications are sent.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – optional link to a login account; nil for walk-ins
//              registered by the front desk.
//  FullName  – display name.
//  Email     – notification address.
//  Phone     – optional contact number.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Customer struct {
	ID        uint64
	UserID    *uint64
	FullName  string
	Email     string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
