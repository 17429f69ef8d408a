package model

import "time"

// Staff is a therapist or technician whose working time is booked against.
// Inactive staff are hidden from the storefront but their historical
// bookings remain.
//
// Fields:
//  ID        – primary key identifier.
//  FullName  – display name shown to customers.
//  Title     – optional job title (e.g. "Senior Therapist").
//  Email     – contact address.
//  IsActive  – whether the staff member currently takes bookings.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Staff struct {
	ID        uint64
	FullName  string
	Title     *string
	Email     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
