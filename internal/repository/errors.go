// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking service and handlers to distinguish between different failure
// scenarios without string matching. Not-found sentinels exist per
// entity so the service layer can report which reference in a booking
// request was dangling.
package repository

import "errors"

// ErrBookingNotFound is returned when a booking lookup fails.
var ErrBookingNotFound = errors.New("booking not found")

// ErrCustomerNotFound is returned when a customer lookup fails.
var ErrCustomerNotFound = errors.New("customer not found")

// ErrStaffNotFound is returned when a staff lookup fails.
var ErrStaffNotFound = errors.New("staff not found")

// ErrRoomNotFound is returned when a room lookup fails.
var ErrRoomNotFound = errors.New("room not found")

// ErrServiceNotFound is returned when a catalog service lookup fails.
var ErrServiceNotFound = errors.New("service not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an HTTP
// 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as attempting to delete a staff
// member who still has active bookings. Handlers should translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
