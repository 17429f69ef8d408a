package schedule

import (
	"context"
	"fmt"
	"time"
)

// Occupancy is one active (non-cancelled) booking interval returned by the
// store when scanning a resource's calendar.  A zero End means the booking
// was created without an explicit end time and occupies DefaultDuration.
type Occupancy struct {
	BookingID uint64
	Start     time.Time
	End       time.Time
}

// OccupancyReader is the narrow slice of the booking store the checker
// needs: the active intervals for one resource.  Cancelled bookings must
// not be included.  Implementations return the store's not-found sentinel
// when the staff member or room does not exist.
type OccupancyReader interface {
	FindActiveByResource(ctx context.Context, kind ResourceKind, resourceID uint64) ([]Occupancy, error)
}

// ConflictError reports that a resource is already booked somewhere inside
// the requested window.  It names the busy resource so callers can tell
// the customer whether to pick another therapist or another room.
type ConflictError struct {
	Kind       ResourceKind
	ResourceID uint64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d is not available for the requested window", e.Kind, e.ResourceID)
}

// Checker answers whether a staff member or room is free for a candidate
// window.  It is a pure read over the occupancy supplied by the store and
// performs no locking itself; callers serialize check-then-create through
// Locks.
type Checker struct {
	store OccupancyReader
}

// NewChecker returns a Checker reading occupancy from the given store.
func NewChecker(store OccupancyReader) *Checker {
	return &Checker{store: store}
}

// IsStaffAvailable reports whether the staff member is free for
// [start, end).  excludeBookingID, when non-zero, skips that booking's own
// interval so an existing booking can be re-checked during a reschedule.
// The context is consulted before the occupancy query so a
// caller that has already given up does not trigger a store read.
func (c *Checker) IsStaffAvailable(ctx context.Context, staffID uint64, start, end time.Time, excludeBookingID uint64) (bool, error) {
	return c.isAvailable(ctx, ResourceStaff, staffID, start, end, excludeBookingID)
}

// IsRoomAvailable is the room-calendar counterpart of IsStaffAvailable.
func (c *Checker) IsRoomAvailable(ctx context.Context, roomID uint64, start, end time.Time, excludeBookingID uint64) (bool, error) {
	return c.isAvailable(ctx, ResourceRoom, roomID, start, end, excludeBookingID)
}

// Check verifies a whole window and converts "busy" into a ConflictError
// naming the resource.  A nil return means the window is free.
func (c *Checker) Check(ctx context.Context, w Window, excludeBookingID uint64) error {
	free, err := c.isAvailable(ctx, w.Kind, w.ID, w.Start, w.End, excludeBookingID)
	if err != nil {
		return err
	}
	if !free {
		return &ConflictError{Kind: w.Kind, ResourceID: w.ID}
	}
	return nil
}

func (c *Checker) isAvailable(ctx context.Context, kind ResourceKind, resourceID uint64, start, end time.Time, excludeBookingID uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	occ, err := c.store.FindActiveByResource(ctx, kind, resourceID)
	if err != nil {
		return false, err
	}
	for _, o := range occ {
		if excludeBookingID != 0 && o.BookingID == excludeBookingID {
			continue
		}
		if Overlaps(start, end, o.Start, o.End) {
			return false, nil
		}
	}
	return true, nil
}
