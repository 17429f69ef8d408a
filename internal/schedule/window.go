// Package schedule contains the time arithmetic and availability checks
// used when placing a booking.  Bookings occupy half-open intervals
// [start, end): the end instant itself is excluded, so back-to-back
// appointments on the same staff member or room never conflict.
package schedule

import "time"

// DefaultDuration is the fallback length applied to a booking whose end
// time was not supplied.  The value mirrors the one-hour walk-in slot the
// storefront assumes; it is overridden at startup from configuration and
// should not be treated as a business constant.
var DefaultDuration = 60 * time.Minute

// ResourceKind identifies which occupancy calendar a window refers to.
// Staff and rooms are the two entities whose time is contended for.
type ResourceKind string

const (
	ResourceStaff ResourceKind = "STAFF"
	ResourceRoom  ResourceKind = "ROOM"
)

// Window is a transient (resource, start, end) triple used while checking
// availability.  It is never persisted; the booking row is the durable
// record of an occupied interval.
type Window struct {
	Kind  ResourceKind // which calendar the window belongs to
	ID    uint64       // staff or room identifier
	Start time.Time    // inclusive start of the interval
	End   time.Time    // exclusive end; zero value means "not supplied"
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share any instant.  Touching endpoints do not count:
// an appointment ending at 11:00 does not collide with one starting at
// 11:00.  A zero end time on either side is widened to DefaultDuration.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	aEnd = effectiveEnd(aStart, aEnd)
	bEnd = effectiveEnd(bStart, bEnd)
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// effectiveEnd substitutes the configured default duration when an end
// timestamp is missing.
func effectiveEnd(start, end time.Time) time.Time {
	if end.IsZero() {
		return start.Add(DefaultDuration)
	}
	return end
}
