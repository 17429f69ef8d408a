package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/minhtran/spa-booking/internal/model"
	"github.com/minhtran/spa-booking/internal/schedule"
)

// BookingRepo provides persistence for bookings and their service lines.
// A booking groups one or more catalog services for a customer, staff
// member and room over a time window.  Service lines are stored in the
// booking_services table.  All timestamp columns are DATETIME in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const dbTimeLayout = "2006-01-02 15:04:05"

// nullEnd converts a possibly-zero end time into a nullable column value.
func nullEnd(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(dbTimeLayout)
}

// CreateTx inserts a booking and its service lines within the provided
// transaction.  It populates the generated ID and the DB-default
// timestamps on the given booking.  The caller must commit or roll back
// the transaction; nothing is dispatched from here.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (customer_id, staff_id, room_id, start_at, end_at, status, total_cents, notes)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.CustomerID, b.StaffID, b.RoomID,
		b.StartAt.UTC().Format(dbTimeLayout), nullEnd(b.EndAt),
		string(b.Status), b.TotalCents, b.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	if err := r.createLinesBulkTx(ctx, tx, b.ID, b.Lines); err != nil {
		return err
	}
	// Query back the row to populate timestamps and defaults.
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// createLinesBulkTx inserts all service lines for a booking in a single
// statement.  Passing an empty slice has no effect and returns nil.
func (r *BookingRepo) createLinesBulkTx(ctx context.Context, tx *sql.Tx, bookingID uint64, lines []model.ServiceLine) error {
	if len(lines) == 0 {
		return nil
	}
	query := `INSERT INTO booking_services (booking_id, service_id, quantity, price_cents) VALUES `
	args := make([]interface{}, 0, len(lines)*4)
	for i, l := range lines {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, bookingID, l.ServiceID, l.Quantity, l.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// Create inserts a booking and its service lines inside its own
// transaction.  It is the entry point used by the booking service, which
// stays ignorant of *sql.Tx; callers needing to compose with other writes
// should use CreateTx instead.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.CreateTx(ctx, tx, b); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// GetByID loads a booking together with its service lines.  It returns
// ErrBookingNotFound when no row exists.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT id, customer_id, staff_id, room_id, start_at, end_at, status, total_cents, notes, created_at, updated_at
	           FROM bookings WHERE id = ?`
	var b model.Booking
	var endAt sql.NullTime
	var notes sql.NullString
	var status string
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.CustomerID, &b.StaffID, &b.RoomID,
		&b.StartAt, &endAt, &status, &b.TotalCents, &notes,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if endAt.Valid {
		b.EndAt = endAt.Time.UTC()
	}
	b.StartAt = b.StartAt.UTC()
	if notes.Valid {
		b.Notes = notes.String
	}
	b.Status = model.BookingStatus(status)
	lines, err := r.linesByBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.Lines = lines
	return &b, nil
}

func (r *BookingRepo) linesByBooking(ctx context.Context, bookingID uint64) ([]model.ServiceLine, error) {
	const q = `SELECT id, booking_id, service_id, quantity, price_cents
	           FROM booking_services WHERE booking_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []model.ServiceLine
	for rows.Next() {
		var l model.ServiceLine
		if err := rows.Scan(&l.ID, &l.BookingID, &l.ServiceID, &l.Quantity, &l.PriceCents); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// UpdateStatus persists a booking's status.  The status value itself has
// already been validated by the state machine; this is a plain write.
// updated_at is set explicitly so the statement does not depend on the
// column carrying ON UPDATE CURRENT_TIMESTAMP.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// UpdateWindow persists a rescheduled time window.  The new window has
// already passed availability with the booking's own ID excluded.
func (r *BookingRepo) UpdateWindow(ctx context.Context, id uint64, start, end time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET start_at = ?, end_at = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		start.UTC().Format(dbTimeLayout), nullEnd(end), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// FindActiveByResource returns the occupied intervals of every
// non-cancelled booking for one staff member or room.  It first verifies
// the resource exists so a dangling reference surfaces as the matching
// not-found sentinel rather than an empty (and therefore "free") calendar.
// This method satisfies the schedule.OccupancyReader interface.
func (r *BookingRepo) FindActiveByResource(ctx context.Context, kind schedule.ResourceKind, resourceID uint64) ([]schedule.Occupancy, error) {
	var col string
	switch kind {
	case schedule.ResourceStaff:
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM staff WHERE id = ?)`, resourceID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrStaffNotFound
		}
		col = "staff_id"
	case schedule.ResourceRoom:
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM rooms WHERE id = ?)`, resourceID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrRoomNotFound
		}
		col = "room_id"
	default:
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}
	q := `SELECT id, start_at, end_at FROM bookings WHERE ` + col + ` = ? AND status <> 'CANCELLED'`
	rows, err := r.db.QueryContext(ctx, q, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var occ []schedule.Occupancy
	for rows.Next() {
		var o schedule.Occupancy
		var endAt sql.NullTime
		if err := rows.Scan(&o.BookingID, &o.Start, &endAt); err != nil {
			return nil, err
		}
		o.Start = o.Start.UTC()
		if endAt.Valid {
			o.End = endAt.Time.UTC()
		}
		occ = append(occ, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return occ, nil
}

// BookingDetail carries a booking together with customer, staff and room
// display names and its service lines.  It is returned by the listing
// queries for both the storefront ("my bookings") and the admin schedule.
type BookingDetail struct {
	ID         uint64  `json:"id"`
	Status     string  `json:"status"`
	StartAt    string  `json:"start_at"`
	EndAt      *string `json:"end_at,omitempty"`
	TotalCents uint32  `json:"total_cents"`
	CustomerID uint64  `json:"customer_id"`
	Customer   string  `json:"customer_name"`
	StaffID    uint64  `json:"staff_id"`
	Staff      string  `json:"staff_name"`
	RoomID     uint64  `json:"room_id"`
	Room       string  `json:"room_name"`
	Services   []struct {
		ServiceID  uint64 `json:"service_id"`
		Name       string `json:"name"`
		Quantity   uint32 `json:"quantity"`
		PriceCents uint32 `json:"price_cents"`
	} `json:"services"`
}

// ListByCustomer returns all bookings for the given customer, newest
// first, with display names and service lines populated.
func (r *BookingRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.status, b.start_at, b.end_at, b.total_cents,
	                  b.customer_id, c.full_name, b.staff_id, s.full_name, b.room_id, rm.name
	           FROM bookings b
	           JOIN customers c ON c.id = b.customer_id
	           JOIN staff s ON s.id = b.staff_id
	           JOIN rooms rm ON rm.id = b.room_id
	           WHERE b.customer_id = ?
	           ORDER BY b.created_at DESC`
	return r.listDetails(ctx, q, customerID)
}

// ListByStaff returns all bookings assigned to one staff member, newest
// first.  The admin frontend uses it to render a therapist's schedule.
func (r *BookingRepo) ListByStaff(ctx context.Context, staffID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.status, b.start_at, b.end_at, b.total_cents,
	                  b.customer_id, c.full_name, b.staff_id, s.full_name, b.room_id, rm.name
	           FROM bookings b
	           JOIN customers c ON c.id = b.customer_id
	           JOIN staff s ON s.id = b.staff_id
	           JOIN rooms rm ON rm.id = b.room_id
	           WHERE b.staff_id = ?
	           ORDER BY b.created_at DESC`
	return r.listDetails(ctx, q, staffID)
}

func (r *BookingRepo) listDetails(ctx context.Context, q string, arg interface{}) ([]BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d BookingDetail
		var startAt time.Time
		var endAt sql.NullTime
		if err := rows.Scan(
			&d.ID, &d.Status, &startAt, &endAt, &d.TotalCents,
			&d.CustomerID, &d.Customer, &d.StaffID, &d.Staff, &d.RoomID, &d.Room,
		); err != nil {
			return nil, err
		}
		d.StartAt = startAt.UTC().Format(time.RFC3339)
		if endAt.Valid {
			iso := endAt.Time.UTC().Format(time.RFC3339)
			d.EndAt = &iso
		}
		d.Services = []struct {
			ServiceID  uint64 `json:"service_id"`
			Name       string `json:"name"`
			Quantity   uint32 `json:"quantity"`
			PriceCents uint32 `json:"price_cents"`
		}{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	// Populate service lines for all bookings in a single query.
	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	lineQ := `SELECT bs.booking_id, bs.service_id, sv.name, bs.quantity, bs.price_cents
	          FROM booking_services bs
	          JOIN services sv ON sv.id = bs.service_id
	          WHERE bs.booking_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY bs.booking_id, bs.id`
	lrows, err := r.db.QueryContext(ctx, lineQ, ids...)
	if err != nil {
		return nil, err
	}
	defer lrows.Close()
	for lrows.Next() {
		var bid, sid uint64
		var name string
		var qty, price uint32
		if err := lrows.Scan(&bid, &sid, &name, &qty, &price); err != nil {
			return nil, err
		}
		idx, ok := index[bid]
		if !ok {
			continue
		}
		details[idx].Services = append(details[idx].Services, struct {
			ServiceID  uint64 `json:"service_id"`
			Name       string `json:"name"`
			Quantity   uint32 `json:"quantity"`
			PriceCents uint32 `json:"price_cents"`
		}{ServiceID: sid, Name: name, Quantity: qty, PriceCents: price})
	}
	if err := lrows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
