package repository

import (
	"context"
	"database/sql"

	"github.com/minhtran/spa-booking/internal/model"
)

// PaymentRepo records money received against bookings.  The gateway side
// of payments lives outside this service; rows here are the ledger the
// admin frontend reads.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo constructs a PaymentRepo with the given DB handle.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// Create inserts a payment row.  The referenced booking must exist; a
// foreign-key failure from the database is surfaced as
// ErrBookingNotFound only when the booking id genuinely has no row.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = ?)`, p.BookingID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrBookingNotFound
	}
	const q = `INSERT INTO payments (booking_id, amount_cents, method, reference, paid_at) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.BookingID, p.AmountCents, p.Method, p.Reference, p.PaidAt.UTC().Format(dbTimeLayout))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const sel = `SELECT created_at FROM payments WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, p.ID).Scan(&p.CreatedAt)
}

// ListByBooking returns all payments recorded for one booking, oldest
// first.
func (r *PaymentRepo) ListByBooking(ctx context.Context, bookingID uint64) ([]model.Payment, error) {
	const q = `SELECT id, booking_id, amount_cents, method, reference, paid_at, created_at
	           FROM payments WHERE booking_id = ? ORDER BY paid_at`
	rows, err := r.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		var p model.Payment
		var ref sql.NullString
		if err := rows.Scan(&p.ID, &p.BookingID, &p.AmountCents, &p.Method, &ref, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		if ref.Valid {
			rf := ref.String
			p.Reference = &rf
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
