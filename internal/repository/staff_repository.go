package repository

import (
	"context"
	"database/sql"

	"github.com/minhtran/spa-booking/internal/model"
)

// StaffRepo manages persistence for staff members.  Staff are the
// therapists and technicians whose calendars the availability checker
// scans; deactivating a staff member hides them from the storefront but
// keeps their booking history intact.
type StaffRepo struct {
	db *sql.DB
}

// NewStaffRepo constructs a StaffRepo with the given DB handle.
func NewStaffRepo(db *sql.DB) *StaffRepo { return &StaffRepo{db: db} }

// Create inserts a new staff member and populates the generated ID and
// DB-default fields on the given record.
func (r *StaffRepo) Create(ctx context.Context, s *model.Staff) error {
	const q = `INSERT INTO staff (full_name, title, email) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.FullName, s.Title, s.Email)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT is_active, created_at, updated_at FROM staff WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, s.ID).Scan(&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID returns one staff member or ErrStaffNotFound.
func (r *StaffRepo) GetByID(ctx context.Context, id uint64) (*model.Staff, error) {
	const q = `SELECT id, full_name, title, email, is_active, created_at, updated_at FROM staff WHERE id = ?`
	var s model.Staff
	var title sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.FullName, &title, &s.Email, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, err
	}
	if title.Valid {
		t := title.String
		s.Title = &t
	}
	return &s, nil
}

// List returns all staff members, active first, then by name.
func (r *StaffRepo) List(ctx context.Context) ([]model.Staff, error) {
	const q = `SELECT id, full_name, title, email, is_active, created_at, updated_at
	           FROM staff ORDER BY is_active DESC, full_name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Staff, 0)
	for rows.Next() {
		var s model.Staff
		var title sql.NullString
		if err := rows.Scan(&s.ID, &s.FullName, &title, &s.Email, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if title.Valid {
			t := title.String
			s.Title = &t
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetActive toggles whether a staff member takes new bookings.
func (r *StaffRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE staff SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaffNotFound
	}
	return nil
}
