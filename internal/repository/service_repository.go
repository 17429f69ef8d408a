package repository

import (
	"context"
	"database/sql"

	"github.com/minhtran/spa-booking/internal/model"
)

// ServiceRepo manages persistence for the spa service catalog.  Prices
// live here as the current list price; the booking flow snapshots them
// onto booking_services so later edits do not rewrite past quotes.
type ServiceRepo struct {
	db *sql.DB
}

// NewServiceRepo constructs a ServiceRepo with the given DB handle.
func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{db: db} }

// Create inserts a catalog service and populates the generated ID and
// DB-default fields on the given record.
func (r *ServiceRepo) Create(ctx context.Context, s *model.SpaService) error {
	const q = `INSERT INTO services (name, description, duration_min, price_cents) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.Name, s.Description, s.DurationMin, s.PriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT is_active, created_at, updated_at FROM services WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, s.ID).Scan(&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID returns one catalog service or ErrServiceNotFound.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (*model.SpaService, error) {
	const q = `SELECT id, name, description, duration_min, price_cents, is_active, created_at, updated_at
	           FROM services WHERE id = ?`
	var s model.SpaService
	var desc sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Name, &desc, &s.DurationMin, &s.PriceCents, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		d := desc.String
		s.Description = &d
	}
	return &s, nil
}

// ListActive returns the bookable part of the catalog ordered by name.
func (r *ServiceRepo) ListActive(ctx context.Context) ([]model.SpaService, error) {
	const q = `SELECT id, name, description, duration_min, price_cents, is_active, created_at, updated_at
	           FROM services WHERE is_active = 1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SpaService, 0)
	for rows.Next() {
		var s model.SpaService
		var desc sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &desc, &s.DurationMin, &s.PriceCents, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			s.Description = &d
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePrice changes the current list price of a service.
func (r *ServiceRepo) UpdatePrice(ctx context.Context, id uint64, priceCents uint32) error {
	res, err := r.db.ExecContext(ctx, `UPDATE services SET price_cents = ? WHERE id = ?`, priceCents, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrServiceNotFound
	}
	return nil
}
