package repository

import (
	"context"
	"database/sql"

	"github.com/minhtran/spa-booking/internal/model"
)

// RoomRepo manages persistence for treatment rooms.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// Create inserts a new room and populates the generated ID and DB-default
// fields on the given record.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	const q = `INSERT INTO rooms (name, capacity) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, rm.Name, rm.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)
	const sel = `SELECT is_active, created_at, updated_at FROM rooms WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, rm.ID).Scan(&rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt)
}

// GetByID returns one room or ErrRoomNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	const q = `SELECT id, name, capacity, is_active, created_at, updated_at FROM rooms WHERE id = ?`
	var rm model.Room
	err := r.db.QueryRowContext(ctx, q, id).Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

// List returns all rooms ordered by name.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
	const q = `SELECT id, name, capacity, is_active, created_at, updated_at FROM rooms ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		var rm model.Room
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetActive toggles whether a room is bookable.
func (r *RoomRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE rooms SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}
