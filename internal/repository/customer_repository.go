package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/minhtran/spa-booking/internal/model"
)

// CustomerRepo manages persistence for customers.  Customers are the
// recipients of lifecycle notifications, so the email column is the one
// the notification handlers resolve through GetEmail.
type CustomerRepo struct {
	db *sql.DB
}

// NewCustomerRepo constructs a CustomerRepo with the given DB handle.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// Create inserts a customer and populates the generated ID and DB-default
// fields on the given record.  Emails are normalized to lower case.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	const q = `INSERT INTO customers (user_id, full_name, email, phone) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.UserID, c.FullName, c.Email, c.Phone)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict // duplicate email
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM customers WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, c.ID).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// GetByID returns one customer or ErrCustomerNotFound.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (*model.Customer, error) {
	const q = `SELECT id, user_id, full_name, email, phone, created_at, updated_at FROM customers WHERE id = ?`
	var c model.Customer
	var userID sql.NullInt64
	var phone sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &userID, &c.FullName, &c.Email, &phone, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		c.UserID = &uid
	}
	if phone.Valid {
		p := phone.String
		c.Phone = &p
	}
	return &c, nil
}

// GetByUserID resolves the customer profile linked to a login account.
// Used by the storefront to scope "my bookings" to the caller.
func (r *CustomerRepo) GetByUserID(ctx context.Context, userID uint64) (*model.Customer, error) {
	const q = `SELECT id FROM customers WHERE user_id = ? LIMIT 1`
	var id uint64
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetEmail returns just the notification address for a customer.
func (r *CustomerRepo) GetEmail(ctx context.Context, id uint64) (string, error) {
	var email string
	err := r.db.QueryRowContext(ctx, `SELECT email FROM customers WHERE id = ?`, id).Scan(&email)
	if err == sql.ErrNoRows {
		return "", ErrCustomerNotFound
	}
	return email, err
}

// List returns all customers ordered by name.
func (r *CustomerRepo) List(ctx context.Context) ([]model.Customer, error) {
	const q = `SELECT id, user_id, full_name, email, phone, created_at, updated_at FROM customers ORDER BY full_name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Customer, 0)
	for rows.Next() {
		var c model.Customer
		var userID sql.NullInt64
		var phone sql.NullString
		if err := rows.Scan(&c.ID, &userID, &c.FullName, &c.Email, &phone, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			uid := uint64(userID.Int64)
			c.UserID = &uid
		}
		if phone.Valid {
			p := phone.String
			c.Phone = &p
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
