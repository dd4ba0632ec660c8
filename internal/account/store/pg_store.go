// Package store provides PostgreSQL persistence for customer accounts.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grocerly/storefront/internal/account"
)

const uniqueViolation = "23505"

const (
	createCustomerSQL = `INSERT INTO customers (id, name, phone, email, password_hash, area_id, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, name, phone, email, password_hash, area_id, address, verified, active, created_at, updated_at`

	findCustomerByIDSQL = `SELECT id, name, phone, email, password_hash, area_id, address, verified, active, created_at, updated_at
		FROM customers WHERE id = $1`

	findCustomerByPhoneSQL = `SELECT id, name, phone, email, password_hash, area_id, address, verified, active, created_at, updated_at
		FROM customers WHERE phone = $1`

	updateProfileSQL = `UPDATE customers
		SET name = $2, email = $3, area_id = $4, address = $5, updated_at = now()
		WHERE id = $1
		RETURNING id, name, phone, email, password_hash, area_id, address, verified, active, created_at, updated_at`

	setPasswordSQL = `UPDATE customers SET password_hash = $2, updated_at = now() WHERE id = $1`

	setVerifiedSQL = `UPDATE customers SET verified = true, updated_at = now() WHERE id = $1`

	setActiveSQL = `UPDATE customers SET active = $2, updated_at = now() WHERE id = $1`

	listCustomersSQL = `SELECT id, name, phone, email, password_hash, area_id, address, verified, active, created_at, updated_at
		FROM customers ORDER BY created_at DESC OFFSET $1 LIMIT $2`

	countCustomersSQL = `SELECT count(*) FROM customers`
)

var _ account.Store = (*PgStore)(nil)

// PgStore implements account.Store backed by PostgreSQL.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a customer store using the given connection pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Create inserts a new customer.
// Returns account.ErrAlreadyExists when the phone number is taken.
func (s *PgStore) Create(ctx context.Context, c *account.Customer) (*account.Customer, error) {
	rows, err := s.pool.Query(ctx, createCustomerSQL,
		c.ID, c.Name, c.Phone, c.Email, c.PasswordHash, c.AreaID, c.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	created, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, account.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &created, nil
}

// FindByID retrieves a customer by ID.
// Returns account.ErrNotFound if no customer exists with the given ID.
func (s *PgStore) FindByID(ctx context.Context, id uuid.UUID) (*account.Customer, error) {
	rows, err := s.pool.Query(ctx, findCustomerByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find customer %s: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find customer %s: %w", id, err)
	}
	return &c, nil
}

// FindByPhone retrieves a customer by phone number.
// Returns account.ErrNotFound if no customer exists with the given phone.
func (s *PgStore) FindByPhone(ctx context.Context, phone string) (*account.Customer, error) {
	rows, err := s.pool.Query(ctx, findCustomerByPhoneSQL, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to find customer by phone: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find customer by phone: %w", err)
	}
	return &c, nil
}

// UpdateProfile overwrites the customer's editable profile fields.
func (s *PgStore) UpdateProfile(ctx context.Context, c *account.Customer) (*account.Customer, error) {
	rows, err := s.pool.Query(ctx, updateProfileSQL, c.ID, c.Name, c.Email, c.AreaID, c.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to update customer %s: %w", c.ID, err)
	}
	updated, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update customer %s: %w", c.ID, err)
	}
	return &updated, nil
}

// SetPassword replaces the stored password hash.
func (s *PgStore) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, setPasswordSQL, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to set password for customer %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}
	return nil
}

// SetVerified marks the customer's phone number as verified.
func (s *PgStore) SetVerified(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, setVerifiedSQL, id)
	if err != nil {
		return fmt.Errorf("failed to mark customer %s verified: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}
	return nil
}

// SetActive enables or disables the customer.
func (s *PgStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := s.pool.Exec(ctx, setActiveSQL, id, active)
	if err != nil {
		return fmt.Errorf("failed to set customer %s active=%t: %w", id, active, err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}
	return nil
}

// List returns a page of customers, newest first.
func (s *PgStore) List(ctx context.Context, offset, limit int32) ([]account.Customer, error) {
	rows, err := s.pool.Query(ctx, listCustomersSQL, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return pgx.CollectRows(rows, scanCustomer)
}

// Count returns the total number of customers.
func (s *PgStore) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, countCustomersSQL).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return total, nil
}

func scanCustomer(row pgx.CollectableRow) (account.Customer, error) {
	var c account.Customer
	err := row.Scan(
		&c.ID, &c.Name, &c.Phone, &c.Email, &c.PasswordHash,
		&c.AreaID, &c.Address, &c.Verified, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}
