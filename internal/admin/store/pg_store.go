// Package store provides PostgreSQL persistence for back-office entities.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grocerly/storefront/internal/admin"
)

const uniqueViolation = "23505"

const (
	createAdminSQL = `INSERT INTO admins (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, password_hash, active, created_at, updated_at`

	findAdminByIDSQL = `SELECT id, name, email, password_hash, active, created_at, updated_at
		FROM admins WHERE id = $1`

	findAdminByEmailSQL = `SELECT id, name, email, password_hash, active, created_at, updated_at
		FROM admins WHERE email = $1`

	listAdminsSQL = `SELECT id, name, email, password_hash, active, created_at, updated_at
		FROM admins ORDER BY created_at OFFSET $1 LIMIT $2`

	countAdminsSQL = `SELECT count(*) FROM admins`

	updateAdminSQL = `UPDATE admins SET name = $2, email = $3, active = $4, updated_at = now()
		WHERE id = $1
		RETURNING id, name, email, password_hash, active, created_at, updated_at`

	deleteAdminSQL = `DELETE FROM admins WHERE id = $1`

	createAreaSQL = `INSERT INTO areas (name, district, thana, delivery_charge, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, district, thana, delivery_charge, active, created_at, updated_at`

	findAreaByIDSQL = `SELECT id, name, district, thana, delivery_charge, active, created_at, updated_at
		FROM areas WHERE id = $1`

	listAreasSQL = `SELECT id, name, district, thana, delivery_charge, active, created_at, updated_at
		FROM areas WHERE (NOT $1::bool OR active) ORDER BY district, thana, name`

	updateAreaSQL = `UPDATE areas SET name = $2, district = $3, thana = $4, delivery_charge = $5, active = $6, updated_at = now()
		WHERE id = $1
		RETURNING id, name, district, thana, delivery_charge, active, created_at, updated_at`

	deleteAreaSQL = `DELETE FROM areas WHERE id = $1`

	createBannerSQL = `INSERT INTO banners (title, image, position, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, image, position, active, created_at, updated_at`

	findBannerByIDSQL = `SELECT id, title, image, position, active, created_at, updated_at
		FROM banners WHERE id = $1`

	listBannersSQL = `SELECT id, title, image, position, active, created_at, updated_at
		FROM banners WHERE (NOT $1::bool OR active) ORDER BY position, id`

	updateBannerSQL = `UPDATE banners SET title = $2, image = $3, position = $4, active = $5, updated_at = now()
		WHERE id = $1
		RETURNING id, title, image, position, active, created_at, updated_at`

	deleteBannerSQL = `DELETE FROM banners WHERE id = $1`
)

var _ admin.Store = (*PgStore)(nil)

// PgStore implements admin.Store backed by PostgreSQL.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a back-office store using the given connection pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// CreateAdmin inserts a new admin.
// Returns admin.ErrAlreadyExists when the email is taken.
func (s *PgStore) CreateAdmin(ctx context.Context, a *admin.Admin) (*admin.Admin, error) {
	rows, err := s.pool.Query(ctx, createAdminSQL, a.ID, a.Name, a.Email, a.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	created, err := pgx.CollectExactlyOneRow(rows, scanAdmin)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, admin.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return &created, nil
}

// FindAdminByID retrieves an admin by ID.
func (s *PgStore) FindAdminByID(ctx context.Context, id uuid.UUID) (*admin.Admin, error) {
	rows, err := s.pool.Query(ctx, findAdminByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin %s: %w", id, err)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, admin.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find admin %s: %w", id, err)
	}
	return &a, nil
}

// FindAdminByEmail retrieves an admin by email.
func (s *PgStore) FindAdminByEmail(ctx context.Context, email string) (*admin.Admin, error) {
	rows, err := s.pool.Query(ctx, findAdminByEmailSQL, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin by email: %w", err)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, admin.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find admin by email: %w", err)
	}
	return &a, nil
}

// ListAdmins returns a page of admins.
func (s *PgStore) ListAdmins(ctx context.Context, offset, limit int32) ([]admin.Admin, error) {
	rows, err := s.pool.Query(ctx, listAdminsSQL, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return pgx.CollectRows(rows, scanAdmin)
}

// CountAdmins returns the total number of admins.
func (s *PgStore) CountAdmins(ctx context.Context) (int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, countAdminsSQL).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return total, nil
}

// UpdateAdmin overwrites an admin's editable fields.
func (s *PgStore) UpdateAdmin(ctx context.Context, a *admin.Admin) (*admin.Admin, error) {
	rows, err := s.pool.Query(ctx, updateAdminSQL, a.ID, a.Name, a.Email, a.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to update admin %s: %w", a.ID, err)
	}
	updated, err := pgx.CollectExactlyOneRow(rows, scanAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, admin.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update admin %s: %w", a.ID, err)
	}
	return &updated, nil
}

// DeleteAdmin removes an admin.
func (s *PgStore) DeleteAdmin(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, deleteAdminSQL, id)
	if err != nil {
		return fmt.Errorf("failed to delete admin %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return admin.ErrNotFound
	}
	return nil
}

// CreateArea inserts a new delivery area.
func (s *PgStore) CreateArea(ctx context.Context, a *admin.Area) (*admin.Area, error) {
	rows, err := s.pool.Query(ctx, createAreaSQL, a.Name, a.District, a.Thana, a.DeliveryCharge, a.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to create area: %w", err)
	}
	created, err := pgx.CollectExactlyOneRow(rows, scanArea)
	if err != nil {
		return nil, fmt.Errorf("failed to create area: %w", err)
	}
	return &created, nil
}

// FindAreaByID retrieves a delivery area.
func (s *PgStore) FindAreaByID(ctx context.Context, id int64) (*admin.Area, error) {
	rows, err := s.pool.Query(ctx, findAreaByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find area %d: %w", id, err)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanArea)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, admin.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find area %d: %w", id, err)
	}
	return &a, nil
}

// ListAreas returns delivery areas, optionally only active ones.
func (s *PgStore) ListAreas(ctx context.Context, activeOnly bool) ([]admin.Area, error) {
	rows, err := s.pool.Query(ctx, listAreasSQL, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	return pgx.CollectRows(rows, scanArea)
}

// UpdateArea overwrites a delivery area.
func (s *PgStore) UpdateArea(ctx context.Context, a *admin.Area) (*admin.Area, error) {
	rows, err := s.pool.Query(ctx, updateAreaSQL, a.ID, a.Name, a.District, a.Thana, a.DeliveryCharge, a.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to update area %d: %w", a.ID, err)
	}
	updated, err := pgx.CollectExactlyOneRow(rows, scanArea)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, admin.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update area %d: %w", a.ID, err)
	}
	return &updated, nil
}

// DeleteArea removes a delivery area.
func (s *PgStore) DeleteArea(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, deleteAreaSQL, id)
	if err != nil {
		return fmt.Errorf("failed to delete area %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return admin.ErrNotFound
	}
	return nil
}

// CreateBanner inserts a new banner.
func (s *PgStore) CreateBanner(ctx context.Context, b *admin.Banner) (*admin.Banner, error) {
	rows, err := s.pool.Query(ctx, createBannerSQL, b.Title, b.Image, b.Position, b.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to create banner: %w", err)
	}
	created, err := pgx.CollectExactlyOneRow(rows, scanBanner)
	if err != nil {
		return nil, fmt.Errorf("failed to create banner: %w", err)
	}
	return &created, nil
}

// FindBannerByID retrieves a banner.
func (s *PgStore) FindBannerByID(ctx context.Context, id int64) (*admin.Banner, error) {
	rows, err := s.pool.Query(ctx, findBannerByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find banner %d: %w", id, err)
	}
	b, err := pgx.CollectExactlyOneRow(rows, scanBanner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, admin.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find banner %d: %w", id, err)
	}
	return &b, nil
}

// ListBanners returns banners in carousel order, optionally only active ones.
func (s *PgStore) ListBanners(ctx context.Context, activeOnly bool) ([]admin.Banner, error) {
	rows, err := s.pool.Query(ctx, listBannersSQL, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}
	return pgx.CollectRows(rows, scanBanner)
}

// UpdateBanner overwrites a banner.
func (s *PgStore) UpdateBanner(ctx context.Context, b *admin.Banner) (*admin.Banner, error) {
	rows, err := s.pool.Query(ctx, updateBannerSQL, b.ID, b.Title, b.Image, b.Position, b.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to update banner %d: %w", b.ID, err)
	}
	updated, err := pgx.CollectExactlyOneRow(rows, scanBanner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, admin.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update banner %d: %w", b.ID, err)
	}
	return &updated, nil
}

// DeleteBanner removes a banner.
func (s *PgStore) DeleteBanner(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, deleteBannerSQL, id)
	if err != nil {
		return fmt.Errorf("failed to delete banner %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return admin.ErrNotFound
	}
	return nil
}

func scanAdmin(row pgx.CollectableRow) (admin.Admin, error) {
	var a admin.Admin
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func scanArea(row pgx.CollectableRow) (admin.Area, error) {
	var a admin.Area
	err := row.Scan(&a.ID, &a.Name, &a.District, &a.Thana, &a.DeliveryCharge, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func scanBanner(row pgx.CollectableRow) (admin.Banner, error) {
	var b admin.Banner
	err := row.Scan(&b.ID, &b.Title, &b.Image, &b.Position, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}
