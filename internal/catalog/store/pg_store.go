// Package store provides PostgreSQL persistence for catalog products and
// categories.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grocerly/storefront/internal/catalog"
)

const (
	findProductByIDSQL = `SELECT id, name, unit, price, special_price, stock, images, category_id, active, created_at, updated_at
		FROM products WHERE id = $1`

	findProductsSQL = `SELECT id, name, unit, price, special_price, stock, images, category_id, active, created_at, updated_at
		FROM products
		WHERE ($1::bigint = 0 OR category_id = $1)
		  AND ($2::text = '' OR name ILIKE '%' || $2 || '%')
		  AND (NOT $3::bool OR active)
		ORDER BY id
		OFFSET $4 LIMIT $5`

	countProductsSQL = `SELECT count(*) FROM products
		WHERE ($1::bigint = 0 OR category_id = $1)
		  AND ($2::text = '' OR name ILIKE '%' || $2 || '%')
		  AND (NOT $3::bool OR active)`

	createProductSQL = `INSERT INTO products (name, unit, price, special_price, stock, images, category_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, name, unit, price, special_price, stock, images, category_id, active, created_at, updated_at`

	updateProductSQL = `UPDATE products
		SET name = $2, unit = $3, price = $4, special_price = $5, stock = $6, images = $7, category_id = $8, active = $9, updated_at = now()
		WHERE id = $1
		RETURNING id, name, unit, price, special_price, stock, images, category_id, active, created_at, updated_at`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	findCategoryByIDSQL = `SELECT id, name, image, active, created_at, updated_at
		FROM categories WHERE id = $1`

	findCategoriesSQL = `SELECT id, name, image, active, created_at, updated_at
		FROM categories
		WHERE (NOT $1::bool OR active)
		ORDER BY id`

	createCategorySQL = `INSERT INTO categories (name, image, active)
		VALUES ($1, $2, $3)
		RETURNING id, name, image, active, created_at, updated_at`

	updateCategorySQL = `UPDATE categories
		SET name = $2, image = $3, active = $4, updated_at = now()
		WHERE id = $1
		RETURNING id, name, image, active, created_at, updated_at`

	deleteCategorySQL = `DELETE FROM categories WHERE id = $1`
)

var _ catalog.Store = (*PgStore)(nil)

// PgStore implements Store backed by PostgreSQL.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a catalog store using the given connection pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// FindProductByID retrieves a product by its identifier.
// Returns catalog.ErrProductNotFound if no product exists with the given ID.
func (s *PgStore) FindProductByID(ctx context.Context, id int64) (*catalog.Product, error) {
	rows, err := s.pool.Query(ctx, findProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find product %d: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product %d: %w", id, err)
	}
	return &p, nil
}

// FindProducts retrieves a page of products matching the filter.
func (s *PgStore) FindProducts(ctx context.Context, filter catalog.ProductFilter, offset, limit int32) ([]catalog.Product, error) {
	rows, err := s.pool.Query(ctx, findProductsSQL, filter.CategoryID, filter.Search, filter.ActiveOnly, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// CountProducts returns the number of products matching the filter.
func (s *PgStore) CountProducts(ctx context.Context, filter catalog.ProductFilter) (int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, countProductsSQL, filter.CategoryID, filter.Search, filter.ActiveOnly).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// CreateProduct inserts a new product and returns it with generated fields.
func (s *PgStore) CreateProduct(ctx context.Context, p *catalog.Product) (*catalog.Product, error) {
	rows, err := s.pool.Query(ctx, createProductSQL,
		p.Name, p.Unit, p.Price, p.SpecialPrice, p.Stock, p.Images, p.CategoryID, p.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	created, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &created, nil
}

// UpdateProduct overwrites an existing product.
// Returns catalog.ErrProductNotFound if no product exists with the given ID.
func (s *PgStore) UpdateProduct(ctx context.Context, p *catalog.Product) (*catalog.Product, error) {
	rows, err := s.pool.Query(ctx, updateProductSQL,
		p.ID, p.Name, p.Unit, p.Price, p.SpecialPrice, p.Stock, p.Images, p.CategoryID, p.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", p.ID, err)
	}
	updated, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product %d: %w", p.ID, err)
	}
	return &updated, nil
}

// DeleteProduct removes a product.
// Returns catalog.ErrProductNotFound if no product exists with the given ID.
func (s *PgStore) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

// FindCategoryByID retrieves a category by its identifier.
// Returns catalog.ErrCategoryNotFound if no category exists with the given ID.
func (s *PgStore) FindCategoryByID(ctx context.Context, id int64) (*catalog.Category, error) {
	rows, err := s.pool.Query(ctx, findCategoryByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find category %d: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category %d: %w", id, err)
	}
	return &c, nil
}

// FindCategories retrieves all categories, optionally only active ones.
func (s *PgStore) FindCategories(ctx context.Context, activeOnly bool) ([]catalog.Category, error) {
	rows, err := s.pool.Query(ctx, findCategoriesSQL, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return pgx.CollectRows(rows, scanCategory)
}

// CreateCategory inserts a new category and returns it with generated fields.
func (s *PgStore) CreateCategory(ctx context.Context, c *catalog.Category) (*catalog.Category, error) {
	rows, err := s.pool.Query(ctx, createCategorySQL, c.Name, c.Image, c.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	created, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &created, nil
}

// UpdateCategory overwrites an existing category.
// Returns catalog.ErrCategoryNotFound if no category exists with the given ID.
func (s *PgStore) UpdateCategory(ctx context.Context, c *catalog.Category) (*catalog.Category, error) {
	rows, err := s.pool.Query(ctx, updateCategorySQL, c.ID, c.Name, c.Image, c.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to update category %d: %w", c.ID, err)
	}
	updated, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to update category %d: %w", c.ID, err)
	}
	return &updated, nil
}

// DeleteCategory removes a category.
// Returns catalog.ErrCategoryNotFound if no category exists with the given ID.
func (s *PgStore) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, deleteCategorySQL, id)
	if err != nil {
		return fmt.Errorf("failed to delete category %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrCategoryNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Unit, &p.Price, &p.SpecialPrice, &p.Stock,
		&p.Images, &p.CategoryID, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func scanCategory(row pgx.CollectableRow) (catalog.Category, error) {
	var c catalog.Category
	err := row.Scan(&c.ID, &c.Name, &c.Image, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
