package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/grocerly/storefront/internal/cart"
)

// Store defines the persistence operations the service needs. The concrete
// implementation lives in the store subpackage.
type Store interface {
	FindProductByID(ctx context.Context, id int64) (*Product, error)
	FindProducts(ctx context.Context, filter ProductFilter, offset, limit int32) ([]Product, error)
	CountProducts(ctx context.Context, filter ProductFilter) (int64, error)
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) (*Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	FindCategoryByID(ctx context.Context, id int64) (*Category, error)
	FindCategories(ctx context.Context, activeOnly bool) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) (*Category, error)
	UpdateCategory(ctx context.Context, c *Category) (*Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// Service exposes catalog reads for the storefront and writes for the back
// office. It is also the cart's product source.
type Service struct {
	store  Store
	logger *slog.Logger
}

var _ cart.ProductSource = (*Service)(nil)

// NewService creates a catalog service backed by the given store.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With("component", "catalog"),
	}
}

// ProductByID returns a single product regardless of its active flag.
func (s *Service) ProductByID(ctx context.Context, id int64) (*Product, error) {
	return s.store.FindProductByID(ctx, id)
}

// Products returns one page of products plus the total match count for the
// pagination envelope.
func (s *Service) Products(ctx context.Context, filter ProductFilter, offset, limit int32) ([]Product, int64, error) {
	products, err := s.store.FindProducts(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountProducts(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Categories lists categories, optionally only active ones.
func (s *Service) Categories(ctx context.Context, activeOnly bool) ([]Category, error) {
	return s.store.FindCategories(ctx, activeOnly)
}

// CategoryByID returns a single category.
func (s *Service) CategoryByID(ctx context.Context, id int64) (*Category, error) {
	return s.store.FindCategoryByID(ctx, id)
}

// CreateProduct validates the category reference and inserts the product.
func (s *Service) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	if _, err := s.store.FindCategoryByID(ctx, p.CategoryID); err != nil {
		return nil, fmt.Errorf("category %d: %w", p.CategoryID, err)
	}
	return s.store.CreateProduct(ctx, p)
}

// UpdateProduct overwrites an existing product.
func (s *Service) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	if _, err := s.store.FindCategoryByID(ctx, p.CategoryID); err != nil {
		return nil, fmt.Errorf("category %d: %w", p.CategoryID, err)
	}
	return s.store.UpdateProduct(ctx, p)
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.store.DeleteProduct(ctx, id)
}

// CreateCategory inserts a new category.
func (s *Service) CreateCategory(ctx context.Context, c *Category) (*Category, error) {
	return s.store.CreateCategory(ctx, c)
}

// UpdateCategory overwrites an existing category.
func (s *Service) UpdateCategory(ctx context.Context, c *Category) (*Category, error) {
	return s.store.UpdateCategory(ctx, c)
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return s.store.DeleteCategory(ctx, id)
}

// ProductSnapshot projects a product into the shape the cart captures at
// add-time. Inactive and unknown products are unavailable to the cart.
func (s *Service) ProductSnapshot(ctx context.Context, productID int64) (*cart.ProductSnapshot, error) {
	p, err := s.store.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, cart.ErrProductUnavailable
		}
		return nil, err
	}
	if !p.Active {
		return nil, cart.ErrProductUnavailable
	}
	return &cart.ProductSnapshot{
		ID:           p.ID,
		Name:         p.Name,
		Unit:         p.Unit,
		Price:        p.Price,
		SpecialPrice: p.SpecialPrice,
		Stock:        p.Stock,
		Images:       p.Images,
	}, nil
}
