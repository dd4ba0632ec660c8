package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/grocerly/storefront/internal/account"
	"github.com/grocerly/storefront/internal/catalog"
	"github.com/grocerly/storefront/internal/order"
	"github.com/grocerly/storefront/pkg/auth"
)

// Store defines the persistence operations the service needs.
type Store interface {
	CreateAdmin(ctx context.Context, a *Admin) (*Admin, error)
	FindAdminByID(ctx context.Context, id uuid.UUID) (*Admin, error)
	FindAdminByEmail(ctx context.Context, email string) (*Admin, error)
	ListAdmins(ctx context.Context, offset, limit int32) ([]Admin, error)
	CountAdmins(ctx context.Context) (int64, error)
	UpdateAdmin(ctx context.Context, a *Admin) (*Admin, error)
	DeleteAdmin(ctx context.Context, id uuid.UUID) error

	CreateArea(ctx context.Context, a *Area) (*Area, error)
	FindAreaByID(ctx context.Context, id int64) (*Area, error)
	ListAreas(ctx context.Context, activeOnly bool) ([]Area, error)
	UpdateArea(ctx context.Context, a *Area) (*Area, error)
	DeleteArea(ctx context.Context, id int64) error

	CreateBanner(ctx context.Context, b *Banner) (*Banner, error)
	FindBannerByID(ctx context.Context, id int64) (*Banner, error)
	ListBanners(ctx context.Context, activeOnly bool) ([]Banner, error)
	UpdateBanner(ctx context.Context, b *Banner) (*Banner, error)
	DeleteBanner(ctx context.Context, id int64) error
}

// TokenIssuer signs session tokens. Implemented by auth.TokenService.
type TokenIssuer interface {
	Issue(subject uuid.UUID, role string) (string, error)
}

// OrderStats supplies the dashboard's order aggregates. Implemented by the
// order service.
type OrderStats interface {
	Stats(ctx context.Context) (*order.Dashboard, error)
}

// CustomerDirectory exposes customer listing and activation to the back
// office. Implemented by the account service.
type CustomerDirectory interface {
	Customers(ctx context.Context, offset, limit int32) ([]account.Customer, int64, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// ProductCounter supplies the product count for the dashboard. Implemented by
// the catalog service.
type ProductCounter interface {
	Products(ctx context.Context, filter catalog.ProductFilter, offset, limit int32) ([]catalog.Product, int64, error)
}

// Dashboard is the back-office landing aggregate.
type Dashboard struct {
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
	Revenue        decimal.Decimal  `json:"revenue"`
	Customers      int64            `json:"customers"`
	Products       int64            `json:"products"`
}

// Service implements the back office.
type Service struct {
	store     Store
	tokens    TokenIssuer
	orders    OrderStats
	customers CustomerDirectory
	products  ProductCounter
	logger    *slog.Logger
}

// NewService creates a back-office service.
func NewService(store Store, tokens TokenIssuer, orders OrderStats, customers CustomerDirectory, products ProductCounter, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		tokens:    tokens,
		orders:    orders,
		customers: customers,
		products:  products,
		logger:    logger.With("component", "admin"),
	}
}

// Login checks admin credentials and returns a session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Admin, error) {
	a, err := s.store.FindAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !a.Active {
		return "", nil, ErrDisabled
	}

	token, err := s.tokens.Issue(a.ID, auth.RoleAdmin)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, a, nil
}

// Stats assembles the dashboard aggregates.
func (s *Service) Stats(ctx context.Context) (*Dashboard, error) {
	orderStats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, err
	}
	_, customerCount, err := s.customers.Customers(ctx, 0, 1)
	if err != nil {
		return nil, err
	}
	_, productCount, err := s.products.Products(ctx, catalog.ProductFilter{}, 0, 1)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		OrdersByStatus: orderStats.OrdersByStatus,
		Revenue:        orderStats.Revenue,
		Customers:      customerCount,
		Products:       productCount,
	}, nil
}

// CreateAdmin registers a new back-office user.
func (s *Service) CreateAdmin(ctx context.Context, a *Admin, password string) (*Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	a.ID = uuid.New()
	a.PasswordHash = string(hash)
	created, err := s.store.CreateAdmin(ctx, a)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "admin created", "admin_id", created.ID)
	return created, nil
}

// Admins returns one page of admins plus the total count.
func (s *Service) Admins(ctx context.Context, offset, limit int32) ([]Admin, int64, error) {
	admins, err := s.store.ListAdmins(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountAdmins(ctx)
	if err != nil {
		return nil, 0, err
	}
	return admins, total, nil
}

// UpdateAdmin overwrites an admin's editable fields.
func (s *Service) UpdateAdmin(ctx context.Context, a *Admin) (*Admin, error) {
	return s.store.UpdateAdmin(ctx, a)
}

// DeleteAdmin removes a back-office user. The last admin cannot be deleted.
func (s *Service) DeleteAdmin(ctx context.Context, id uuid.UUID) error {
	total, err := s.store.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if total <= 1 {
		return ErrLastAdmin
	}
	if err := s.store.DeleteAdmin(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "admin deleted", "admin_id", id)
	return nil
}

// Areas lists delivery areas, optionally only active ones.
func (s *Service) Areas(ctx context.Context, activeOnly bool) ([]Area, error) {
	return s.store.ListAreas(ctx, activeOnly)
}

// CreateArea inserts a delivery area.
func (s *Service) CreateArea(ctx context.Context, a *Area) (*Area, error) {
	return s.store.CreateArea(ctx, a)
}

// UpdateArea overwrites a delivery area.
func (s *Service) UpdateArea(ctx context.Context, a *Area) (*Area, error) {
	return s.store.UpdateArea(ctx, a)
}

// DeleteArea removes a delivery area.
func (s *Service) DeleteArea(ctx context.Context, id int64) error {
	return s.store.DeleteArea(ctx, id)
}

// Banners lists banners in carousel order, optionally only active ones.
func (s *Service) Banners(ctx context.Context, activeOnly bool) ([]Banner, error) {
	return s.store.ListBanners(ctx, activeOnly)
}

// CreateBanner inserts a banner.
func (s *Service) CreateBanner(ctx context.Context, b *Banner) (*Banner, error) {
	return s.store.CreateBanner(ctx, b)
}

// UpdateBanner overwrites a banner.
func (s *Service) UpdateBanner(ctx context.Context, b *Banner) (*Banner, error) {
	return s.store.UpdateBanner(ctx, b)
}

// DeleteBanner removes a banner.
func (s *Service) DeleteBanner(ctx context.Context, id int64) error {
	return s.store.DeleteBanner(ctx, id)
}

// Customers returns one page of customers for the back office.
func (s *Service) Customers(ctx context.Context, offset, limit int32) ([]account.Customer, int64, error) {
	return s.customers.Customers(ctx, offset, limit)
}

// SetCustomerActive enables or disables a customer account.
func (s *Service) SetCustomerActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.customers.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "customer active flag changed", "customer_id", id, "active", active)
	return nil
}
