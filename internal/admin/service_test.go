package admin

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerly/storefront/internal/account"
	"github.com/grocerly/storefront/internal/catalog"
	"github.com/grocerly/storefront/internal/order"
	"github.com/grocerly/storefront/pkg/auth"
)

type mockStore struct {
	admins  map[uuid.UUID]*Admin
	areas   map[int64]*Area
	banners map[int64]*Banner
	nextID  int64
}

func newMockStore() *mockStore {
	return &mockStore{
		admins:  make(map[uuid.UUID]*Admin),
		areas:   make(map[int64]*Area),
		banners: make(map[int64]*Banner),
		nextID:  1,
	}
}

func (m *mockStore) CreateAdmin(_ context.Context, a *Admin) (*Admin, error) {
	for _, existing := range m.admins {
		if existing.Email == a.Email {
			return nil, ErrAlreadyExists
		}
	}
	created := *a
	created.Active = true
	m.admins[created.ID] = &created
	return &created, nil
}

func (m *mockStore) FindAdminByID(_ context.Context, id uuid.UUID) (*Admin, error) {
	a, ok := m.admins[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockStore) FindAdminByEmail(_ context.Context, email string) (*Admin, error) {
	for _, a := range m.admins {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockStore) ListAdmins(_ context.Context, _, _ int32) ([]Admin, error) {
	var out []Admin
	for _, a := range m.admins {
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockStore) CountAdmins(_ context.Context) (int64, error) {
	return int64(len(m.admins)), nil
}

func (m *mockStore) UpdateAdmin(_ context.Context, a *Admin) (*Admin, error) {
	existing, ok := m.admins[a.ID]
	if !ok {
		return nil, ErrNotFound
	}
	existing.Name, existing.Email, existing.Active = a.Name, a.Email, a.Active
	return existing, nil
}

func (m *mockStore) DeleteAdmin(_ context.Context, id uuid.UUID) error {
	if _, ok := m.admins[id]; !ok {
		return ErrNotFound
	}
	delete(m.admins, id)
	return nil
}

func (m *mockStore) CreateArea(_ context.Context, a *Area) (*Area, error) {
	created := *a
	created.ID = m.nextID
	m.nextID++
	m.areas[created.ID] = &created
	return &created, nil
}

func (m *mockStore) FindAreaByID(_ context.Context, id int64) (*Area, error) {
	a, ok := m.areas[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockStore) ListAreas(_ context.Context, activeOnly bool) ([]Area, error) {
	var out []Area
	for _, a := range m.areas {
		if activeOnly && !a.Active {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockStore) UpdateArea(_ context.Context, a *Area) (*Area, error) {
	if _, ok := m.areas[a.ID]; !ok {
		return nil, ErrNotFound
	}
	m.areas[a.ID] = a
	return a, nil
}

func (m *mockStore) DeleteArea(_ context.Context, id int64) error {
	if _, ok := m.areas[id]; !ok {
		return ErrNotFound
	}
	delete(m.areas, id)
	return nil
}

func (m *mockStore) CreateBanner(_ context.Context, b *Banner) (*Banner, error) {
	created := *b
	created.ID = m.nextID
	m.nextID++
	m.banners[created.ID] = &created
	return &created, nil
}

func (m *mockStore) FindBannerByID(_ context.Context, id int64) (*Banner, error) {
	b, ok := m.banners[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *mockStore) ListBanners(_ context.Context, activeOnly bool) ([]Banner, error) {
	var out []Banner
	for _, b := range m.banners {
		if activeOnly && !b.Active {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (m *mockStore) UpdateBanner(_ context.Context, b *Banner) (*Banner, error) {
	if _, ok := m.banners[b.ID]; !ok {
		return nil, ErrNotFound
	}
	m.banners[b.ID] = b
	return b, nil
}

func (m *mockStore) DeleteBanner(_ context.Context, id int64) error {
	if _, ok := m.banners[id]; !ok {
		return ErrNotFound
	}
	delete(m.banners, id)
	return nil
}

type stubOrderStats struct{}

func (stubOrderStats) Stats(_ context.Context) (*order.Dashboard, error) {
	return &order.Dashboard{
		OrdersByStatus: map[string]int64{order.StatusPending: 2, order.StatusDelivered: 5},
		Revenue:        decimal.RequireFromString("1250.50"),
	}, nil
}

type stubCustomers struct {
	toggled map[uuid.UUID]bool
}

func (s *stubCustomers) Customers(_ context.Context, _, _ int32) ([]account.Customer, int64, error) {
	return nil, 42, nil
}

func (s *stubCustomers) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	s.toggled[id] = active
	return nil
}

type stubProducts struct{}

func (stubProducts) Products(_ context.Context, _ catalog.ProductFilter, _, _ int32) ([]catalog.Product, int64, error) {
	return nil, 17, nil
}

func newTestService() (*Service, *mockStore, *stubCustomers) {
	store := newMockStore()
	customers := &stubCustomers{toggled: make(map[uuid.UUID]bool)}
	tokens := auth.NewTokenService("storefront-test", "0123456789abcdef0123456789abcdef", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store, tokens, stubOrderStats{}, customers, stubProducts{}, logger)
	return svc, store, customers
}

func createAdmin(t *testing.T, svc *Service, email string) *Admin {
	t.Helper()
	created, err := svc.CreateAdmin(context.Background(), &Admin{Name: "Shop Owner", Email: email}, "admin-password")
	require.NoError(t, err)
	return created
}

func TestService_Login(t *testing.T) {
	svc, _, _ := newTestService()
	createAdmin(t, svc, "owner@example.com")

	token, a, err := svc.Login(context.Background(), "owner@example.com", "admin-password")

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "owner@example.com", a.Email)
}

func TestService_Login_Failures(t *testing.T) {
	svc, store, _ := newTestService()
	created := createAdmin(t, svc, "owner@example.com")

	_, _, err := svc.Login(context.Background(), "owner@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "admin-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	store.admins[created.ID].Active = false
	_, _, err = svc.Login(context.Background(), "owner@example.com", "admin-password")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestService_CreateAdmin_HashesPassword(t *testing.T) {
	svc, store, _ := newTestService()

	created := createAdmin(t, svc, "owner@example.com")

	stored := store.admins[created.ID]
	assert.NotEqual(t, "admin-password", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestService_DeleteAdmin_LastAdminGuard(t *testing.T) {
	svc, _, _ := newTestService()
	first := createAdmin(t, svc, "owner@example.com")

	err := svc.DeleteAdmin(context.Background(), first.ID)
	assert.ErrorIs(t, err, ErrLastAdmin)

	second := createAdmin(t, svc, "staff@example.com")
	assert.NoError(t, svc.DeleteAdmin(context.Background(), second.ID))
}

func TestService_Stats(t *testing.T) {
	svc, _, _ := newTestService()

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.OrdersByStatus[order.StatusDelivered])
	assert.True(t, stats.Revenue.Equal(decimal.RequireFromString("1250.50")))
	assert.Equal(t, int64(42), stats.Customers)
	assert.Equal(t, int64(17), stats.Products)
}

func TestService_SetCustomerActive(t *testing.T) {
	svc, _, customers := newTestService()
	id := uuid.New()

	require.NoError(t, svc.SetCustomerActive(context.Background(), id, false))

	active, ok := customers.toggled[id]
	require.True(t, ok)
	assert.False(t, active)
}
