package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerly/storefront/internal/cart"
)

type mockStore struct {
	products   map[int64]Product
	categories map[int64]Category
}

func newMockStore() *mockStore {
	return &mockStore{
		products:   make(map[int64]Product),
		categories: make(map[int64]Category),
	}
}

func (m *mockStore) FindProductByID(_ context.Context, id int64) (*Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (m *mockStore) FindProducts(_ context.Context, filter ProductFilter, offset, limit int32) ([]Product, error) {
	var out []Product
	for _, p := range m.products {
		if filter.CategoryID != 0 && p.CategoryID != filter.CategoryID {
			continue
		}
		if filter.ActiveOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockStore) CountProducts(ctx context.Context, filter ProductFilter) (int64, error) {
	out, err := m.FindProducts(ctx, filter, 0, 0)
	return int64(len(out)), err
}

func (m *mockStore) CreateProduct(_ context.Context, p *Product) (*Product, error) {
	created := *p
	created.ID = int64(len(m.products) + 1)
	m.products[created.ID] = created
	return &created, nil
}

func (m *mockStore) UpdateProduct(_ context.Context, p *Product) (*Product, error) {
	if _, ok := m.products[p.ID]; !ok {
		return nil, ErrProductNotFound
	}
	m.products[p.ID] = *p
	return p, nil
}

func (m *mockStore) DeleteProduct(_ context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockStore) FindCategoryByID(_ context.Context, id int64) (*Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, ErrCategoryNotFound
	}
	return &c, nil
}

func (m *mockStore) FindCategories(_ context.Context, activeOnly bool) ([]Category, error) {
	var out []Category
	for _, c := range m.categories {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockStore) CreateCategory(_ context.Context, c *Category) (*Category, error) {
	created := *c
	created.ID = int64(len(m.categories) + 1)
	m.categories[created.ID] = created
	return &created, nil
}

func (m *mockStore) UpdateCategory(_ context.Context, c *Category) (*Category, error) {
	if _, ok := m.categories[c.ID]; !ok {
		return nil, ErrCategoryNotFound
	}
	m.categories[c.ID] = *c
	return c, nil
}

func (m *mockStore) DeleteCategory(_ context.Context, id int64) error {
	if _, ok := m.categories[id]; !ok {
		return ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func newTestService() (*Service, *mockStore) {
	store := newMockStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, logger), store
}

func TestService_ProductSnapshot(t *testing.T) {
	svc, store := newTestService()
	special := decimal.RequireFromString("150")
	store.products[1] = Product{
		ID: 1, Name: "Mango Juice", Unit: "1 L",
		Price: decimal.RequireFromString("200"), SpecialPrice: &special,
		Stock: 10, Images: []string{"juice.jpg"}, CategoryID: 3, Active: true,
	}

	snap, err := svc.ProductSnapshot(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.ID)
	assert.Equal(t, "Mango Juice", snap.Name)
	assert.True(t, snap.Price.Equal(decimal.RequireFromString("200")))
	require.NotNil(t, snap.SpecialPrice)
	assert.True(t, snap.SpecialPrice.Equal(special))
	assert.Equal(t, 10, snap.Stock)
	assert.Equal(t, []string{"juice.jpg"}, snap.Images)
}

func TestService_ProductSnapshot_Unknown(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ProductSnapshot(context.Background(), 42)

	assert.ErrorIs(t, err, cart.ErrProductUnavailable)
}

func TestService_ProductSnapshot_Inactive(t *testing.T) {
	svc, store := newTestService()
	store.products[1] = Product{ID: 1, Name: "Old Stock", Price: decimal.RequireFromString("50"), Active: false}

	_, err := svc.ProductSnapshot(context.Background(), 1)

	assert.ErrorIs(t, err, cart.ErrProductUnavailable)
}

func TestService_CreateProduct_UnknownCategory(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateProduct(context.Background(), &Product{Name: "Rice", CategoryID: 7})

	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestService_CreateProduct(t *testing.T) {
	svc, store := newTestService()
	store.categories[7] = Category{ID: 7, Name: "Staples", Active: true}

	created, err := svc.CreateProduct(context.Background(), &Product{
		Name: "Miniket Rice", Unit: "1 kg", Price: decimal.RequireFromString("100"),
		Stock: 5, CategoryID: 7, Active: true,
	})

	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Miniket Rice", created.Name)
}

func TestService_Products_FilterByCategory(t *testing.T) {
	svc, store := newTestService()
	store.products[1] = Product{ID: 1, Name: "Rice", CategoryID: 1, Active: true}
	store.products[2] = Product{ID: 2, Name: "Juice", CategoryID: 2, Active: true}
	store.products[3] = Product{ID: 3, Name: "Hidden", CategoryID: 1, Active: false}

	products, total, err := svc.Products(context.Background(), ProductFilter{CategoryID: 1, ActiveOnly: true}, 0, 10)

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, products, 1)
	assert.Equal(t, "Rice", products[0].Name)
}
