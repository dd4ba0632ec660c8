package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerly/storefront/internal/catalog"
)

type fakeStore struct {
	products   map[int64]catalog.Product
	categories map[int64]catalog.Category
	nextID     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:   make(map[int64]catalog.Product),
		categories: make(map[int64]catalog.Category),
		nextID:     1,
	}
}

func (f *fakeStore) FindProductByID(_ context.Context, id int64) (*catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &p, nil
}

func (f *fakeStore) FindProducts(_ context.Context, filter catalog.ProductFilter, offset, limit int32) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range f.products {
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

func (f *fakeStore) CountProducts(ctx context.Context, filter catalog.ProductFilter) (int64, error) {
	out, err := f.FindProducts(ctx, filter, 0, 0)
	return int64(len(out)), err
}

func (f *fakeStore) CreateProduct(_ context.Context, p *catalog.Product) (*catalog.Product, error) {
	created := *p
	created.ID = f.nextID
	f.nextID++
	f.products[created.ID] = created
	return &created, nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, p *catalog.Product) (*catalog.Product, error) {
	if _, ok := f.products[p.ID]; !ok {
		return nil, catalog.ErrProductNotFound
	}
	f.products[p.ID] = *p
	return p, nil
}

func (f *fakeStore) DeleteProduct(_ context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return catalog.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeStore) FindCategoryByID(_ context.Context, id int64) (*catalog.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, catalog.ErrCategoryNotFound
	}
	return &c, nil
}

func (f *fakeStore) FindCategories(_ context.Context, activeOnly bool) ([]catalog.Category, error) {
	var out []catalog.Category
	for _, c := range f.categories {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) CreateCategory(_ context.Context, c *catalog.Category) (*catalog.Category, error) {
	created := *c
	created.ID = f.nextID
	f.nextID++
	f.categories[created.ID] = created
	return &created, nil
}

func (f *fakeStore) UpdateCategory(_ context.Context, c *catalog.Category) (*catalog.Category, error) {
	if _, ok := f.categories[c.ID]; !ok {
		return nil, catalog.ErrCategoryNotFound
	}
	f.categories[c.ID] = *c
	return c, nil
}

func (f *fakeStore) DeleteCategory(_ context.Context, id int64) error {
	if _, ok := f.categories[id]; !ok {
		return catalog.ErrCategoryNotFound
	}
	delete(f.categories, id)
	return nil
}

func newTestRouter(t *testing.T) (*chi.Mux, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(catalog.NewService(store, logger), logger)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Route("/api/v1/admin", func(ar chi.Router) {
		h.RegisterAdminRoutes(ar)
	})
	return r, store
}

func doJSON(t *testing.T, r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ListProducts_PaginatedEnvelope(t *testing.T) {
	r, store := newTestRouter(t)
	store.products[1] = catalog.Product{ID: 1, Name: "Rice", Price: decimal.RequireFromString("100"), CategoryID: 1, Active: true}
	store.products[2] = catalog.Product{ID: 2, Name: "Hidden", Price: decimal.RequireFromString("10"), CategoryID: 1, Active: false}

	rec := doJSON(t, r, http.MethodGet, "/api/v1/products?page=1&per_page=15", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data        []catalog.Product `json:"data"`
		CurrentPage int               `json:"current_page"`
		LastPage    int               `json:"last_page"`
		PerPage     int               `json:"per_page"`
		Total       int64             `json:"total"`
		Links       []map[string]any  `json:"links"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.CurrentPage)
	assert.Equal(t, int64(1), envelope.Total)
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "Rice", envelope.Data[0].Name)
	// prev, page 1, next
	assert.Len(t, envelope.Links, 3)
}

func TestHandler_ListProducts_InvalidPage(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/products?page=zero", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_GetProduct(t *testing.T) {
	r, store := newTestRouter(t)
	store.products[1] = catalog.Product{ID: 1, Name: "Rice", Price: decimal.RequireFromString("100"), Active: true}

	rec := doJSON(t, r, http.MethodGet, "/api/v1/products/1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var p catalog.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Rice", p.Name)
}

func TestHandler_GetProduct_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/products/42", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_GetProduct_InactiveHidden(t *testing.T) {
	r, store := newTestRouter(t)
	store.products[1] = catalog.Product{ID: 1, Name: "Hidden", Price: decimal.RequireFromString("10"), Active: false}

	rec := doJSON(t, r, http.MethodGet, "/api/v1/products/1", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_CreateProduct(t *testing.T) {
	r, store := newTestRouter(t)
	store.categories[1] = catalog.Category{ID: 1, Name: "Staples", Active: true}

	rec := doJSON(t, r, http.MethodPost, "/api/v1/admin/products", map[string]any{
		"name": "Miniket Rice", "unit": "1 kg", "price": "100",
		"stock": 5, "category_id": 1, "active": true,
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var p catalog.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.NotZero(t, p.ID)
}

func TestHandler_CreateProduct_ValidationError(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/admin/products", map[string]any{
		"unit": "1 kg", "price": "100", "category_id": 1,
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["validation_errors"], "Name")
}

func TestHandler_CreateProduct_UnknownCategory(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/admin/products", map[string]any{
		"name": "Orphan", "unit": "1 kg", "price": "100", "category_id": 9,
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_DeleteProduct_Missing(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodDelete, "/api/v1/admin/products/42", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_CategoryCRUD(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/admin/categories", map[string]any{
		"name": "Beverages", "image": "bev.jpg", "active": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var c catalog.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))

	rec = doJSON(t, r, http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []catalog.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = doJSON(t, r, http.MethodDelete, "/api/v1/admin/categories/"+strconv.FormatInt(c.ID, 10), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/v1/categories", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list)
}
