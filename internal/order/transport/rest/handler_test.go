package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerly/storefront/internal/catalog"
	"github.com/grocerly/storefront/internal/order"
	"github.com/grocerly/storefront/pkg/auth"
	"github.com/grocerly/storefront/pkg/web"
)

type fakeStore struct {
	orders map[uuid.UUID]*order.Order
	stock  map[int64]int
}

func (f *fakeStore) Create(_ context.Context, o *order.Order) error {
	for _, item := range o.Items {
		if f.stock[item.ProductID] < item.Quantity {
			return &order.InsufficientStockError{ProductID: item.ProductID, Available: f.stock[item.ProductID]}
		}
	}
	for _, item := range o.Items {
		f.stock[item.ProductID] -= item.Quantity
	}
	stored := *o
	f.orders[o.ID] = &stored
	return nil
}

func (f *fakeStore) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (f *fakeStore) ListByCustomer(_ context.Context, customerID uuid.UUID, _, _ int32) ([]order.Order, error) {
	var out []order.Order
	for _, o := range f.orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeStore) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	out, err := f.ListByCustomer(ctx, customerID, 0, 0)
	return int64(len(out)), err
}

func (f *fakeStore) List(_ context.Context, status string, _, _ int32) ([]order.Order, error) {
	var out []order.Order
	for _, o := range f.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeStore) Count(ctx context.Context, status string) (int64, error) {
	out, err := f.List(ctx, status, 0, 0)
	return int64(len(out)), err
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, status string) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Status = status
	return o, nil
}

func (f *fakeStore) StatusCounts(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, o := range f.orders {
		counts[o.Status]++
	}
	return counts, nil
}

func (f *fakeStore) Revenue(_ context.Context) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type fakeProducts struct {
	products map[int64]*catalog.Product
}

func (f *fakeProducts) ProductByID(_ context.Context, id int64) (*catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

type fakeCarts struct {
	cleared []string
}

func (f *fakeCarts) Clear(_ context.Context, sessionID string) error {
	f.cleared = append(f.cleared, sessionID)
	return nil
}

type testEnv struct {
	router *chi.Mux
	tokens *auth.TokenService
	store  *fakeStore
	carts  *fakeCarts
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenService("storefront-test", "0123456789abcdef0123456789abcdef", time.Hour)
	store := &fakeStore{
		orders: make(map[uuid.UUID]*order.Order),
		stock:  map[int64]int{1: 5},
	}
	products := &fakeProducts{products: map[int64]*catalog.Product{
		1: {ID: 1, Name: "Basmati Rice", Unit: "kg", Price: decimal.NewFromInt(120), Stock: 5, Active: true},
	}}
	carts := &fakeCarts{}
	svc := order.NewService(store, products, carts, nil, logger)

	h := NewHandler(svc, tokens, logger)
	r := chi.NewRouter()
	r.Use(web.Session)
	h.RegisterRoutes(r)
	r.Route("/api/v1/admin", func(ar chi.Router) {
		ar.Use(web.RequireAuth(tokens, auth.RoleAdmin))
		h.RegisterAdminRoutes(ar)
	})
	return &testEnv{router: r, tokens: tokens, store: store, carts: carts}
}

func (e *testEnv) customerToken(t *testing.T, id uuid.UUID) string {
	t.Helper()
	token, err := e.tokens.Issue(id, auth.RoleCustomer)
	require.NoError(t, err)
	return token
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	token, err := e.tokens.Issue(uuid.New(), auth.RoleAdmin)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, r http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Place(t *testing.T) {
	env := newTestEnv(t)
	customerID := uuid.New()
	token := env.customerToken(t, customerID)

	rec := doJSON(t, env.router, http.MethodPost, "/api/v1/orders", token, map[string]any{
		"address": "House 12, Road 5, Dhanmondi",
		"items":   []map[string]any{{"product_id": 1, "quantity": 2}},
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var placed order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))
	assert.Equal(t, customerID, placed.CustomerID)
	assert.Equal(t, order.StatusPending, placed.Status)
	assert.True(t, placed.Total.Equal(decimal.NewFromInt(240)))
	assert.Equal(t, 3, env.store.stock[1])
	assert.Len(t, env.carts.cleared, 1, "Checkout should clear the session cart")
}

func TestHandler_Place_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/api/v1/orders", "", map[string]any{
		"address": "somewhere",
		"items":   []map[string]any{{"product_id": 1, "quantity": 1}},
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_Place_InsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	token := env.customerToken(t, uuid.New())

	rec := doJSON(t, env.router, http.MethodPost, "/api/v1/orders", token, map[string]any{
		"address": "House 12, Road 5, Dhanmondi",
		"items":   []map[string]any{{"product_id": 1, "quantity": 6}},
	})

	require.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body["product_id"])
	assert.EqualValues(t, 5, body["available"])
	assert.Equal(t, 5, env.store.stock[1], "Stock should be untouched")
}

func TestHandler_Place_ValidationError(t *testing.T) {
	env := newTestEnv(t)
	token := env.customerToken(t, uuid.New())

	rec := doJSON(t, env.router, http.MethodPost, "/api/v1/orders", token, map[string]any{
		"address": "House 12, Road 5, Dhanmondi",
		"items":   []map[string]any{},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["validation_errors"], "Items")
}

func TestHandler_Get_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ownerID := uuid.New()
	ownerToken := env.customerToken(t, ownerID)

	rec := doJSON(t, env.router, http.MethodPost, "/api/v1/orders", ownerToken, map[string]any{
		"address": "House 12, Road 5, Dhanmondi",
		"items":   []map[string]any{{"product_id": 1, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var placed order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))

	// the owner can read it
	rec = doJSON(t, env.router, http.MethodGet, "/api/v1/orders/"+placed.ID.String(), ownerToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// another customer cannot
	rec = doJSON(t, env.router, http.MethodGet, "/api/v1/orders/"+placed.ID.String(), env.customerToken(t, uuid.New()), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// the back office can
	rec = doJSON(t, env.router, http.MethodGet, "/api/v1/admin/orders/"+placed.ID.String(), env.adminToken(t), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_AdminUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	token := env.customerToken(t, uuid.New())
	adminToken := env.adminToken(t)

	rec := doJSON(t, env.router, http.MethodPost, "/api/v1/orders", token, map[string]any{
		"address": "House 12, Road 5, Dhanmondi",
		"items":   []map[string]any{{"product_id": 1, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var placed order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))

	// pending cannot jump straight to delivered
	rec = doJSON(t, env.router, http.MethodPut, "/api/v1/admin/orders/"+placed.ID.String()+"/status", adminToken,
		map[string]any{"status": order.StatusDelivered})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, env.router, http.MethodPut, "/api/v1/admin/orders/"+placed.ID.String()+"/status", adminToken,
		map[string]any{"status": order.StatusConfirmed})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, order.StatusConfirmed, updated.Status)

	// customers cannot reach the back-office route
	rec = doJSON(t, env.router, http.MethodPut, "/api/v1/admin/orders/"+placed.ID.String()+"/status", token,
		map[string]any{"status": order.StatusDelivered})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
