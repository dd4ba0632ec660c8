package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerly/storefront/internal/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth.Issuer = "storefront-test"
	cfg.Auth.Secret = "0123456789abcdef0123456789abcdef"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Auth.OTP.Length = 6
	cfg.Auth.OTP.TTL = 5 * time.Minute
	cfg.Auth.OTP.MaxAttempts = 3
	cfg.Cart.SessionTTL = 30 * 24 * time.Hour
	cfg.Cart.Sync.Endpoint = "http://localhost:9999/api/v1/cart/sync"
	cfg.Cart.Sync.Timeout = time.Second
	cfg.Cart.Breaker.ConsecutiveFailures = 5
	cfg.Cart.Breaker.Timeout = time.Minute
	return cfg
}

func TestSetupDependencies(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	deps := SetupDependencies(testConfig(), nil, nil, nil, logger)

	require.NotNil(t, deps)
	assert.NotNil(t, deps.CartService)
	assert.NotNil(t, deps.CatalogService)
	assert.NotNil(t, deps.AccountService)
	assert.NotNil(t, deps.OrderService)
	assert.NotNil(t, deps.AdminService)
	assert.NotNil(t, deps.Verifier)
}

func TestSetupHttpHandler_AdminRoutesRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := SetupDependencies(testConfig(), nil, nil, nil, logger)
	handler := SetupHttpHandler(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
