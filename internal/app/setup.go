// Package app contains the application setup for the storefront.
package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"

	"github.com/grocerly/storefront/internal/account"
	accountstore "github.com/grocerly/storefront/internal/account/store"
	accountrest "github.com/grocerly/storefront/internal/account/transport/rest"
	"github.com/grocerly/storefront/internal/admin"
	adminstore "github.com/grocerly/storefront/internal/admin/store"
	adminrest "github.com/grocerly/storefront/internal/admin/transport/rest"
	"github.com/grocerly/storefront/internal/cart"
	cartstore "github.com/grocerly/storefront/internal/cart/store"
	cartrest "github.com/grocerly/storefront/internal/cart/transport/rest"
	"github.com/grocerly/storefront/internal/catalog"
	catalogstore "github.com/grocerly/storefront/internal/catalog/store"
	catalogrest "github.com/grocerly/storefront/internal/catalog/transport/rest"
	"github.com/grocerly/storefront/internal/config"
	"github.com/grocerly/storefront/internal/order"
	orderstore "github.com/grocerly/storefront/internal/order/store"
	orderrest "github.com/grocerly/storefront/internal/order/transport/rest"
	"github.com/grocerly/storefront/pkg/auth"
	"github.com/grocerly/storefront/pkg/messaging"
	pkgnats "github.com/grocerly/storefront/pkg/nats"
	"github.com/grocerly/storefront/pkg/server"
	"github.com/grocerly/storefront/pkg/web"
)

type Dependencies struct {
	CartService    *cart.Service
	CatalogService *catalog.Service
	AccountService *account.Service
	OrderService   *order.Service
	AdminService   *admin.Service
	Verifier       auth.Verifier
	Logger         *slog.Logger
}

// SetupDependencies wires stores and services together. The JetStream handle
// may be nil, in which case events are not published.
func SetupDependencies(cfg *config.Config, dbPool *pgxpool.Pool, redisClient *redis.Client, js jetstream.JetStream, logger *slog.Logger) *Dependencies {
	var publisher messaging.Publisher
	if js != nil {
		publisher = pkgnats.NewNatsPublisher(js)
	}
	tokens := auth.NewTokenService(cfg.Auth.Issuer, cfg.Auth.Secret, cfg.Auth.TokenTTL)

	catalogSvc := catalog.NewService(catalogstore.NewPgStore(dbPool), logger)

	syncer := cart.NewSyncer(cart.SyncerConfig{
		Endpoint:            cfg.Cart.Sync.Endpoint,
		Timeout:             cfg.Cart.Sync.Timeout,
		ConsecutiveFailures: cfg.Cart.Breaker.ConsecutiveFailures,
		BreakerTimeout:      cfg.Cart.Breaker.Timeout,
	})
	cartSvc := cart.NewService(cartstore.NewRedisStore(redisClient, cfg.Cart.SessionTTL), catalogSvc, syncer, publisher, logger)

	accountSvc := account.NewService(
		accountstore.NewPgStore(dbPool),
		accountstore.NewRedisOTPStore(redisClient, cfg.Auth.OTP.TTL),
		tokens,
		publisher,
		account.Config{OTPLength: cfg.Auth.OTP.Length, OTPMaxAttempts: cfg.Auth.OTP.MaxAttempts},
		logger,
	)

	orderSvc := order.NewService(orderstore.NewPgStore(dbPool), catalogSvc, cartSvc, publisher, logger)

	adminSvc := admin.NewService(adminstore.NewPgStore(dbPool), tokens, orderSvc, accountSvc, catalogSvc, logger)

	return &Dependencies{
		CartService:    cartSvc,
		CatalogService: catalogSvc,
		AccountService: accountSvc,
		OrderService:   orderSvc,
		AdminService:   adminSvc,
		Verifier:       tokens,
		Logger:         logger,
	}
}

// SetupHttpHandler initializes the HTTP routes for the storefront.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the storefront application.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	cartHandler := cartrest.NewHandler(deps.CartService, deps.Logger)
	catalogHandler := catalogrest.NewHandler(deps.CatalogService, deps.Logger)
	accountHandler := accountrest.NewHandler(deps.AccountService, deps.Verifier, deps.Logger)
	orderHandler := orderrest.NewHandler(deps.OrderService, deps.Verifier, deps.Logger)
	adminHandler := adminrest.NewHandler(deps.AdminService, deps.Verifier, deps.Logger)

	cartHandler.RegisterRoutes(mux)
	catalogHandler.RegisterRoutes(mux)
	accountHandler.RegisterRoutes(mux)
	orderHandler.RegisterRoutes(mux)
	adminHandler.RegisterRoutes(mux)

	mux.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(web.RequireAuth(deps.Verifier, auth.RoleAdmin))
		catalogHandler.RegisterAdminRoutes(r)
		orderHandler.RegisterAdminRoutes(r)
		adminHandler.RegisterAdminRoutes(r)
	})
}

// SetupHttpServer creates and configures an HTTP server for the storefront application.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {

	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
