// Package rest provides HTTP handlers for orders.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/grocerly/storefront/internal/catalog"
	"github.com/grocerly/storefront/internal/order"
	"github.com/grocerly/storefront/pkg/auth"
	"github.com/grocerly/storefront/pkg/web"
)

type Handler struct {
	service  *order.Service
	verifier auth.Verifier
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new order API handler with the provided service.
func NewHandler(service *order.Service, verifier auth.Verifier, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		verifier: verifier,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the customer-facing order routes behind customer
// authentication.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(web.RequireAuth(h.verifier, auth.RoleCustomer, auth.RoleAdmin))
		r.Post("/", h.Place)
		r.Get("/", h.ListMine)
		r.Get("/{id}", h.Get)
	})
}

// RegisterAdminRoutes registers the back-office order routes. The caller
// mounts them behind admin authentication.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.AdminList)
		r.Get("/{id}", h.Get)
		r.Put("/{id}/status", h.UpdateStatus)
	})
}

type placeDto struct {
	Address string    `json:"address" validate:"required,max=1024"`
	Items   []lineDto `json:"items"   validate:"required,min=1,dive"`
}

type lineDto struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity"   validate:"required,gt=0"`
}

type statusDto struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed delivered cancelled"`
}

// Place checks out the submitted lines for the authenticated customer.
func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}

	var dto placeDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		if !web.RespondValidationError(w, mLogger, err) {
			web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		}
		return
	}

	lines := make([]order.Line, 0, len(dto.Items))
	for _, item := range dto.Items {
		lines = append(lines, order.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	// checkout clears the session cart, when there is one
	sessionID, _ := web.SessionID(r.Context())

	placed, err := h.service.Place(r.Context(), userID, sessionID, dto.Address, lines)
	if err != nil {
		h.respondOrderError(w, r, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusCreated, placed)
}

// ListMine returns a page of the authenticated customer's orders.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}
	page, ok := web.ParsePage(r, w, mLogger)
	if !ok {
		return
	}

	orders, total, err := h.service.ByCustomer(r.Context(), userID, page.Offset(), page.Limit())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing orders", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to list orders")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, web.NewPaginated(orders, page, total, "/api/v1/orders"))
}

// Get returns one order. Customers only see their own.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	role, _ := web.Role(r.Context())

	o, err := h.service.ByID(r.Context(), id, userID, role == auth.RoleAdmin)
	if err != nil {
		h.respondOrderError(w, r, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, o)
}

// AdminList returns a page of all orders, optionally filtered by status.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	page, ok := web.ParsePage(r, w, mLogger)
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")
	if status != "" && !order.ValidStatus(status) {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Unknown status: "+status)
		return
	}

	orders, total, err := h.service.All(r.Context(), status, page.Offset(), page.Limit())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing orders", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to list orders")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, web.NewPaginated(orders, page, total, "/api/v1/admin/orders"))
}

// UpdateStatus moves an order through the status state machine.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	var dto statusDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		if !web.RespondValidationError(w, mLogger, err) {
			web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		}
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), id, dto.Status)
	if err != nil {
		h.respondOrderError(w, r, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

func (h *Handler) respondOrderError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error) {
	var stockErr *order.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		mLogger.WarnContext(r.Context(), "Insufficient stock at checkout",
			"product_id", stockErr.ProductID, "available", stockErr.Available)
		web.RespondJSON(w, mLogger, http.StatusConflict, map[string]any{
			"error":      "Requested quantity exceeds available stock",
			"product_id": stockErr.ProductID,
			"available":  stockErr.Available,
		})
	case errors.Is(err, catalog.ErrProductNotFound):
		web.RespondError(w, mLogger, http.StatusNotFound, "Product not found")
	case errors.Is(err, order.ErrEmptyOrder):
		web.RespondError(w, mLogger, http.StatusBadRequest, "Order has no items")
	case errors.Is(err, order.ErrNotFound):
		web.RespondError(w, mLogger, http.StatusNotFound, "Order not found")
	case errors.Is(err, order.ErrAccessDenied):
		web.RespondError(w, mLogger, http.StatusForbidden, "Access denied")
	case errors.Is(err, order.ErrInvalidTransition):
		web.RespondError(w, mLogger, http.StatusUnprocessableEntity, err.Error())
	default:
		mLogger.ErrorContext(r.Context(), "Order operation failed", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Internal server error")
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
