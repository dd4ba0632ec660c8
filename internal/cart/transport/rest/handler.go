// Package rest provides HTTP handlers for the cart ledger.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/grocerly/storefront/internal/cart"
	"github.com/grocerly/storefront/pkg/web"
)

type Handler struct {
	service  *cart.Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new cart API handler with the provided service.
func NewHandler(service *cart.Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the cart.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", h.View)
		r.Delete("/", h.Clear)
		r.Post("/items", h.AddItem)
		r.Route("/items/{productID}", func(r chi.Router) {
			r.Put("/", h.SetQuantity)
			r.Delete("/", h.RemoveItem)
		})
		r.Post("/visibility", h.ToggleVisibility)
		r.Post("/sync", h.Sync)
	})
}

// cartView is the response shape for the full ledger state.
type cartView struct {
	Items     map[string]cart.LineItem `json:"items"`
	Count     int                      `json:"count"`
	Total     decimal.Decimal          `json:"total"`
	Open      bool                     `json:"open"`
	LastAdded int64                    `json:"last_added,omitempty"`
}

type addItemDto struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity"   validate:"omitempty,gt=0"`
}

type setQuantityDto struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// View returns the session's full ledger state.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sessionID, ok := web.GetSessionID(w, r, mLogger)
	if !ok {
		return
	}

	ledger, err := h.service.Ledger(r.Context(), sessionID)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error loading cart", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, h.toView(ledger))
}

// AddItem adds a product to the cart, rejecting quantities above the
// available stock.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sessionID, ok := web.GetSessionID(w, r, mLogger)
	if !ok {
		return
	}

	var dto addItemDto
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
	if dto.Quantity == 0 {
		dto.Quantity = 1
	}

	if err := h.service.Add(r.Context(), sessionID, dto.ProductID, dto.Quantity); err != nil {
		h.respondCartError(w, r, mLogger, err)
		return
	}

	ledger, err := h.service.Ledger(r.Context(), sessionID)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error loading cart", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	mLogger.DebugContext(r.Context(), "Item added to cart", "product_id", dto.ProductID, "quantity", dto.Quantity)
	web.RespondJSON(w, mLogger, http.StatusOK, h.toView(ledger))
}

// SetQuantity overwrites a line item's quantity; zero removes the item.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sessionID, ok := web.GetSessionID(w, r, mLogger)
	if !ok {
		return
	}
	productID, ok := web.ParseIntID(w, r, mLogger, "productID")
	if !ok {
		return
	}

	var dto setQuantityDto
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

	if err := h.service.SetQuantity(r.Context(), sessionID, productID, dto.Quantity); err != nil {
		h.respondCartError(w, r, mLogger, err)
		return
	}

	ledger, err := h.service.Ledger(r.Context(), sessionID)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error loading cart", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, h.toView(ledger))
}

// RemoveItem decrements a line item by the quantity query parameter
// (default 1). Removing an absent item is a successful no-op.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sessionID, ok := web.GetSessionID(w, r, mLogger)
	if !ok {
		return
	}
	productID, ok := web.ParseIntID(w, r, mLogger, "productID")
	if !ok {
		return
	}

	quantity := 1
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid quantity: "+raw)
			return
		}
		quantity = n
	}

	if err := h.service.Remove(r.Context(), sessionID, productID, quantity); err != nil {
		mLogger.ErrorContext(r.Context(), "Error removing cart item", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to update cart")
		return
	}

	ledger, err := h.service.Ledger(r.Context(), sessionID)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error loading cart", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, h.toView(ledger))
}

// Clear empties the cart and removes the persisted blob.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sessionID, ok := web.GetSessionID(w, r, mLogger)
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), sessionID); err != nil {
		mLogger.ErrorContext(r.Context(), "Error clearing cart", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to clear cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleVisibility flips the slide-out panel flag.
func (h *Handler) ToggleVisibility(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sessionID, ok := web.GetSessionID(w, r, mLogger)
	if !ok {
		return
	}

	open, err := h.service.ToggleVisibility(r.Context(), sessionID)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error toggling cart visibility", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to toggle cart visibility")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]bool{"open": open})
}

// Sync pushes the cart to the remote endpoint. A failed push is a 502 with a
// typed body; the local cart stays as it was.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sessionID, ok := web.GetSessionID(w, r, mLogger)
	if !ok {
		return
	}

	resp, err := h.service.Sync(r.Context(), sessionID)
	if err != nil {
		var syncErr *cart.SyncError
		if errors.As(err, &syncErr) {
			mLogger.WarnContext(r.Context(), "Cart sync failed", "error", err)
			web.RespondJSON(w, mLogger, http.StatusBadGateway, map[string]any{
				"error":  "Cart synchronization failed",
				"detail": syncErr.Cause.Error(),
			})
			return
		}
		mLogger.ErrorContext(r.Context(), "Error syncing cart", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to sync cart")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, resp)
}

// respondCartError maps domain errors from the ledger to HTTP responses.
func (h *Handler) respondCartError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error) {
	var stockErr *cart.StockExceededError
	switch {
	case errors.As(err, &stockErr):
		mLogger.WarnContext(r.Context(), "Stock exceeded", "product_id", stockErr.ProductID, "available", stockErr.Available)
		web.RespondJSON(w, mLogger, http.StatusConflict, map[string]any{
			"error":     "Requested quantity exceeds available stock",
			"available": stockErr.Available,
		})
	case errors.Is(err, cart.ErrItemNotFound):
		web.RespondError(w, mLogger, http.StatusNotFound, "Item is not in the cart")
	case errors.Is(err, cart.ErrProductUnavailable):
		web.RespondError(w, mLogger, http.StatusNotFound, "Product is not available")
	default:
		mLogger.ErrorContext(r.Context(), "Error updating cart", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to update cart")
	}
}

func (h *Handler) toView(l *cart.Ledger) cartView {
	snap := l.Snapshot()
	return cartView{
		Items:     snap.Items,
		Count:     snap.Count,
		Total:     snap.Total,
		Open:      l.Open(),
		LastAdded: l.LastAdded(),
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
