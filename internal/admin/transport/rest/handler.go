// Package rest provides HTTP handlers for the back office.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/grocerly/storefront/internal/account"
	"github.com/grocerly/storefront/internal/admin"
	"github.com/grocerly/storefront/pkg/auth"
	"github.com/grocerly/storefront/pkg/web"
)

type Handler struct {
	service  *admin.Service
	verifier auth.Verifier
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new back-office API handler with the provided service.
func NewHandler(service *admin.Service, verifier auth.Verifier, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		verifier: verifier,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the public storefront routes the back office
// feeds: active areas for checkout and active banners for the home page.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Get("/api/v1/areas", h.ListPublicAreas)
	r.Get("/api/v1/banners", h.ListPublicBanners)
	r.Post("/api/v1/admin/login", h.Login)
}

// RegisterAdminRoutes registers the authenticated back-office routes. The
// caller mounts them behind admin authentication.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
	r.Route("/admins", func(r chi.Router) {
		r.Get("/", h.ListAdmins)
		r.Post("/", h.CreateAdmin)
		r.Put("/{id}", h.UpdateAdmin)
		r.Delete("/{id}", h.DeleteAdmin)
	})
	r.Route("/areas", func(r chi.Router) {
		r.Get("/", h.ListAreas)
		r.Post("/", h.CreateArea)
		r.Put("/{id}", h.UpdateArea)
		r.Delete("/{id}", h.DeleteArea)
	})
	r.Route("/banners", func(r chi.Router) {
		r.Get("/", h.ListBanners)
		r.Post("/", h.CreateBanner)
		r.Put("/{id}", h.UpdateBanner)
		r.Delete("/{id}", h.DeleteBanner)
	})
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.ListCustomers)
		r.Put("/{id}/active", h.SetCustomerActive)
	})
}

type loginDto struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type adminDto struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
	Active   bool   `json:"active"`
}

type areaDto struct {
	Name           string          `json:"name"            validate:"required,max=255"`
	District       string          `json:"district"        validate:"required,max=255"`
	Thana          string          `json:"thana"           validate:"required,max=255"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge" validate:"required"`
	Active         bool            `json:"active"`
}

type bannerDto struct {
	Title    string `json:"title"    validate:"required,max=255"`
	Image    string `json:"image"    validate:"required,max=1024"`
	Position int    `json:"position" validate:"gte=0"`
	Active   bool   `json:"active"`
}

type activeDto struct {
	Active *bool `json:"active" validate:"required"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	Admin *admin.Admin `json:"admin"`
}

// Login exchanges admin credentials for a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto loginDto
	if !h.decode(w, r, mLogger, &dto) {
		return
	}

	token, a, err := h.service.Login(r.Context(), dto.Email, dto.Password)
	if err != nil {
		switch {
		case errors.Is(err, admin.ErrInvalidCredentials):
			web.RespondError(w, mLogger, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, admin.ErrDisabled):
			web.RespondError(w, mLogger, http.StatusForbidden, "Account is disabled")
		default:
			mLogger.ErrorContext(r.Context(), "Error logging in", "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to log in")
		}
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, sessionResponse{Token: token, Admin: a})
}

// Dashboard returns the back-office landing aggregates.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error building dashboard", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to build dashboard")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, stats)
}

// ListAdmins returns a page of back-office users.
func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	page, ok := web.ParsePage(r, w, mLogger)
	if !ok {
		return
	}

	admins, total, err := h.service.Admins(r.Context(), page.Offset(), page.Limit())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing admins", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to list admins")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, web.NewPaginated(admins, page, total, "/api/v1/admin/admins"))
}

// CreateAdmin registers a new back-office user.
func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto adminDto
	if !h.decode(w, r, mLogger, &dto) {
		return
	}
	if dto.Password == "" {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Password is required")
		return
	}

	created, err := h.service.CreateAdmin(r.Context(), &admin.Admin{
		Name:  dto.Name,
		Email: dto.Email,
	}, dto.Password)
	if err != nil {
		if errors.Is(err, admin.ErrAlreadyExists) {
			web.RespondError(w, mLogger, http.StatusConflict, "Email is already registered")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error creating admin", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create admin")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// UpdateAdmin overwrites an admin's editable fields.
func (h *Handler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto adminDto
	if !h.decode(w, r, mLogger, &dto) {
		return
	}

	updated, err := h.service.UpdateAdmin(r.Context(), &admin.Admin{
		ID:     id,
		Name:   dto.Name,
		Email:  dto.Email,
		Active: dto.Active,
	})
	if err != nil {
		h.respondAdminError(w, r, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteAdmin removes a back-office user.
func (h *Handler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	if err := h.service.DeleteAdmin(r.Context(), id); err != nil {
		h.respondAdminError(w, r, mLogger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPublicAreas returns the active delivery areas for checkout.
func (h *Handler) ListPublicAreas(w http.ResponseWriter, r *http.Request) {
	h.listAreas(w, r, true)
}

// ListAreas returns all delivery areas for the back office.
func (h *Handler) ListAreas(w http.ResponseWriter, r *http.Request) {
	h.listAreas(w, r, false)
}

func (h *Handler) listAreas(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	mLogger := h.loggerWithReqID(r)
	areas, err := h.service.Areas(r.Context(), activeOnly)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing areas", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to list areas")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, areas)
}

// CreateArea inserts a delivery area.
func (h *Handler) CreateArea(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto areaDto
	if !h.decode(w, r, mLogger, &dto) {
		return
	}

	created, err := h.service.CreateArea(r.Context(), dto.toModel(0))
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating area", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create area")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// UpdateArea overwrites a delivery area.
func (h *Handler) UpdateArea(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseIntID(w, r, mLogger, "id")
	if !ok {
		return
	}
	var dto areaDto
	if !h.decode(w, r, mLogger, &dto) {
		return
	}

	updated, err := h.service.UpdateArea(r.Context(), dto.toModel(id))
	if err != nil {
		h.respondAdminError(w, r, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteArea removes a delivery area.
func (h *Handler) DeleteArea(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseIntID(w, r, mLogger, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteArea(r.Context(), id); err != nil {
		h.respondAdminError(w, r, mLogger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPublicBanners returns the active banners for the home page carousel.
func (h *Handler) ListPublicBanners(w http.ResponseWriter, r *http.Request) {
	h.listBanners(w, r, true)
}

// ListBanners returns all banners for the back office.
func (h *Handler) ListBanners(w http.ResponseWriter, r *http.Request) {
	h.listBanners(w, r, false)
}

func (h *Handler) listBanners(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	mLogger := h.loggerWithReqID(r)
	banners, err := h.service.Banners(r.Context(), activeOnly)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing banners", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to list banners")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, banners)
}

// CreateBanner inserts a banner.
func (h *Handler) CreateBanner(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto bannerDto
	if !h.decode(w, r, mLogger, &dto) {
		return
	}

	created, err := h.service.CreateBanner(r.Context(), dto.toModel(0))
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating banner", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create banner")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// UpdateBanner overwrites a banner.
func (h *Handler) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseIntID(w, r, mLogger, "id")
	if !ok {
		return
	}
	var dto bannerDto
	if !h.decode(w, r, mLogger, &dto) {
		return
	}

	updated, err := h.service.UpdateBanner(r.Context(), dto.toModel(id))
	if err != nil {
		h.respondAdminError(w, r, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteBanner removes a banner.
func (h *Handler) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseIntID(w, r, mLogger, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteBanner(r.Context(), id); err != nil {
		h.respondAdminError(w, r, mLogger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCustomers returns a page of customers for the back office.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	page, ok := web.ParsePage(r, w, mLogger)
	if !ok {
		return
	}

	customers, total, err := h.service.Customers(r.Context(), page.Offset(), page.Limit())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing customers", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to list customers")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, web.NewPaginated(customers, page, total, "/api/v1/admin/customers"))
}

// SetCustomerActive enables or disables a customer account.
func (h *Handler) SetCustomerActive(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto activeDto
	if !h.decode(w, r, mLogger, &dto) {
		return
	}

	if err := h.service.SetCustomerActive(r.Context(), id, *dto.Active); err != nil {
		h.respondAdminError(w, r, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]bool{"active": *dto.Active})
}

func (d areaDto) toModel(id int64) *admin.Area {
	return &admin.Area{
		ID:             id,
		Name:           d.Name,
		District:       d.District,
		Thana:          d.Thana,
		DeliveryCharge: d.DeliveryCharge,
		Active:         d.Active,
	}
}

func (d bannerDto) toModel(id int64) *admin.Banner {
	return &admin.Banner{
		ID:       id,
		Title:    d.Title,
		Image:    d.Image,
		Position: d.Position,
		Active:   d.Active,
	}
}

func (h *Handler) respondAdminError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error) {
	switch {
	case errors.Is(err, admin.ErrNotFound), errors.Is(err, account.ErrNotFound):
		web.RespondError(w, mLogger, http.StatusNotFound, "Not found")
	case errors.Is(err, admin.ErrAlreadyExists):
		web.RespondError(w, mLogger, http.StatusConflict, "Email is already registered")
	case errors.Is(err, admin.ErrLastAdmin):
		web.RespondError(w, mLogger, http.StatusConflict, "Cannot delete the last admin")
	default:
		mLogger.ErrorContext(r.Context(), "Back-office operation failed", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		if !web.RespondValidationError(w, mLogger, err) {
			web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		}
		return false
	}
	return true
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
