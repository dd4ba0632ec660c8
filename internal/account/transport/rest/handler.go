// Package rest provides HTTP handlers for customer accounts.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/grocerly/storefront/internal/account"
	"github.com/grocerly/storefront/pkg/auth"
	"github.com/grocerly/storefront/pkg/web"
)

type Handler struct {
	service  *account.Service
	verifier auth.Verifier
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new account API handler with the provided service.
func NewHandler(service *account.Service, verifier auth.Verifier, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		verifier: verifier,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the auth and profile routes. Profile routes sit
// behind customer authentication.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/otp/send", h.SendOTP)
		r.Post("/otp/verify", h.VerifyOTP)
		r.Post("/password/reset", h.ResetPassword)
	})
	r.Route("/api/v1/account", func(r chi.Router) {
		r.Use(web.RequireAuth(h.verifier, auth.RoleCustomer))
		r.Get("/profile", h.Profile)
		r.Put("/profile", h.UpdateProfile)
	})
}

type registerDto struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Phone    string `json:"phone"    validate:"required,min=6,max=20"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	AreaID   *int64 `json:"area_id"  validate:"omitempty,gt=0"`
	Address  string `json:"address"  validate:"max=1024"`
}

type loginDto struct {
	Phone    string `json:"phone"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type otpSendDto struct {
	Phone   string `json:"phone"   validate:"required"`
	Purpose string `json:"purpose" validate:"required,oneof=verify reset"`
}

type otpVerifyDto struct {
	Phone   string `json:"phone"   validate:"required"`
	Purpose string `json:"purpose" validate:"required,oneof=verify reset"`
	Code    string `json:"code"    validate:"required,min=4,max=8"`
}

type passwordResetDto struct {
	Phone    string `json:"phone"    validate:"required"`
	Code     string `json:"code"     validate:"required,min=4,max=8"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type profileDto struct {
	Name    string `json:"name"    validate:"required,max=255"`
	Email   string `json:"email"   validate:"omitempty,email"`
	AreaID  *int64 `json:"area_id" validate:"omitempty,gt=0"`
	Address string `json:"address" validate:"max=1024"`
}

type sessionResponse struct {
	Token    string            `json:"token"`
	Customer *account.Customer `json:"customer"`
}

// Register creates a new customer and triggers the verification code.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto registerDto
	if !h.decode(w, r, mLogger, &dto) {
		return
	}

	created, err := h.service.Register(r.Context(), &account.Customer{
		Name:    dto.Name,
		Phone:   dto.Phone,
		Email:   dto.Email,
		AreaID:  dto.AreaID,
		Address: dto.Address,
	}, dto.Password)
	if err != nil {
		if errors.Is(err, account.ErrAlreadyExists) {
			web.RespondError(w, mLogger, http.StatusConflict, "Phone number is already registered")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error registering customer", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to register")
		return
	}
	mLogger.InfoContext(r.Context(), "Customer registered", "customer_id", created.ID)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Login exchanges credentials for a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto loginDto
	if !h.decode(w, r, mLogger, &dto) {
		return
	}

	token, customer, err := h.service.Login(r.Context(), dto.Phone, dto.Password)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrInvalidCredentials):
			web.RespondError(w, mLogger, http.StatusUnauthorized, "Invalid phone or password")
		case errors.Is(err, account.ErrDisabled):
			web.RespondError(w, mLogger, http.StatusForbidden, "Account is disabled")
		default:
			mLogger.ErrorContext(r.Context(), "Error logging in", "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to log in")
		}
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, sessionResponse{Token: token, Customer: customer})
}

// Logout acknowledges the client discarding its token. Sessions are stateless
// on the server.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// SendOTP generates and dispatches a one-time code.
func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto otpSendDto
	if !h.decode(w, r, mLogger, &dto) {
		return
	}

	if err := h.service.RequestOTP(r.Context(), dto.Phone, dto.Purpose); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, "Phone number is not registered")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error sending otp", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to send code")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"status": "sent"})
}

// VerifyOTP checks a code and returns a session token on success.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto otpVerifyDto
	if !h.decode(w, r, mLogger, &dto) {
		return
	}

	token, customer, err := h.service.VerifyOTP(r.Context(), dto.Phone, dto.Purpose, dto.Code)
	if err != nil {
		h.respondOTPError(w, r, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, sessionResponse{Token: token, Customer: customer})
}

// ResetPassword verifies a reset code and sets the new password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto passwordResetDto
	if !h.decode(w, r, mLogger, &dto) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), dto.Phone, dto.Code, dto.Password); err != nil {
		h.respondOTPError(w, r, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"status": "password updated"})
}

// Profile returns the authenticated customer's record.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}

	customer, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, "Customer not found")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error loading profile", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, customer)
}

// UpdateProfile overwrites the authenticated customer's editable fields.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}
	var dto profileDto
	if !h.decode(w, r, mLogger, &dto) {
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), &account.Customer{
		ID:      userID,
		Name:    dto.Name,
		Email:   dto.Email,
		AreaID:  dto.AreaID,
		Address: dto.Address,
	})
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, "Customer not found")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error updating profile", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

func (h *Handler) respondOTPError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error) {
	switch {
	case errors.Is(err, account.ErrNotFound):
		web.RespondError(w, mLogger, http.StatusNotFound, "Phone number is not registered")
	case errors.Is(err, account.ErrOTPExpired):
		web.RespondError(w, mLogger, http.StatusGone, "Code expired, request a new one")
	case errors.Is(err, account.ErrOTPInvalid):
		web.RespondError(w, mLogger, http.StatusUnauthorized, "Invalid code")
	default:
		mLogger.ErrorContext(r.Context(), "Error verifying otp", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to verify code")
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
