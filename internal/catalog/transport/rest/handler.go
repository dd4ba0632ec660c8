// Package rest provides HTTP handlers for the product catalog.
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

	"github.com/grocerly/storefront/internal/catalog"
	"github.com/grocerly/storefront/pkg/web"
)

type Handler struct {
	service  *catalog.Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new catalog API handler with the provided service.
func NewHandler(service *catalog.Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the public storefront browse routes. Only active
// products and categories are visible here.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Get("/api/v1/categories", h.ListCategories)
	r.Get("/api/v1/products", h.ListProducts)
	r.Get("/api/v1/products/{id}", h.GetProduct)
}

// RegisterAdminRoutes registers the back-office CRUD routes. The caller mounts
// them behind admin authentication.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.AdminListProducts)
		r.Post("/", h.CreateProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.AdminListCategories)
		r.Post("/", h.CreateCategory)
		r.Put("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
	})
}

type productDto struct {
	Name         string           `json:"name"          validate:"required,max=255"`
	Unit         string           `json:"unit"          validate:"required,max=64"`
	Price        decimal.Decimal  `json:"price"         validate:"required"`
	SpecialPrice *decimal.Decimal `json:"special_price" validate:"omitempty"`
	Stock        int              `json:"stock"         validate:"gte=0"`
	Images       []string         `json:"images"        validate:"dive,max=1024"`
	CategoryID   int64            `json:"category_id"   validate:"required,gt=0"`
	Active       bool             `json:"active"`
}

type categoryDto struct {
	Name   string `json:"name"   validate:"required,max=255"`
	Image  string `json:"image"  validate:"max=1024"`
	Active bool   `json:"active"`
}

// ListCategories returns the active categories for the storefront navigation.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	categories, err := h.service.Categories(r.Context(), true)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing categories", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to list categories")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, categories)
}

// ListProducts returns a paginated page of active products, optionally
// filtered by category and a name search term.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	page, ok := web.ParsePage(r, w, mLogger)
	if !ok {
		return
	}
	filter, ok := h.parseFilter(w, r, mLogger)
	if !ok {
		return
	}
	filter.ActiveOnly = true

	products, total, err := h.service.Products(r.Context(), filter, page.Offset(), page.Limit())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing products", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to list products")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, web.NewPaginated(products, page, total, "/api/v1/products"))
}

// GetProduct returns a single active product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseIntID(w, r, mLogger, "id")
	if !ok {
		return
	}

	product, err := h.service.ProductByID(r.Context(), id)
	if err != nil {
		h.respondCatalogError(w, r, mLogger, err)
		return
	}
	if !product.Active {
		web.RespondError(w, mLogger, http.StatusNotFound, "Product not found")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, product)
}

// AdminListProducts returns a paginated page of products, including inactive
// ones.
func (h *Handler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	page, ok := web.ParsePage(r, w, mLogger)
	if !ok {
		return
	}
	filter, ok := h.parseFilter(w, r, mLogger)
	if !ok {
		return
	}

	products, total, err := h.service.Products(r.Context(), filter, page.Offset(), page.Limit())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing products", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to list products")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, web.NewPaginated(products, page, total, "/api/v1/admin/products"))
}

// CreateProduct inserts a new product.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	dto, ok := h.decodeProduct(w, r, mLogger)
	if !ok {
		return
	}

	created, err := h.service.CreateProduct(r.Context(), dto.toModel(0))
	if err != nil {
		h.respondCatalogError(w, r, mLogger, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Product created", "product_id", created.ID)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// UpdateProduct overwrites an existing product.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseIntID(w, r, mLogger, "id")
	if !ok {
		return
	}
	dto, ok := h.decodeProduct(w, r, mLogger)
	if !ok {
		return
	}

	updated, err := h.service.UpdateProduct(r.Context(), dto.toModel(id))
	if err != nil {
		h.respondCatalogError(w, r, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteProduct removes a product.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseIntID(w, r, mLogger, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.respondCatalogError(w, r, mLogger, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted", "product_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// AdminListCategories returns all categories, including inactive ones.
func (h *Handler) AdminListCategories(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	categories, err := h.service.Categories(r.Context(), false)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing categories", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to list categories")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, categories)
}

// CreateCategory inserts a new category.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	dto, ok := h.decodeCategory(w, r, mLogger)
	if !ok {
		return
	}

	created, err := h.service.CreateCategory(r.Context(), dto.toModel(0))
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating category", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create category")
		return
	}
	mLogger.InfoContext(r.Context(), "Category created", "category_id", created.ID)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// UpdateCategory overwrites an existing category.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseIntID(w, r, mLogger, "id")
	if !ok {
		return
	}
	dto, ok := h.decodeCategory(w, r, mLogger)
	if !ok {
		return
	}

	updated, err := h.service.UpdateCategory(r.Context(), dto.toModel(id))
	if err != nil {
		h.respondCatalogError(w, r, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteCategory removes a category.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseIntID(w, r, mLogger, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		h.respondCatalogError(w, r, mLogger, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Category deleted", "category_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (d productDto) toModel(id int64) *catalog.Product {
	return &catalog.Product{
		ID:           id,
		Name:         d.Name,
		Unit:         d.Unit,
		Price:        d.Price,
		SpecialPrice: d.SpecialPrice,
		Stock:        d.Stock,
		Images:       d.Images,
		CategoryID:   d.CategoryID,
		Active:       d.Active,
	}
}

func (d categoryDto) toModel(id int64) *catalog.Category {
	return &catalog.Category{
		ID:     id,
		Name:   d.Name,
		Image:  d.Image,
		Active: d.Active,
	}
}

func (h *Handler) decodeProduct(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (productDto, bool) {
	var dto productDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return productDto{}, false
	}
	if err := h.validate.Struct(dto); err != nil {
		if !web.RespondValidationError(w, mLogger, err) {
			web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		}
		return productDto{}, false
	}
	return dto, true
}

func (h *Handler) decodeCategory(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (categoryDto, bool) {
	var dto categoryDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return categoryDto{}, false
	}
	if err := h.validate.Struct(dto); err != nil {
		if !web.RespondValidationError(w, mLogger, err) {
			web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		}
		return categoryDto{}, false
	}
	return dto, true
}

func (h *Handler) parseFilter(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (catalog.ProductFilter, bool) {
	filter := catalog.ProductFilter{Search: r.URL.Query().Get("search")}
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid category_id: "+raw)
			return catalog.ProductFilter{}, false
		}
		filter.CategoryID = id
	}
	return filter, true
}

func (h *Handler) respondCatalogError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		web.RespondError(w, mLogger, http.StatusNotFound, "Product not found")
	case errors.Is(err, catalog.ErrCategoryNotFound):
		web.RespondError(w, mLogger, http.StatusNotFound, "Category not found")
	default:
		mLogger.ErrorContext(r.Context(), "Catalog operation failed", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Internal server error")
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
