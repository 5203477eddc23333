package handler

import (
	"net/http"
	"strings"

	"modamarket/internal/middleware"
	"modamarket/internal/model"
	"modamarket/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /api/products requests with filters and pagination.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilter(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ListOwn handles GET /api/vendor/products.
func (h *ProductHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilter(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	list, err := h.service.ListOwn(r.Context(), middleware.SessionFromContext(r.Context()), filter)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /api/products/{id} requests.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(r.Context(), middleware.SessionFromContext(r.Context()), pathID(r, "id"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	product, err := h.service.Create(r.Context(), sess, decode[model.ProductRequest](r))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, productResponse{Success: true, Product: product})
}

// Update handles PUT /api/products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	product, err := h.service.Update(r.Context(), sess, pathID(r, "id"), decode[model.ProductRequest](r))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, productResponse{Success: true, Product: product})
}

// Delete handles DELETE /api/products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if err := h.service.Delete(r.Context(), sess, pathID(r, "id")); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Producto eliminado"})
}

func productFilter(r *http.Request) (model.ProductFilter, error) {
	q := r.URL.Query()
	filter := model.ProductFilter{
		Category: model.Category(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
	}

	var err error
	if filter.SellerID, err = queryUUID(r, "sellerId"); err != nil {
		return filter, err
	}
	if filter.Featured, err = queryBool(r, "featured"); err != nil {
		return filter, err
	}
	if filter.MinPrice, err = queryDecimal(r, "minPrice"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = queryDecimal(r, "maxPrice"); err != nil {
		return filter, err
	}
	return filter, nil
}
