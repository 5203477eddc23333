package handler

import (
	"net/http"

	"modamarket/internal/middleware"
	"modamarket/internal/model"
	"modamarket/internal/service"

	"github.com/rs/zerolog"
)

// CartSessionHeader carries the anonymous cart id of visitors without an account.
const CartSessionHeader = "X-Cart-Session"

// CartHandler handles shopping cart requests.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

func (h *CartHandler) owner(w http.ResponseWriter, r *http.Request) (model.CartOwner, bool) {
	owner, err := service.ResolveCartOwner(middleware.SessionFromContext(r.Context()), r.Header.Get(CartSessionHeader))
	if err != nil {
		respondError(w, r, err, h.logger)
		return owner, false
	}
	return owner, true
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	view, err := h.service.Get(r.Context(), owner)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// AddItem handles POST /api/cart.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	view, err := h.service.AddItem(r.Context(), owner, decode[model.AddToCartRequest](r))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// UpdateItem handles PUT /api/cart/{itemId}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	view, err := h.service.UpdateItem(r.Context(), owner, pathID(r, "itemId"), decode[model.UpdateCartItemRequest](r))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RemoveItem handles DELETE /api/cart/{itemId}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	view, err := h.service.RemoveItem(r.Context(), owner, pathID(r, "itemId"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := h.service.Clear(r.Context(), owner); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Carrito vaciado"})
}
