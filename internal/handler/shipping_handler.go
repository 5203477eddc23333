package handler

import (
	"net/http"

	"modamarket/internal/middleware"
	"modamarket/internal/model"
	"modamarket/internal/service"

	"github.com/rs/zerolog"
)

// ShippingHandler handles shipping zones and quotes.
type ShippingHandler struct {
	service service.ShippingService
	logger  zerolog.Logger
}

// NewShippingHandler creates a new shipping handler.
func NewShippingHandler(service service.ShippingService, logger zerolog.Logger) *ShippingHandler {
	return &ShippingHandler{
		service: service,
		logger:  logger.With().Str("handler", "shipping").Logger(),
	}
}

// List handles GET /api/shipping. Admins may filter with ?vendorId=.
func (h *ShippingHandler) List(w http.ResponseWriter, r *http.Request) {
	vendorID, err := queryUUID(r, "vendorId")
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	zones, err := h.service.ListZones(r.Context(), middleware.SessionFromContext(r.Context()), vendorID)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, zones)
}

// PublicZones handles GET /api/shipping/vendor/{vendorId}.
func (h *ShippingHandler) PublicZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.service.PublicZones(r.Context(), pathID(r, "vendorId"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, zones)
}

// Get handles GET /api/shipping/{id}.
func (h *ShippingHandler) Get(w http.ResponseWriter, r *http.Request) {
	zone, err := h.service.GetZone(r.Context(), middleware.SessionFromContext(r.Context()), pathID(r, "id"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, zone)
}

// Create handles POST /api/shipping.
func (h *ShippingHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	zone, err := h.service.CreateZone(r.Context(), sess, decode[model.ZoneRequest](r))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, zone)
}

// Update handles PUT /api/shipping/{id}.
func (h *ShippingHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	zone, err := h.service.UpdateZone(r.Context(), sess, pathID(r, "id"), decode[model.ZoneRequest](r))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, zone)
}

// Delete handles DELETE /api/shipping/{id}.
func (h *ShippingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if err := h.service.DeleteZone(r.Context(), sess, pathID(r, "id")); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Zona de envío eliminada"})
}

// Calculate handles POST /api/shipping/calculate.
func (h *ShippingHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	quote, err := h.service.Quote(r.Context(), sess, decode[model.QuoteRequest](r))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}
