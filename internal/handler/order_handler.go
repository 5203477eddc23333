package handler

import (
	"net/http"

	"modamarket/internal/middleware"
	"modamarket/internal/model"
	"modamarket/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests for customers, vendors and admins.
type OrderHandler struct {
	service       service.OrderService
	maxProofBytes int64
	logger        zerolog.Logger
}

// NewOrderHandler creates a new order handler accepting payment proofs up to maxProofBytes.
func NewOrderHandler(service service.OrderService, maxProofBytes int64, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service:       service,
		maxProofBytes: maxProofBytes,
		logger:        logger.With().Str("handler", "order").Logger(),
	}
}

// Checkout handles POST /api/orders.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	order, err := h.service.Checkout(r.Context(), sess, decode[model.CheckoutRequest](r))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, orderResponse{Success: true, Order: order})
}

// List handles GET /api/orders, /api/vendor/orders and /api/admin/orders. The
// service scopes the result to the caller's role.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	vendorID, err := queryUUID(r, "vendorId")
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	filter := model.OrderFilter{
		VendorID: vendorID,
		Status:   model.OrderStatus(r.URL.Query().Get("status")),
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
	}
	list, err := h.service.List(r.Context(), middleware.SessionFromContext(r.Context()), filter)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /api/orders/{id} and its vendor and admin variants.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Get(r.Context(), middleware.SessionFromContext(r.Context()), pathID(r, "id"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UploadProof handles POST /api/orders/{id}/upload-proof with a multipart "file" field.
func (h *OrderHandler) UploadProof(w http.ResponseWriter, r *http.Request) {
	file, done := formFile(w, r, "file", h.maxProofBytes)
	defer done()

	sess := middleware.SessionFromContext(r.Context())
	order, err := h.service.UploadProof(r.Context(), sess, pathID(r, "id"), file)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	url := ""
	if order.PaymentProofURL != nil {
		url = *order.PaymentProofURL
	}
	writeJSON(w, http.StatusOK, imageResponse{Success: true, ImageURL: url})
}

// ConfirmPayment handles POST /api/vendor/orders/{id}/confirm-payment.
func (h *OrderHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.ConfirmPayment(r.Context(), middleware.SessionFromContext(r.Context()), pathID(r, "id"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{Success: true, Order: order})
}

// UpdateStatus handles PATCH /api/vendor/orders/{id}/update-status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	order, err := h.updateStatus(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{Success: true, Order: order})
}

// AdminUpdateStatus handles PATCH /api/admin/orders/{id}/status.
func (h *OrderHandler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	order, err := h.updateStatus(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, adminOrderResponse{Message: "Estado del pedido actualizado", Order: order})
}

func (h *OrderHandler) updateStatus(r *http.Request) (*model.Order, error) {
	sess := middleware.SessionFromContext(r.Context())
	return h.service.UpdateStatus(r.Context(), sess, pathID(r, "id"), decode[model.UpdateStatusRequest](r))
}

// AdminConfirm handles POST /api/admin/orders/{id}/confirm.
func (h *OrderHandler) AdminConfirm(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.AdminConfirm(r.Context(), middleware.SessionFromContext(r.Context()), pathID(r, "id"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, adminOrderResponse{Message: "Pago confirmado", Order: order})
}

// Cancel handles POST /api/admin/orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	order, err := h.service.Cancel(r.Context(), sess, pathID(r, "id"), decode[model.CancelRequest](r))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, adminOrderResponse{Message: "Pedido cancelado", Order: order})
}

// Summary handles GET /api/vendor/orders/summary.
func (h *OrderHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
