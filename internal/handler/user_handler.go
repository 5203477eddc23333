package handler

import (
	"net/http"

	"modamarket/internal/middleware"
	"modamarket/internal/model"
	"modamarket/internal/service"

	"github.com/rs/zerolog"
)

// UserHandler handles the caller's profile and the admin account screens.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("handler", "user").Logger(),
	}
}

// Profile handles GET /api/users/profile.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetProfile(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/users/profile.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	user, err := h.service.UpdateProfile(r.Context(), sess, decode[model.UpdateProfileRequest](r))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// AddAddress handles POST /api/users/addresses.
func (h *UserHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	addr, err := h.service.AddAddress(r.Context(), sess, decode[model.AddressRequest](r))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, addr)
}

// UpdateAddress handles PUT /api/users/addresses/{id}.
func (h *UserHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	addr, err := h.service.UpdateAddress(r.Context(), sess, pathID(r, "id"), decode[model.AddressRequest](r))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, addr)
}

// DeleteAddress handles DELETE /api/users/addresses/{id}.
func (h *UserHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if err := h.service.DeleteAddress(r.Context(), sess, pathID(r, "id")); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Dirección eliminada"})
}

// AddPhone handles POST /api/users/phones.
func (h *UserHandler) AddPhone(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	phone, err := h.service.AddPhone(r.Context(), sess, decode[model.PhoneRequest](r))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, phone)
}

// UpdatePhone handles PUT /api/users/phones/{id}.
func (h *UserHandler) UpdatePhone(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	phone, err := h.service.UpdatePhone(r.Context(), sess, pathID(r, "id"), decode[model.PhoneRequest](r))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, phone)
}

// DeletePhone handles DELETE /api/users/phones/{id}.
func (h *UserHandler) DeletePhone(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if err := h.service.DeletePhone(r.Context(), sess, pathID(r, "id")); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Teléfono eliminado"})
}

// UpdatePaymentMethods handles PUT /api/users/payment-methods.
func (h *UserHandler) UpdatePaymentMethods(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	user, err := h.service.UpdatePaymentMethods(r.Context(), sess, decode[model.PaymentMethodsRequest](r))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// List handles GET /api/admin/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := model.UserFilter{
		Role:  model.Role(r.URL.Query().Get("role")),
		Page:  queryInt(r, "page"),
		Limit: queryInt(r, "limit"),
	}
	list, err := h.service.List(r.Context(), middleware.SessionFromContext(r.Context()), filter)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /api/admin/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), middleware.SessionFromContext(r.Context()), pathID(r, "id"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Create handles POST /api/admin/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	user, err := h.service.Create(r.Context(), sess, decode[model.CreateUserRequest](r))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Update handles PUT /api/admin/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	user, err := h.service.Update(r.Context(), sess, pathID(r, "id"), decode[model.UpdateUserRequest](r))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /api/admin/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if err := h.service.Delete(r.Context(), sess, pathID(r, "id")); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Usuario eliminado"})
}
