package handler

import (
	"net/http"

	"modamarket/internal/media"
	"modamarket/internal/middleware"

	"github.com/rs/zerolog"
)

// UploadHandler stores product images for vendors and admins.
type UploadHandler struct {
	uploader media.Uploader
	maxBytes int64
	logger   zerolog.Logger
}

// NewUploadHandler creates a new upload handler accepting images up to maxBytes.
func NewUploadHandler(uploader media.Uploader, maxBytes int64, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		uploader: uploader,
		maxBytes: maxBytes,
		logger:   logger.With().Str("handler", "upload").Logger(),
	}
}

// Image handles POST /api/uploads/images with a multipart "file" field.
func (h *UploadHandler) Image(w http.ResponseWriter, r *http.Request) {
	file, done := formFile(w, r, "file", h.maxBytes)
	defer done()

	img, err := media.ReadImage(file, h.maxBytes, "products")
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	url, err := h.uploader.Upload(r.Context(), img)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	sess := middleware.SessionFromContext(r.Context())
	if sess != nil {
		h.logger.Info().Str("user_id", sess.UserID.String()).Str("url", url).Msg("product image uploaded")
	}
	writeJSON(w, http.StatusCreated, imageResponse{Success: true, ImageURL: url})
}
