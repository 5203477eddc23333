package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"modamarket/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const msgInternal = "Error interno del servidor"

const (
	// maxJSONBytes caps every JSON request body.
	maxJSONBytes = 1 << 20
	// multipartOverhead is allowed on top of the file limit for headers and boundaries.
	multipartOverhead = 1 << 20
)

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type productResponse struct {
	Success bool           `json:"success"`
	Product *model.Product `json:"product"`
}

type orderResponse struct {
	Success bool         `json:"success"`
	Order   *model.Order `json:"order"`
}

type adminOrderResponse struct {
	Message string       `json:"message"`
	Order   *model.Order `json:"order"`
}

type imageResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.ErrorResponse{Error: message})
}

// respondError maps err onto the error taxonomy. Domain errors keep their
// message; anything else is logged and answered with a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if errors.As(err, &de) {
		status := statusFor(de.Kind)
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("code", de.Code).
			Int("status", status).
			Msg(de.Message)
		writeError(w, status, de.Message)
		return
	}

	logger.Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("handler error")
	writeError(w, http.StatusInternalServerError, msgInternal)
}

func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindUnauthenticated:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// decode reads a JSON body into a new T. A missing or malformed body yields
// nil so the service can report it after its existence checks.
func decode[T any](r *http.Request) *T {
	if r.Body == nil {
		return nil
	}
	var v T
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxJSONBytes)).Decode(&v); err != nil {
		return nil
	}
	return &v
}

// pathID parses a UUID URL parameter. Malformed ids become uuid.Nil, which
// never matches a stored row and so surfaces as not found.
func pathID(r *http.Request, name string) uuid.UUID {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func queryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalidParam(key)
	}
	return &id, nil
}

func queryDecimal(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, invalidParam(key)
	}
	return &d, nil
}

func queryBool(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, invalidParam(key)
	}
	return &b, nil
}

func invalidParam(key string) error {
	return model.Validationf(model.ErrCodeInvalidPayload, "Parámetro inválido: "+key)
}

// formFile opens the multipart field. A missing field yields a nil reader.
// Bodies larger than maxBytes plus multipart overhead are not read; the
// returned reader then fails with *http.MaxBytesError, which media.ReadImage
// reports as a file that is too large.
func formFile(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (io.Reader, func()) {
	limit := maxBytes + multipartOverhead
	if r.ContentLength > limit {
		return errReader{err: &http.MaxBytesError{Limit: limit}}, func() {}
	}
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	file, _, err := r.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errReader{err: tooLarge}, func() {}
		}
		return nil, func() {}
	}
	return file, func() { closeFile(file) }
}

type errReader struct {
	err error
}

func (e errReader) Read([]byte) (int, error) {
	return 0, e.err
}

func closeFile(f multipart.File) {
	_ = f.Close()
}
