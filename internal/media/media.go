// Package media stores uploaded images and returns their public URLs.
package media

import (
	"bytes"
	"context"
	"fmt"
	"errors"
	"io"
	"net/http"
	"path"
	"time"

	"modamarket/internal/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Uploader persists an image and returns the URL it is served from.
type Uploader interface {
	Upload(ctx context.Context, img *Image) (string, error)
}

// Image is a validated image ready to be stored.
type Image struct {
	Folder      string
	ContentType string
	Extension   string
	Data        []byte
}

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ReadImage reads at most maxBytes from r and checks that the content is a
// supported image. Failures are returned as domain validation errors.
func ReadImage(r io.Reader, maxBytes int64, folder string) (*Image, error) {
	if r == nil {
		return nil, model.ErrMissingFile
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, model.ErrFileTooLarge
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, model.ErrMissingFile
	}
	if int64(len(data)) > maxBytes {
		return nil, model.ErrFileTooLarge
	}

	mt := mimetype.Detect(data)
	ext, ok := allowedTypes[mt.String()]
	if !ok {
		return nil, model.ErrInvalidFileType
	}

	return &Image{Folder: folder, ContentType: mt.String(), Extension: ext, Data: data}, nil
}

// Key builds a unique object key such as "payments/2026/10/<uuid>.png".
func (img *Image) Key(now time.Time) string {
	return path.Join(img.Folder, now.Format("2006/01"), uuid.NewString()+img.Extension)
}

func (img *Image) reader() io.Reader {
	return bytes.NewReader(img.Data)
}

func joinURL(base, key string) string {
	if base == "" {
		return "/" + key
	}
	if base[len(base)-1] == '/' {
		return base + key
	}
	return base + "/" + key
}
