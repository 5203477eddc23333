package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// fileUploader writes images below a local directory.
type fileUploader struct {
	dir     string
	baseURL string
	now     func() time.Time
	logger  zerolog.Logger
}

// NewFileUploader creates an Uploader that stores files under dir and
// serves them from baseURL.
func NewFileUploader(dir, baseURL string, logger zerolog.Logger) Uploader {
	return &fileUploader{
		dir:     dir,
		baseURL: baseURL,
		now:     time.Now,
		logger:  logger.With().Str("component", "file-uploader").Logger(),
	}
}

func (u *fileUploader) Upload(ctx context.Context, img *Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := img.Key(u.now())
	dest := filepath.Join(u.dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		u.logger.Error().Err(err).Str("path", dest).Msg("failed to create upload directory")
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	file, err := os.Create(dest)
	if err != nil {
		u.logger.Error().Err(err).Str("path", dest).Msg("failed to create upload file")
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, img.reader()); err != nil {
		u.logger.Error().Err(err).Str("path", dest).Msg("failed to write upload file")
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	u.logger.Debug().Str("key", key).Int("bytes", len(img.Data)).Msg("image stored locally")

	return joinURL(u.baseURL, key), nil
}
