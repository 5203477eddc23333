package media

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// PutObjectAPI is the subset of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Uploader stores images in an S3 bucket.
type s3Uploader struct {
	client  PutObjectAPI
	bucket  string
	prefix  string
	baseURL string
	now     func() time.Time
	logger  zerolog.Logger
}

// NewS3Uploader creates an S3-backed Uploader using the default AWS credential chain.
// When baseURL is empty, URLs point at the bucket's virtual-hosted endpoint.
func NewS3Uploader(ctx context.Context, bucket, region, prefix, baseURL string, logger zerolog.Logger) (Uploader, error) {
	logger = logger.With().Str("component", "s3-uploader").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	if baseURL == "" || baseURL[0] == '/' {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 uploader initialised")

	return newS3Uploader(s3.NewFromConfig(cfg), bucket, prefix, baseURL, logger), nil
}

func newS3Uploader(client PutObjectAPI, bucket, prefix, baseURL string, logger zerolog.Logger) *s3Uploader {
	return &s3Uploader{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		baseURL: baseURL,
		now:     time.Now,
		logger:  logger,
	}
}

func (u *s3Uploader) Upload(ctx context.Context, img *Image) (string, error) {
	key := u.prefix + img.Key(u.now())

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          img.reader(),
		ContentType:   aws.String(img.ContentType),
		ContentLength: aws.Int64(int64(len(img.Data))),
	})
	if err != nil {
		u.logger.Error().
			Err(err).
			Str("bucket", u.bucket).
			Str("key", key).
			Msg("failed to put object to S3")
		return "", fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", u.bucket, key, err)
	}

	u.logger.Debug().Str("key", key).Msg("image stored in S3")

	return joinURL(u.baseURL, key), nil
}

// fallbackUploader tries S3 first and falls back to the local file system.
type fallbackUploader struct {
	primary   Uploader
	secondary Uploader
	logger    zerolog.Logger
}

// NewFallbackUploader creates an uploader that tries primary and, on failure,
// secondary. A nil primary means only secondary is used.
func NewFallbackUploader(primary, secondary Uploader, logger zerolog.Logger) Uploader {
	return &fallbackUploader{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "fallback-uploader").Logger(),
	}
}

func (u *fallbackUploader) Upload(ctx context.Context, img *Image) (string, error) {
	if u.primary != nil {
		url, err := u.primary.Upload(ctx, img)
		if err == nil {
			return url, nil
		}
		u.logger.Warn().Err(err).Msg("primary upload failed, falling back to local storage")
	}
	return u.secondary.Upload(ctx, img)
}
