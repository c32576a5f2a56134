package gcs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// Config identifies the bucket holding submission and marked files.
type Config struct {
	Bucket          string
	CredentialsFile string
}

// Service wraps the Cloud Storage client behind the three capabilities the
// lifecycle services need: store, delete, sign.
type Service struct {
	client *storage.Client
	bucket string
	logger zerolog.Logger
}

// New dials Cloud Storage using ambient credentials.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket must be provided")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage client: %w", err)
	}

	return &Service{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With().Str("component", "gcs").Logger(),
	}, nil
}

// Upload writes the reader's contents to the given object path.
func (s *Service) Upload(ctx context.Context, path string, reader io.Reader, contentType string) error {
	writer := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}

	if _, err := io.Copy(writer, reader); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write object %s: %w", path, err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize object %s: %w", path, err)
	}

	s.logger.Debug().Str("path", path).Msg("object stored")

	return nil
}

// Delete removes the object at the given path.
func (s *Service) Delete(ctx context.Context, path string) error {
	if err := s.client.Bucket(s.bucket).Object(path).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", path, err)
	}

	return nil
}

// SignedURL issues a temporary V4 GET URL for the object at path.
func (s *Service) SignedURL(path string, ttl time.Duration) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(path, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign url for %s: %w", path, err)
	}

	return url, nil
}

// Close releases the underlying client.
func (s *Service) Close() error {
	return s.client.Close()
}
