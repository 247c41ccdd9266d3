package gcp

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

// PhotoBucket publishes visit photos to a single GCS bucket.
type PhotoBucket interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	Close() error
}

type photoBucket struct {
	log    *logger.Logger
	client *storage.Client
	cfg    StorageConfig
}

func NewPhotoBucket(ctx context.Context, log *logger.Logger, cfg StorageConfig) (PhotoBucket, error) {
	if err := ValidateStorageConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Mode == StorageModeLocal {
		return nil, fmt.Errorf("photo bucket: mode %q is served from local media", cfg.Mode)
	}
	client, err := newStorageClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog := log.With("service", "PhotoBucket")
	serviceLog.Info("Photo storage initialized",
		"mode", cfg.Mode,
		"bucket", cfg.Bucket,
		"emulator_host", cfg.EmulatorHost,
		"public_base_url", cfg.PublicBaseURL,
	)
	return &photoBucket{log: serviceLog, client: client, cfg: cfg}, nil
}

func newStorageClient(ctx context.Context, cfg StorageConfig) (*storage.Client, error) {
	if cfg.IsEmulator() {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
		return storage.NewClient(ctx,
			option.WithoutAuthentication(),
			option.WithEndpoint(cfg.EmulatorHost+"/storage/v1/"),
		)
	}
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

func (b *photoBucket) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.cfg.Bucket).Object(key).NewWriter(ctx)
	if contentType == "" {
		contentType = ContentTypeForKey(key)
	}
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write photo to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (b *photoBucket) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := b.client.Bucket(b.cfg.Bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, b.cfg.Bucket, err)
	}
	return nil
}

func (b *photoBucket) PublicURL(key string) string { return PublicURL(b.cfg, key) }

func (b *photoBucket) Close() error { return b.client.Close() }

func PublicURL(cfg StorageConfig, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	switch {
	case cfg.CDNDomain != "":
		return fmt.Sprintf("https://%s/%s", cfg.CDNDomain, key)
	case cfg.IsEmulator():
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media",
			cfg.PublicBaseURL, url.PathEscape(cfg.Bucket), url.PathEscape(key))
	case cfg.PublicBaseURL != "":
		return fmt.Sprintf("%s/%s/%s", cfg.PublicBaseURL, cfg.Bucket, key)
	default:
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.Bucket, key)
	}
}

func ContentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(strings.TrimSpace(key))) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".heic":
		return "image/heic"
	default:
		return "application/octet-stream"
	}
}
