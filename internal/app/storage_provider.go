package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/sitevisit-backend/internal/platform/gcp"
	"github.com/yungbote/sitevisit-backend/internal/platform/localmedia"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
	"github.com/yungbote/sitevisit-backend/internal/services"
)

var newPhotoBucket = gcp.NewPhotoBucket

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingBucket       StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorInvalidPublicURL    StorageProviderBootstrapErrorCode = "invalid_public_base_url"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "photo storage bootstrap failed"
	}
	return fmt.Sprintf(
		"photo storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// photoProvider is where the generation photos step publishes to, plus the bucket to close on exit.
type photoProvider struct {
	Publisher services.PhotoPublisher
	bucket    gcp.PhotoBucket
}

func (p photoProvider) Close() error {
	if p.bucket == nil {
		return nil
	}
	return p.bucket.Close()
}

func resolvePhotoPublisher(
	ctx context.Context,
	log *logger.Logger,
	storageCfg gcp.StorageConfig,
	cfgErr error,
	media *localmedia.Store,
	mediaBaseURL string,
) (photoProvider, error) {
	if cfgErr != nil {
		err := classifyStorageProviderBootstrapError(storageCfg, cfgErr)
		log.Error(
			"Photo storage provider selection failed",
			"mode", storageCfg.Mode,
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(err),
			"error", err,
		)
		return photoProvider{}, err
	}

	log.Info(
		"Selecting photo storage provider",
		"mode", storageCfg.Mode,
		"bucket", storageCfg.Bucket,
		"emulator_host", storageCfg.EmulatorHost,
	)

	if storageCfg.Mode == gcp.StorageModeLocal {
		return photoProvider{Publisher: localmedia.NewDirBucket(media, mediaBaseURL)}, nil
	}

	bucket, err := newPhotoBucket(ctx, log, storageCfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Photo storage provider bootstrap failed",
			"mode", storageCfg.Mode,
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return photoProvider{}, classified
	}
	return photoProvider{Publisher: bucket, bucket: bucket}, nil
}

func classifyStorageProviderBootstrapError(storageCfg gcp.StorageConfig, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *gcp.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Field {
		case "PHOTO_STORAGE_MODE":
			code = StorageProviderBootstrapErrorInvalidMode
		case "PHOTO_GCS_BUCKET_NAME":
			code = StorageProviderBootstrapErrorMissingBucket
		case "STORAGE_EMULATOR_HOST":
			code = StorageProviderBootstrapErrorMissingEmulatorHost
			if cfgErr.Value != "" {
				code = StorageProviderBootstrapErrorInvalidEmulatorHost
			}
		case "PHOTO_PUBLIC_BASE_URL":
			code = StorageProviderBootstrapErrorInvalidPublicURL
		}
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return StorageProviderBootstrapErrorConnectFailed
}
