package gcp

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

type StorageMode string

const (
	StorageModeGCS         StorageMode = "gcs"
	StorageModeGCSEmulator StorageMode = "gcs_emulator"
	// StorageModeLocal keeps published photos on disk; the HTTP layer serves them.
	StorageModeLocal StorageMode = "local"
)

type StorageConfig struct {
	Mode          StorageMode
	Bucket        string
	CDNDomain     string
	EmulatorHost  string
	PublicBaseURL string
}

func (m StorageMode) Supported() bool {
	switch m {
	case StorageModeGCS, StorageModeGCSEmulator, StorageModeLocal:
		return true
	default:
		return false
	}
}

func (cfg StorageConfig) IsEmulator() bool { return cfg.Mode == StorageModeGCSEmulator }

type ConfigError struct {
	Field string
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("photo storage: %s is required", e.Field)
	}
	return fmt.Sprintf("photo storage: invalid %s=%q", e.Field, e.Value)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// ResolveStorageConfigFromEnv picks gcs_emulator when STORAGE_EMULATOR_HOST is set and no mode is given.
func ResolveStorageConfigFromEnv() (StorageConfig, error) {
	cfg := StorageConfig{
		Bucket:        strings.TrimSpace(os.Getenv("PHOTO_GCS_BUCKET_NAME")),
		CDNDomain:     strings.TrimSpace(os.Getenv("PHOTO_CDN_DOMAIN")),
		EmulatorHost:  strings.TrimRight(strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")), "/"),
		PublicBaseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("PHOTO_PUBLIC_BASE_URL")), "/"),
	}
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("PHOTO_STORAGE_MODE")))
	switch {
	case raw == "" && cfg.EmulatorHost != "":
		cfg.Mode = StorageModeGCSEmulator
	case raw == "" && cfg.Bucket == "":
		cfg.Mode = StorageModeLocal
	case raw == "":
		cfg.Mode = StorageModeGCS
	default:
		cfg.Mode = StorageMode(raw)
	}
	if cfg.PublicBaseURL == "" && cfg.IsEmulator() {
		cfg.PublicBaseURL = cfg.EmulatorHost
	}
	return cfg, ValidateStorageConfig(cfg)
}

func ValidateStorageConfig(cfg StorageConfig) error {
	if !cfg.Mode.Supported() {
		return &ConfigError{Field: "PHOTO_STORAGE_MODE", Value: string(cfg.Mode)}
	}
	if cfg.Mode == StorageModeLocal {
		return nil
	}
	if cfg.Bucket == "" {
		return &ConfigError{Field: "PHOTO_GCS_BUCKET_NAME"}
	}
	if cfg.IsEmulator() {
		if cfg.EmulatorHost == "" {
			return &ConfigError{Field: "STORAGE_EMULATOR_HOST"}
		}
		if !absoluteURL(cfg.EmulatorHost) {
			return &ConfigError{Field: "STORAGE_EMULATOR_HOST", Value: cfg.EmulatorHost}
		}
	}
	if cfg.PublicBaseURL != "" && !absoluteURL(cfg.PublicBaseURL) {
		return &ConfigError{Field: "PHOTO_PUBLIC_BASE_URL", Value: cfg.PublicBaseURL}
	}
	return nil
}

func absoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && strings.TrimSpace(u.Scheme) != "" && strings.TrimSpace(u.Host) != ""
}
