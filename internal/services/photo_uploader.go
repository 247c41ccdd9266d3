package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

// PhotoSource opens the bytes behind a device-side photo reference.
type PhotoSource interface {
	Open(ref string) (io.ReadCloser, string, error)
}

// PhotoPublisher is anywhere a photo can be made durable: the GCS bucket or the local media dir.
type PhotoPublisher interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	PublicURL(key string) string
}

type PhotoUploader struct {
	log       *logger.Logger
	source    PhotoSource
	publisher PhotoPublisher
}

func NewPhotoUploader(source PhotoSource, publisher PhotoPublisher, baseLog *logger.Logger) *PhotoUploader {
	return &PhotoUploader{
		log:       baseLog.With("service", "PhotoUploader"),
		source:    source,
		publisher: publisher,
	}
}

// Upload keys objects by visit and photo id, so re-uploading the same photo overwrites it.
func (u *PhotoUploader) Upload(ctx context.Context, visitID uuid.UUID, photo sitevisit.Photo) (string, error) {
	rc, contentType, err := u.source.Open(photo.PhotoURL)
	if err != nil {
		return "", fmt.Errorf("open photo %s: %w", photo.ID, err)
	}
	defer rc.Close()

	key := PhotoKey(visitID, photo.ID, photo.PhotoURL, contentType)
	if err := u.publisher.Upload(ctx, key, rc, contentType); err != nil {
		return "", fmt.Errorf("upload photo %s: %w", photo.ID, err)
	}
	u.log.Debug("photo uploaded", "visit_id", visitID.String(), "photo_id", photo.ID.String(), "key", key)
	return u.publisher.PublicURL(key), nil
}

func PhotoKey(visitID, photoID uuid.UUID, ref, contentType string) string {
	return fmt.Sprintf("visits/%s/photos/%s%s", visitID, photoID, photoExt(ref, contentType))
}

func photoExt(ref, contentType string) string {
	if !strings.HasPrefix(strings.ToLower(ref), "data:") {
		if ext := strings.ToLower(path.Ext(ref)); ext != "" && len(ext) <= 5 {
			return ext
		}
	}
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ".jpg"
}
