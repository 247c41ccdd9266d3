package generate_outputs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
)

var ephemeralPrefixes = []string{"blob:", "data:", "file:", "local:", "content:"}

// IsEphemeralURL reports whether u still points at device-local media rather than durable storage.
func IsEphemeralURL(u string) bool {
	u = strings.ToLower(strings.TrimSpace(u))
	if u == "" {
		return false
	}
	for _, p := range ephemeralPrefixes {
		if strings.HasPrefix(u, p) {
			return true
		}
	}
	return !strings.Contains(u, "://")
}

func durablePhotos(in []sitevisit.Photo) []sitevisit.Photo {
	out := make([]sitevisit.Photo, 0, len(in))
	for _, ph := range in {
		if !IsEphemeralURL(ph.PhotoURL) {
			out = append(out, ph)
		}
	}
	return out
}

// runPhotos uploads ephemeral photos one by one. A failed upload does not undo the others;
// the visit is persisted with whatever was uploaded before the step reports failure.
func (p *Pipeline) runPhotos(ctx context.Context, w *Work) error {
	if w.Visit.ID == nil {
		return ErrNotSaved
	}
	visitID := *w.Visit.ID

	var pending []int
	for i, ph := range w.Visit.Photos {
		if IsEphemeralURL(ph.PhotoURL) {
			pending = append(pending, i)
		}
	}
	var failed int
	var firstErr error
	for _, i := range pending {
		ph := w.Visit.Photos[i]
		url, err := p.deps.Uploader.Upload(ctx, visitID, ph)
		if err != nil || strings.TrimSpace(url) == "" {
			if err == nil {
				err = errors.New("empty url returned")
			}
			failed++
			if firstErr == nil {
				firstErr = err
			}
			p.log.Warn("photo upload failed", "visit_id", visitID.String(), "photo_id", ph.ID.String(), "error", err)
			continue
		}
		w.Uploaded[ph.ID] = PhotoUpload{From: ph.PhotoURL, To: url}
		w.Visit.Photos[i].PhotoURL = url
	}

	var errs []error
	if failed > 0 {
		errs = append(errs, fmt.Errorf("%d of %d photos failed to upload: %w", failed, len(pending), firstErr))
	}
	if len(w.Visit.Photos) > 0 && w.Visit.PhotoProjectID == nil {
		id, err := p.deps.Projects.CreatePhotoProject(ctx, visitID, photoProjectTitle(w.Visit), len(w.Visit.Photos))
		if err != nil {
			errs = append(errs, fmt.Errorf("create photo project: %w", err))
		} else {
			w.Visit.PhotoProjectID = &id
		}
	}
	if _, err := p.deps.Visits.SaveVisit(ctx, w.Visit); err != nil {
		errs = append(errs, fmt.Errorf("save visit: %w", err))
	}
	return errors.Join(errs...)
}

func photoProjectTitle(v *sitevisit.Visit) string {
	addr := strings.TrimSpace(v.Property.Address)
	if addr == "" {
		addr = strings.TrimSpace(v.Client.Name)
	}
	if addr == "" {
		return "Site visit photos"
	}
	return "Site visit: " + addr
}
