package draft

import (
	"context"
	"time"

	"github.com/yungbote/sitevisit-backend/internal/capture"
	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
)

// Offer is what a new capture session is shown on entry.
type Offer struct {
	Available bool
	SavedAt   time.Time
	Draft     *Draft
}

// Recovery runs the recover-or-discard choice. A draft is never resumed silently.
type Recovery struct {
	store *Store
	kind  string
	offer *Draft
}

func NewRecovery(store *Store, kind string) *Recovery {
	return &Recovery{store: store, kind: kind}
}

// Begin looks for a recoverable draft. Editing a saved visit (initial != nil) never offers one.
func (r *Recovery) Begin(ctx context.Context, initial *sitevisit.Visit) Offer {
	r.offer = nil
	if initial != nil {
		return Offer{}
	}
	d, ok := r.store.Load(ctx, r.kind, ScopeNew)
	if !ok {
		return Offer{}
	}
	r.offer = d
	return Offer{Available: true, SavedAt: d.SavedAt, Draft: d}
}

func (r *Recovery) Pending() bool { return r.offer != nil }

// Recover restores every field of the offered draft into sess, or nothing at all.
func (r *Recovery) Recover(sess *capture.Session) error {
	if r.offer == nil {
		return ErrNoDraft
	}
	if err := sess.Restore(r.offer.Snapshot); err != nil {
		return err
	}
	r.offer = nil
	return nil
}

// Discard clears the draft so the session starts empty.
func (r *Recovery) Discard(ctx context.Context) error {
	r.offer = nil
	return r.store.Clear(ctx, r.kind, ScopeNew)
}
