package draft

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/sitevisit-backend/internal/capture"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

const DefaultDebounce = 800 * time.Millisecond

// Autosaver coalesces bursts of snapshots into one write after a quiet period.
// The newest snapshot always wins; callers never wait on the write.
type Autosaver struct {
	log      *logger.Logger
	store    *Store
	kind     string
	scope    string
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *capture.Snapshot
	seen    uint64
	stopped bool
	writeMu sync.Mutex
	onSaved func(scope string, snap capture.Snapshot)
}

func NewAutosaver(store *Store, kind, scope string, debounce time.Duration, baseLog *logger.Logger) *Autosaver {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Autosaver{
		log:      baseLog.With("component", "DraftAutosaver", "kind", kind),
		store:    store,
		kind:     kind,
		scope:    scope,
		debounce: debounce,
	}
}

// Attach schedules a save after every mutation of sess.
func (a *Autosaver) Attach(sess *capture.Session) {
	sess.OnChange(a.Schedule)
}

// Schedule drops a snapshot whose revision is not newer than one already scheduled.
// Revision zero is always accepted.
func (a *Autosaver) Schedule(snap capture.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if snap.Revision != 0 {
		if snap.Revision <= a.seen {
			return
		}
		a.seen = snap.Revision
	}
	a.pending = &snap
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.debounce, a.fire)
}

// OnSaved registers fn to run after each successful write. Call it before Attach.
func (a *Autosaver) OnSaved(fn func(scope string, snap capture.Snapshot)) {
	a.mu.Lock()
	a.onSaved = fn
	a.mu.Unlock()
}

// Rescope moves future writes to scope, used once the visit has been saved and has an id.
func (a *Autosaver) Rescope(scope string) {
	a.mu.Lock()
	a.scope = scope
	a.mu.Unlock()
}

func (a *Autosaver) Scope() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scope
}

// Flush writes any pending snapshot now.
func (a *Autosaver) Flush() {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	a.fire()
}

// Stop drops pending work and ignores later schedules. It is safe to call twice.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	a.pending = nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Autosaver) fire() {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	a.mu.Lock()
	snap := a.pending
	a.pending = nil
	scope := a.scope
	stopped := a.stopped
	onSaved := a.onSaved
	a.mu.Unlock()
	if snap == nil || stopped {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.store.Save(ctx, a.kind, scope, *snap); err != nil {
		a.log.Warn("draft autosave failed", "scope", scope, "error", err)
		return
	}
	if onSaved != nil {
		onSaved(scope, *snap)
	}
}
