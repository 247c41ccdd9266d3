// Package capture holds the in-memory site visit aggregate and the closed set of
// mutations both capture surfaces (form and voice) go through.
package capture

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrItemNotFound       = errors.New("item not found")
	ErrPhotoNotFound      = errors.New("photo not found")
	ErrEmptyPhotoURL      = errors.New("photo url is empty")
	ErrInvalidPhotoPhase  = errors.New("photo phase must be before or after")
	ErrEmptyPromptKey     = errors.New("prompt key is empty")
	ErrInvalidSnapshot    = errors.New("snapshot is not a consistent visit")
	ErrInvalidVisitStatus = errors.New("unknown visit status")
)

// Snapshot is a deep copy of everything a draft needs to resume capture.
type Snapshot struct {
	Visit        *sitevisit.Visit `json:"visit"`
	CurrentStep  int              `json:"current_step"`
	ActiveRoomID *uuid.UUID       `json:"active_room_id,omitempty"`
	// Revision increases with every mutation of the session that produced the snapshot.
	Revision uint64 `json:"-"`
}

// Session is the single source of truth for one visit being captured.
// The form handlers and the voice read loop run on different goroutines, so all
// access goes through mu. Listeners are invoked after the lock is released.
type Session struct {
	mu           sync.RWMutex
	visit        *sitevisit.Visit
	activeRoomID *uuid.UUID
	currentStep  int
	catalog      *Catalog
	listeners    []func(Snapshot)
	revision     uint64
}

type Option func(*Session)

func WithCatalog(c *Catalog) Option {
	return func(s *Session) { s.catalog = c }
}

// NewSession starts capture from initial (an edit of a saved visit) or from an empty visit.
func NewSession(initial *sitevisit.Visit, opts ...Option) *Session {
	v := initial.Clone()
	if v == nil {
		v = sitevisit.NewVisit()
	}
	normalizeVisit(v)
	s := &Session{visit: v}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = DefaultCatalog()
	}
	return s
}

// OnChange registers fn to receive a snapshot after every successful mutation.
func (s *Session) OnChange(fn func(Snapshot)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) Visit() *sitevisit.Visit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visit.Clone()
}

func (s *Session) VisitID() *uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.visit.ID == nil {
		return nil
	}
	id := *s.visit.ID
	return &id
}

func (s *Session) Catalog() *Catalog { return s.catalog }

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{Visit: s.visit.Clone(), CurrentStep: s.currentStep, Revision: s.revision}
	if s.activeRoomID != nil {
		id := *s.activeRoomID
		snap.ActiveRoomID = &id
	}
	return snap
}

// mutate runs fn under the write lock and notifies listeners when it succeeds.
// Concurrent mutations may notify out of order; listeners compare Revision.
func (s *Session) mutate(fn func() error) error {
	s.mu.Lock()
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.revision++
	snap := s.snapshotLocked()
	listeners := append([]func(Snapshot){}, s.listeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		l(snap)
	}
	return nil
}

// Restore replaces the whole aggregate with snap. Partial restores are never applied:
// an inconsistent snapshot is rejected and the session is left as it was.
func (s *Session) Restore(snap Snapshot) error {
	if snap.Visit == nil {
		return ErrInvalidSnapshot
	}
	v := snap.Visit.Clone()
	if err := validateVisit(v); err != nil {
		return err
	}
	normalizeVisit(v)
	return s.mutate(func() error {
		s.visit = v
		s.currentStep = clampStep(snap.CurrentStep)
		s.activeRoomID = nil
		if snap.ActiveRoomID != nil {
			if _, r := v.RoomByID(*snap.ActiveRoomID); r != nil {
				id := *snap.ActiveRoomID
				s.activeRoomID = &id
			}
		}
		return nil
	})
}

func (s *Session) SetStatus(status sitevisit.Status) error {
	if !status.Valid() {
		return ErrInvalidVisitStatus
	}
	return s.mutate(func() error {
		s.visit.Status = status
		return nil
	})
}

// Generated carries the identifiers and durable photo URLs a generation run produced.
type Generated struct {
	VisitID        uuid.UUID
	CustomerID     *uuid.UUID
	PhotoProjectID *uuid.UUID
	// PhotoURLs maps photo id to the URL that was uploaded, keyed with the URL it replaced.
	PhotoURLs map[uuid.UUID]PhotoURLChange
	Status    sitevisit.Status
}

type PhotoURLChange struct {
	From string
	To   string
}

// MergeGenerated folds pipeline output back into the live visit. A photo URL is only
// replaced when the live photo still carries the URL that was uploaded, so an
// annotation made while the pipeline ran wins.
func (s *Session) MergeGenerated(g Generated) error {
	return s.mutate(func() error {
		id := g.VisitID
		s.visit.ID = &id
		if g.CustomerID != nil {
			c := *g.CustomerID
			s.visit.CustomerID = &c
		}
		if g.PhotoProjectID != nil {
			p := *g.PhotoProjectID
			s.visit.PhotoProjectID = &p
		}
		for i := range s.visit.Photos {
			ch, ok := g.PhotoURLs[s.visit.Photos[i].ID]
			if ok && s.visit.Photos[i].PhotoURL == ch.From {
				s.visit.Photos[i].PhotoURL = ch.To
			}
		}
		if g.Status.Valid() {
			s.visit.Status = g.Status
		}
		return nil
	})
}

func validateVisit(v *sitevisit.Visit) error {
	seen := make(map[uuid.UUID]bool, len(v.Rooms))
	for _, r := range v.Rooms {
		if r.ID == uuid.Nil || seen[r.ID] {
			return ErrInvalidSnapshot
		}
		seen[r.ID] = true
	}
	for _, p := range v.Photos {
		if p.RoomID != nil && !seen[*p.RoomID] {
			return ErrInvalidSnapshot
		}
	}
	for _, p := range v.Prompts {
		if p.RoomID != nil && !seen[*p.RoomID] {
			return ErrInvalidSnapshot
		}
	}
	if v.Status != "" && !v.Status.Valid() {
		return ErrInvalidSnapshot
	}
	return nil
}

func normalizeVisit(v *sitevisit.Visit) {
	if v.Rooms == nil {
		v.Rooms = []sitevisit.Room{}
	}
	if v.Photos == nil {
		v.Photos = []sitevisit.Photo{}
	}
	if v.Prompts == nil {
		v.Prompts = []sitevisit.PromptResponse{}
	}
	if v.Status == "" {
		v.Status = sitevisit.StatusDraft
	}
	for i := range v.Rooms {
		r := &v.Rooms[i]
		if r.Items == nil {
			r.Items = []sitevisit.Item{}
		}
		for j := range r.Items {
			r.Items[j].RoomID = r.ID
			r.Items[j].Quantity = clampQuantity(r.Items[j].Quantity)
		}
	}
}
