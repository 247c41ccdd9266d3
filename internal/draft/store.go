package draft

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/capture"
	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

const (
	envelopeVersion = 1
	// ScopeNew is the scope key of a visit that has never been saved.
	ScopeNew = "new"
	// KindSiteVisit is the only draft kind today. Kinds keep other capture flows from colliding.
	KindSiteVisit = "site_visit"
)

type envelope struct {
	Version      int              `json:"version"`
	SavedAt      time.Time        `json:"saved_at"`
	CurrentStep  int              `json:"current_step"`
	ActiveRoomID *uuid.UUID       `json:"active_room_id,omitempty"`
	Visit        *sitevisit.Visit `json:"visit"`
}

// Draft is a loaded snapshot plus when it was written.
type Draft struct {
	Kind     string
	Scope    string
	SavedAt  time.Time
	Snapshot capture.Snapshot
}

type Store struct {
	log    *logger.Logger
	kv     KV
	prefix string
	now    func() time.Time
}

func NewStore(kv KV, prefix string, baseLog *logger.Logger) *Store {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "sitevisit:draft"
	}
	return &Store{
		log:    baseLog.With("component", "DraftStore"),
		kv:     kv,
		prefix: prefix,
		now:    time.Now,
	}
}

// ScopeFor is the scope key for a visit: its id once saved, ScopeNew before.
func ScopeFor(visitID *uuid.UUID) string {
	if visitID == nil || *visitID == uuid.Nil {
		return ScopeNew
	}
	return visitID.String()
}

func (s *Store) Key(kind, scope string) string {
	if strings.TrimSpace(scope) == "" {
		scope = ScopeNew
	}
	return s.prefix + ":" + kind + ":" + scope
}

func (s *Store) Save(ctx context.Context, kind, scope string, snap capture.Snapshot) error {
	env := envelope{
		Version:      envelopeVersion,
		SavedAt:      s.now().UTC(),
		CurrentStep:  snap.CurrentStep,
		ActiveRoomID: snap.ActiveRoomID,
		Visit:        snap.Visit,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.Key(kind, scope), raw)
}

// Load never fails: a missing, unreadable or foreign-version draft is reported as absent.
func (s *Store) Load(ctx context.Context, kind, scope string) (*Draft, bool) {
	key := s.Key(kind, scope)
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Warn("draft read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok || len(raw) == 0 {
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.log.Warn("draft is corrupt, ignoring", "key", key, "error", err)
		return nil, false
	}
	if env.Version != envelopeVersion || env.Visit == nil {
		s.log.Warn("draft has unexpected shape, ignoring", "key", key, "version", env.Version)
		return nil, false
	}
	return &Draft{
		Kind:    kind,
		Scope:   scope,
		SavedAt: env.SavedAt,
		Snapshot: capture.Snapshot{
			Visit:        env.Visit,
			CurrentStep:  env.CurrentStep,
			ActiveRoomID: env.ActiveRoomID,
		},
	}, true
}

// HasRecoverable reports whether an unsaved visit of kind is waiting to be recovered.
func (s *Store) HasRecoverable(ctx context.Context, kind string) bool {
	_, ok := s.Load(ctx, kind, ScopeNew)
	return ok
}

func (s *Store) Clear(ctx context.Context, kind, scope string) error {
	return s.kv.Delete(ctx, s.Key(kind, scope))
}
