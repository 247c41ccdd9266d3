package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/capture"
	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/draft"
	"github.com/yungbote/sitevisit-backend/internal/jobs/pipeline/generate_outputs"
	"github.com/yungbote/sitevisit-backend/internal/platform/apierr"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
	"github.com/yungbote/sitevisit-backend/internal/realtime"
	"github.com/yungbote/sitevisit-backend/internal/voice"
)

var ErrSessionNotFound = errors.New("capture session not found")

// VisitLoader reads a saved visit when a session opens in edit mode.
type VisitLoader interface {
	GetVisit(ctx context.Context, id uuid.UUID) (*sitevisit.Visit, error)
}

// CaptureSession is one open capture of a visit: the live aggregate plus its draft
// autosave, the pending recovery choice, and whatever generation or voice run belongs to it.
type CaptureSession struct {
	ID        uuid.UUID
	OpenedAt  time.Time
	Holder    *capture.Holder
	Autosaver *draft.Autosaver
	Recovery  *draft.Recovery
	Actions   *voice.ActionLog

	mu         sync.Mutex
	recoveryMu sync.Mutex
	attachOnce sync.Once
	pipeline   *generate_outputs.Pipeline
	generating bool
	voice      *voice.Session
}

// Session is the live aggregate. Surfaces dereference it on every call.
func (c *CaptureSession) Session() *capture.Session { return c.Holder.Current() }

// RecoveryPending reports whether the recover-or-discard choice is still open.
func (c *CaptureSession) RecoveryPending() bool {
	c.recoveryMu.Lock()
	defer c.recoveryMu.Unlock()
	return c.Recovery.Pending()
}

// startAutosave attaches the autosaver once. While a recovery choice is open it stays
// detached so edits cannot overwrite the offered draft.
func (c *CaptureSession) startAutosave() {
	c.attachOnce.Do(func() {
		sess := c.Session()
		c.Autosaver.Attach(sess)
		if snap := sess.Snapshot(); snap.Revision > 0 {
			c.Autosaver.Schedule(snap)
		}
	})
}

type OpenResult struct {
	SessionID    uuid.UUID        `json:"session_id"`
	Recoverable  bool             `json:"recoverable"`
	DraftSavedAt *time.Time       `json:"draft_saved_at,omitempty"`
	Snapshot     capture.Snapshot `json:"snapshot"`
}

type CaptureService interface {
	Open(ctx context.Context, visitID *uuid.UUID) (*OpenResult, error)
	Get(sessionID uuid.UUID) (*CaptureSession, error)
	Recover(ctx context.Context, sessionID uuid.UUID) (capture.Snapshot, error)
	Discard(ctx context.Context, sessionID uuid.UUID) (capture.Snapshot, error)
	Close(ctx context.Context, sessionID uuid.UUID) error
	// CloseAll closes every open session; used on shutdown so no pending draft is lost.
	CloseAll(ctx context.Context)
}

type CaptureConfig struct {
	Debounce time.Duration
	Catalog  *capture.Catalog
}

type captureService struct {
	log       *logger.Logger
	visits    VisitLoader
	drafts    *draft.Store
	publisher *realtime.Publisher
	cfg       CaptureConfig

	mu       sync.RWMutex
	sessions map[uuid.UUID]*CaptureSession
	now      func() time.Time
}

func NewCaptureService(
	log *logger.Logger,
	visits VisitLoader,
	drafts *draft.Store,
	publisher *realtime.Publisher,
	cfg CaptureConfig,
) CaptureService {
	if cfg.Catalog == nil {
		cfg.Catalog = capture.DefaultCatalog()
	}
	return &captureService{
		log:       log.With("service", "CaptureService"),
		visits:    visits,
		drafts:    drafts,
		publisher: publisher,
		cfg:       cfg,
		sessions:  map[uuid.UUID]*CaptureSession{},
		now:       time.Now,
	}
}

func (s *captureService) Open(ctx context.Context, visitID *uuid.UUID) (*OpenResult, error) {
	var initial *sitevisit.Visit
	if visitID != nil && *visitID != uuid.Nil {
		v, err := s.visits.GetVisit(ctx, *visitID)
		if err != nil {
			return nil, err
		}
		initial = v
	}

	sess := capture.NewSession(initial, capture.WithCatalog(s.cfg.Catalog))
	cs := &CaptureSession{
		ID:       uuid.New(),
		OpenedAt: s.now().UTC(),
		Holder:   capture.NewHolder(sess),
		Recovery: draft.NewRecovery(s.drafts, draft.KindSiteVisit),
		Actions:  voice.NewActionLog(),
	}
	offer := cs.Recovery.Begin(ctx, initial)

	cs.Autosaver = draft.NewAutosaver(s.drafts, draft.KindSiteVisit, draft.ScopeFor(sess.VisitID()), s.cfg.Debounce, s.log)
	channel := realtime.SessionChannel(cs.ID)
	cs.Autosaver.OnSaved(func(scope string, snap capture.Snapshot) {
		s.publisher.Publish(context.Background(), realtime.SSEMessage{
			Channel: channel,
			Event:   realtime.SSEEventDraftSaved,
			Data:    map[string]any{"scope": scope, "current_step": snap.CurrentStep},
		})
	})
	if !offer.Available {
		cs.startAutosave()
	}

	s.mu.Lock()
	s.sessions[cs.ID] = cs
	s.mu.Unlock()

	out := &OpenResult{
		SessionID:   cs.ID,
		Recoverable: offer.Available,
		Snapshot:    sess.Snapshot(),
	}
	if offer.Available {
		at := offer.SavedAt
		out.DraftSavedAt = &at
	}
	s.log.Info("capture session opened",
		"session_id", cs.ID.String(),
		"edit", initial != nil,
		"recoverable", offer.Available,
	)
	return out, nil
}

func (s *captureService) Get(sessionID uuid.UUID) (*CaptureSession, error) {
	s.mu.RLock()
	cs, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, apierr.NotFound("session_not_found", ErrSessionNotFound)
	}
	return cs, nil
}

func (s *captureService) Recover(ctx context.Context, sessionID uuid.UUID) (capture.Snapshot, error) {
	cs, err := s.Get(sessionID)
	if err != nil {
		return capture.Snapshot{}, err
	}
	cs.recoveryMu.Lock()
	defer cs.recoveryMu.Unlock()
	sess := cs.Session()
	if err := cs.Recovery.Recover(sess); err != nil {
		if errors.Is(err, draft.ErrNoDraft) {
			return capture.Snapshot{}, apierr.Conflict("no_draft", err)
		}
		return capture.Snapshot{}, apierr.BadRequest("invalid_draft", err)
	}
	cs.startAutosave()
	s.log.Info("draft recovered", "session_id", sessionID.String())
	return sess.Snapshot(), nil
}

func (s *captureService) Discard(ctx context.Context, sessionID uuid.UUID) (capture.Snapshot, error) {
	cs, err := s.Get(sessionID)
	if err != nil {
		return capture.Snapshot{}, err
	}
	cs.recoveryMu.Lock()
	defer cs.recoveryMu.Unlock()
	if !cs.Recovery.Pending() {
		return capture.Snapshot{}, apierr.Conflict("no_draft", draft.ErrNoDraft)
	}
	if err := cs.Recovery.Discard(ctx); err != nil {
		return capture.Snapshot{}, err
	}
	cs.startAutosave()
	s.log.Info("draft discarded", "session_id", sessionID.String())
	return cs.Session().Snapshot(), nil
}

// Close writes any pending draft, ends a running voice session and forgets the session.
func (s *captureService) Close(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	cs, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return apierr.NotFound("session_not_found", ErrSessionNotFound)
	}
	cs.Autosaver.Flush()
	cs.Autosaver.Stop()
	cs.mu.Lock()
	vs := cs.voice
	cs.voice = nil
	cs.mu.Unlock()
	if vs != nil {
		vs.End()
	}
	s.log.Info("capture session closed", "session_id", sessionID.String())
	return nil
}

func (s *captureService) CloseAll(ctx context.Context) {
	s.mu.RLock()
	ids := make([]uuid.UUID, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	for _, id := range ids {
		_ = s.Close(ctx, id)
	}
}
