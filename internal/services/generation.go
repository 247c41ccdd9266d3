package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/capture"
	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/draft"
	"github.com/yungbote/sitevisit-backend/internal/jobs/orchestrator"
	"github.com/yungbote/sitevisit-backend/internal/jobs/pipeline/generate_outputs"
	"github.com/yungbote/sitevisit-backend/internal/platform/apierr"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
	"github.com/yungbote/sitevisit-backend/internal/realtime"
)

var (
	ErrGenerationRunning    = errors.New("generation is already running for this session")
	ErrGenerationNotStarted = errors.New("generation has not been started for this session")
)

type GenerationService interface {
	// Start runs a fresh pipeline over the session's current visit in the background.
	Start(ctx context.Context, sessionID uuid.UUID) (generate_outputs.Result, error)
	Status(sessionID uuid.UUID) (generate_outputs.Result, error)
	// Retry re-runs one step of the session's last pipeline in the background.
	Retry(ctx context.Context, sessionID uuid.UUID, step string) (generate_outputs.Result, error)
}

type generationService struct {
	log       *logger.Logger
	sessions  CaptureService
	deps      generate_outputs.Deps
	drafts    *draft.Store
	publisher *realtime.Publisher
	spawn     func(func())
}

func NewGenerationService(
	log *logger.Logger,
	sessions CaptureService,
	deps generate_outputs.Deps,
	drafts *draft.Store,
	publisher *realtime.Publisher,
) GenerationService {
	return &generationService{
		log:       log.With("service", "GenerationService"),
		sessions:  sessions,
		deps:      deps,
		drafts:    drafts,
		publisher: publisher,
		spawn:     func(fn func()) { go fn() },
	}
}

func (s *generationService) Start(ctx context.Context, sessionID uuid.UUID) (generate_outputs.Result, error) {
	cs, err := s.sessions.Get(sessionID)
	if err != nil {
		return generate_outputs.Result{}, err
	}
	cs.mu.Lock()
	if cs.generating {
		cs.mu.Unlock()
		return generate_outputs.Result{}, apierr.Conflict("generation_running", ErrGenerationRunning)
	}

	channel := realtime.SessionChannel(sessionID)
	p, err := generate_outputs.New(cs.Session().Visit(), s.deps, s.log,
		generate_outputs.WithObserver(func(st orchestrator.StageState) {
			s.publisher.Publish(context.Background(), realtime.SSEMessage{
				Channel: channel,
				Event:   realtime.SSEEventStepUpdated,
				Data:    st,
			})
		}),
		generate_outputs.WithOnCompleted(func(ctx context.Context, r generate_outputs.Result) {
			s.clearDrafts(ctx, cs, r.VisitID)
		}),
	)
	if err != nil {
		cs.mu.Unlock()
		return generate_outputs.Result{}, err
	}
	cs.pipeline = p
	cs.generating = true
	cs.mu.Unlock()

	s.log.Info("generation started", "session_id", sessionID.String())
	runCtx := context.WithoutCancel(ctx)
	s.spawn(func() {
		s.finish(runCtx, cs, p.Run(runCtx))
	})
	return p.Result(), nil
}

func (s *generationService) Status(sessionID uuid.UUID) (generate_outputs.Result, error) {
	cs, err := s.sessions.Get(sessionID)
	if err != nil {
		return generate_outputs.Result{}, err
	}
	cs.mu.Lock()
	p := cs.pipeline
	cs.mu.Unlock()
	if p == nil {
		return generate_outputs.Result{}, apierr.NotFound("generation_not_started", ErrGenerationNotStarted)
	}
	return p.Result(), nil
}

func (s *generationService) Retry(ctx context.Context, sessionID uuid.UUID, step string) (generate_outputs.Result, error) {
	cs, err := s.sessions.Get(sessionID)
	if err != nil {
		return generate_outputs.Result{}, err
	}
	if !validStep(step) {
		return generate_outputs.Result{}, apierr.BadRequest("unknown_step", orchestrator.ErrUnknownStage)
	}
	cs.mu.Lock()
	p := cs.pipeline
	if p == nil {
		cs.mu.Unlock()
		return generate_outputs.Result{}, apierr.NotFound("generation_not_started", ErrGenerationNotStarted)
	}
	if cs.generating {
		cs.mu.Unlock()
		return generate_outputs.Result{}, apierr.Conflict("generation_running", ErrGenerationRunning)
	}
	cs.generating = true
	cs.mu.Unlock()

	s.log.Info("generation step retried", "session_id", sessionID.String(), "step", step)
	runCtx := context.WithoutCancel(ctx)
	s.spawn(func() {
		r, err := p.Retry(runCtx, step)
		if err != nil {
			s.log.Warn("generation retry failed", "step", step, "error", err)
			r = p.Result()
		}
		s.finish(runCtx, cs, r)
	})
	return p.Result(), nil
}

// finish folds the run's identifiers and durable photo URLs into the live visit, moves
// the draft onto the saved visit's key, and announces the outcome.
func (s *generationService) finish(ctx context.Context, cs *CaptureSession, r generate_outputs.Result) {
	if r.VisitID != nil {
		g := capture.Generated{
			VisitID:        *r.VisitID,
			CustomerID:     r.CustomerID,
			PhotoProjectID: r.PhotoProjectID,
			PhotoURLs:      make(map[uuid.UUID]capture.PhotoURLChange, len(r.Uploaded)),
		}
		for id, u := range r.Uploaded {
			g.PhotoURLs[id] = capture.PhotoURLChange{From: u.From, To: u.To}
		}
		if r.Completed {
			g.Status = sitevisit.StatusCompleted
		}
		if cs.Autosaver.Scope() == draft.ScopeNew {
			cs.Autosaver.Rescope(r.VisitID.String())
			if err := s.drafts.Clear(ctx, draft.KindSiteVisit, draft.ScopeNew); err != nil {
				s.log.Warn("clear unsaved draft failed", "error", err)
			}
		}
		if err := cs.Session().MergeGenerated(g); err != nil {
			s.log.Warn("merge generated outputs failed", "session_id", cs.ID.String(), "error", err)
		}
	}

	cs.mu.Lock()
	cs.generating = false
	cs.mu.Unlock()

	s.publisher.Publish(ctx, realtime.SSEMessage{
		Channel: realtime.SessionChannel(cs.ID),
		Event:   realtime.SSEEventPipelineFinished,
		Data:    r,
	})
	s.log.Info("generation finished",
		"session_id", cs.ID.String(),
		"completed", r.Completed,
	)
}

// clearDrafts runs once the visit is completed; nothing about it is left to recover.
func (s *generationService) clearDrafts(ctx context.Context, cs *CaptureSession, visitID *uuid.UUID) {
	scopes := []string{cs.Autosaver.Scope()}
	if saved := draft.ScopeFor(visitID); saved != scopes[0] {
		scopes = append(scopes, saved)
	}
	cs.Autosaver.Stop()
	for _, scope := range scopes {
		if err := s.drafts.Clear(ctx, draft.KindSiteVisit, scope); err != nil {
			s.log.Warn("clear draft failed", "scope", scope, "error", err)
		}
	}
}

func validStep(step string) bool {
	for _, st := range generate_outputs.Steps {
		if st == step {
			return true
		}
	}
	return false
}
