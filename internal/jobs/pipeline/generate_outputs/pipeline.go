// Package generate_outputs turns a captured visit into persisted, shareable artifacts:
// save, customer, photos, bridge, baseline, checklist, then completion.
package generate_outputs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/jobs/orchestrator"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

type Pipeline struct {
	log         *logger.Logger
	deps        Deps
	engine      *orchestrator.Engine[Work]
	work        *Work
	observer    func(orchestrator.StageState)
	onCompleted func(ctx context.Context, r Result)
	now         func() time.Time

	finishMu      sync.Mutex
	mu            sync.RWMutex
	summary       summary
	completed     bool
	completionErr string
}

type summary struct {
	visitID        *uuid.UUID
	customerID     *uuid.UUID
	photoProjectID *uuid.UUID
	baseline       *sitevisit.ScopeBaseline
	checklist      *sitevisit.PreStartChecklist
	uploaded       map[uuid.UUID]PhotoUpload
}

// Result is a point-in-time view of a run.
type Result struct {
	Steps          []orchestrator.StageState    `json:"steps"`
	Completed      bool                         `json:"completed"`
	CompletionErr  string                       `json:"completion_error,omitempty"`
	VisitID        *uuid.UUID                   `json:"visit_id,omitempty"`
	CustomerID     *uuid.UUID                   `json:"customer_id,omitempty"`
	PhotoProjectID *uuid.UUID                   `json:"photo_project_id,omitempty"`
	Baseline       *sitevisit.ScopeBaseline     `json:"baseline,omitempty"`
	Checklist      *sitevisit.PreStartChecklist `json:"checklist,omitempty"`
	Uploaded       map[uuid.UUID]PhotoUpload    `json:"-"`
}

// New copies visit into a private working value; later edits to visit are not seen.
func New(visit *sitevisit.Visit, deps Deps, baseLog *logger.Logger, opts ...Option) (*Pipeline, error) {
	if visit == nil {
		return nil, fmt.Errorf("generate_outputs: nil visit")
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	p := &Pipeline{
		log:  baseLog.With("job", "generate_outputs"),
		deps: deps,
		work: &Work{Visit: visit.Clone(), Uploaded: map[uuid.UUID]PhotoUpload{}},
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	engine, err := orchestrator.NewEngine(p.work, p.stages(), baseLog,
		orchestrator.WithObserver[Work](p.observe),
		orchestrator.WithClock[Work](p.now),
	)
	if err != nil {
		return nil, err
	}
	p.engine = engine
	p.capture()
	return p, nil
}

func (d Deps) validate() error {
	switch {
	case d.Visits == nil:
		return fmt.Errorf("generate_outputs: missing visit store")
	case d.Customers == nil:
		return fmt.Errorf("generate_outputs: missing customer linker")
	case d.Uploader == nil:
		return fmt.Errorf("generate_outputs: missing photo uploader")
	case d.Projects == nil:
		return fmt.Errorf("generate_outputs: missing photo projects")
	case d.Bridge == nil:
		return fmt.Errorf("generate_outputs: missing documentation bridge")
	case d.Baselines == nil:
		return fmt.Errorf("generate_outputs: missing baseline store")
	case d.Generator == nil:
		return fmt.Errorf("generate_outputs: missing checklist generator")
	case d.Checklists == nil:
		return fmt.Errorf("generate_outputs: missing checklist store")
	}
	return nil
}

func (p *Pipeline) Type() string { return "generate_outputs" }

// Run attempts every step not yet done, in order, then completes the visit if all are done.
func (p *Pipeline) Run(ctx context.Context) Result {
	p.engine.RunAll(ctx)
	p.finish(ctx)
	return p.Result()
}

// Retry re-runs a single step and re-evaluates completion.
func (p *Pipeline) Retry(ctx context.Context, step string) (Result, error) {
	if _, err := p.engine.Retry(ctx, step); err != nil {
		return Result{}, err
	}
	p.finish(ctx)
	return p.Result(), nil
}

func (p *Pipeline) Busy() bool { return p.engine.Running() }

func (p *Pipeline) Result() Result {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r := Result{
		Steps:          p.engine.States(),
		Completed:      p.completed,
		CompletionErr:  p.completionErr,
		VisitID:        p.summary.visitID,
		CustomerID:     p.summary.customerID,
		PhotoProjectID: p.summary.photoProjectID,
		Baseline:       p.summary.baseline.Copy(),
		Checklist:      p.summary.checklist,
		Uploaded:       make(map[uuid.UUID]PhotoUpload, len(p.summary.uploaded)),
	}
	for k, v := range p.summary.uploaded {
		r.Uploaded[k] = v
	}
	return r
}

func (p *Pipeline) finish(ctx context.Context) {
	p.finishMu.Lock()
	defer p.finishMu.Unlock()
	if !p.engine.AllDone() {
		return
	}
	p.mu.Lock()
	if p.completed {
		p.mu.Unlock()
		return
	}
	visitID := p.summary.visitID
	p.mu.Unlock()
	if visitID == nil {
		return
	}

	if err := p.deps.Visits.SetStatus(ctx, *visitID, sitevisit.StatusCompleted); err != nil {
		p.log.Error("mark visit completed failed", "visit_id", visitID.String(), "error", err)
		p.mu.Lock()
		p.completionErr = err.Error()
		p.mu.Unlock()
		return
	}
	p.mu.Lock()
	p.completed = true
	p.completionErr = ""
	p.mu.Unlock()
	p.log.Info("visit completed", "visit_id", visitID.String())

	if p.onCompleted != nil {
		p.onCompleted(ctx, p.Result())
	}
}

func (p *Pipeline) observe(st orchestrator.StageState) {
	if st.Status.Terminal() {
		p.capture()
	}
	if p.observer != nil {
		p.observer(st)
	}
}

// capture copies what the steps derived so Result never reads the working value mid-step.
// It runs only between steps, while the engine holds its run lock.
func (p *Pipeline) capture() {
	w := p.work
	s := summary{
		visitID:        cloneID(w.Visit.ID),
		customerID:     cloneID(w.Visit.CustomerID),
		photoProjectID: cloneID(w.Visit.PhotoProjectID),
		baseline:       w.Baseline.Copy(),
		checklist:      w.Checklist,
		uploaded:       make(map[uuid.UUID]PhotoUpload, len(w.Uploaded)),
	}
	for k, v := range w.Uploaded {
		s.uploaded[k] = v
	}
	p.mu.Lock()
	p.summary = s
	p.mu.Unlock()
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
