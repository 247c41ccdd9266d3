package generate_outputs

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/jobs/orchestrator"
)

var (
	ErrNotSaved          = errors.New("visit has not been saved")
	ErrBaselineNotLocked = errors.New("scope baseline has not been locked")
	ErrPhotosNotUploaded = errors.New("photos not yet uploaded")
)

func (p *Pipeline) stages() []orchestrator.Stage[Work] {
	return []orchestrator.Stage[Work]{
		{Name: StepSave, Label: "Save visit", Run: p.runSave},
		{Name: StepCustomer, Label: "Link customer", Run: p.runCustomer},
		{Name: StepPhotos, Label: "Upload photos", Run: p.runPhotos},
		{Name: StepBridge, Label: "Send photos to documentation", Run: p.runBridge},
		{Name: StepBaseline, Label: "Lock scope baseline", Run: p.runBaseline},
		{Name: StepChecklist, Label: "Generate pre-start checklist", Run: p.runChecklist},
	}
}

func (p *Pipeline) runSave(ctx context.Context, w *Work) error {
	id, err := p.deps.Visits.SaveVisit(ctx, w.Visit)
	if err != nil {
		return fmt.Errorf("save visit: %w", err)
	}
	w.Visit.ID = &id
	return nil
}

func (p *Pipeline) runCustomer(ctx context.Context, w *Work) error {
	if w.Visit.ID == nil {
		return ErrNotSaved
	}
	id, err := p.deps.Customers.ResolveCustomer(ctx, w.Visit.Client)
	if err != nil {
		return fmt.Errorf("link customer: %w", err)
	}
	w.Visit.CustomerID = &id
	return nil
}

// runBridge forwards the full photo set or nothing; it fails while any photo is still ephemeral.
func (p *Pipeline) runBridge(ctx context.Context, w *Work) error {
	if w.Visit.ID == nil {
		return ErrNotSaved
	}
	photos := durablePhotos(w.Visit.Photos)
	if n := len(w.Visit.Photos) - len(photos); n > 0 {
		return fmt.Errorf("%d %w", n, ErrPhotosNotUploaded)
	}
	if len(photos) == 0 {
		return nil
	}
	if err := p.deps.Bridge.ForwardPhotos(ctx, *w.Visit.ID, photos); err != nil {
		return fmt.Errorf("forward photos: %w", err)
	}
	return nil
}

// runBaseline locks exactly once per visit: an existing baseline is reused untouched.
func (p *Pipeline) runBaseline(ctx context.Context, w *Work) error {
	if w.Visit.ID == nil {
		return ErrNotSaved
	}
	existing, ok, err := p.deps.Baselines.GetBaseline(ctx, *w.Visit.ID)
	if err != nil {
		return fmt.Errorf("load baseline: %w", err)
	}
	if ok {
		w.Baseline = existing
		return nil
	}
	locked, err := p.deps.Baselines.LockBaseline(ctx, sitevisit.NewScopeBaseline(*w.Visit.ID, w.Visit, p.now()))
	if err != nil {
		return fmt.Errorf("lock baseline: %w", err)
	}
	w.Baseline = locked
	return nil
}

func (p *Pipeline) runChecklist(ctx context.Context, w *Work) error {
	if w.Visit.ID == nil {
		return ErrNotSaved
	}
	if w.Baseline == nil {
		b, ok, err := p.deps.Baselines.GetBaseline(ctx, *w.Visit.ID)
		if err != nil {
			return fmt.Errorf("load baseline: %w", err)
		}
		if !ok {
			return ErrBaselineNotLocked
		}
		w.Baseline = b
	}
	c, err := p.deps.Generator.Generate(ctx, w.Visit, w.Baseline.Copy())
	if err != nil {
		return fmt.Errorf("generate checklist: %w", err)
	}
	if err := p.deps.Checklists.SaveChecklist(ctx, c); err != nil {
		return fmt.Errorf("save checklist: %w", err)
	}
	w.Checklist = c
	return nil
}
