package generate_outputs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/jobs/orchestrator"
)

const (
	StepSave      = "save"
	StepCustomer  = "customer"
	StepPhotos    = "photos"
	StepBridge    = "bridge"
	StepBaseline  = "baseline"
	StepChecklist = "checklist"
)

// Steps lists the step ids in execution order.
var Steps = []string{StepSave, StepCustomer, StepPhotos, StepBridge, StepBaseline, StepChecklist}

type VisitStore interface {
	// SaveVisit upserts v and returns its id, assigning one on first save.
	SaveVisit(ctx context.Context, v *sitevisit.Visit) (uuid.UUID, error)
	SetStatus(ctx context.Context, visitID uuid.UUID, status sitevisit.Status) error
}

type CustomerLinker interface {
	ResolveCustomer(ctx context.Context, client sitevisit.ClientDetails) (uuid.UUID, error)
}

type PhotoUploader interface {
	// Upload stores the bytes behind photo's ephemeral reference and returns a durable URL.
	Upload(ctx context.Context, visitID uuid.UUID, photo sitevisit.Photo) (string, error)
}

type PhotoProjects interface {
	CreatePhotoProject(ctx context.Context, visitID uuid.UUID, title string, photoCount int) (uuid.UUID, error)
}

type DocumentationBridge interface {
	ForwardPhotos(ctx context.Context, visitID uuid.UUID, photos []sitevisit.Photo) error
}

type BaselineStore interface {
	GetBaseline(ctx context.Context, visitID uuid.UUID) (*sitevisit.ScopeBaseline, bool, error)
	// LockBaseline stores b unless a baseline already exists, and returns the stored one.
	LockBaseline(ctx context.Context, b *sitevisit.ScopeBaseline) (*sitevisit.ScopeBaseline, error)
}

type ChecklistGenerator interface {
	Generate(ctx context.Context, v *sitevisit.Visit, b *sitevisit.ScopeBaseline) (*sitevisit.PreStartChecklist, error)
}

type ChecklistStore interface {
	SaveChecklist(ctx context.Context, c *sitevisit.PreStartChecklist) error
}

type Deps struct {
	Visits     VisitStore
	Customers  CustomerLinker
	Uploader   PhotoUploader
	Projects   PhotoProjects
	Bridge     DocumentationBridge
	Baselines  BaselineStore
	Generator  ChecklistGenerator
	Checklists ChecklistStore
}

// Work is the pipeline's own copy of the visit plus what the steps derived from it.
type Work struct {
	Visit     *sitevisit.Visit
	Baseline  *sitevisit.ScopeBaseline
	Checklist *sitevisit.PreStartChecklist
	// Uploaded maps photo id to the ephemeral URL it had and the durable URL that replaced it.
	Uploaded map[uuid.UUID]PhotoUpload
}

type PhotoUpload struct {
	From string
	To   string
}

type Option func(*Pipeline)

func WithObserver(fn func(orchestrator.StageState)) Option {
	return func(p *Pipeline) { p.observer = fn }
}

// WithOnCompleted runs once, after the visit has been marked completed.
func WithOnCompleted(fn func(ctx context.Context, r Result)) Option {
	return func(p *Pipeline) { p.onCompleted = fn }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}
