package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/sitevisit-backend/internal/data/repos/visits"
	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/platform/apierr"
	"github.com/yungbote/sitevisit-backend/internal/platform/dbctx"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
	"github.com/yungbote/sitevisit-backend/internal/sharing"
)

// Persistence adapts the gorm repos to the context-first interfaces the pipeline and sign-off use.
type Persistence struct {
	log        *logger.Logger
	Visits     visits.VisitRepo
	Customers  visits.CustomerRepo
	Projects   visits.PhotoProjectRepo
	Baselines  visits.BaselineRepo
	Checklists visits.ChecklistRepo
	Signatures visits.SignatureRepo
}

func NewPersistence(db *gorm.DB, baseLog *logger.Logger) *Persistence {
	return &Persistence{
		log:        baseLog.With("service", "Persistence"),
		Visits:     visits.NewVisitRepo(db, baseLog),
		Customers:  visits.NewCustomerRepo(db, baseLog),
		Projects:   visits.NewPhotoProjectRepo(db, baseLog),
		Baselines:  visits.NewBaselineRepo(db, baseLog),
		Checklists: visits.NewChecklistRepo(db, baseLog),
		Signatures: visits.NewSignatureRepo(db, baseLog),
	}
}

func dbc(ctx context.Context) dbctx.Context { return dbctx.Context{Ctx: ctx} }

func mapNotFound(err error, code string) error {
	if errors.Is(err, visits.ErrNotFound) {
		return apierr.NotFound(code, err)
	}
	return err
}

func (p *Persistence) SaveVisit(ctx context.Context, v *sitevisit.Visit) (uuid.UUID, error) {
	return p.Visits.Upsert(dbc(ctx), v)
}

func (p *Persistence) GetVisit(ctx context.Context, id uuid.UUID) (*sitevisit.Visit, error) {
	v, err := p.Visits.Get(dbc(ctx), id)
	return v, mapNotFound(err, "visit_not_found")
}

func (p *Persistence) SetStatus(ctx context.Context, id uuid.UUID, status sitevisit.Status) error {
	return mapNotFound(p.Visits.SetStatus(dbc(ctx), id, status), "visit_not_found")
}

func (p *Persistence) ResolveCustomer(ctx context.Context, c sitevisit.ClientDetails) (uuid.UUID, error) {
	return p.Customers.Resolve(dbc(ctx), c)
}

func (p *Persistence) CreatePhotoProject(ctx context.Context, visitID uuid.UUID, title string, photoCount int) (uuid.UUID, error) {
	return p.Projects.Create(dbc(ctx), visitID, title, photoCount)
}

func (p *Persistence) GetBaseline(ctx context.Context, visitID uuid.UUID) (*sitevisit.ScopeBaseline, bool, error) {
	return p.Baselines.Get(dbc(ctx), visitID)
}

func (p *Persistence) LockBaseline(ctx context.Context, b *sitevisit.ScopeBaseline) (*sitevisit.ScopeBaseline, error) {
	return p.Baselines.Lock(dbc(ctx), b)
}

func (p *Persistence) SaveChecklist(ctx context.Context, c *sitevisit.PreStartChecklist) error {
	return p.Checklists.Save(dbc(ctx), c)
}

func (p *Persistence) GetSignature(ctx context.Context, visitID uuid.UUID) (*sharing.Signature, bool, error) {
	rec, ok, err := p.Signatures.Get(dbc(ctx), visitID)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &sharing.Signature{
		VisitID:    rec.VisitID,
		SignerName: rec.SignerName,
		Signature:  rec.Signature,
		SignedAt:   rec.SignedAt.UTC(),
	}, true, nil
}

func (p *Persistence) SaveSignature(ctx context.Context, s *sharing.Signature) error {
	baselineID, err := p.Baselines.RecordID(dbc(ctx), s.VisitID)
	if err != nil {
		return mapNotFound(err, "baseline_not_found")
	}
	err = p.Signatures.Create(dbc(ctx), &sitevisit.SignatureRecord{
		VisitID:    s.VisitID,
		BaselineID: baselineID,
		SignerName: s.SignerName,
		Signature:  s.Signature,
		SignedAt:   s.SignedAt,
	})
	if errors.Is(err, visits.ErrAlreadySigned) {
		return sharing.ErrAlreadySigned
	}
	return err
}
