package visits

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/platform/dbctx"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

type BaselineRepo interface {
	Get(dbc dbctx.Context, visitID uuid.UUID) (*sitevisit.ScopeBaseline, bool, error)
	// Lock inserts the baseline once per visit. A concurrent or repeated lock returns the stored one.
	Lock(dbc dbctx.Context, b *sitevisit.ScopeBaseline) (*sitevisit.ScopeBaseline, error)
	RecordID(dbc dbctx.Context, visitID uuid.UUID) (uuid.UUID, error)
}

type baselineRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBaselineRepo(db *gorm.DB, baseLog *logger.Logger) BaselineRepo {
	return &baselineRepo{db: db, log: baseLog.With("repo", "BaselineRepo")}
}

func (r *baselineRepo) Get(dbc dbctx.Context, visitID uuid.UUID) (*sitevisit.ScopeBaseline, bool, error) {
	var rec sitevisit.BaselineRecord
	err := dbc.DB(r.db).Where("visit_id = ?", visitID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var b sitevisit.ScopeBaseline
	if err := json.Unmarshal(rec.Snapshot, &b); err != nil {
		return nil, false, fmt.Errorf("decode baseline snapshot: %w", err)
	}
	b.VisitID = rec.VisitID
	b.LockedAt = rec.LockedAt.UTC()
	return &b, true, nil
}

func (r *baselineRepo) Lock(dbc dbctx.Context, b *sitevisit.ScopeBaseline) (*sitevisit.ScopeBaseline, error) {
	if b == nil {
		return nil, fmt.Errorf("nil baseline")
	}
	if existing, ok, err := r.Get(dbc, b.VisitID); err != nil {
		return nil, err
	} else if ok {
		return existing, nil
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode baseline: %w", err)
	}
	rec := &sitevisit.BaselineRecord{
		ID:        uuid.New(),
		VisitID:   b.VisitID,
		LockedAt:  b.LockedAt.UTC(),
		Snapshot:  datatypes.JSON(raw),
		ItemCount: b.ItemCount(),
	}
	if err := dbc.DB(r.db).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			if existing, ok, gerr := r.Get(dbc, b.VisitID); gerr == nil && ok {
				return existing, nil
			}
		}
		return nil, err
	}
	r.log.Info("scope baseline locked", "visit_id", b.VisitID.String(), "items", rec.ItemCount)
	return b.Copy(), nil
}

func (r *baselineRepo) RecordID(dbc dbctx.Context, visitID uuid.UUID) (uuid.UUID, error) {
	var rec sitevisit.BaselineRecord
	if err := dbc.DB(r.db).Select("id").Where("visit_id = ?", visitID).First(&rec).Error; err != nil {
		return uuid.Nil, notFound(err)
	}
	return rec.ID, nil
}
