package visits

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/platform/dbctx"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

type ChecklistRepo interface {
	Save(dbc dbctx.Context, c *sitevisit.PreStartChecklist) error
	Latest(dbc dbctx.Context, visitID uuid.UUID) (*sitevisit.PreStartChecklist, error)
}

type checklistRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChecklistRepo(db *gorm.DB, baseLog *logger.Logger) ChecklistRepo {
	return &checklistRepo{db: db, log: baseLog.With("repo", "ChecklistRepo")}
}

func (r *checklistRepo) Save(dbc dbctx.Context, c *sitevisit.PreStartChecklist) error {
	if c == nil {
		return fmt.Errorf("nil checklist")
	}
	raw, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("encode checklist: %w", err)
	}
	rec := &sitevisit.ChecklistRecord{
		ID:          uuid.New(),
		VisitID:     c.VisitID,
		GeneratedAt: c.GeneratedAt.UTC(),
		Items:       datatypes.JSON(raw),
	}
	return dbc.DB(r.db).Create(rec).Error
}

func (r *checklistRepo) Latest(dbc dbctx.Context, visitID uuid.UUID) (*sitevisit.PreStartChecklist, error) {
	var rec sitevisit.ChecklistRecord
	if err := dbc.DB(r.db).
		Where("visit_id = ?", visitID).
		Order("generated_at DESC").
		First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	out := &sitevisit.PreStartChecklist{VisitID: rec.VisitID, GeneratedAt: rec.GeneratedAt.UTC()}
	if err := decodeJSON(rec.Items, &out.Items); err != nil {
		return nil, fmt.Errorf("decode checklist: %w", err)
	}
	return out, nil
}
