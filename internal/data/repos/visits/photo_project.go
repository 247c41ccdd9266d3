package visits

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/platform/dbctx"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

type PhotoProjectRepo interface {
	// Create returns the visit's existing project when one is already recorded.
	Create(dbc dbctx.Context, visitID uuid.UUID, title string, photoCount int) (uuid.UUID, error)
	GetByVisit(dbc dbctx.Context, visitID uuid.UUID) (*sitevisit.PhotoProjectRecord, error)
}

type photoProjectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPhotoProjectRepo(db *gorm.DB, baseLog *logger.Logger) PhotoProjectRepo {
	return &photoProjectRepo{db: db, log: baseLog.With("repo", "PhotoProjectRepo")}
}

func (r *photoProjectRepo) Create(dbc dbctx.Context, visitID uuid.UUID, title string, photoCount int) (uuid.UUID, error) {
	if existing, err := r.GetByVisit(dbc, visitID); err == nil {
		return existing.ID, nil
	} else if !errors.Is(err, ErrNotFound) {
		return uuid.Nil, err
	}
	rec := &sitevisit.PhotoProjectRecord{ID: uuid.New(), VisitID: visitID, Title: title, PhotoCount: photoCount}
	if err := dbc.DB(r.db).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			if existing, gerr := r.GetByVisit(dbc, visitID); gerr == nil {
				return existing.ID, nil
			}
		}
		return uuid.Nil, err
	}
	return rec.ID, nil
}

func (r *photoProjectRepo) GetByVisit(dbc dbctx.Context, visitID uuid.UUID) (*sitevisit.PhotoProjectRecord, error) {
	var rec sitevisit.PhotoProjectRecord
	if err := dbc.DB(r.db).Where("visit_id = ?", visitID).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}
