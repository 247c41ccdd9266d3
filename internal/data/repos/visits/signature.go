package visits

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/platform/dbctx"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

var ErrAlreadySigned = errors.New("visit already has a signature")

type SignatureRepo interface {
	Get(dbc dbctx.Context, visitID uuid.UUID) (*sitevisit.SignatureRecord, bool, error)
	Create(dbc dbctx.Context, rec *sitevisit.SignatureRecord) error
}

type signatureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSignatureRepo(db *gorm.DB, baseLog *logger.Logger) SignatureRepo {
	return &signatureRepo{db: db, log: baseLog.With("repo", "SignatureRepo")}
}

func (r *signatureRepo) Get(dbc dbctx.Context, visitID uuid.UUID) (*sitevisit.SignatureRecord, bool, error) {
	var rec sitevisit.SignatureRecord
	err := dbc.DB(r.db).Where("visit_id = ?", visitID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

func (r *signatureRepo) Create(dbc dbctx.Context, rec *sitevisit.SignatureRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if err := dbc.DB(r.db).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadySigned
		}
		return err
	}
	return nil
}
