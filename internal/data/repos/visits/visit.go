package visits

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/platform/dbctx"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

type VisitRepo interface {
	Upsert(dbc dbctx.Context, v *sitevisit.Visit) (uuid.UUID, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*sitevisit.Visit, error)
	SetStatus(dbc dbctx.Context, id uuid.UUID, status sitevisit.Status) error
}

type visitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVisitRepo(db *gorm.DB, baseLog *logger.Logger) VisitRepo {
	return &visitRepo{db: db, log: baseLog.With("repo", "VisitRepo")}
}

// Upsert assigns an id when the visit has none; repeated calls with the same id overwrite in place.
// Status is written on insert only. Later transitions go through SetStatus.
func (r *visitRepo) Upsert(dbc dbctx.Context, v *sitevisit.Visit) (uuid.UUID, error) {
	if v == nil {
		return uuid.Nil, fmt.Errorf("nil visit")
	}
	id := uuid.New()
	if v.ID != nil && *v.ID != uuid.Nil {
		id = *v.ID
	}
	rec, err := toVisitRecord(id, v)
	if err != nil {
		return uuid.Nil, err
	}
	err = dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"customer_id", "client_name", "client_email", "client_phone",
				"address", "postcode", "property_type", "access_notes",
				"rooms", "photos", "prompts", "photo_project_id", "updated_at",
			}),
		}).
		Create(rec).Error
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *visitRepo) Get(dbc dbctx.Context, id uuid.UUID) (*sitevisit.Visit, error) {
	var rec sitevisit.VisitRecord
	if err := dbc.DB(r.db).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return fromVisitRecord(&rec)
}

func (r *visitRepo) SetStatus(dbc dbctx.Context, id uuid.UUID, status sitevisit.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	res := dbc.DB(r.db).
		Model(&sitevisit.VisitRecord{}).
		Where("id = ?", id).
		Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func toVisitRecord(id uuid.UUID, v *sitevisit.Visit) (*sitevisit.VisitRecord, error) {
	rooms, err := json.Marshal(v.Rooms)
	if err != nil {
		return nil, fmt.Errorf("encode rooms: %w", err)
	}
	photos, err := json.Marshal(v.Photos)
	if err != nil {
		return nil, fmt.Errorf("encode photos: %w", err)
	}
	prompts, err := json.Marshal(v.Prompts)
	if err != nil {
		return nil, fmt.Errorf("encode prompts: %w", err)
	}
	status := v.Status
	if !status.Valid() {
		status = sitevisit.StatusDraft
	}
	return &sitevisit.VisitRecord{
		ID:             id,
		CustomerID:     v.CustomerID,
		ClientName:     v.Client.Name,
		ClientEmail:    v.Client.Email,
		ClientPhone:    v.Client.Phone,
		Address:        v.Property.Address,
		Postcode:       v.Property.Postcode,
		PropertyType:   v.Property.PropertyType,
		AccessNotes:    v.Property.AccessNotes,
		Rooms:          datatypes.JSON(rooms),
		Photos:         datatypes.JSON(photos),
		Prompts:        datatypes.JSON(prompts),
		PhotoProjectID: v.PhotoProjectID,
		Status:         string(status),
	}, nil
}

func fromVisitRecord(rec *sitevisit.VisitRecord) (*sitevisit.Visit, error) {
	v := sitevisit.NewVisit()
	id := rec.ID
	v.ID = &id
	v.CustomerID = rec.CustomerID
	v.Client = sitevisit.ClientDetails{Name: rec.ClientName, Email: rec.ClientEmail, Phone: rec.ClientPhone}
	v.Property = sitevisit.PropertyDetails{
		Address:      rec.Address,
		Postcode:     rec.Postcode,
		PropertyType: rec.PropertyType,
		AccessNotes:  rec.AccessNotes,
	}
	v.PhotoProjectID = rec.PhotoProjectID
	v.Status = sitevisit.Status(rec.Status)
	if err := decodeJSON(rec.Rooms, &v.Rooms); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	if err := decodeJSON(rec.Photos, &v.Photos); err != nil {
		return nil, fmt.Errorf("decode photos: %w", err)
	}
	if err := decodeJSON(rec.Prompts, &v.Prompts); err != nil {
		return nil, fmt.Errorf("decode prompts: %w", err)
	}
	return v, nil
}

func decodeJSON[T any](raw datatypes.JSON, out *[]T) error {
	if len(raw) == 0 || string(raw) == "null" {
		*out = []T{}
		return nil
	}
	return json.Unmarshal(raw, out)
}
