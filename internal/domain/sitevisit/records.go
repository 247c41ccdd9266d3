package sitevisit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type VisitRecord struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID     *uuid.UUID     `gorm:"type:uuid;column:customer_id;index" json:"customer_id,omitempty"`
	ClientName     string         `gorm:"column:client_name" json:"client_name"`
	ClientEmail    string         `gorm:"column:client_email" json:"client_email"`
	ClientPhone    string         `gorm:"column:client_phone" json:"client_phone"`
	Address        string         `gorm:"column:address" json:"address"`
	Postcode       string         `gorm:"column:postcode;index" json:"postcode"`
	PropertyType   string         `gorm:"column:property_type" json:"property_type"`
	AccessNotes    string         `gorm:"column:access_notes" json:"access_notes"`
	Rooms          datatypes.JSON `gorm:"column:rooms" json:"rooms"`
	Photos         datatypes.JSON `gorm:"column:photos" json:"photos"`
	Prompts        datatypes.JSON `gorm:"column:prompts" json:"prompts"`
	PhotoProjectID *uuid.UUID     `gorm:"type:uuid;column:photo_project_id" json:"photo_project_id,omitempty"`
	Status         string         `gorm:"column:status;not null;index" json:"status"`
	CreatedAt      time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;autoUpdateTime;index" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (VisitRecord) TableName() string { return "site_visit" }

type CustomerRecord struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	Email     string         `gorm:"column:email;index" json:"email"`
	Phone     string         `gorm:"column:phone;index" json:"phone"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CustomerRecord) TableName() string { return "customer" }

type PhotoProjectRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VisitID    uuid.UUID `gorm:"type:uuid;column:visit_id;not null;uniqueIndex" json:"visit_id"`
	Title      string    `gorm:"column:title" json:"title"`
	PhotoCount int       `gorm:"column:photo_count;not null;default:0" json:"photo_count"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (PhotoProjectRecord) TableName() string { return "photo_project" }

// BaselineRecord rows are insert-only; the unique visit index enforces one lock per visit.
type BaselineRecord struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	VisitID   uuid.UUID      `gorm:"type:uuid;column:visit_id;not null;uniqueIndex" json:"visit_id"`
	LockedAt  time.Time      `gorm:"column:locked_at;not null" json:"locked_at"`
	Snapshot  datatypes.JSON `gorm:"column:snapshot" json:"snapshot"`
	ItemCount int            `gorm:"column:item_count;not null;default:0" json:"item_count"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (BaselineRecord) TableName() string { return "scope_baseline" }

type ChecklistRecord struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	VisitID     uuid.UUID      `gorm:"type:uuid;column:visit_id;not null;index" json:"visit_id"`
	GeneratedAt time.Time      `gorm:"column:generated_at;not null" json:"generated_at"`
	Items       datatypes.JSON `gorm:"column:items" json:"items"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (ChecklistRecord) TableName() string { return "pre_start_checklist" }

type SignatureRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VisitID    uuid.UUID `gorm:"type:uuid;column:visit_id;not null;uniqueIndex" json:"visit_id"`
	BaselineID uuid.UUID `gorm:"type:uuid;column:baseline_id;not null" json:"baseline_id"`
	SignerName string    `gorm:"column:signer_name;not null" json:"signer_name"`
	Signature  string    `gorm:"column:signature;not null" json:"-"`
	SignedAt   time.Time `gorm:"column:signed_at;not null" json:"signed_at"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (SignatureRecord) TableName() string { return "scope_signature" }
