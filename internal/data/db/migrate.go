package db

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
)

// Migrations are append-only; never edit an ID that has shipped.
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "20260301_create_site_visit_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&sitevisit.VisitRecord{},
					&sitevisit.CustomerRecord{},
					&sitevisit.PhotoProjectRecord{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("photo_project", "customer", "site_visit")
			},
		},
		{
			ID: "20260315_create_scope_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&sitevisit.BaselineRecord{},
					&sitevisit.ChecklistRecord{},
					&sitevisit.SignatureRecord{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("scope_signature", "pre_start_checklist", "scope_baseline")
			},
		},
	}
}

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, Migrations())
	return m.Migrate()
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Running site visit migrations...")
	if err := Migrate(s.db); err != nil {
		s.log.Error("Migration failed", "error", err)
		return err
	}
	return nil
}
