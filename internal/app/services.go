package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/sitevisit-backend/internal/capture"
	"github.com/yungbote/sitevisit-backend/internal/checklist"
	"github.com/yungbote/sitevisit-backend/internal/draft"
	"github.com/yungbote/sitevisit-backend/internal/jobs/pipeline/generate_outputs"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
	"github.com/yungbote/sitevisit-backend/internal/realtime"
	"github.com/yungbote/sitevisit-backend/internal/services"
	"github.com/yungbote/sitevisit-backend/internal/sharing"
)

type Services struct {
	Persistence *services.Persistence
	Drafts      *draft.Store
	Capture     services.CaptureService
	Generation  services.GenerationService
	Voice       services.VoiceService
	SignOff     sharing.SignOffService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, publisher *realtime.Publisher) (Services, error) {
	log.Info("Wiring services...")

	catalog := capture.DefaultCatalog()
	if cfg.PromptCatalogFile != "" {
		c, err := capture.LoadCatalog(cfg.PromptCatalogFile)
		if err != nil {
			return Services{}, fmt.Errorf("load prompt catalog: %w", err)
		}
		catalog = c
	}
	rules := checklist.DefaultRules()
	if cfg.ChecklistRulesFile != "" {
		r, err := checklist.LoadRules(cfg.ChecklistRulesFile)
		if err != nil {
			return Services{}, fmt.Errorf("load checklist rules: %w", err)
		}
		rules = r
	}
	if cfg.ShareTokenSecret == "" {
		log.Warn("SHARE_TOKEN_SECRET not set; share links are disabled")
	}

	store := services.NewPersistence(db, log)
	drafts := draft.NewStore(clients.DraftKV, cfg.DraftKeyPrefix, log)

	deps := generate_outputs.Deps{
		Visits:     store,
		Customers:  store,
		Uploader:   services.NewPhotoUploader(clients.Media, clients.Photos.Publisher, log),
		Projects:   store,
		Bridge:     clients.Bridge,
		Baselines:  store,
		Generator:  checklist.NewGenerator(rules, log),
		Checklists: store,
	}

	captureSvc := services.NewCaptureService(log, store, drafts, publisher, services.CaptureConfig{
		Debounce: cfg.DraftDebounce,
		Catalog:  catalog,
	})
	generation := services.NewGenerationService(log, captureSvc, deps, drafts, publisher)
	voiceSvc := services.NewVoiceService(log, captureSvc, clients.Voice, publisher, cfg.VoiceConnectTimeout)
	signoff := sharing.NewSignOffService(log, sharing.NewTokenIssuer(cfg.ShareTokenSecret, cfg.ShareTokenTTL), store, store, store)

	return Services{
		Persistence: store,
		Drafts:      drafts,
		Capture:     captureSvc,
		Generation:  generation,
		Voice:       voiceSvc,
		SignOff:     signoff,
	}, nil
}
