package app

import (
	"github.com/yungbote/sitevisit-backend/internal/http"
	httpMW "github.com/yungbote/sitevisit-backend/internal/http/middleware"
	"github.com/yungbote/sitevisit-backend/internal/platform/localmedia"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	auth := httpMW.NewAuthMiddleware(log, cfg.APIKeys)
	if !auth.Enabled() {
		log.Warn("API_KEYS not set; technician routes are unauthenticated")
	}
	return Middleware{Auth: auth}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, media *localmedia.Store) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:               log,
		ServiceName:       cfg.ServiceName,
		CORSOrigins:       cfg.CORSOrigins,
		AuthMiddleware:    middleware.Auth,
		SessionHandler:    handlers.Session,
		GenerationHandler: handlers.Generation,
		VoiceHandler:      handlers.Voice,
		RealtimeHandler:   handlers.Realtime,
		ShareHandler:      handlers.Share,
		ExportHandler:     handlers.Export,
		MediaHandler:      handlers.Media,
		MediaDir:          media.PublishedDir(),
		HealthHandler:     handlers.Health,
	})
}
