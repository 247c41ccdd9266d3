package app

import (
	httpH "github.com/yungbote/sitevisit-backend/internal/http/handlers"
	"github.com/yungbote/sitevisit-backend/internal/platform/localmedia"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
	"github.com/yungbote/sitevisit-backend/internal/realtime"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Session    *httpH.SessionHandler
	Generation *httpH.GenerationHandler
	Voice      *httpH.VoiceHandler
	Realtime   *httpH.RealtimeHandler
	Share      *httpH.ShareHandler
	Export     *httpH.ExportHandler
	Media      *httpH.MediaHandler
}

func wireHandlers(log *logger.Logger, services Services, sseHub *realtime.SSEHub, media *localmedia.Store) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(),
		Session:    httpH.NewSessionHandler(services.Capture),
		Generation: httpH.NewGenerationHandler(services.Generation),
		Voice:      httpH.NewVoiceHandler(services.Voice),
		Realtime:   httpH.NewRealtimeHandler(log, sseHub, services.Capture),
		Share:      httpH.NewShareHandler(services.SignOff),
		Export:     httpH.NewExportHandler(services.Persistence),
		Media:      httpH.NewMediaHandler(media),
	}
}
