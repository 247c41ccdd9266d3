package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/sitevisit-backend/internal/http/handlers"
	httpMW "github.com/yungbote/sitevisit-backend/internal/http/middleware"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	SessionHandler    *httpH.SessionHandler
	GenerationHandler *httpH.GenerationHandler
	VoiceHandler      *httpH.VoiceHandler
	RealtimeHandler   *httpH.RealtimeHandler
	ShareHandler      *httpH.ShareHandler
	ExportHandler     *httpH.ExportHandler
	MediaHandler      *httpH.MediaHandler

	// MediaDir, when set, is served at /media for local-mode published photos.
	MediaDir string

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	// Published photos (local mode)
	if cfg.MediaDir != "" {
		r.Static("/media", cfg.MediaDir)
	}

	api := r.Group("/api")
	{
		// Customer share links carry their own signed token.
		if cfg.ShareHandler != nil {
			api.GET("/share/:token", cfg.ShareHandler.Review)
			api.POST("/share/:token/sign", cfg.ShareHandler.Sign)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Media
		if cfg.MediaHandler != nil {
			protected.POST("/media/photos", cfg.MediaHandler.UploadPhoto)
		}

		// Visits
		if cfg.ShareHandler != nil {
			protected.POST("/site-visits/:id/share", cfg.ShareHandler.Share)
		}
		if cfg.ExportHandler != nil {
			protected.GET("/site-visits/:id/baseline.xlsx", cfg.ExportHandler.BaselineWorkbook)
		}

		// Capture sessions
		if cfg.SessionHandler != nil {
			h := cfg.SessionHandler
			protected.POST("/site-visits/sessions", h.Open)
			sess := protected.Group("/site-visits/sessions/:sid")
			sess.GET("", h.Get)
			sess.DELETE("", h.Close)
			sess.POST("/recover", h.Recover)
			sess.POST("/discard", h.Discard)

			sess.POST("/rooms", h.AddRoom)
			sess.PUT("/rooms/order", h.ReorderRooms)
			sess.PUT("/rooms/active", h.SetActiveRoom)
			sess.PATCH("/rooms/:roomId", h.UpdateRoom)
			sess.DELETE("/rooms/:roomId", h.RemoveRoom)
			sess.POST("/rooms/:roomId/items", h.AddItem)
			sess.DELETE("/rooms/:roomId/items/:itemId", h.RemoveItem)
			sess.PATCH("/items/:itemId", h.UpdateItem)
			sess.POST("/items/:itemId/step", h.StepQuantity)

			sess.POST("/photos", h.AddPhoto)
			sess.DELETE("/photos/:photoId", h.RemovePhoto)
			sess.PUT("/photos/:photoId/url", h.UpdatePhotoURL)

			sess.GET("/prompts", h.Prompts)
			sess.PUT("/prompts", h.SetPrompt)
			sess.PATCH("/client", h.UpdateClient)
			sess.PATCH("/property", h.UpdateProperty)

			sess.PUT("/step", h.SetStep)
			sess.POST("/step/next", h.NextStep)
			sess.POST("/step/prev", h.PrevStep)

			if cfg.GenerationHandler != nil {
				sess.POST("/generate", cfg.GenerationHandler.Start)
				sess.GET("/generate", cfg.GenerationHandler.Status)
				sess.POST("/generate/steps/:step/retry", cfg.GenerationHandler.Retry)
			}
			if cfg.VoiceHandler != nil {
				sess.POST("/voice/start", cfg.VoiceHandler.Start)
				sess.POST("/voice/stop", cfg.VoiceHandler.Stop)
				sess.GET("/voice/log", cfg.VoiceHandler.Log)
			}
			// Realtime (SSE)
			if cfg.RealtimeHandler != nil {
				sess.GET("/events", cfg.RealtimeHandler.SessionEvents)
			}
		}
	}

	return r
}
