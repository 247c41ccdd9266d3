package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/sitevisit-backend/internal/http/response"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
	"github.com/yungbote/sitevisit-backend/internal/realtime"
	"github.com/yungbote/sitevisit-backend/internal/services"
)

type RealtimeHandler struct {
	log      *logger.Logger
	hub      *realtime.SSEHub
	sessions services.CaptureService
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, sessions services.CaptureService) *RealtimeHandler {
	return &RealtimeHandler{
		log:      log.With("handler", "RealtimeHandler"),
		hub:      hub,
		sessions: sessions,
	}
}

// GET /api/site-visits/sessions/:sid/events
func (h *RealtimeHandler) SessionEvents(c *gin.Context) {
	sid, ok := uuidParam(c, "sid", "invalid_session_id")
	if !ok {
		return
	}
	if _, err := h.sessions.Get(sid); err != nil {
		response.RespondAPIError(c, err, "session_lookup_failed")
		return
	}

	client := h.hub.NewSSEClient()
	h.hub.AddChannel(client, realtime.SessionChannel(sid))
	h.log.Info("SSE stream open", "session_id", sid.String(), "client_id", client.ID.String())

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	h.log.Debug("SSE stream closed", "session_id", sid.String(), "client_id", client.ID.String())
}
