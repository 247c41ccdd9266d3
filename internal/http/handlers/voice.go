package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sitevisit-backend/internal/http/response"
	"github.com/yungbote/sitevisit-backend/internal/services"
)

type VoiceHandler struct {
	voice services.VoiceService
}

func NewVoiceHandler(voice services.VoiceService) *VoiceHandler {
	return &VoiceHandler{voice: voice}
}

// POST /api/site-visits/sessions/:sid/voice/start
func (h *VoiceHandler) Start(c *gin.Context) {
	sid, ok := uuidParam(c, "sid", "invalid_session_id")
	if !ok {
		return
	}
	st, err := h.voice.Start(c.Request.Context(), sid)
	if err != nil {
		response.RespondAPIError(c, err, "voice_start_failed")
		return
	}
	response.RespondOK(c, gin.H{"voice": st})
}

// POST /api/site-visits/sessions/:sid/voice/stop
func (h *VoiceHandler) Stop(c *gin.Context) {
	sid, ok := uuidParam(c, "sid", "invalid_session_id")
	if !ok {
		return
	}
	if err := h.voice.Stop(sid); err != nil {
		response.RespondAPIError(c, err, "voice_stop_failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/site-visits/sessions/:sid/voice/log
func (h *VoiceHandler) Log(c *gin.Context) {
	sid, ok := uuidParam(c, "sid", "invalid_session_id")
	if !ok {
		return
	}
	vl, err := h.voice.Log(sid)
	if err != nil {
		response.RespondAPIError(c, err, "voice_log_failed")
		return
	}
	response.RespondOK(c, vl)
}
