package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/sitevisit-backend/internal/http/response"
	"github.com/yungbote/sitevisit-backend/internal/services"
)

type GenerationHandler struct {
	generation services.GenerationService
}

func NewGenerationHandler(generation services.GenerationService) *GenerationHandler {
	return &GenerationHandler{generation: generation}
}

// POST /api/site-visits/sessions/:sid/generate
func (h *GenerationHandler) Start(c *gin.Context) {
	sid, ok := uuidParam(c, "sid", "invalid_session_id")
	if !ok {
		return
	}
	res, err := h.generation.Start(c.Request.Context(), sid)
	if err != nil {
		response.RespondAPIError(c, err, "generate_failed")
		return
	}
	response.RespondAccepted(c, gin.H{"generation": res})
}

// GET /api/site-visits/sessions/:sid/generate
func (h *GenerationHandler) Status(c *gin.Context) {
	sid, ok := uuidParam(c, "sid", "invalid_session_id")
	if !ok {
		return
	}
	res, err := h.generation.Status(sid)
	if err != nil {
		response.RespondAPIError(c, err, "generation_status_failed")
		return
	}
	response.RespondOK(c, gin.H{"generation": res})
}

// POST /api/site-visits/sessions/:sid/generate/steps/:step/retry
func (h *GenerationHandler) Retry(c *gin.Context) {
	sid, ok := uuidParam(c, "sid", "invalid_session_id")
	if !ok {
		return
	}
	res, err := h.generation.Retry(c.Request.Context(), sid, c.Param("step"))
	if err != nil {
		response.RespondAPIError(c, err, "retry_failed")
		return
	}
	response.RespondAccepted(c, gin.H{"generation": res})
}
