package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sitevisit-backend/internal/http/response"
	"github.com/yungbote/sitevisit-backend/internal/sharing"
)

type ShareHandler struct {
	signoff sharing.SignOffService
}

func NewShareHandler(signoff sharing.SignOffService) *ShareHandler {
	return &ShareHandler{signoff: signoff}
}

func respondSharingError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, sharing.ErrInvalidToken):
		response.RespondError(c, http.StatusUnauthorized, "invalid_share_token", err)
	case errors.Is(err, sharing.ErrNoSecret):
		response.RespondError(c, http.StatusServiceUnavailable, "sharing_disabled", err)
	case errors.Is(err, sharing.ErrBaselineNotLocked):
		response.RespondError(c, http.StatusConflict, "baseline_not_locked", err)
	case errors.Is(err, sharing.ErrAlreadySigned):
		response.RespondError(c, http.StatusConflict, "already_signed", err)
	case errors.Is(err, sharing.ErrEmptySignature):
		response.RespondError(c, http.StatusBadRequest, "signature_required", err)
	default:
		response.RespondAPIError(c, err, fallback)
	}
}

// POST /api/site-visits/:id/share
func (h *ShareHandler) Share(c *gin.Context) {
	visitID, ok := uuidParam(c, "id", "invalid_visit_id")
	if !ok {
		return
	}
	link, err := h.signoff.Share(c.Request.Context(), visitID)
	if err != nil {
		respondSharingError(c, err, "share_failed")
		return
	}
	response.RespondOK(c, gin.H{"share": link})
}

// GET /api/share/:token
func (h *ShareHandler) Review(c *gin.Context) {
	rev, err := h.signoff.Review(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondSharingError(c, err, "review_failed")
		return
	}
	response.RespondOK(c, gin.H{"review": rev})
}

// POST /api/share/:token/sign
func (h *ShareHandler) Sign(c *gin.Context) {
	var req struct {
		SignerName string `json:"signer_name"`
		Signature  string `json:"signature"`
	}
	if !bindJSON(c, &req) {
		return
	}
	sig, err := h.signoff.Sign(c.Request.Context(), c.Param("token"), sharing.SignRequest{
		SignerName: req.SignerName,
		Signature:  req.Signature,
	})
	if err != nil {
		respondSharingError(c, err, "sign_failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"signature": sig})
}
