package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/capture"
	"github.com/yungbote/sitevisit-backend/internal/http/response"
)

func uuidParam(c *gin.Context, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

// respondCaptureError maps aggregate sentinels; a missing target is a 404, anything else a 400.
func respondCaptureError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, capture.ErrRoomNotFound):
		response.RespondError(c, http.StatusNotFound, "room_not_found", err)
	case errors.Is(err, capture.ErrItemNotFound):
		response.RespondError(c, http.StatusNotFound, "item_not_found", err)
	case errors.Is(err, capture.ErrPhotoNotFound):
		response.RespondError(c, http.StatusNotFound, "photo_not_found", err)
	default:
		response.RespondError(c, http.StatusBadRequest, "invalid_mutation", err)
	}
}
