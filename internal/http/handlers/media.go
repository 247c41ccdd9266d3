package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sitevisit-backend/internal/http/response"
	"github.com/yungbote/sitevisit-backend/internal/platform/localmedia"
)

const maxPhotoBytes = 25 << 20

type MediaHandler struct {
	store *localmedia.Store
}

func NewMediaHandler(store *localmedia.Store) *MediaHandler {
	return &MediaHandler{store: store}
}

// POST /api/media/photos
// The returned ref is device-local until the generation photos step publishes it.
func (h *MediaHandler) UploadPhoto(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_upload", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_upload", err)
		return
	}
	defer f.Close()

	ref, err := h.store.Save(fh.Filename, f)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "store_photo_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"photo_url": ref})
}
