package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/capture"
	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/http/response"
	"github.com/yungbote/sitevisit-backend/internal/services"
)

// SessionHandler is the form surface: every request mutates the live aggregate of one
// capture session and answers with the resulting snapshot.
type SessionHandler struct {
	sessions services.CaptureService
}

func NewSessionHandler(sessions services.CaptureService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) live(c *gin.Context) (*capture.Session, bool) {
	sid, ok := uuidParam(c, "sid", "invalid_session_id")
	if !ok {
		return nil, false
	}
	cs, err := h.sessions.Get(sid)
	if err != nil {
		response.RespondAPIError(c, err, "session_lookup_failed")
		return nil, false
	}
	return cs.Session(), true
}

func respondSnapshot(c *gin.Context, sess *capture.Session, extra gin.H) {
	out := gin.H{"snapshot": sess.Snapshot(), "step": capture.StepName(sess.CurrentStep())}
	for k, v := range extra {
		out[k] = v
	}
	response.RespondOK(c, out)
}

// POST /api/site-visits/sessions
func (h *SessionHandler) Open(c *gin.Context) {
	var req struct {
		VisitID *uuid.UUID `json:"visit_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.sessions.Open(c.Request.Context(), req.VisitID)
	if err != nil {
		response.RespondAPIError(c, err, "open_session_failed")
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GET /api/site-visits/sessions/:sid
func (h *SessionHandler) Get(c *gin.Context) {
	sid, ok := uuidParam(c, "sid", "invalid_session_id")
	if !ok {
		return
	}
	cs, err := h.sessions.Get(sid)
	if err != nil {
		response.RespondAPIError(c, err, "session_lookup_failed")
		return
	}
	respondSnapshot(c, cs.Session(), gin.H{"recoverable": cs.RecoveryPending()})
}

// POST /api/site-visits/sessions/:sid/recover
func (h *SessionHandler) Recover(c *gin.Context) {
	sid, ok := uuidParam(c, "sid", "invalid_session_id")
	if !ok {
		return
	}
	snap, err := h.sessions.Recover(c.Request.Context(), sid)
	if err != nil {
		response.RespondAPIError(c, err, "recover_failed")
		return
	}
	response.RespondOK(c, gin.H{"snapshot": snap})
}

// POST /api/site-visits/sessions/:sid/discard
func (h *SessionHandler) Discard(c *gin.Context) {
	sid, ok := uuidParam(c, "sid", "invalid_session_id")
	if !ok {
		return
	}
	snap, err := h.sessions.Discard(c.Request.Context(), sid)
	if err != nil {
		response.RespondAPIError(c, err, "discard_failed")
		return
	}
	response.RespondOK(c, gin.H{"snapshot": snap})
}

// DELETE /api/site-visits/sessions/:sid
func (h *SessionHandler) Close(c *gin.Context) {
	sid, ok := uuidParam(c, "sid", "invalid_session_id")
	if !ok {
		return
	}
	if err := h.sessions.Close(c.Request.Context(), sid); err != nil {
		response.RespondAPIError(c, err, "close_failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/site-visits/sessions/:sid/rooms
func (h *SessionHandler) AddRoom(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	var req struct {
		RoomType string `json:"room_type" binding:"required"`
		RoomName string `json:"room_name"`
	}
	if !bindJSON(c, &req) {
		return
	}
	id := sess.AddRoom(req.RoomType, req.RoomName)
	respondSnapshot(c, sess, gin.H{"room_id": id})
}

// DELETE /api/site-visits/sessions/:sid/rooms/:roomId
func (h *SessionHandler) RemoveRoom(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	roomID, ok := uuidParam(c, "roomId", "invalid_room_id")
	if !ok {
		return
	}
	if err := sess.RemoveRoom(roomID); err != nil {
		respondCaptureError(c, err)
		return
	}
	respondSnapshot(c, sess, nil)
}

// PUT /api/site-visits/sessions/:sid/rooms/order
func (h *SessionHandler) ReorderRooms(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	var req struct {
		RoomIDs []uuid.UUID `json:"room_ids"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := sess.ReorderRooms(req.RoomIDs); err != nil {
		respondCaptureError(c, err)
		return
	}
	respondSnapshot(c, sess, nil)
}

// PATCH /api/site-visits/sessions/:sid/rooms/:roomId
func (h *SessionHandler) UpdateRoom(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	roomID, ok := uuidParam(c, "roomId", "invalid_room_id")
	if !ok {
		return
	}
	var req struct {
		RoomName *string `json:"room_name"`
		Notes    *string `json:"notes"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := sess.UpdateRoom(roomID, capture.RoomPatch{RoomName: req.RoomName, Notes: req.Notes}); err != nil {
		respondCaptureError(c, err)
		return
	}
	respondSnapshot(c, sess, nil)
}

// PUT /api/site-visits/sessions/:sid/rooms/active
func (h *SessionHandler) SetActiveRoom(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	var req struct {
		RoomID *uuid.UUID `json:"room_id"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := sess.SetActiveRoom(req.RoomID); err != nil {
		respondCaptureError(c, err)
		return
	}
	respondSnapshot(c, sess, nil)
}

// POST /api/site-visits/sessions/:sid/rooms/:roomId/items
func (h *SessionHandler) AddItem(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	roomID, ok := uuidParam(c, "roomId", "invalid_room_id")
	if !ok {
		return
	}
	var req struct {
		ItemType        string `json:"item_type" binding:"required"`
		ItemDescription string `json:"item_description"`
		Quantity        int    `json:"quantity"`
		Unit            string `json:"unit"`
		Notes           string `json:"notes"`
	}
	if !bindJSON(c, &req) {
		return
	}
	id, err := sess.AddItem(roomID, capture.NewItem{
		ItemType:        req.ItemType,
		ItemDescription: req.ItemDescription,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		Notes:           req.Notes,
	})
	if err != nil {
		respondCaptureError(c, err)
		return
	}
	respondSnapshot(c, sess, gin.H{"item_id": id})
}

// PATCH /api/site-visits/sessions/:sid/items/:itemId
func (h *SessionHandler) UpdateItem(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "itemId", "invalid_item_id")
	if !ok {
		return
	}
	var req struct {
		ItemType        *string `json:"item_type"`
		ItemDescription *string `json:"item_description"`
		Quantity        *int    `json:"quantity"`
		Unit            *string `json:"unit"`
		Notes           *string `json:"notes"`
	}
	if !bindJSON(c, &req) {
		return
	}
	err := sess.UpdateItem(itemID, capture.ItemPatch{
		ItemType:        req.ItemType,
		ItemDescription: req.ItemDescription,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		Notes:           req.Notes,
	})
	if err != nil {
		respondCaptureError(c, err)
		return
	}
	respondSnapshot(c, sess, nil)
}

// POST /api/site-visits/sessions/:sid/items/:itemId/step
func (h *SessionHandler) StepQuantity(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "itemId", "invalid_item_id")
	if !ok {
		return
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if !bindJSON(c, &req) {
		return
	}
	q, err := sess.StepQuantity(itemID, req.Delta)
	if err != nil {
		respondCaptureError(c, err)
		return
	}
	respondSnapshot(c, sess, gin.H{"quantity": q})
}

// DELETE /api/site-visits/sessions/:sid/rooms/:roomId/items/:itemId
func (h *SessionHandler) RemoveItem(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	roomID, ok := uuidParam(c, "roomId", "invalid_room_id")
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "itemId", "invalid_item_id")
	if !ok {
		return
	}
	if err := sess.RemoveItem(roomID, itemID); err != nil {
		respondCaptureError(c, err)
		return
	}
	respondSnapshot(c, sess, nil)
}

// POST /api/site-visits/sessions/:sid/photos
func (h *SessionHandler) AddPhoto(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	var req struct {
		RoomID      *uuid.UUID `json:"room_id"`
		PhotoURL    string     `json:"photo_url" binding:"required"`
		PhotoPhase  string     `json:"photo_phase"`
		Description string     `json:"description"`
	}
	if !bindJSON(c, &req) {
		return
	}
	id, err := sess.AddPhoto(capture.NewPhoto{
		RoomID:      req.RoomID,
		PhotoURL:    req.PhotoURL,
		PhotoPhase:  sitevisit.PhotoPhase(req.PhotoPhase),
		Description: req.Description,
	})
	if err != nil {
		respondCaptureError(c, err)
		return
	}
	respondSnapshot(c, sess, gin.H{"photo_id": id})
}

// DELETE /api/site-visits/sessions/:sid/photos/:photoId
func (h *SessionHandler) RemovePhoto(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	photoID, ok := uuidParam(c, "photoId", "invalid_photo_id")
	if !ok {
		return
	}
	if err := sess.RemovePhoto(photoID); err != nil {
		respondCaptureError(c, err)
		return
	}
	respondSnapshot(c, sess, nil)
}

// PUT /api/site-visits/sessions/:sid/photos/:photoId/url
func (h *SessionHandler) UpdatePhotoURL(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	photoID, ok := uuidParam(c, "photoId", "invalid_photo_id")
	if !ok {
		return
	}
	var req struct {
		PhotoURL string `json:"photo_url" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := sess.UpdatePhotoURL(photoID, req.PhotoURL); err != nil {
		respondCaptureError(c, err)
		return
	}
	respondSnapshot(c, sess, nil)
}

// PUT /api/site-visits/sessions/:sid/prompts
func (h *SessionHandler) SetPrompt(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	var req struct {
		PromptKey      string     `json:"prompt_key" binding:"required"`
		Response       string     `json:"response"`
		RoomID         *uuid.UUID `json:"room_id"`
		PromptQuestion string     `json:"prompt_question"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := sess.SetPromptResponse(req.PromptKey, req.Response, req.RoomID, req.PromptQuestion); err != nil {
		respondCaptureError(c, err)
		return
	}
	respondSnapshot(c, sess, nil)
}

// GET /api/site-visits/sessions/:sid/prompts
func (h *SessionHandler) Prompts(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	response.RespondOK(c, gin.H{"prompts": sess.Catalog().Definitions()})
}

// PATCH /api/site-visits/sessions/:sid/client
func (h *SessionHandler) UpdateClient(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	var req struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
		Phone *string `json:"phone"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := sess.UpdateClient(capture.ClientPatch{Name: req.Name, Email: req.Email, Phone: req.Phone}); err != nil {
		respondCaptureError(c, err)
		return
	}
	respondSnapshot(c, sess, nil)
}

// PATCH /api/site-visits/sessions/:sid/property
func (h *SessionHandler) UpdateProperty(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	var req struct {
		Address      *string `json:"address"`
		Postcode     *string `json:"postcode"`
		PropertyType *string `json:"property_type"`
		AccessNotes  *string `json:"access_notes"`
	}
	if !bindJSON(c, &req) {
		return
	}
	err := sess.UpdateProperty(capture.PropertyPatch{
		Address:      req.Address,
		Postcode:     req.Postcode,
		PropertyType: req.PropertyType,
		AccessNotes:  req.AccessNotes,
	})
	if err != nil {
		respondCaptureError(c, err)
		return
	}
	respondSnapshot(c, sess, nil)
}

// PUT /api/site-visits/sessions/:sid/step
func (h *SessionHandler) SetStep(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	var req struct {
		Step int `json:"step"`
	}
	if !bindJSON(c, &req) {
		return
	}
	sess.SetStep(req.Step)
	respondSnapshot(c, sess, nil)
}

// POST /api/site-visits/sessions/:sid/step/next
func (h *SessionHandler) NextStep(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	sess.NextStep()
	respondSnapshot(c, sess, nil)
}

// POST /api/site-visits/sessions/:sid/step/prev
func (h *SessionHandler) PrevStep(c *gin.Context) {
	sess, ok := h.live(c)
	if !ok {
		return
	}
	sess.PrevStep()
	respondSnapshot(c, sess, nil)
}
