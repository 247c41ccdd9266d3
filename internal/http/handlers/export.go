package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/export"
	"github.com/yungbote/sitevisit-backend/internal/http/response"
)

// ScopeSource reads what a workbook is built from.
type ScopeSource interface {
	GetVisit(ctx context.Context, id uuid.UUID) (*sitevisit.Visit, error)
	GetBaseline(ctx context.Context, visitID uuid.UUID) (*sitevisit.ScopeBaseline, bool, error)
}

type ExportHandler struct {
	scopes ScopeSource
}

func NewExportHandler(scopes ScopeSource) *ExportHandler {
	return &ExportHandler{scopes: scopes}
}

// GET /api/site-visits/:id/baseline.xlsx
func (h *ExportHandler) BaselineWorkbook(c *gin.Context) {
	visitID, ok := uuidParam(c, "id", "invalid_visit_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	v, err := h.scopes.GetVisit(ctx, visitID)
	if err != nil {
		response.RespondAPIError(c, err, "visit_lookup_failed")
		return
	}
	b, locked, err := h.scopes.GetBaseline(ctx, visitID)
	if err != nil {
		response.RespondAPIError(c, err, "baseline_lookup_failed")
		return
	}
	if !locked {
		response.RespondError(c, http.StatusConflict, "baseline_not_locked", export.ErrNoBaseline)
		return
	}
	raw, err := export.BaselineWorkbook(b, v)
	if err != nil {
		response.RespondAPIError(c, err, "export_failed")
		return
	}
	filename := fmt.Sprintf("scope-%s.xlsx", visitID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentType, raw)
}
