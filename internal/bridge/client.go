// Package bridge forwards captured photos to the documentation system.
package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
}

type photoPayload struct {
	ID          uuid.UUID  `json:"id"`
	RoomID      *uuid.UUID `json:"room_id,omitempty"`
	URL         string     `json:"url"`
	Phase       string     `json:"phase"`
	Description string     `json:"description,omitempty"`
}

type forwardRequest struct {
	VisitID uuid.UUID      `json:"visit_id"`
	Photos  []photoPayload `json:"photos"`
}

type forwardResponse struct {
	Accepted int    `json:"accepted"`
	Message  string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type Client struct {
	log  *logger.Logger
	http *resty.Client
	on   bool
}

// NewClient returns a client that does nothing when BaseURL is empty.
func NewClient(cfg Config, baseLog *logger.Logger) *Client {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.RetryCount < 0 {
		cfg.RetryCount = 0
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	rc := resty.New().
		SetBaseURL(base).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		rc.SetAuthToken(cfg.APIKey)
	}
	return &Client{
		log:  baseLog.With("service", "DocumentationBridge"),
		http: rc,
		on:   base != "",
	}
}

func (c *Client) Enabled() bool { return c.on }

// ForwardPhotos posts the visit's photo set. The remote side must accept every photo;
// a partial acceptance is reported as an error so the step can be retried.
func (c *Client) ForwardPhotos(ctx context.Context, visitID uuid.UUID, photos []sitevisit.Photo) error {
	if !c.on {
		c.log.Debug("documentation bridge disabled, skipping", "photos", len(photos))
		return nil
	}
	req := forwardRequest{VisitID: visitID, Photos: make([]photoPayload, 0, len(photos))}
	for _, p := range photos {
		req.Photos = append(req.Photos, photoPayload{
			ID:          p.ID,
			RoomID:      p.RoomID,
			URL:         p.PhotoURL,
			Phase:       string(p.PhotoPhase),
			Description: p.Description,
		})
	}

	var out forwardResponse
	var fail errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("visitID", visitID.String()).
		SetBody(req).
		SetResult(&out).
		SetError(&fail).
		Post("/v1/visits/{visitID}/photos")
	if err != nil {
		return fmt.Errorf("documentation bridge request: %w", err)
	}
	if resp.IsError() {
		msg := strings.TrimSpace(fail.Message)
		if msg == "" {
			msg = strings.TrimSpace(fail.Error)
		}
		if msg == "" {
			msg = resp.Status()
		}
		c.log.Warn("documentation bridge rejected photos", "status", resp.StatusCode(), "message", msg)
		return fmt.Errorf("documentation bridge returned %d: %s", resp.StatusCode(), msg)
	}
	if out.Accepted > 0 && out.Accepted < len(photos) {
		return fmt.Errorf("documentation bridge accepted %d of %d photos", out.Accepted, len(photos))
	}
	c.log.Info("photos forwarded to documentation", "photos", len(photos))
	return nil
}
