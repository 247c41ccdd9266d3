package realtime

import (
	"context"

	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

// Fanout publishes beyond this process. A nil Fanout keeps delivery local.
type Fanout interface {
	Publish(ctx context.Context, msg SSEMessage) error
}

type Publisher struct {
	hub    *SSEHub
	fanout Fanout
	log    *logger.Logger
}

func NewPublisher(hub *SSEHub, fanout Fanout, baseLog *logger.Logger) *Publisher {
	return &Publisher{hub: hub, fanout: fanout, log: baseLog.With("component", "SSEPublisher")}
}

// Publish sends through the fanout when configured (its forwarder feeds the hub) and falls back
// to the local hub when the fanout fails.
func (p *Publisher) Publish(ctx context.Context, msg SSEMessage) {
	if p == nil {
		return
	}
	if p.fanout != nil {
		err := p.fanout.Publish(ctx, msg)
		if err == nil {
			return
		}
		p.log.Warn("SSE fanout publish failed; delivering locally", "channel", msg.Channel, "error", err)
	}
	p.hub.Broadcast(msg)
}
