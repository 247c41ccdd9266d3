package sitevisit

import (
	"time"

	"github.com/google/uuid"
)

type ChecklistItem struct {
	Category string     `json:"category" yaml:"category"`
	Label    string     `json:"label" yaml:"label"`
	Required bool       `json:"required" yaml:"required"`
	RoomID   *uuid.UUID `json:"room_id,omitempty" yaml:"-"`
}

type PreStartChecklist struct {
	VisitID     uuid.UUID       `json:"visit_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Items       []ChecklistItem `json:"items"`
}

func (c *PreStartChecklist) RequiredCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, it := range c.Items {
		if it.Required {
			n++
		}
	}
	return n
}
