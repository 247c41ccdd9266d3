package sitevisit

import (
	"time"

	"github.com/google/uuid"
)

// ScopeBaseline is the locked work-item snapshot a client signs against.
// Fields are exported for serialization only; nothing mutates a baseline after NewScopeBaseline.
type ScopeBaseline struct {
	VisitID  uuid.UUID        `json:"visit_id"`
	LockedAt time.Time        `json:"locked_at"`
	Rooms    []Room           `json:"rooms"`
	Prompts  []PromptResponse `json:"prompts"`
}

func NewScopeBaseline(visitID uuid.UUID, v *Visit, now time.Time) *ScopeBaseline {
	snap := v.Clone()
	if snap == nil {
		snap = NewVisit()
	}
	return &ScopeBaseline{
		VisitID:  visitID,
		LockedAt: now.UTC(),
		Rooms:    snap.Rooms,
		Prompts:  snap.Prompts,
	}
}

// Copy hands callers their own rooms/prompts so a shared baseline cannot be edited through them.
func (b *ScopeBaseline) Copy() *ScopeBaseline {
	if b == nil {
		return nil
	}
	out := *b
	out.Rooms = cloneRooms(b.Rooms)
	out.Prompts = clonePrompts(b.Prompts)
	return &out
}

func (b *ScopeBaseline) ItemCount() int {
	if b == nil {
		return 0
	}
	n := 0
	for _, r := range b.Rooms {
		n += len(r.Items)
	}
	return n
}
