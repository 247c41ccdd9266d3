package checklist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

type Generator struct {
	log   *logger.Logger
	rules *RuleSet
	now   func() time.Time
}

func NewGenerator(rules *RuleSet, baseLog *logger.Logger) *Generator {
	if rules == nil {
		rules = DefaultRules()
	}
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Generator{log: baseLog.With("service", "ChecklistGenerator"), rules: rules, now: time.Now}
}

// Generate reads rooms and answers from the baseline, which is what the client signs,
// and property details from the visit.
func (g *Generator) Generate(_ context.Context, v *sitevisit.Visit, b *sitevisit.ScopeBaseline) (*sitevisit.PreStartChecklist, error) {
	if v == nil || v.ID == nil {
		return nil, fmt.Errorf("checklist: visit has no id")
	}
	if b == nil {
		return nil, fmt.Errorf("checklist: baseline is required")
	}
	out := &sitevisit.PreStartChecklist{VisitID: *v.ID, GeneratedAt: g.now().UTC()}
	seen := map[string]bool{}
	add := func(r Rule, label string, roomID *uuid.UUID) {
		key := label
		if roomID != nil {
			key += "|" + roomID.String()
		}
		if seen[key] {
			return
		}
		seen[key] = true
		item := sitevisit.ChecklistItem{Category: r.Category, Label: label, Required: r.Required}
		if roomID != nil {
			id := *roomID
			item.RoomID = &id
		}
		out.Items = append(out.Items, item)
	}

	propType := strings.ToLower(v.Property.PropertyType)
	for _, r := range g.rules.Rules {
		if r.Always {
			add(r, r.Label, nil)
			continue
		}
		if len(r.PropertyTypes) > 0 && !containsAny(propType, r.PropertyTypes) {
			continue
		}
		if !r.roomScoped() {
			switch {
			case r.PromptKey == "":
				if len(r.PropertyTypes) > 0 {
					add(r, r.Label, nil)
				}
			case r.PerRoom:
				for _, room := range b.Rooms {
					id := room.ID
					if promptMatches(b.Prompts, r, &id) {
						add(r, r.Label+" ("+room.RoomName+")", &id)
					}
				}
			case promptMatches(b.Prompts, r, nil):
				add(r, r.Label, nil)
			}
			continue
		}
		for _, room := range b.Rooms {
			if !roomMatches(room, r) {
				continue
			}
			if r.PromptKey != "" && !promptMatches(b.Prompts, r, &room.ID) {
				continue
			}
			if r.PerRoom {
				id := room.ID
				add(r, r.Label+" ("+room.RoomName+")", &id)
			} else {
				add(r, r.Label, nil)
			}
		}
	}
	g.log.Debug("checklist generated", "items", len(out.Items), "required", out.RequiredCount())
	return out, nil
}

func roomMatches(room sitevisit.Room, r Rule) bool {
	if len(r.RoomTypes) > 0 && !containsExact(strings.ToLower(room.RoomType), r.RoomTypes) {
		return false
	}
	if len(r.ItemKeywords) == 0 {
		return true
	}
	for _, it := range room.Items {
		text := strings.ToLower(it.ItemType + " " + it.ItemDescription)
		if containsAny(text, r.ItemKeywords) {
			return true
		}
	}
	return false
}

// promptMatches checks answers to r.PromptKey. With roomID nil any answer counts.
func promptMatches(prompts []sitevisit.PromptResponse, r Rule, roomID *uuid.UUID) bool {
	for _, p := range prompts {
		if p.PromptKey != r.PromptKey {
			continue
		}
		if roomID != nil && (p.RoomID == nil || *p.RoomID != *roomID) {
			continue
		}
		ans := strings.ToLower(strings.TrimSpace(p.Response))
		if len(r.PromptAnswers) == 0 && ans != "" {
			return true
		}
		for _, want := range r.PromptAnswers {
			if strings.HasPrefix(ans, want) {
				return true
			}
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func containsExact(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
