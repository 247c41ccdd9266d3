package capture

import (
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
)

// SetPromptResponse upserts the answer for (key, roomID). When question is empty the
// catalogue text is used, falling back to the key itself. The question is copied
// into the response so later catalogue edits do not change what was asked.
func (s *Session) SetPromptResponse(key, response string, roomID *uuid.UUID, question string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyPromptKey
	}
	question = strings.TrimSpace(question)
	if question == "" {
		if def, ok := s.catalog.Lookup(key); ok {
			question = def.Question
		} else {
			question = key
		}
	}
	return s.mutate(func() error {
		var rid *uuid.UUID
		if roomID != nil {
			if _, r := s.visit.RoomByID(*roomID); r == nil {
				return ErrRoomNotFound
			}
			v := *roomID
			rid = &v
		}
		resp := sitevisit.PromptResponse{
			PromptKey:      key,
			RoomID:         rid,
			PromptQuestion: question,
			Response:       response,
		}
		k := resp.Key()
		for i := range s.visit.Prompts {
			if s.visit.Prompts[i].Key() == k {
				s.visit.Prompts[i] = resp
				return nil
			}
		}
		s.visit.Prompts = append(s.visit.Prompts, resp)
		return nil
	})
}

func (s *Session) PromptResponse(key string, roomID *uuid.UUID) (sitevisit.PromptResponse, bool) {
	k := sitevisit.PromptKey(key, roomID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.visit.Prompts {
		if p.Key() == k {
			return p, true
		}
	}
	return sitevisit.PromptResponse{}, false
}
