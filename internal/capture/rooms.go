package capture

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
)

// AddRoom appends a room and returns its id, which is valid for follow-up
// mutations immediately.
func (s *Session) AddRoom(roomType, roomName string) uuid.UUID {
	id := uuid.New()
	roomType = strings.TrimSpace(roomType)
	if roomType == "" {
		roomType = sitevisit.RoomTypeCustom
	}
	roomName = strings.TrimSpace(roomName)
	_ = s.mutate(func() error {
		if roomName == "" {
			roomName = defaultRoomName(roomType, len(s.visit.Rooms)+1)
		}
		s.visit.Rooms = append(s.visit.Rooms, sitevisit.Room{
			ID:       id,
			RoomType: roomType,
			RoomName: roomName,
			Items:    []sitevisit.Item{},
		})
		return nil
	})
	return id
}

// RemoveRoom drops the room with its items, photos and room-level prompt answers.
func (s *Session) RemoveRoom(id uuid.UUID) error {
	return s.mutate(func() error {
		idx, _ := s.visit.RoomByID(id)
		if idx < 0 {
			return ErrRoomNotFound
		}
		s.visit.Rooms = append(s.visit.Rooms[:idx], s.visit.Rooms[idx+1:]...)

		photos := s.visit.Photos[:0]
		for _, p := range s.visit.Photos {
			if p.RoomID != nil && *p.RoomID == id {
				continue
			}
			photos = append(photos, p)
		}
		s.visit.Photos = photos

		prompts := s.visit.Prompts[:0]
		for _, p := range s.visit.Prompts {
			if p.RoomID != nil && *p.RoomID == id {
				continue
			}
			prompts = append(prompts, p)
		}
		s.visit.Prompts = prompts

		if s.activeRoomID != nil && *s.activeRoomID == id {
			s.activeRoomID = nil
		}
		return nil
	})
}

// SetActiveRoom selects the room later item/prompt mutations target; nil clears it.
func (s *Session) SetActiveRoom(id *uuid.UUID) error {
	return s.mutate(func() error {
		if id == nil {
			s.activeRoomID = nil
			return nil
		}
		if _, r := s.visit.RoomByID(*id); r == nil {
			return ErrRoomNotFound
		}
		v := *id
		s.activeRoomID = &v
		return nil
	})
}

func (s *Session) ActiveRoomID() *uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeRoomID == nil {
		return nil
	}
	id := *s.activeRoomID
	return &id
}

// ActiveRoom returns a copy of the selected room.
func (s *Session) ActiveRoom() (sitevisit.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeRoomID == nil {
		return sitevisit.Room{}, false
	}
	_, r := s.visit.RoomByID(*s.activeRoomID)
	if r == nil {
		return sitevisit.Room{}, false
	}
	out := *r
	out.Items = append([]sitevisit.Item{}, r.Items...)
	return out, true
}

// Rooms returns copies of the rooms in display order.
func (s *Session) Rooms() []sitevisit.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visit.Clone().Rooms
}

// ReorderRooms permutes rooms to follow orderedIDs. Unknown and repeated ids are
// ignored; rooms left out keep their relative order after the listed ones.
func (s *Session) ReorderRooms(orderedIDs []uuid.UUID) error {
	return s.mutate(func() error {
		byID := make(map[uuid.UUID]sitevisit.Room, len(s.visit.Rooms))
		for _, r := range s.visit.Rooms {
			byID[r.ID] = r
		}
		out := make([]sitevisit.Room, 0, len(s.visit.Rooms))
		placed := make(map[uuid.UUID]bool, len(s.visit.Rooms))
		for _, id := range orderedIDs {
			r, ok := byID[id]
			if !ok || placed[id] {
				continue
			}
			placed[id] = true
			out = append(out, r)
		}
		for _, r := range s.visit.Rooms {
			if !placed[r.ID] {
				out = append(out, r)
			}
		}
		s.visit.Rooms = out
		return nil
	})
}

func (s *Session) UpdateRoomNotes(roomID uuid.UUID, notes string) error {
	return s.UpdateRoom(roomID, RoomPatch{Notes: &notes})
}

// RoomPatch carries the room fields a caller wants to change. Nil fields are left alone.
type RoomPatch struct {
	RoomName *string
	Notes    *string
}

// UpdateRoom applies p as one mutation. A blank name keeps the current one.
func (s *Session) UpdateRoom(roomID uuid.UUID, p RoomPatch) error {
	return s.mutate(func() error {
		_, r := s.visit.RoomByID(roomID)
		if r == nil {
			return ErrRoomNotFound
		}
		if p.RoomName != nil {
			if name := strings.TrimSpace(*p.RoomName); name != "" {
				r.RoomName = name
			}
		}
		if p.Notes != nil {
			r.Notes = *p.Notes
		}
		return nil
	})
}

func defaultRoomName(roomType string, n int) string {
	label := strings.ReplaceAll(roomType, "_", " ")
	if label == "" || roomType == sitevisit.RoomTypeCustom {
		label = "room"
	}
	return strings.ToUpper(label[:1]) + label[1:] + " " + strconv.Itoa(n)
}
