package capture

import (
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
)

type NewPhoto struct {
	RoomID      *uuid.UUID
	PhotoURL    string
	PhotoPhase  sitevisit.PhotoPhase
	Description string
}

func (s *Session) AddPhoto(in NewPhoto) (uuid.UUID, error) {
	url := strings.TrimSpace(in.PhotoURL)
	if url == "" {
		return uuid.Nil, ErrEmptyPhotoURL
	}
	phase := in.PhotoPhase
	if phase == "" {
		phase = sitevisit.PhaseBefore
	}
	if phase != sitevisit.PhaseBefore && phase != sitevisit.PhaseAfter {
		return uuid.Nil, ErrInvalidPhotoPhase
	}
	id := uuid.New()
	err := s.mutate(func() error {
		var roomID *uuid.UUID
		if in.RoomID != nil {
			if _, r := s.visit.RoomByID(*in.RoomID); r == nil {
				return ErrRoomNotFound
			}
			v := *in.RoomID
			roomID = &v
		}
		s.visit.Photos = append(s.visit.Photos, sitevisit.Photo{
			ID:          id,
			RoomID:      roomID,
			PhotoURL:    url,
			PhotoPhase:  phase,
			Description: in.Description,
		})
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *Session) RemovePhoto(id uuid.UUID) error {
	return s.mutate(func() error {
		for i := range s.visit.Photos {
			if s.visit.Photos[i].ID == id {
				s.visit.Photos = append(s.visit.Photos[:i], s.visit.Photos[i+1:]...)
				return nil
			}
		}
		return ErrPhotoNotFound
	})
}

// UpdatePhotoURL is the explicit user overwrite used after annotating a photo.
func (s *Session) UpdatePhotoURL(id uuid.UUID, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrEmptyPhotoURL
	}
	return s.mutate(func() error {
		for i := range s.visit.Photos {
			if s.visit.Photos[i].ID == id {
				s.visit.Photos[i].PhotoURL = url
				return nil
			}
		}
		return ErrPhotoNotFound
	})
}
