package capture

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
)

const DefaultUnit = "each"

type NewItem struct {
	ItemType        string
	ItemDescription string
	Quantity        int
	Unit            string
	Notes           string
}

// ItemPatch fields left nil are unchanged.
type ItemPatch struct {
	ItemType        *string
	ItemDescription *string
	Quantity        *int
	Unit            *string
	Notes           *string
}

// addQuantity saturates instead of wrapping.
func addQuantity(q, delta int) int {
	switch {
	case delta > 0 && q > math.MaxInt-delta:
		return math.MaxInt
	case delta < 0 && q < math.MinInt-delta:
		return math.MinInt
	}
	return q + delta
}

func clampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// AddItem appends an item to roomID. A missing room is an error, never a dangling item.
func (s *Session) AddItem(roomID uuid.UUID, in NewItem) (uuid.UUID, error) {
	id := uuid.New()
	err := s.mutate(func() error {
		_, r := s.visit.RoomByID(roomID)
		if r == nil {
			return ErrRoomNotFound
		}
		unit := strings.TrimSpace(in.Unit)
		if unit == "" {
			unit = DefaultUnit
		}
		r.Items = append(r.Items, sitevisit.Item{
			ID:              id,
			RoomID:          roomID,
			ItemType:        strings.TrimSpace(in.ItemType),
			ItemDescription: strings.TrimSpace(in.ItemDescription),
			Quantity:        clampQuantity(in.Quantity),
			Unit:            unit,
			Notes:           in.Notes,
		})
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *Session) UpdateItem(itemID uuid.UUID, p ItemPatch) error {
	return s.mutate(func() error {
		it := s.findItemLocked(itemID)
		if it == nil {
			return ErrItemNotFound
		}
		if p.ItemType != nil {
			it.ItemType = strings.TrimSpace(*p.ItemType)
		}
		if p.ItemDescription != nil {
			it.ItemDescription = strings.TrimSpace(*p.ItemDescription)
		}
		if p.Quantity != nil {
			it.Quantity = clampQuantity(*p.Quantity)
		}
		if p.Unit != nil {
			if u := strings.TrimSpace(*p.Unit); u != "" {
				it.Unit = u
			}
		}
		if p.Notes != nil {
			it.Notes = *p.Notes
		}
		return nil
	})
}

// StepQuantity moves quantity by delta, as the UI stepper does; it stops at 1.
func (s *Session) StepQuantity(itemID uuid.UUID, delta int) (int, error) {
	var q int
	err := s.mutate(func() error {
		it := s.findItemLocked(itemID)
		if it == nil {
			return ErrItemNotFound
		}
		it.Quantity = clampQuantity(addQuantity(it.Quantity, delta))
		q = it.Quantity
		return nil
	})
	return q, err
}

func (s *Session) RemoveItem(roomID, itemID uuid.UUID) error {
	return s.mutate(func() error {
		_, r := s.visit.RoomByID(roomID)
		if r == nil {
			return ErrRoomNotFound
		}
		for i := range r.Items {
			if r.Items[i].ID == itemID {
				r.Items = append(r.Items[:i], r.Items[i+1:]...)
				return nil
			}
		}
		return ErrItemNotFound
	})
}

func (s *Session) findItemLocked(itemID uuid.UUID) *sitevisit.Item {
	for i := range s.visit.Rooms {
		for j := range s.visit.Rooms[i].Items {
			if s.visit.Rooms[i].Items[j].ID == itemID {
				return &s.visit.Rooms[i].Items[j]
			}
		}
	}
	return nil
}
