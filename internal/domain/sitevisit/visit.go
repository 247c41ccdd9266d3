package sitevisit

import (
	"strings"

	"github.com/google/uuid"
)

// Status is the lifecycle of a visit: draft -> scope_sent -> signed -> completed.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScopeSent Status = "scope_sent"
	StatusSigned    Status = "signed"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusScopeSent, StatusSigned, StatusCompleted:
		return true
	default:
		return false
	}
}

type PhotoPhase string

const (
	PhaseBefore PhotoPhase = "before"
	PhaseAfter  PhotoPhase = "after"
)

const RoomTypeCustom = "custom"

type ClientDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type PropertyDetails struct {
	Address      string `json:"address"`
	Postcode     string `json:"postcode"`
	PropertyType string `json:"property_type"`
	AccessNotes  string `json:"access_notes,omitempty"`
}

type Item struct {
	ID              uuid.UUID `json:"id"`
	RoomID          uuid.UUID `json:"room_id"`
	ItemType        string    `json:"item_type"`
	ItemDescription string    `json:"item_description"`
	Quantity        int       `json:"quantity"`
	Unit            string    `json:"unit"`
	Notes           string    `json:"notes,omitempty"`
}

type Room struct {
	ID       uuid.UUID `json:"id"`
	RoomType string    `json:"room_type"`
	RoomName string    `json:"room_name"`
	Items    []Item    `json:"items"`
	Notes    string    `json:"notes,omitempty"`
}

type Photo struct {
	ID          uuid.UUID  `json:"id"`
	RoomID      *uuid.UUID `json:"room_id,omitempty"`
	PhotoURL    string     `json:"photo_url"`
	PhotoPhase  PhotoPhase `json:"photo_phase"`
	Description string     `json:"description,omitempty"`
}

// PromptResponse keeps the question text as it read when answered.
type PromptResponse struct {
	PromptKey      string     `json:"prompt_key"`
	RoomID         *uuid.UUID `json:"room_id,omitempty"`
	PromptQuestion string     `json:"prompt_question"`
	Response       string     `json:"response"`
}

func PromptKey(promptKey string, roomID *uuid.UUID) string {
	if roomID == nil {
		return strings.TrimSpace(promptKey) + "|"
	}
	return strings.TrimSpace(promptKey) + "|" + roomID.String()
}

func (p PromptResponse) Key() string { return PromptKey(p.PromptKey, p.RoomID) }

type Visit struct {
	ID             *uuid.UUID       `json:"id,omitempty"`
	CustomerID     *uuid.UUID       `json:"customer_id,omitempty"`
	Client         ClientDetails    `json:"client"`
	Property       PropertyDetails  `json:"property"`
	Rooms          []Room           `json:"rooms"`
	Photos         []Photo          `json:"photos"`
	Prompts        []PromptResponse `json:"prompts"`
	PhotoProjectID *uuid.UUID       `json:"photo_project_id,omitempty"`
	Status         Status           `json:"status"`
}

func NewVisit() *Visit {
	return &Visit{
		Rooms:   []Room{},
		Photos:  []Photo{},
		Prompts: []PromptResponse{},
		Status:  StatusDraft,
	}
}

func (v *Visit) RoomByID(id uuid.UUID) (int, *Room) {
	if v == nil {
		return -1, nil
	}
	for i := range v.Rooms {
		if v.Rooms[i].ID == id {
			return i, &v.Rooms[i]
		}
	}
	return -1, nil
}

func (v *Visit) ItemCount() int {
	if v == nil {
		return 0
	}
	n := 0
	for _, r := range v.Rooms {
		n += len(r.Items)
	}
	return n
}

// Clone returns a deep copy; nothing in the result aliases v.
func (v *Visit) Clone() *Visit {
	if v == nil {
		return nil
	}
	out := *v
	out.ID = cloneUUID(v.ID)
	out.CustomerID = cloneUUID(v.CustomerID)
	out.PhotoProjectID = cloneUUID(v.PhotoProjectID)
	out.Rooms = cloneRooms(v.Rooms)
	out.Photos = make([]Photo, len(v.Photos))
	for i, p := range v.Photos {
		p.RoomID = cloneUUID(p.RoomID)
		out.Photos[i] = p
	}
	out.Prompts = clonePrompts(v.Prompts)
	return &out
}

func cloneRooms(in []Room) []Room {
	out := make([]Room, len(in))
	for i, r := range in {
		r.Items = append([]Item{}, r.Items...)
		out[i] = r
	}
	return out
}

func clonePrompts(in []PromptResponse) []PromptResponse {
	out := make([]PromptResponse, len(in))
	for i, p := range in {
		p.RoomID = cloneUUID(p.RoomID)
		out[i] = p
	}
	return out
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
