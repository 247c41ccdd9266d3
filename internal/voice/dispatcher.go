// Package voice maps tool calls issued by a remote voice agent onto the capture
// session. Replies are plain sentences because the far end is a language model.
package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/capture"
	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

const (
	ToolAddRoom      = "add_room"
	ToolAddItem      = "add_item"
	ToolSetRoom      = "set_room"
	ToolAnswerPrompt = "answer_prompt"
	ToolFlagIssue    = "flag_issue"
	ToolListRooms    = "list_rooms"
)

type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolDefinition is advertised to the agent when the session starts.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type handler func(ctx context.Context, sess *capture.Session, call ToolCall) string

type tool struct {
	def    ToolDefinition
	handle handler
}

// Dispatcher resolves the live session from its holder on every call. Handlers never
// keep a session or room id between calls.
type Dispatcher struct {
	log     *logger.Logger
	holder  *capture.Holder
	actions *ActionLog
	tools   map[string]tool
	order   []string
}

func NewDispatcher(holder *capture.Holder, actions *ActionLog, baseLog *logger.Logger) *Dispatcher {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	if actions == nil {
		actions = NewActionLog()
	}
	d := &Dispatcher{
		log:     baseLog.With("component", "VoiceDispatcher"),
		holder:  holder,
		actions: actions,
		tools:   map[string]tool{},
	}
	d.register(addRoomDef(), d.addRoom)
	d.register(addItemDef(), d.addItem)
	d.register(setRoomDef(), d.setRoom)
	d.register(answerPromptDef(), d.answerPrompt)
	d.register(flagIssueDef(), d.flagIssue)
	d.register(listRoomsDef(), d.listRooms)
	return d
}

func (d *Dispatcher) register(def ToolDefinition, h handler) {
	d.tools[def.Name] = tool{def: def, handle: h}
	d.order = append(d.order, def.Name)
}

func (d *Dispatcher) Definitions() []ToolDefinition {
	out := make([]ToolDefinition, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.tools[name].def)
	}
	return out
}

func (d *Dispatcher) Actions() *ActionLog { return d.actions }

// Dispatch runs one tool call and returns the sentence sent back to the agent.
func (d *Dispatcher) Dispatch(ctx context.Context, call ToolCall) string {
	out := d.dispatch(ctx, call)
	d.actions.Append(Entry{
		Kind:      EntryToolCall,
		CallID:    call.ID,
		Tool:      call.Name,
		Arguments: string(call.Arguments),
		Result:    out,
	})
	return out
}

func (d *Dispatcher) dispatch(ctx context.Context, call ToolCall) (out string) {
	t, ok := d.tools[call.Name]
	if !ok {
		return fmt.Sprintf("Unknown tool %q. Available tools: %s.", call.Name, strings.Join(d.order, ", "))
	}
	sess := d.holder.Current()
	if sess == nil {
		return "No site visit is open, so nothing was recorded."
	}
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("voice tool panicked", "tool", call.Name, "panic", r)
			out = "Something went wrong recording that. Please repeat it."
		}
	}()
	return t.handle(ctx, sess, call)
}

func decodeArgs(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	// Some agents send arguments as a JSON-encoded string.
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		raw = json.RawMessage(asString)
	}
	return json.Unmarshal(raw, dst)
}

func badArgs(tool string, err error) string {
	return fmt.Sprintf("I could not read the arguments for %s (%v). Please try again.", tool, err)
}

type addRoomArgs struct {
	Room     string `json:"room"`
	RoomName string `json:"room_name"`
	RoomType string `json:"room_type"`
}

func (d *Dispatcher) addRoom(_ context.Context, sess *capture.Session, call ToolCall) string {
	var args addRoomArgs
	if err := decodeArgs(call.Arguments, &args); err != nil {
		return badArgs(call.Name, err)
	}
	spoken := firstNonEmpty(args.Room, args.RoomName, args.RoomType)
	if spoken == "" {
		return "Which room should I add?"
	}
	typ, label := matchRoomType(spoken)
	label = uniqueRoomName(sess.Rooms(), label)
	id := sess.AddRoom(typ, label)
	if err := sess.SetActiveRoom(&id); err != nil {
		return fmt.Sprintf("Added %s, but could not select it: %v.", label, err)
	}
	return fmt.Sprintf("Added %s (room id %s). It is now the selected room.", label, id)
}

type addItemArgs struct {
	Description string          `json:"description"`
	ItemType    string          `json:"item_type"`
	Quantity    json.RawMessage `json:"quantity"`
	Unit        string          `json:"unit"`
	Notes       string          `json:"notes"`
}

func (d *Dispatcher) addItem(_ context.Context, sess *capture.Session, call ToolCall) string {
	var args addItemArgs
	if err := decodeArgs(call.Arguments, &args); err != nil {
		return badArgs(call.Name, err)
	}
	desc := strings.TrimSpace(args.Description)
	if desc == "" && strings.TrimSpace(args.ItemType) == "" {
		return "What is the item? I need a description to add it."
	}
	room, ok := sess.ActiveRoom()
	if !ok {
		return "No room selected. Ask which room this item is in, then call set_room or add_room before adding it."
	}
	qty := parseQuantity(args.Quantity)
	itemType := firstNonEmpty(args.ItemType, desc)
	_, err := sess.AddItem(room.ID, capture.NewItem{
		ItemType:        itemType,
		ItemDescription: desc,
		Quantity:        qty,
		Unit:            args.Unit,
		Notes:           args.Notes,
	})
	if errors.Is(err, capture.ErrRoomNotFound) {
		return fmt.Sprintf("%s no longer exists. Ask which room this item is in.", room.RoomName)
	}
	if err != nil {
		return fmt.Sprintf("Could not add the item: %v.", err)
	}
	unit := strings.TrimSpace(args.Unit)
	if unit == "" {
		unit = capture.DefaultUnit
	}
	if qty < 1 {
		qty = 1
	}
	return fmt.Sprintf("Added %d %s of %s to %s.", qty, unit, firstNonEmpty(desc, itemType), room.RoomName)
}

type setRoomArgs struct {
	Room     string `json:"room"`
	RoomName string `json:"room_name"`
}

func (d *Dispatcher) setRoom(_ context.Context, sess *capture.Session, call ToolCall) string {
	var args setRoomArgs
	if err := decodeArgs(call.Arguments, &args); err != nil {
		return badArgs(call.Name, err)
	}
	target := firstNonEmpty(args.Room, args.RoomName)
	rooms := sess.Rooms()
	if len(rooms) == 0 {
		return "There are no rooms yet. Use add_room first."
	}
	if target == "" {
		return "Which room? The rooms are: " + roomNames(rooms) + "."
	}
	matches := matchRooms(rooms, target)
	switch len(matches) {
	case 1:
		id := matches[0].ID
		if err := sess.SetActiveRoom(&id); err != nil {
			return fmt.Sprintf("Could not select %s: %v.", matches[0].RoomName, err)
		}
		return fmt.Sprintf("Selected %s.", matches[0].RoomName)
	case 0:
		return fmt.Sprintf("No room matches %q. The rooms are: %s. Ask which one was meant.", target, roomNames(rooms))
	default:
		return fmt.Sprintf("%q matches more than one room: %s. Ask which one was meant.", target, roomNames(matches))
	}
}

// matchRooms is a case-insensitive substring match in both directions. An exact name
// match wins over partial ones.
func matchRooms(rooms []sitevisit.Room, target string) []sitevisit.Room {
	t := normalize(target)
	var exact, partial []sitevisit.Room
	for _, r := range rooms {
		name := normalize(r.RoomName)
		switch {
		case name == t:
			exact = append(exact, r)
		case name != "" && (strings.Contains(name, t) || strings.Contains(t, name)):
			partial = append(partial, r)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	return partial
}

type answerPromptArgs struct {
	PromptKey string `json:"prompt_key"`
	Key       string `json:"key"`
	Response  string `json:"response"`
	Answer    string `json:"answer"`
}

func (d *Dispatcher) answerPrompt(_ context.Context, sess *capture.Session, call ToolCall) string {
	var args answerPromptArgs
	if err := decodeArgs(call.Arguments, &args); err != nil {
		return badArgs(call.Name, err)
	}
	key := firstNonEmpty(args.PromptKey, args.Key)
	if key == "" {
		return "Which question is this an answer to? I need the prompt key."
	}
	response := firstNonEmpty(args.Response, args.Answer)
	room, inRoom := sess.ActiveRoom()
	var roomID *uuid.UUID
	if inRoom {
		roomID = &room.ID
	}
	if err := sess.SetPromptResponse(key, response, roomID, ""); err != nil {
		return fmt.Sprintf("Could not record that answer: %v.", err)
	}
	if inRoom {
		return fmt.Sprintf("Recorded the answer to %s for %s.", key, room.RoomName)
	}
	return fmt.Sprintf("Recorded the answer to %s for the property.", key)
}

type flagIssueArgs struct {
	Issue    string `json:"issue"`
	Severity string `json:"severity"`
}

// flagIssue only writes to the action log; issues are not scope items.
func (d *Dispatcher) flagIssue(_ context.Context, _ *capture.Session, call ToolCall) string {
	var args flagIssueArgs
	if err := decodeArgs(call.Arguments, &args); err != nil {
		return badArgs(call.Name, err)
	}
	issue := strings.TrimSpace(args.Issue)
	if issue == "" {
		return "What is the issue? I need a short description to flag it."
	}
	sev := normalizeSeverity(args.Severity)
	d.actions.Append(Entry{Kind: EntryIssue, CallID: call.ID, Tool: call.Name, Issue: issue, Severity: sev})
	return fmt.Sprintf("Flagged a %s severity issue for the technician to review: %s.", sev, issue)
}

func (d *Dispatcher) listRooms(_ context.Context, sess *capture.Session, _ ToolCall) string {
	rooms := sess.Rooms()
	if len(rooms) == 0 {
		return "There are no rooms yet."
	}
	active := sess.ActiveRoomID()
	parts := make([]string, 0, len(rooms))
	for _, r := range rooms {
		p := fmt.Sprintf("%s (%d items)", r.RoomName, len(r.Items))
		if active != nil && *active == r.ID {
			p += " [selected]"
		}
		parts = append(parts, p)
	}
	return "Rooms: " + strings.Join(parts, ", ") + "."
}

func normalizeSeverity(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "minor":
		return "low"
	case "high", "critical", "urgent", "severe":
		return "high"
	default:
		return "medium"
	}
}

// parseQuantity accepts a number or a numeric string; anything else means 1.
func parseQuantity(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 1
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return 1
}

func uniqueRoomName(rooms []sitevisit.Room, label string) string {
	taken := map[string]bool{}
	for _, r := range rooms {
		taken[normalize(r.RoomName)] = true
	}
	if label == "" || !taken[normalize(label)] {
		return label
	}
	for n := 2; ; n++ {
		candidate := label + " " + strconv.Itoa(n)
		if !taken[normalize(candidate)] {
			return candidate
		}
	}
}

func roomNames(rooms []sitevisit.Room) string {
	names := make([]string, 0, len(rooms))
	for _, r := range rooms {
		names = append(names, r.RoomName)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
