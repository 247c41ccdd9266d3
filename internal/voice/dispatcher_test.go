package voice

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/yungbote/sitevisit-backend/internal/capture"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *capture.Holder) {
	t.Helper()
	h := capture.NewHolder(capture.NewSession(nil))
	return NewDispatcher(h, NewActionLog(), nil), h
}

func call(name string, args any) ToolCall {
	raw, _ := json.Marshal(args)
	return ToolCall{ID: "call-" + name, Name: name, Arguments: raw}
}

func TestAddItemWithoutActiveRoomIsRejected(t *testing.T) {
	d, h := newTestDispatcher(t)
	h.Current().AddRoom("kitchen", "Kitchen")
	before := h.Current().Visit()

	out := d.Dispatch(context.Background(), call(ToolAddItem, map[string]any{"description": "double socket", "quantity": 2}))
	if !strings.Contains(out, "No room selected") {
		t.Fatalf("unexpected reply: %q", out)
	}
	after := h.Current().Visit()
	if len(after.Rooms) != len(before.Rooms) || after.ItemCount() != before.ItemCount() {
		t.Fatalf("visit mutated: rooms %d->%d items %d->%d", len(before.Rooms), len(after.Rooms), before.ItemCount(), after.ItemCount())
	}
}

func TestSetRoomSubstringMatch(t *testing.T) {
	d, h := newTestDispatcher(t)
	kitchen := h.Current().AddRoom("kitchen", "Kitchen")
	h.Current().AddRoom("bathroom", "Bathroom")

	out := d.Dispatch(context.Background(), call(ToolSetRoom, map[string]string{"room": "kitch"}))
	if out != "Selected Kitchen." {
		t.Fatalf("reply: got=%q", out)
	}
	if id := h.Current().ActiveRoomID(); id == nil || *id != kitchen {
		t.Fatalf("active room: want=%s got=%v", kitchen, id)
	}

	out = d.Dispatch(context.Background(), call(ToolSetRoom, map[string]string{"room": "the kitchen please"}))
	if out != "Selected Kitchen." {
		t.Fatalf("name-in-target match: got=%q", out)
	}
}

func TestSetRoomNoMatchListsRooms(t *testing.T) {
	d, h := newTestDispatcher(t)
	kitchen := h.Current().AddRoom("kitchen", "Kitchen")
	h.Current().AddRoom("bathroom", "Bathroom")
	_ = h.Current().SetActiveRoom(&kitchen)

	out := d.Dispatch(context.Background(), call(ToolSetRoom, map[string]string{"room": "nonexistent"}))
	if !strings.Contains(out, "Bathroom") || !strings.Contains(out, "Kitchen") {
		t.Fatalf("reply should list rooms: %q", out)
	}
	if id := h.Current().ActiveRoomID(); id == nil || *id != kitchen {
		t.Fatalf("active room changed on failed match")
	}
}

func TestSetRoomAmbiguous(t *testing.T) {
	d, h := newTestDispatcher(t)
	h.Current().AddRoom("bedroom", "Front bedroom")
	h.Current().AddRoom("bedroom", "Back bedroom")
	out := d.Dispatch(context.Background(), call(ToolSetRoom, map[string]string{"room": "bedroom"}))
	if !strings.Contains(out, "more than one room") {
		t.Fatalf("expected ambiguity, got %q", out)
	}
	if h.Current().ActiveRoomID() != nil {
		t.Fatalf("ambiguous match must not select a room")
	}
}

func TestAddRoomThenItemFlow(t *testing.T) {
	d, h := newTestDispatcher(t)
	ctx := context.Background()

	out := d.Dispatch(ctx, call(ToolAddRoom, map[string]string{"room": "kitchen"}))
	if !strings.HasPrefix(out, "Added Kitchen") {
		t.Fatalf("add_room reply: %q", out)
	}
	out = d.Dispatch(ctx, call(ToolAddItem, map[string]any{"description": "double socket", "quantity": "3", "unit": "each"}))
	if out != "Added 3 each of double socket to Kitchen." {
		t.Fatalf("add_item reply: %q", out)
	}
	out = d.Dispatch(ctx, call(ToolAddItem, map[string]any{"description": "light switch", "quantity": -4}))
	if !strings.HasPrefix(out, "Added 1 each") {
		t.Fatalf("quantity should clamp: %q", out)
	}

	rooms := h.Current().Rooms()
	if len(rooms) != 1 || rooms[0].RoomType != "kitchen" || len(rooms[0].Items) != 2 {
		t.Fatalf("unexpected rooms: %+v", rooms)
	}
	if rooms[0].Items[1].Quantity != 1 {
		t.Fatalf("stored quantity: want=1 got=%d", rooms[0].Items[1].Quantity)
	}

	out = d.Dispatch(ctx, call(ToolAddRoom, map[string]string{"room": "kitchen"}))
	if !strings.HasPrefix(out, "Added Kitchen 2") {
		t.Fatalf("duplicate room name should be numbered: %q", out)
	}
}

func TestAddRoomFallsBackToCustom(t *testing.T) {
	d, h := newTestDispatcher(t)
	d.Dispatch(context.Background(), call(ToolAddRoom, map[string]string{"room": "boiler cupboard"}))
	rooms := h.Current().Rooms()
	if len(rooms) != 1 || rooms[0].RoomType != "custom" || rooms[0].RoomName != "Boiler cupboard" {
		t.Fatalf("unexpected room: %+v", rooms)
	}
}

func TestMatchRoomType(t *testing.T) {
	cases := []struct {
		in, typ, label string
	}{
		{"Kitchen", "kitchen", "Kitchen"},
		{"the lounge", "living_room", "Living room"},
		{"back bedroom", "bedroom", "Back bedroom"},
		{"downstairs loo", "wc", "WC"},
		{"living_room", "living_room", "Living room"},
		{"wine room", "custom", "Wine room"},
	}
	for _, c := range cases {
		typ, label := matchRoomType(c.in)
		if typ != c.typ || label != c.label {
			t.Fatalf("matchRoomType(%q): want=(%s,%s) got=(%s,%s)", c.in, c.typ, c.label, typ, label)
		}
	}
}

func TestAnswerPromptUsesActiveRoom(t *testing.T) {
	d, h := newTestDispatcher(t)
	ctx := context.Background()
	d.Dispatch(ctx, call(ToolAnswerPrompt, map[string]string{"prompt_key": "parking_available", "response": "yes"}))
	room := h.Current().AddRoom("kitchen", "Kitchen")
	_ = h.Current().SetActiveRoom(&room)
	out := d.Dispatch(ctx, call(ToolAnswerPrompt, map[string]string{"prompt_key": "floor_covering", "response": "tiles"}))
	if !strings.Contains(out, "Kitchen") {
		t.Fatalf("reply: %q", out)
	}
	if _, ok := h.Current().PromptResponse("parking_available", nil); !ok {
		t.Fatalf("global prompt missing")
	}
	p, ok := h.Current().PromptResponse("floor_covering", &room)
	if !ok || p.Response != "tiles" {
		t.Fatalf("room prompt missing: %+v", p)
	}
}

func TestFlagIssueDoesNotMutateVisit(t *testing.T) {
	d, h := newTestDispatcher(t)
	before := h.Current().Snapshot()
	out := d.Dispatch(context.Background(), call(ToolFlagIssue, map[string]string{"issue": "damp patch by window", "severity": "urgent"}))
	if !strings.Contains(out, "high severity") {
		t.Fatalf("reply: %q", out)
	}
	after := h.Current().Snapshot()
	if len(after.Visit.Rooms) != len(before.Visit.Rooms) || len(after.Visit.Prompts) != 0 {
		t.Fatalf("flag_issue mutated the visit")
	}
	issues := d.Actions().Issues()
	if len(issues) != 1 || issues[0].Severity != "high" {
		t.Fatalf("issues: %+v", issues)
	}
}

func TestHandlersSeeSwappedSession(t *testing.T) {
	d, h := newTestDispatcher(t)
	h.Current().AddRoom("kitchen", "Kitchen")
	fresh := capture.NewSession(nil)
	fresh.AddRoom("garage", "Garage")
	h.Swap(fresh)
	out := d.Dispatch(context.Background(), call(ToolListRooms, nil))
	if out != "Rooms: Garage (0 items)." {
		t.Fatalf("list_rooms after swap: %q", out)
	}
}

func TestUnknownToolAndBadArgs(t *testing.T) {
	d, _ := newTestDispatcher(t)
	if out := d.Dispatch(context.Background(), ToolCall{Name: "end_world"}); !strings.Contains(out, "Unknown tool") {
		t.Fatalf("unknown tool reply: %q", out)
	}
	out := d.Dispatch(context.Background(), ToolCall{Name: ToolAddRoom, Arguments: json.RawMessage(`{"room":`)})
	if !strings.Contains(out, "could not read the arguments") {
		t.Fatalf("bad args reply: %q", out)
	}
	if got := len(d.Actions().Entries()); got != 2 {
		t.Fatalf("action log entries: want=2 got=%d", got)
	}
}

func TestStringEncodedArguments(t *testing.T) {
	d, h := newTestDispatcher(t)
	raw, _ := json.Marshal(`{"room":"garage"}`)
	d.Dispatch(context.Background(), ToolCall{Name: ToolAddRoom, Arguments: raw})
	if rooms := h.Current().Rooms(); len(rooms) != 1 || rooms[0].RoomType != "garage" {
		t.Fatalf("string-encoded arguments not decoded: %+v", rooms)
	}
}
