package capture

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
)

func intPtr(v int) *int { return &v }

func TestQuantityNeverBelowOne(t *testing.T) {
	s := NewSession(nil)
	roomID := s.AddRoom("kitchen", "Kitchen")

	itemID, err := s.AddItem(roomID, NewItem{ItemType: "socket", Quantity: 0})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	_, room := s.Visit().RoomByID(roomID)
	if got := room.Items[0].Quantity; got != 1 {
		t.Fatalf("quantity after add: want=1 got=%d", got)
	}

	if err := s.UpdateItem(itemID, ItemPatch{Quantity: intPtr(-5)}); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	_, room = s.Visit().RoomByID(roomID)
	if got := room.Items[0].Quantity; got != 1 {
		t.Fatalf("quantity after update: want=1 got=%d", got)
	}

	q, err := s.StepQuantity(itemID, -3)
	if err != nil {
		t.Fatalf("StepQuantity: %v", err)
	}
	if q != 1 {
		t.Fatalf("quantity after step: want=1 got=%d", q)
	}
	if q, _ = s.StepQuantity(itemID, 2); q != 3 {
		t.Fatalf("quantity after step up: want=3 got=%d", q)
	}
}

func TestAddRoomIDUsableImmediately(t *testing.T) {
	s := NewSession(nil)
	roomID := s.AddRoom("bathroom", "")
	if err := s.SetActiveRoom(&roomID); err != nil {
		t.Fatalf("SetActiveRoom: %v", err)
	}
	if _, err := s.AddItem(roomID, NewItem{ItemType: "extractor fan", Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	room, ok := s.ActiveRoom()
	if !ok {
		t.Fatalf("expected active room")
	}
	if room.RoomName != "Bathroom 1" {
		t.Fatalf("default name: want=%q got=%q", "Bathroom 1", room.RoomName)
	}
	if len(room.Items) != 1 || room.Items[0].Unit != DefaultUnit {
		t.Fatalf("unexpected items: %+v", room.Items)
	}
}

func TestAddItemUnknownRoomLeavesVisitUntouched(t *testing.T) {
	s := NewSession(nil)
	s.AddRoom("kitchen", "Kitchen")
	before := s.Visit().ItemCount()
	if _, err := s.AddItem(uuid.New(), NewItem{ItemType: "socket"}); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("want ErrRoomNotFound got %v", err)
	}
	if after := s.Visit().ItemCount(); after != before {
		t.Fatalf("item count: want=%d got=%d", before, after)
	}
}

func TestReorderRoomsIsPermutation(t *testing.T) {
	s := NewSession(nil)
	a := s.AddRoom("kitchen", "Kitchen")
	b := s.AddRoom("bathroom", "Bathroom")
	c := s.AddRoom("hallway", "Hall")

	if err := s.ReorderRooms([]uuid.UUID{c, uuid.New(), a, c}); err != nil {
		t.Fatalf("ReorderRooms: %v", err)
	}
	rooms := s.Rooms()
	want := []uuid.UUID{c, a, b}
	if len(rooms) != len(want) {
		t.Fatalf("room count: want=%d got=%d", len(want), len(rooms))
	}
	for i, id := range want {
		if rooms[i].ID != id {
			t.Fatalf("position %d: want=%s got=%s", i, id, rooms[i].ID)
		}
	}
}

func TestRemoveRoomDropsAttachedData(t *testing.T) {
	s := NewSession(nil)
	keep := s.AddRoom("kitchen", "Kitchen")
	drop := s.AddRoom("bathroom", "Bathroom")
	_ = s.SetActiveRoom(&drop)
	if _, err := s.AddPhoto(NewPhoto{RoomID: &drop, PhotoURL: "blob:1"}); err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}
	if _, err := s.AddPhoto(NewPhoto{RoomID: &keep, PhotoURL: "blob:2"}); err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}
	if err := s.SetPromptResponse("floor_covering", "tiles", &drop, ""); err != nil {
		t.Fatalf("SetPromptResponse: %v", err)
	}

	if err := s.RemoveRoom(drop); err != nil {
		t.Fatalf("RemoveRoom: %v", err)
	}
	v := s.Visit()
	if len(v.Rooms) != 1 || len(v.Photos) != 1 || len(v.Prompts) != 0 {
		t.Fatalf("unexpected visit after remove: rooms=%d photos=%d prompts=%d", len(v.Rooms), len(v.Photos), len(v.Prompts))
	}
	if s.ActiveRoomID() != nil {
		t.Fatalf("active room should be cleared")
	}
}

func TestSetPromptResponseUpsertsAndSnapshotsQuestion(t *testing.T) {
	s := NewSession(nil)
	if err := s.SetPromptResponse("parking_available", "yes", nil, ""); err != nil {
		t.Fatalf("SetPromptResponse: %v", err)
	}
	if err := s.SetPromptResponse("parking_available", "no, permit only", nil, ""); err != nil {
		t.Fatalf("SetPromptResponse: %v", err)
	}
	v := s.Visit()
	if len(v.Prompts) != 1 {
		t.Fatalf("prompt count: want=1 got=%d", len(v.Prompts))
	}
	p := v.Prompts[0]
	if p.Response != "no, permit only" {
		t.Fatalf("response: got=%q", p.Response)
	}
	if p.PromptQuestion != "Is there parking available for the work van?" {
		t.Fatalf("question snapshot: got=%q", p.PromptQuestion)
	}

	if err := s.SetPromptResponse("custom_question", "x", nil, ""); err != nil {
		t.Fatalf("SetPromptResponse: %v", err)
	}
	if got, _ := s.PromptResponse("custom_question", nil); got.PromptQuestion != "custom_question" {
		t.Fatalf("unknown key should fall back to key: got=%q", got.PromptQuestion)
	}
	if err := s.SetPromptResponse(" ", "x", nil, ""); !errors.Is(err, ErrEmptyPromptKey) {
		t.Fatalf("want ErrEmptyPromptKey got %v", err)
	}
}

func TestRestoreRejectsInconsistentSnapshot(t *testing.T) {
	s := NewSession(nil)
	s.AddRoom("kitchen", "Kitchen")
	before := s.Snapshot()

	dangling := uuid.New()
	bad := sitevisit.NewVisit()
	bad.Photos = []sitevisit.Photo{{ID: uuid.New(), RoomID: &dangling, PhotoURL: "blob:x", PhotoPhase: sitevisit.PhaseBefore}}
	if err := s.Restore(Snapshot{Visit: bad, CurrentStep: 3}); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("want ErrInvalidSnapshot got %v", err)
	}
	after := s.Snapshot()
	if len(after.Visit.Rooms) != len(before.Visit.Rooms) || after.CurrentStep != before.CurrentStep {
		t.Fatalf("session changed after rejected restore")
	}
}

func TestRestoreClampsStepAndDropsUnknownActiveRoom(t *testing.T) {
	src := NewSession(nil)
	roomID := src.AddRoom("kitchen", "Kitchen")
	src.SetStep(4)
	snap := src.Snapshot()
	ghost := uuid.New()
	snap.ActiveRoomID = &ghost
	snap.CurrentStep = 42

	dst := NewSession(nil)
	if err := dst.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if dst.CurrentStep() != StepGenerate {
		t.Fatalf("step: want=%d got=%d", StepGenerate, dst.CurrentStep())
	}
	if dst.ActiveRoomID() != nil {
		t.Fatalf("unknown active room should not be restored")
	}
	if _, r := dst.Visit().RoomByID(roomID); r == nil {
		t.Fatalf("room missing after restore")
	}
}

func TestStepNavigationIsBounded(t *testing.T) {
	s := NewSession(nil)
	if got := s.PrevStep(); got != StepClient {
		t.Fatalf("prev from first: want=%d got=%d", StepClient, got)
	}
	for i := 0; i < 10; i++ {
		s.NextStep()
	}
	if got := s.CurrentStep(); got != StepGenerate {
		t.Fatalf("next past last: want=%d got=%d", StepGenerate, got)
	}
	if StepName(s.SetStep(StepPhotos)) != "photos" {
		t.Fatalf("unexpected step name")
	}
}

func TestMergeGeneratedKeepsAnnotatedPhoto(t *testing.T) {
	s := NewSession(nil)
	p1, _ := s.AddPhoto(NewPhoto{PhotoURL: "blob:one"})
	p2, _ := s.AddPhoto(NewPhoto{PhotoURL: "blob:two"})
	if err := s.UpdatePhotoURL(p2, "blob:two-annotated"); err != nil {
		t.Fatalf("UpdatePhotoURL: %v", err)
	}
	visitID := uuid.New()
	err := s.MergeGenerated(Generated{
		VisitID: visitID,
		PhotoURLs: map[uuid.UUID]PhotoURLChange{
			p1: {From: "blob:one", To: "https://cdn/one.jpg"},
			p2: {From: "blob:two", To: "https://cdn/two.jpg"},
		},
		Status: sitevisit.StatusCompleted,
	})
	if err != nil {
		t.Fatalf("MergeGenerated: %v", err)
	}
	v := s.Visit()
	if v.ID == nil || *v.ID != visitID {
		t.Fatalf("visit id not merged")
	}
	if v.Photos[0].PhotoURL != "https://cdn/one.jpg" {
		t.Fatalf("photo one: got=%q", v.Photos[0].PhotoURL)
	}
	if v.Photos[1].PhotoURL != "blob:two-annotated" {
		t.Fatalf("annotated photo overwritten: got=%q", v.Photos[1].PhotoURL)
	}
	if v.Status != sitevisit.StatusCompleted {
		t.Fatalf("status: got=%q", v.Status)
	}
}

func TestStepQuantitySaturates(t *testing.T) {
	s := NewSession(nil)
	roomID := s.AddRoom("kitchen", "Kitchen")
	itemID, err := s.AddItem(roomID, NewItem{ItemType: "socket", Quantity: 2})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	q, err := s.StepQuantity(itemID, math.MaxInt)
	if err != nil {
		t.Fatalf("StepQuantity: %v", err)
	}
	if q != math.MaxInt {
		t.Fatalf("quantity after huge step: want=%d got=%d", math.MaxInt, q)
	}
	if q, _ = s.StepQuantity(itemID, 1); q != math.MaxInt {
		t.Fatalf("quantity past max: want=%d got=%d", math.MaxInt, q)
	}
	if q, _ = s.StepQuantity(itemID, math.MinInt); q != 1 {
		t.Fatalf("quantity after huge step down: want=1 got=%d", q)
	}
}

func TestUpdateRoomIsOneMutation(t *testing.T) {
	s := NewSession(nil)
	roomID := s.AddRoom("kitchen", "Kitchen")
	var calls int
	s.OnChange(func(Snapshot) { calls++ })

	name, notes := "  Galley  ", "damp corner"
	if err := s.UpdateRoom(roomID, RoomPatch{RoomName: &name, Notes: &notes}); err != nil {
		t.Fatalf("UpdateRoom: %v", err)
	}
	if calls != 1 {
		t.Fatalf("listener calls: want=1 got=%d", calls)
	}
	_, room := s.Visit().RoomByID(roomID)
	if room.RoomName != "Galley" || room.Notes != "damp corner" {
		t.Fatalf("room: want=Galley/damp corner got=%s/%s", room.RoomName, room.Notes)
	}

	blank := " "
	if err := s.UpdateRoom(roomID, RoomPatch{RoomName: &blank}); err != nil {
		t.Fatalf("UpdateRoom: %v", err)
	}
	_, room = s.Visit().RoomByID(roomID)
	if room.RoomName != "Galley" || room.Notes != "damp corner" {
		t.Fatalf("blank name should keep room: got=%s/%s", room.RoomName, room.Notes)
	}

	if err := s.UpdateRoomNotes(roomID, "dry"); err != nil {
		t.Fatalf("UpdateRoomNotes: %v", err)
	}
	_, room = s.Visit().RoomByID(roomID)
	if room.Notes != "dry" || calls != 3 {
		t.Fatalf("notes update: notes=%q calls=%d", room.Notes, calls)
	}

	if err := s.UpdateRoom(uuid.New(), RoomPatch{Notes: &notes}); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("unknown room: want=%v got=%v", ErrRoomNotFound, err)
	}
	if calls != 3 {
		t.Fatalf("failed update must not notify: calls=%d", calls)
	}
}

func TestSnapshotRevisionIncreasesPerMutation(t *testing.T) {
	s := NewSession(nil)
	if got := s.Snapshot().Revision; got != 0 {
		t.Fatalf("fresh revision: want=0 got=%d", got)
	}
	var seen []uint64
	s.OnChange(func(snap Snapshot) { seen = append(seen, snap.Revision) })
	roomID := s.AddRoom("kitchen", "Kitchen")
	_ = s.RemoveRoom(uuid.New())
	s.SetStep(StepRooms)
	_ = s.RemoveRoom(roomID)
	if len(seen) != 3 || seen[0] != 1 || seen[1] != 2 || seen[2] != 3 {
		t.Fatalf("revisions: want=[1 2 3] got=%v", seen)
	}
	if got := s.Snapshot().Revision; got != 3 {
		t.Fatalf("snapshot revision: want=3 got=%d", got)
	}
}

func TestOnChangeReceivesSnapshot(t *testing.T) {
	s := NewSession(nil)
	var got []Snapshot
	s.OnChange(func(snap Snapshot) { got = append(got, snap) })
	s.AddRoom("kitchen", "Kitchen")
	_ = s.RemoveRoom(uuid.New())
	if len(got) != 1 {
		t.Fatalf("listener calls: want=1 got=%d", len(got))
	}
	if len(got[0].Visit.Rooms) != 1 {
		t.Fatalf("snapshot rooms: want=1 got=%d", len(got[0].Visit.Rooms))
	}
}

func TestConcurrentSurfacesShareOneSession(t *testing.T) {
	h := NewHolder(NewSession(nil))
	roomID := h.Current().AddRoom("kitchen", "Kitchen")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := h.Current().AddItem(roomID, NewItem{ItemType: "socket", Quantity: 1}); err != nil {
					t.Errorf("AddItem: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if got := h.Current().Visit().ItemCount(); got != 100 {
		t.Fatalf("item count: want=100 got=%d", got)
	}
}

func TestHolderSwapIsSeenByLaterCalls(t *testing.T) {
	first := NewSession(nil)
	h := NewHolder(first)
	second := NewSession(nil)
	if prev := h.Swap(second); prev != first {
		t.Fatalf("swap should return previous session")
	}
	h.Current().AddRoom("kitchen", "Kitchen")
	if len(first.Rooms()) != 0 || len(second.Rooms()) != 1 {
		t.Fatalf("mutation went to the wrong session")
	}
}
