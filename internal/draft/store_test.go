package draft

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/yungbote/sitevisit-backend/internal/capture"
	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func populatedSession(t *testing.T) *capture.Session {
	t.Helper()
	s := capture.NewSession(nil)
	roomID := s.AddRoom("kitchen", "Kitchen")
	if _, err := s.AddItem(roomID, capture.NewItem{ItemType: "socket", Quantity: 2, Unit: "each"}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := s.AddPhoto(capture.NewPhoto{RoomID: &roomID, PhotoURL: "blob:abc"}); err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}
	if err := s.SetPromptResponse("floor_covering", "laminate", &roomID, ""); err != nil {
		t.Fatalf("SetPromptResponse: %v", err)
	}
	_ = s.SetActiveRoom(&roomID)
	s.SetStep(capture.StepPhotos)
	return s
}

func TestLoadMissingDraftIsAbsent(t *testing.T) {
	store := NewStore(NewMemoryKV(), "", mustTestLogger(t))
	if _, ok := store.Load(context.Background(), KindSiteVisit, ScopeNew); ok {
		t.Fatalf("expected no draft")
	}
	if store.HasRecoverable(context.Background(), KindSiteVisit) {
		t.Fatalf("expected nothing recoverable")
	}
}

func TestLoadCorruptDraftIsAbsent(t *testing.T) {
	kv := NewMemoryKV()
	store := NewStore(kv, "test:draft", mustTestLogger(t))
	ctx := context.Background()
	for _, raw := range []string{"{not json", `{"version":7,"visit":{}}`, `{"version":1}`} {
		_ = kv.Set(ctx, store.Key(KindSiteVisit, ScopeNew), []byte(raw))
		if _, ok := store.Load(ctx, KindSiteVisit, ScopeNew); ok {
			t.Fatalf("expected %q to be treated as absent", raw)
		}
	}
}

func TestKeyFormat(t *testing.T) {
	store := NewStore(NewMemoryKV(), "sitevisit:draft:", mustTestLogger(t))
	if got := store.Key(KindSiteVisit, ""); got != "sitevisit:draft:site_visit:new" {
		t.Fatalf("key: got=%q", got)
	}
	if ScopeFor(nil) != ScopeNew {
		t.Fatalf("nil visit id should map to new scope")
	}
}

func TestRestoreThenLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryKV(), "", mustTestLogger(t))
	src := populatedSession(t)
	if err := store.Save(ctx, KindSiteVisit, ScopeNew, src.Snapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	first, ok := store.Load(ctx, KindSiteVisit, ScopeNew)
	if !ok {
		t.Fatalf("expected draft")
	}

	dst := capture.NewSession(nil)
	if err := dst.Restore(first.Snapshot); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if err := store.Save(ctx, KindSiteVisit, ScopeNew, dst.Snapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, ok := store.Load(ctx, KindSiteVisit, ScopeNew)
	if !ok {
		t.Fatalf("expected draft after restore")
	}
	if !reflect.DeepEqual(first.Snapshot, second.Snapshot) {
		t.Fatalf("round trip changed snapshot:\nfirst=%+v\nsecond=%+v", first.Snapshot, second.Snapshot)
	}
	if second.Snapshot.CurrentStep != capture.StepPhotos {
		t.Fatalf("step: want=%d got=%d", capture.StepPhotos, second.Snapshot.CurrentStep)
	}
}

func TestRecoveryOffersOnlyForNewVisits(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryKV(), "", mustTestLogger(t))
	if err := store.Save(ctx, KindSiteVisit, ScopeNew, populatedSession(t).Snapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec := NewRecovery(store, KindSiteVisit)
	if offer := rec.Begin(ctx, sitevisit.NewVisit()); offer.Available {
		t.Fatalf("editing a saved visit must not offer recovery")
	}
	offer := rec.Begin(ctx, nil)
	if !offer.Available || offer.SavedAt.IsZero() {
		t.Fatalf("expected an offer, got %+v", offer)
	}

	sess := capture.NewSession(nil)
	if err := rec.Recover(sess); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	v := sess.Visit()
	if len(v.Rooms) != 1 || len(v.Photos) != 1 || len(v.Prompts) != 1 || v.ItemCount() != 1 {
		t.Fatalf("recovered visit incomplete: %+v", v)
	}
	if sess.CurrentStep() != capture.StepPhotos || sess.ActiveRoomID() == nil {
		t.Fatalf("recovered navigation state missing")
	}
	if err := rec.Recover(sess); err != ErrNoDraft {
		t.Fatalf("second recover: want=%v got=%v", ErrNoDraft, err)
	}
}

func TestRecoveryDiscardClearsDraft(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryKV(), "", mustTestLogger(t))
	_ = store.Save(ctx, KindSiteVisit, ScopeNew, populatedSession(t).Snapshot())

	rec := NewRecovery(store, KindSiteVisit)
	rec.Begin(ctx, nil)
	if err := rec.Discard(ctx); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if store.HasRecoverable(ctx, KindSiteVisit) {
		t.Fatalf("draft should be gone")
	}
	if rec.Pending() {
		t.Fatalf("offer should be dropped")
	}
}

func TestAutosaverDebouncesToLastSnapshot(t *testing.T) {
	ctx := context.Background()
	kv := &countingKV{MemoryKV: NewMemoryKV()}
	store := NewStore(kv, "", mustTestLogger(t))
	saver := NewAutosaver(store, KindSiteVisit, ScopeNew, 50*time.Millisecond, mustTestLogger(t))
	defer saver.Stop()

	sess := capture.NewSession(nil)
	saver.Attach(sess)
	for i := 0; i < 5; i++ {
		sess.AddRoom("bedroom", "")
	}

	deadline := time.Now().Add(2 * time.Second)
	for kv.sets() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)
	if got := kv.sets(); got != 1 {
		t.Fatalf("writes: want=1 got=%d", got)
	}
	d, ok := store.Load(ctx, KindSiteVisit, ScopeNew)
	if !ok {
		t.Fatalf("expected draft")
	}
	if got := len(d.Snapshot.Visit.Rooms); got != 5 {
		t.Fatalf("rooms in draft: want=5 got=%d", got)
	}
}

func TestAutosaverFlushAndStop(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryKV(), "", mustTestLogger(t))
	saver := NewAutosaver(store, KindSiteVisit, ScopeNew, time.Hour, mustTestLogger(t))

	sess := capture.NewSession(nil)
	saver.Attach(sess)
	sess.AddRoom("kitchen", "Kitchen")
	saver.Flush()
	if !store.HasRecoverable(ctx, KindSiteVisit) {
		t.Fatalf("flush should write immediately")
	}

	_ = store.Clear(ctx, KindSiteVisit, ScopeNew)
	saver.Stop()
	saver.Stop()
	sess.AddRoom("hallway", "Hall")
	saver.Flush()
	if store.HasRecoverable(ctx, KindSiteVisit) {
		t.Fatalf("stopped autosaver must not write")
	}
}

func TestAutosaverKeepsNewestSnapshotWhenListenersInterleave(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryKV(), "", mustTestLogger(t))
	saver := NewAutosaver(store, KindSiteVisit, ScopeNew, time.Hour, mustTestLogger(t))
	defer saver.Stop()

	sess := capture.NewSession(nil)
	entered := make(chan struct{})
	release := make(chan struct{})
	sess.OnChange(func(snap capture.Snapshot) {
		if len(snap.Visit.Rooms) == 1 {
			close(entered)
			<-release
		}
	})
	saver.Attach(sess)

	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.AddRoom("kitchen", "Kitchen")
	}()
	<-entered
	sess.AddRoom("bathroom", "Bath")
	close(release)
	<-done

	saver.Flush()
	d, ok := store.Load(ctx, KindSiteVisit, ScopeNew)
	if !ok {
		t.Fatalf("expected draft")
	}
	if got := len(d.Snapshot.Visit.Rooms); got != 2 {
		t.Fatalf("rooms in draft: want=2 got=%d", got)
	}
}

func TestAutosaverAcceptsUnversionedSnapshots(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryKV(), "", mustTestLogger(t))
	saver := NewAutosaver(store, KindSiteVisit, ScopeNew, time.Hour, mustTestLogger(t))
	defer saver.Stop()

	snap := populatedSession(t).Snapshot()
	saver.Schedule(snap)
	saver.Flush()

	snap.Revision = 0
	snap.CurrentStep = capture.StepRooms
	saver.Schedule(snap)
	saver.Flush()

	d, ok := store.Load(ctx, KindSiteVisit, ScopeNew)
	if !ok {
		t.Fatalf("expected draft")
	}
	if d.Snapshot.CurrentStep != capture.StepRooms {
		t.Fatalf("step: want=%d got=%d", capture.StepRooms, d.Snapshot.CurrentStep)
	}
}
