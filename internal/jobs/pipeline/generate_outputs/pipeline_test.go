package generate_outputs

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/sitevisit-backend/internal/capture"
	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/jobs/orchestrator"
)

func kitchenVisit(t *testing.T) *capture.Session {
	t.Helper()
	s := capture.NewSession(nil)
	kitchen := s.AddRoom("kitchen", "Kitchen")
	if _, err := s.AddItem(kitchen, capture.NewItem{ItemType: "socket", Quantity: 2, Unit: "each"}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	return s
}

func stepStatus(r Result, id string) orchestrator.StageStatus {
	for _, st := range r.Steps {
		if st.ID == id {
			return st.Status
		}
	}
	return ""
}

func TestEndToEndCompletesVisit(t *testing.T) {
	sess := kitchenVisit(t)
	be := newFakeBackend()
	var completed []Result
	p, err := New(sess.Visit(), be.deps(), nil, WithOnCompleted(func(_ context.Context, r Result) {
		completed = append(completed, r)
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := p.Run(context.Background())

	if !r.Completed {
		t.Fatalf("expected completed, steps=%+v", r.Steps)
	}
	if len(be.statuses) != 1 || be.statuses[0] != sitevisit.StatusCompleted {
		t.Fatalf("status writes: got=%v", be.statuses)
	}
	if r.Baseline == nil || r.Baseline.LockedAt.IsZero() {
		t.Fatalf("baseline not locked")
	}
	if r.Checklist == nil || len(r.Checklist.Items) < 1 {
		t.Fatalf("checklist missing")
	}
	if r.VisitID == nil || *r.VisitID != be.visitID || r.CustomerID == nil || *r.CustomerID != be.customerID {
		t.Fatalf("ids not carried: %+v", r)
	}
	if len(completed) != 1 {
		t.Fatalf("OnCompleted calls: want=1 got=%d", len(completed))
	}
	p.Run(context.Background())
	if len(completed) != 1 || be.count("status") != 1 {
		t.Fatalf("completion must happen once")
	}
}

func TestPhotosFailureStillAttemptsLaterSteps(t *testing.T) {
	sess := kitchenVisit(t)
	if _, err := sess.AddPhoto(capture.NewPhoto{PhotoURL: "blob:ok"}); err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}
	if _, err := sess.AddPhoto(capture.NewPhoto{PhotoURL: "blob:bad"}); err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}
	be := newFakeBackend()
	be.failUpload = func(ph sitevisit.Photo) bool { return ph.PhotoURL == "blob:bad" }

	p, _ := New(sess.Visit(), be.deps(), nil)
	r := p.Run(context.Background())

	if got := stepStatus(r, StepPhotos); got != orchestrator.StageError {
		t.Fatalf("photos: want=error got=%s", got)
	}
	for _, id := range []string{StepBridge, StepBaseline, StepChecklist} {
		if got := stepStatus(r, id); !got.Terminal() {
			t.Fatalf("%s not attempted: %s", id, got)
		}
	}
	if r.Completed || be.count("status") != 0 {
		t.Fatalf("visit must not complete with a failed step")
	}
	var photoErr string
	for _, st := range r.Steps {
		if st.ID == StepPhotos {
			photoErr = st.Error
		}
	}
	if !strings.Contains(photoErr, "1 of 2 photos failed to upload") {
		t.Fatalf("photo error: got=%q", photoErr)
	}
	last := be.saved[len(be.saved)-1]
	if last.Photos[0].PhotoURL != "https://cdn.example.com/ok.jpg" || last.PhotoProjectID == nil {
		t.Fatalf("partial upload not persisted: %+v", last.Photos)
	}
	if got := stepStatus(r, StepBridge); got != orchestrator.StageError {
		t.Fatalf("bridge: want=error got=%s", got)
	}
	if be.count("bridge") != 0 || len(be.forwarded) != 0 {
		t.Fatalf("bridge must not receive a partial photo set, got %d", len(be.forwarded))
	}
	var bridgeErr string
	for _, st := range r.Steps {
		if st.ID == StepBridge {
			bridgeErr = st.Error
		}
	}
	if !strings.Contains(bridgeErr, "1 photos not yet uploaded") {
		t.Fatalf("bridge error: got=%q", bridgeErr)
	}

	be.failUpload = nil
	ctx := context.Background()
	if r, _ = p.Retry(ctx, StepPhotos); stepStatus(r, StepPhotos) != orchestrator.StageDone || r.Completed {
		t.Fatalf("photos retry: want done and incomplete, got %+v", r.Steps)
	}
	r, err := p.Retry(ctx, StepBridge)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if len(be.forwarded) != 2 {
		t.Fatalf("bridge should get every photo, got %d", len(be.forwarded))
	}
	for _, ph := range be.forwarded {
		if IsEphemeralURL(ph.PhotoURL) {
			t.Fatalf("forwarded ephemeral photo %q", ph.PhotoURL)
		}
	}
	if !r.Completed {
		t.Fatalf("visit should complete once every step is done: %+v", r.Steps)
	}
}

func TestRetryRerunsOnlyFailedStep(t *testing.T) {
	sess := kitchenVisit(t)
	be := newFakeBackend()
	be.failBridge = true
	if _, err := sess.AddPhoto(capture.NewPhoto{PhotoURL: "blob:one"}); err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}
	p, _ := New(sess.Visit(), be.deps(), nil)
	r := p.Run(context.Background())
	if stepStatus(r, StepBridge) != orchestrator.StageError || r.Completed {
		t.Fatalf("expected bridge failure, got %+v", r.Steps)
	}
	before := map[string]int{}
	for _, k := range []string{"save", "customer", "upload", "project", "lock_baseline", "generate"} {
		before[k] = be.count(k)
	}

	be.failBridge = false
	r, err := p.Retry(context.Background(), StepBridge)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	for k, n := range before {
		if be.count(k) != n {
			t.Fatalf("%s repeated on retry: before=%d after=%d", k, n, be.count(k))
		}
	}
	if be.count("bridge") != 2 {
		t.Fatalf("bridge calls: want=2 got=%d", be.count("bridge"))
	}
	for _, st := range r.Steps {
		if st.Status != orchestrator.StageDone {
			t.Fatalf("step %s: want=done got=%s", st.ID, st.Status)
		}
	}
	if !r.Completed {
		t.Fatalf("retry success should complete the visit")
	}
}

func TestSaveFailureBlocksDependentSteps(t *testing.T) {
	be := newFakeBackend()
	be.failSave = true
	p, _ := New(kitchenVisit(t).Visit(), be.deps(), nil)
	r := p.Run(context.Background())
	for _, st := range r.Steps {
		if st.Status != orchestrator.StageError {
			t.Fatalf("step %s: want=error got=%s", st.ID, st.Status)
		}
		if st.ID != StepSave && st.Error != ErrNotSaved.Error() {
			t.Fatalf("step %s error: got=%q", st.ID, st.Error)
		}
	}
	if be.count("customer") != 0 || be.count("lock_baseline") != 0 {
		t.Fatalf("no remote call should run without a visit id")
	}
}

func TestWorkingCopyIsIsolatedFromLiveSession(t *testing.T) {
	sess := kitchenVisit(t)
	be := newFakeBackend()
	p, _ := New(sess.Visit(), be.deps(), nil)
	sess.AddRoom("bathroom", "Bathroom")
	r := p.Run(context.Background())
	if len(r.Baseline.Rooms) != 1 {
		t.Fatalf("baseline rooms: want=1 got=%d", len(r.Baseline.Rooms))
	}
	if sess.Visit().ID != nil {
		t.Fatalf("pipeline must not write into the live session")
	}
}

func TestBaselineLockedOnceAndNotChangedByLaterEdits(t *testing.T) {
	sess := kitchenVisit(t)
	be := newFakeBackend()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p, _ := New(sess.Visit(), be.deps(), nil, WithClock(func() time.Time { return now }))
	first := p.Run(context.Background())

	second, _ := New(sess.Visit(), be.deps(), nil, WithClock(func() time.Time { return now.Add(time.Hour) }))
	r := second.Run(context.Background())
	if be.count("lock_baseline") != 1 {
		t.Fatalf("lock calls: want=1 got=%d", be.count("lock_baseline"))
	}
	if !r.Baseline.LockedAt.Equal(first.Baseline.LockedAt) {
		t.Fatalf("baseline relocked: first=%v second=%v", first.Baseline.LockedAt, r.Baseline.LockedAt)
	}

	first.Baseline.Rooms[0].Items[0].Quantity = 99
	if again := p.Result(); again.Baseline.Rooms[0].Items[0].Quantity != 2 {
		t.Fatalf("baseline mutated through result")
	}
}

func TestCompletionFailureIsReported(t *testing.T) {
	be := newFakeBackend()
	be.failStatus = true
	p, _ := New(kitchenVisit(t).Visit(), be.deps(), nil)
	r := p.Run(context.Background())
	if r.Completed || r.CompletionErr == "" {
		t.Fatalf("expected completion error, got %+v", r)
	}
	be.failStatus = false
	r = p.Run(context.Background())
	if !r.Completed {
		t.Fatalf("rerun should complete once status write works")
	}
}

func TestIsEphemeralURL(t *testing.T) {
	cases := map[string]bool{
		"blob:http://localhost/123":         true,
		"data:image/png;base64,AAAA":        true,
		"file:///sdcard/DCIM/1.jpg":         true,
		"local:abc.jpg":                     true,
		"content://media/external/1":        true,
		"/tmp/photo.jpg":                    true,
		"https://cdn.example.com/a.jpg":     false,
		"http://storage.example.com/b.jpeg": false,
		"":                                  false,
	}
	for in, want := range cases {
		if got := IsEphemeralURL(in); got != want {
			t.Fatalf("IsEphemeralURL(%q): want=%v got=%v", in, want, got)
		}
	}
}
