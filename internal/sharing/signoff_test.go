package sharing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

type memBackend struct {
	mu         sync.Mutex
	visits     map[uuid.UUID]*sitevisit.Visit
	baselines  map[uuid.UUID]*sitevisit.ScopeBaseline
	signatures map[uuid.UUID]*Signature
}

func newMemBackend() *memBackend {
	return &memBackend{
		visits:     map[uuid.UUID]*sitevisit.Visit{},
		baselines:  map[uuid.UUID]*sitevisit.ScopeBaseline{},
		signatures: map[uuid.UUID]*Signature{},
	}
}

func (m *memBackend) GetVisit(_ context.Context, id uuid.UUID) (*sitevisit.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return nil, errors.New("visit not found")
	}
	return v.Clone(), nil
}

func (m *memBackend) SetStatus(_ context.Context, id uuid.UUID, status sitevisit.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits[id].Status = status
	return nil
}

func (m *memBackend) GetBaseline(_ context.Context, id uuid.UUID) (*sitevisit.ScopeBaseline, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.baselines[id]
	return b, ok, nil
}

func (m *memBackend) GetSignature(_ context.Context, id uuid.UUID) (*Signature, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.signatures[id]
	return s, ok, nil
}

func (m *memBackend) SaveSignature(_ context.Context, s *Signature) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signatures[s.VisitID] = s
	return nil
}

func (m *memBackend) status(id uuid.UUID) sitevisit.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visits[id].Status
}

func newTestService(t *testing.T) (SignOffService, *memBackend, uuid.UUID) {
	t.Helper()
	mem := newMemBackend()
	id := uuid.New()
	v := sitevisit.NewVisit()
	v.ID = &id
	mem.visits[id] = v
	svc := NewSignOffService(logger.Nop(), NewTokenIssuer("test-secret", time.Hour), mem, mem, mem)
	return svc, mem, id
}

func TestTokenRoundTrip(t *testing.T) {
	ti := NewTokenIssuer("secret", time.Hour)
	id := uuid.New()
	locked := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tok, exp, err := ti.Issue(id, &locked)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expiry should be in the future: %v", exp)
	}
	claims, got, err := ti.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != id {
		t.Fatalf("visit id: want=%s got=%s", id, got)
	}
	if claims.BaselineLockedAt == nil || !claims.BaselineLockedAt.Equal(locked) {
		t.Fatalf("locked_at: want=%v got=%v", locked, claims.BaselineLockedAt)
	}
}

func TestTokenRejectsTamperingAndExpiry(t *testing.T) {
	ti := NewTokenIssuer("secret", time.Hour)
	tok, _, err := ti.Issue(uuid.New(), nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, _, err := NewTokenIssuer("other", time.Hour).Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: want=%v got=%v", ErrInvalidToken, err)
	}
	if _, _, err := ti.Parse(tok + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered: want=%v got=%v", ErrInvalidToken, err)
	}

	expired := NewTokenIssuer("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, err := expired.Issue(uuid.New(), nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, _, err := ti.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired: want=%v got=%v", ErrInvalidToken, err)
	}
}

func TestTokenRequiresSecret(t *testing.T) {
	if _, _, err := NewTokenIssuer("", time.Hour).Issue(uuid.New(), nil); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("want=%v got=%v", ErrNoSecret, err)
	}
}

func TestShareMovesDraftToScopeSent(t *testing.T) {
	svc, mem, id := newTestService(t)
	link, err := svc.Share(context.Background(), id)
	if err != nil {
		t.Fatalf("Share: %v", err)
	}
	if link.Token == "" || link.BaselineLocked {
		t.Fatalf("unexpected link: %+v", link)
	}
	if got := mem.status(id); got != sitevisit.StatusScopeSent {
		t.Fatalf("status: want=%s got=%s", sitevisit.StatusScopeSent, got)
	}
}

func TestShareNeverMovesStatusBackwards(t *testing.T) {
	svc, mem, id := newTestService(t)
	mem.visits[id].Status = sitevisit.StatusCompleted
	if _, err := svc.Share(context.Background(), id); err != nil {
		t.Fatalf("Share: %v", err)
	}
	if got := mem.status(id); got != sitevisit.StatusCompleted {
		t.Fatalf("status: want=%s got=%s", sitevisit.StatusCompleted, got)
	}
}

func TestSignRequiresLockedBaseline(t *testing.T) {
	svc, mem, id := newTestService(t)
	link, err := svc.Share(context.Background(), id)
	if err != nil {
		t.Fatalf("Share: %v", err)
	}
	_, err = svc.Sign(context.Background(), link.Token, SignRequest{SignerName: "Ada", Signature: "data:image/png;base64,AAA"})
	if !errors.Is(err, ErrBaselineNotLocked) {
		t.Fatalf("want=%v got=%v", ErrBaselineNotLocked, err)
	}
	if len(mem.signatures) != 0 {
		t.Fatalf("no signature should be stored")
	}
	if got := mem.status(id); got != sitevisit.StatusScopeSent {
		t.Fatalf("status: want=%s got=%s", sitevisit.StatusScopeSent, got)
	}
}

func TestSignRecordsSignatureOnce(t *testing.T) {
	svc, mem, id := newTestService(t)
	mem.baselines[id] = sitevisit.NewScopeBaseline(id, mem.visits[id], time.Now())
	link, err := svc.Share(context.Background(), id)
	if err != nil {
		t.Fatalf("Share: %v", err)
	}
	if !link.BaselineLocked {
		t.Fatalf("link should report a locked baseline")
	}

	req := SignRequest{SignerName: "  Ada Lovelace ", Signature: "sig"}
	sig, err := svc.Sign(context.Background(), link.Token, req)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if sig.SignerName != "Ada Lovelace" {
		t.Fatalf("signer: want=%q got=%q", "Ada Lovelace", sig.SignerName)
	}
	if !sig.LockedAt.Equal(mem.baselines[id].LockedAt) {
		t.Fatalf("signature should reference the baseline lock time")
	}
	if got := mem.status(id); got != sitevisit.StatusSigned {
		t.Fatalf("status: want=%s got=%s", sitevisit.StatusSigned, got)
	}
	if _, err := svc.Sign(context.Background(), link.Token, req); !errors.Is(err, ErrAlreadySigned) {
		t.Fatalf("second sign: want=%v got=%v", ErrAlreadySigned, err)
	}
}

func TestSignValidatesInput(t *testing.T) {
	svc, mem, id := newTestService(t)
	mem.baselines[id] = sitevisit.NewScopeBaseline(id, mem.visits[id], time.Now())
	link, _ := svc.Share(context.Background(), id)

	if _, err := svc.Sign(context.Background(), link.Token, SignRequest{SignerName: " ", Signature: "x"}); !errors.Is(err, ErrEmptySignature) {
		t.Fatalf("empty name: want=%v got=%v", ErrEmptySignature, err)
	}
	if _, err := svc.Sign(context.Background(), "garbage", SignRequest{SignerName: "a", Signature: "x"}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("bad token: want=%v got=%v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(link.Token) == "" {
		t.Fatalf("token should be set")
	}
}

func TestReviewShowsLockedBaselineNotLiveVisit(t *testing.T) {
	svc, mem, id := newTestService(t)
	v := mem.visits[id]
	roomID := uuid.New()
	v.Rooms = []sitevisit.Room{{ID: roomID, RoomType: "kitchen", RoomName: "Kitchen"}}
	mem.baselines[id] = sitevisit.NewScopeBaseline(id, v, time.Now())
	v.Rooms = append(v.Rooms, sitevisit.Room{ID: uuid.New(), RoomType: "bathroom", RoomName: "Bathroom"})

	link, err := svc.Share(context.Background(), id)
	if err != nil {
		t.Fatalf("Share: %v", err)
	}
	rev, err := svc.Review(context.Background(), link.Token)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if rev.Baseline == nil || len(rev.Baseline.Rooms) != 1 {
		t.Fatalf("review should carry the one-room baseline, got %+v", rev.Baseline)
	}
	if rev.Signature != nil {
		t.Fatalf("unsigned review should have no signature")
	}
	if _, err := svc.Review(context.Background(), link.Token+"x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered: want=%v got=%v", ErrInvalidToken, err)
	}
}
