package generate_outputs

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
)

type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	visitID    uuid.UUID
	customerID uuid.UUID
	projectID  uuid.UUID
	saved      []*sitevisit.Visit
	statuses   []sitevisit.Status
	baseline   *sitevisit.ScopeBaseline
	checklist  *sitevisit.PreStartChecklist
	forwarded  []sitevisit.Photo

	failUpload func(ph sitevisit.Photo) bool
	failBridge bool
	failSave   bool
	failStatus bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:      map[string]int{},
		visitID:    uuid.New(),
		customerID: uuid.New(),
		projectID:  uuid.New(),
	}
}

func (f *fakeBackend) deps() Deps {
	return Deps{
		Visits:     f,
		Customers:  f,
		Uploader:   f,
		Projects:   f,
		Bridge:     f,
		Baselines:  f,
		Generator:  f,
		Checklists: f,
	}
}

func (f *fakeBackend) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) SaveVisit(_ context.Context, v *sitevisit.Visit) (uuid.UUID, error) {
	f.hit("save")
	if f.failSave {
		return uuid.Nil, errors.New("db down")
	}
	f.mu.Lock()
	f.saved = append(f.saved, v.Clone())
	f.mu.Unlock()
	return f.visitID, nil
}

func (f *fakeBackend) SetStatus(_ context.Context, _ uuid.UUID, status sitevisit.Status) error {
	f.hit("status")
	if f.failStatus {
		return errors.New("status write failed")
	}
	f.mu.Lock()
	f.statuses = append(f.statuses, status)
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) ResolveCustomer(_ context.Context, _ sitevisit.ClientDetails) (uuid.UUID, error) {
	f.hit("customer")
	return f.customerID, nil
}

func (f *fakeBackend) Upload(_ context.Context, _ uuid.UUID, ph sitevisit.Photo) (string, error) {
	f.hit("upload")
	if f.failUpload != nil && f.failUpload(ph) {
		return "", errors.New("bucket unavailable")
	}
	return "https://cdn.example.com/" + strings.TrimPrefix(ph.PhotoURL, "blob:") + ".jpg", nil
}

func (f *fakeBackend) CreatePhotoProject(_ context.Context, _ uuid.UUID, _ string, _ int) (uuid.UUID, error) {
	f.hit("project")
	return f.projectID, nil
}

func (f *fakeBackend) ForwardPhotos(_ context.Context, _ uuid.UUID, photos []sitevisit.Photo) error {
	f.hit("bridge")
	if f.failBridge {
		return errors.New("bridge timeout")
	}
	f.mu.Lock()
	f.forwarded = append([]sitevisit.Photo{}, photos...)
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) GetBaseline(_ context.Context, _ uuid.UUID) (*sitevisit.ScopeBaseline, bool, error) {
	f.hit("get_baseline")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.baseline == nil {
		return nil, false, nil
	}
	return f.baseline.Copy(), true, nil
}

func (f *fakeBackend) LockBaseline(_ context.Context, b *sitevisit.ScopeBaseline) (*sitevisit.ScopeBaseline, error) {
	f.hit("lock_baseline")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.baseline == nil {
		f.baseline = b.Copy()
	}
	return f.baseline.Copy(), nil
}

func (f *fakeBackend) Generate(_ context.Context, v *sitevisit.Visit, b *sitevisit.ScopeBaseline) (*sitevisit.PreStartChecklist, error) {
	f.hit("generate")
	c := &sitevisit.PreStartChecklist{VisitID: *v.ID, GeneratedAt: b.LockedAt}
	c.Items = append(c.Items, sitevisit.ChecklistItem{Category: "access", Label: "Site access confirmed", Required: true})
	return c, nil
}

func (f *fakeBackend) SaveChecklist(_ context.Context, c *sitevisit.PreStartChecklist) error {
	f.hit("save_checklist")
	f.mu.Lock()
	f.checklist = c
	f.mu.Unlock()
	return nil
}
