package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
)

func TestForwardPhotosPostsPayload(t *testing.T) {
	visitID := uuid.New()
	var got forwardRequest
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accepted":1}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "secret", Timeout: time.Second}, nil)
	photos := []sitevisit.Photo{{ID: uuid.New(), PhotoURL: "https://cdn/a.jpg", PhotoPhase: sitevisit.PhaseBefore}}
	if err := c.ForwardPhotos(context.Background(), visitID, photos); err != nil {
		t.Fatalf("ForwardPhotos: %v", err)
	}
	if path != "/v1/visits/"+visitID.String()+"/photos" {
		t.Fatalf("path: got=%q", path)
	}
	if auth != "Bearer secret" {
		t.Fatalf("auth: got=%q", auth)
	}
	if got.VisitID != visitID || len(got.Photos) != 1 || got.Photos[0].URL != "https://cdn/a.jpg" {
		t.Fatalf("payload: %+v", got)
	}
}

func TestForwardPhotosReportsRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"archive offline"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second}, nil)
	err := c.ForwardPhotos(context.Background(), uuid.New(), []sitevisit.Photo{{ID: uuid.New(), PhotoURL: "https://cdn/a.jpg"}})
	if err == nil || !strings.Contains(err.Error(), "archive offline") {
		t.Fatalf("want remote message in error, got %v", err)
	}
}

func TestForwardPhotosPartialAcceptIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accepted":1}`))
	}))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second}, nil)
	photos := []sitevisit.Photo{{ID: uuid.New(), PhotoURL: "https://a"}, {ID: uuid.New(), PhotoURL: "https://b"}}
	if err := c.ForwardPhotos(context.Background(), uuid.New(), photos); err == nil {
		t.Fatalf("expected partial acceptance error")
	}
}

func TestDisabledBridgeIsNoop(t *testing.T) {
	c := NewClient(Config{}, nil)
	if c.Enabled() {
		t.Fatalf("bridge without base url should be disabled")
	}
	if err := c.ForwardPhotos(context.Background(), uuid.New(), nil); err != nil {
		t.Fatalf("disabled bridge: %v", err)
	}
}
