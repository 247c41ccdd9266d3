package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubOrderingAndReconnect(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := SessionChannel(uuid.New())

	clientA := hub.NewSSEClient()
	hub.AddChannel(clientA, channel)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventStepUpdated, Data: map[string]any{"step": "save"}})
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventPipelineFinished})

	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventStepUpdated {
		t.Fatalf("first event: want=%s got=%s", SSEEventStepUpdated, got.Event)
	}
	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventPipelineFinished {
		t.Fatalf("second event: want=%s got=%s", SSEEventPipelineFinished, got.Event)
	}

	hub.CloseClient(clientA)
	hub.CloseClient(clientA)
	if _, ok := <-clientA.Outbound; ok {
		t.Fatalf("outbound should be closed after disconnect")
	}
	if n := hub.Subscribers(channel); n != 0 {
		t.Fatalf("subscribers after close: want=0 got=%d", n)
	}
	// no panic broadcasting to a channel whose only client left
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventStepUpdated})

	clientB := hub.NewSSEClient()
	hub.AddChannel(clientB, channel)
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventDraftSaved})
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != SSEEventDraftSaved {
		t.Fatalf("reconnect event: want=%s got=%s", SSEEventDraftSaved, got.Event)
	}
}

func TestSSEHubServeHTTPStreamsEvents(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := SessionChannel(uuid.New())
	client := hub.NewSSEClient()
	hub.AddChannel(client, channel)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		hub.ServeHTTP(rec, req, client)
		close(done)
	}()

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventStepUpdated, Data: map[string]any{"step": "photos"}})
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "event: StepUpdated") || !strings.Contains(body, `"step":"photos"`) {
		t.Fatalf("unexpected stream body: %q", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: got=%q", ct)
	}
}

type failingFanout struct{ calls int }

func (f *failingFanout) Publish(context.Context, SSEMessage) error {
	f.calls++
	return errors.New("redis down")
}

func TestPublisherFallsBackToLocalHub(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := SessionChannel(uuid.New())
	client := hub.NewSSEClient()
	hub.AddChannel(client, channel)

	fan := &failingFanout{}
	p := NewPublisher(hub, fan, mustTestLogger(t))
	p.Publish(context.Background(), SSEMessage{Channel: channel, Event: SSEEventVoiceAction})

	if fan.calls != 1 {
		t.Fatalf("fanout calls: want=1 got=%d", fan.calls)
	}
	if got := recvMessage(t, client.Outbound, time.Second); got.Event != SSEEventVoiceAction {
		t.Fatalf("event: want=%s got=%s", SSEEventVoiceAction, got.Event)
	}
}
