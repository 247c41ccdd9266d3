package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	EventSessionContext = "session.context"
	EventSessionEnd     = "session.end"
	EventToolCall       = "tool_call"
	EventToolResult     = "tool_result"
	EventTranscript     = "transcript"
	EventError          = "error"
)

// Event is one frame on the voice channel.
type Event struct {
	Type      string           `json:"type"`
	CallID    string           `json:"call_id,omitempty"`
	Name      string           `json:"name,omitempty"`
	Arguments json.RawMessage  `json:"arguments,omitempty"`
	Output    string           `json:"output,omitempty"`
	Text      string           `json:"text,omitempty"`
	Context   *SessionContext  `json:"context,omitempty"`
	Tools     []ToolDefinition `json:"tools,omitempty"`
}

// Transport is the opaque bidirectional channel to the voice agent.
type Transport interface {
	Connect(ctx context.Context) error
	Receive(ctx context.Context) (Event, error)
	Send(ctx context.Context, ev Event) error
	Close() error
}

var ErrTransportClosed = errors.New("voice transport closed")

type WSConfig struct {
	URL          string
	APIKey       string
	PingInterval time.Duration
	WriteTimeout time.Duration
}

// WSTransport speaks JSON events over a websocket and keeps it alive with pings.
type WSTransport struct {
	cfg WSConfig

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	done    chan struct{}
	closed  bool
}

func NewWSTransport(cfg WSConfig) *WSTransport {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &WSTransport{cfg: cfg, done: make(chan struct{})}
}

func (t *WSTransport) Connect(ctx context.Context) error {
	if t.cfg.URL == "" {
		return fmt.Errorf("voice agent url is not configured")
	}
	header := http.Header{}
	if t.cfg.APIKey != "" {
		header.Set("Authorization", "Bearer "+t.cfg.APIKey)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, t.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial voice agent: %w", err)
	}
	readWait := 2 * t.cfg.PingInterval
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = conn.Close()
		return ErrTransportClosed
	}
	t.conn = conn
	t.mu.Unlock()

	go t.pingLoop(conn)
	return nil
}

func (t *WSTransport) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(t.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(t.cfg.WriteTimeout))
			t.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (t *WSTransport) current() (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrTransportClosed
	}
	if t.conn == nil {
		return nil, fmt.Errorf("voice transport not connected")
	}
	return t.conn, nil
}

// Receive blocks until the next event. Cancel by closing the transport.
func (t *WSTransport) Receive(_ context.Context) (Event, error) {
	conn, err := t.current()
	if err != nil {
		return Event{}, err
	}
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		if t.isClosed() {
			return Event{}, ErrTransportClosed
		}
		return Event{}, err
	}
	// Any frame proves the peer is alive.
	_ = conn.SetReadDeadline(time.Now().Add(2 * t.cfg.PingInterval))
	return ev, nil
}

func (t *WSTransport) Send(ctx context.Context, ev Event) error {
	conn, err := t.current()
	if err != nil {
		return err
	}
	deadline := time.Now().Add(t.cfg.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = conn.SetWriteDeadline(deadline)
	return conn.WriteJSON(ev)
}

func (t *WSTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.done)
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	t.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
		time.Now().Add(time.Second))
	t.writeMu.Unlock()
	return conn.Close()
}

func (t *WSTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
