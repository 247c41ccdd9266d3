package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/sitevisit-backend/internal/capture"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

const DefaultConnectTimeout = 15 * time.Second

var (
	ErrConnectTimeout = errors.New("voice agent did not connect in time")
	ErrSessionClosed  = errors.New("voice session has ended")
	ErrAlreadyStarted = errors.New("voice session already started")
)

type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateActive     State = "active"
	StateEnded      State = "ended"
)

// SessionContext is sent once after connecting so the agent knows what is already captured.
type SessionContext struct {
	Instructions string   `json:"instructions"`
	Rooms        []string `json:"rooms"`
	ActiveRoom   string   `json:"active_room,omitempty"`
	Address      string   `json:"address,omitempty"`
	PromptKeys   []string `json:"prompt_keys,omitempty"`
}

type SessionConfig struct {
	ConnectTimeout time.Duration
	// OnEnd receives the reason a session stopped; nil means the user ended it.
	OnEnd func(err error)
}

// Session owns one voice conversation. Tool calls are dispatched against the holder,
// so the form surface and the agent always share one live visit.
type Session struct {
	log        *logger.Logger
	transport  Transport
	dispatcher *Dispatcher
	holder     *capture.Holder
	cfg        SessionConfig

	mu      sync.Mutex
	state   State
	endErr  error
	cancel  context.CancelFunc
	done    chan struct{}
	endOnce sync.Once
}

func NewSession(transport Transport, dispatcher *Dispatcher, holder *capture.Holder, cfg SessionConfig, baseLog *logger.Logger) *Session {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Session{
		log:        baseLog.With("component", "VoiceSession"),
		transport:  transport,
		dispatcher: dispatcher,
		holder:     holder,
		cfg:        cfg,
		state:      StateIdle,
		done:       make(chan struct{}),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err is why the session ended, once it has.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endErr
}

func (s *Session) Done() <-chan struct{} { return s.done }

// Start connects within the configured window, sends the visit context and begins
// serving tool calls in the background. A connect that does not finish in time ends
// the session with ErrConnectTimeout.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		st := s.state
		s.mu.Unlock()
		if st == StateEnded {
			return ErrSessionClosed
		}
		return ErrAlreadyStarted
	}
	s.state = StateConnecting
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	connectCtx, connectCancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	err := s.transport.Connect(connectCtx)
	timedOut := errors.Is(connectCtx.Err(), context.DeadlineExceeded)
	connectCancel()
	if err != nil {
		if timedOut {
			err = ErrConnectTimeout
		}
		s.log.Warn("voice connect failed", "error", err)
		s.end(err)
		return err
	}

	if err := s.transport.Send(ctx, Event{
		Type:    EventSessionContext,
		Context: s.buildContext(),
		Tools:   s.dispatcher.Definitions(),
	}); err != nil {
		err = fmt.Errorf("send session context: %w", err)
		s.end(err)
		return err
	}

	s.mu.Lock()
	if s.state == StateConnecting {
		s.state = StateActive
	}
	s.mu.Unlock()
	s.dispatcher.Actions().Append(Entry{Kind: EntrySession, Result: "voice session started"})
	go s.loop(runCtx)
	return nil
}

// End stops the session. Calling it again, or after a failure, is a no-op.
func (s *Session) End() { s.end(nil) }

func (s *Session) end(reason error) {
	s.endOnce.Do(func() {
		s.mu.Lock()
		s.state = StateEnded
		s.endErr = reason
		cancel := s.cancel
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		if err := s.transport.Close(); err != nil {
			s.log.Debug("voice transport close", "error", err)
		}
		msg := "voice session ended"
		if reason != nil {
			msg = "voice session ended: " + reason.Error()
		}
		s.dispatcher.Actions().Append(Entry{Kind: EntrySession, Result: msg})
		close(s.done)
		if s.cfg.OnEnd != nil {
			s.cfg.OnEnd(reason)
		}
	})
}

func (s *Session) loop(ctx context.Context) {
	for {
		ev, err := s.transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrTransportClosed) {
				s.end(nil)
				return
			}
			s.log.Warn("voice receive failed", "error", err)
			s.end(fmt.Errorf("voice channel lost: %w", err))
			return
		}
		switch ev.Type {
		case EventToolCall:
			out := s.dispatcher.Dispatch(ctx, ToolCall{ID: ev.CallID, Name: ev.Name, Arguments: ev.Arguments})
			if err := s.transport.Send(ctx, Event{Type: EventToolResult, CallID: ev.CallID, Name: ev.Name, Output: out}); err != nil {
				s.log.Warn("voice send tool result failed", "tool", ev.Name, "error", err)
				s.end(fmt.Errorf("voice channel lost: %w", err))
				return
			}
		case EventTranscript:
			if t := strings.TrimSpace(ev.Text); t != "" {
				s.dispatcher.Actions().Append(Entry{Kind: EntrySession, Result: t})
			}
		case EventError:
			s.log.Warn("voice agent error", "message", ev.Text)
			s.end(fmt.Errorf("voice agent error: %s", ev.Text))
			return
		case EventSessionEnd:
			s.end(nil)
			return
		default:
			s.log.Debug("ignoring voice event", "type", ev.Type)
		}
	}
}

func (s *Session) buildContext() *SessionContext {
	out := &SessionContext{
		Instructions: "You are helping a technician record a site visit. Use add_room before adding items to a new room, " +
			"set_room to switch rooms, and ask the technician when a tool reports an ambiguity.",
		Rooms: []string{},
	}
	sess := s.holder.Current()
	if sess == nil {
		return out
	}
	for _, r := range sess.Rooms() {
		out.Rooms = append(out.Rooms, r.RoomName)
	}
	if r, ok := sess.ActiveRoom(); ok {
		out.ActiveRoom = r.RoomName
	}
	out.Address = sess.Visit().Property.Address
	for _, d := range sess.Catalog().Definitions() {
		out.PromptKeys = append(out.PromptKeys, d.Key)
	}
	return out
}
