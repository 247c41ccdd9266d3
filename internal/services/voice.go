package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/platform/apierr"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
	"github.com/yungbote/sitevisit-backend/internal/realtime"
	"github.com/yungbote/sitevisit-backend/internal/voice"
)

var (
	ErrVoiceUnavailable = errors.New("voice agent is not configured")
	ErrVoiceActive      = errors.New("a voice session is already active")
	ErrVoiceNotActive   = errors.New("no voice session is active")
)

// TransportFactory opens a fresh agent connection for each voice session.
type TransportFactory func() voice.Transport

type VoiceStatus struct {
	State voice.State `json:"state"`
	Error string      `json:"error,omitempty"`
}

type VoiceService interface {
	Start(ctx context.Context, sessionID uuid.UUID) (VoiceStatus, error)
	Stop(sessionID uuid.UUID) error
	Log(sessionID uuid.UUID) (*VoiceLog, error)
}

type voiceService struct {
	log            *logger.Logger
	sessions       CaptureService
	transports     TransportFactory
	publisher      *realtime.Publisher
	connectTimeout time.Duration
}

func NewVoiceService(
	log *logger.Logger,
	sessions CaptureService,
	transports TransportFactory,
	publisher *realtime.Publisher,
	connectTimeout time.Duration,
) VoiceService {
	return &voiceService{
		log:            log.With("service", "VoiceService"),
		sessions:       sessions,
		transports:     transports,
		publisher:      publisher,
		connectTimeout: connectTimeout,
	}
}

func (s *voiceService) Start(ctx context.Context, sessionID uuid.UUID) (VoiceStatus, error) {
	if s.transports == nil {
		return VoiceStatus{}, apierr.New(http.StatusServiceUnavailable, "voice_unavailable", ErrVoiceUnavailable)
	}
	cs, err := s.sessions.Get(sessionID)
	if err != nil {
		return VoiceStatus{}, err
	}

	channel := realtime.SessionChannel(sessionID)
	cs.Actions.Watch(func(e voice.Entry) {
		s.publisher.Publish(context.Background(), realtime.SSEMessage{
			Channel: channel,
			Event:   realtime.SSEEventVoiceAction,
			Data:    e,
		})
	})

	var vs *voice.Session
	dispatcher := voice.NewDispatcher(cs.Holder, cs.Actions, s.log)
	vs = voice.NewSession(s.transports(), dispatcher, cs.Holder, voice.SessionConfig{
		ConnectTimeout: s.connectTimeout,
		OnEnd: func(reason error) {
			cs.mu.Lock()
			if cs.voice == vs {
				cs.voice = nil
			}
			cs.mu.Unlock()
			data := map[string]any{"session_id": sessionID.String()}
			if reason != nil {
				data["error"] = reason.Error()
			}
			s.publisher.Publish(context.Background(), realtime.SSEMessage{
				Channel: channel,
				Event:   realtime.SSEEventVoiceEnded,
				Data:    data,
			})
		},
	}, s.log)

	cs.mu.Lock()
	if cs.voice != nil {
		cs.mu.Unlock()
		return VoiceStatus{}, apierr.Conflict("voice_active", ErrVoiceActive)
	}
	cs.voice = vs
	cs.mu.Unlock()

	if err := vs.Start(ctx); err != nil {
		s.log.Warn("voice session failed to start", "session_id", sessionID.String(), "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, voice.ErrConnectTimeout) {
			status = http.StatusGatewayTimeout
		}
		return VoiceStatus{State: vs.State(), Error: err.Error()}, apierr.New(status, "voice_connect_failed", err)
	}
	s.log.Info("voice session started", "session_id", sessionID.String())
	return VoiceStatus{State: vs.State()}, nil
}

func (s *voiceService) Stop(sessionID uuid.UUID) error {
	cs, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	cs.mu.Lock()
	vs := cs.voice
	cs.mu.Unlock()
	if vs == nil {
		return apierr.Conflict("voice_not_active", ErrVoiceNotActive)
	}
	vs.End()
	return nil
}

// VoiceLog is the transcript plus the issues flagged during it.
type VoiceLog struct {
	Entries []voice.Entry `json:"entries"`
	Issues  []voice.Entry `json:"issues"`
}

func (s *voiceService) Log(sessionID uuid.UUID) (*VoiceLog, error) {
	cs, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return &VoiceLog{Entries: cs.Actions.Entries(), Issues: cs.Actions.Issues()}, nil
}
