package app

import (
	"context"
	"fmt"

	"github.com/yungbote/sitevisit-backend/internal/data/db"
	"github.com/yungbote/sitevisit-backend/internal/http"
	"github.com/yungbote/sitevisit-backend/internal/observability"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
	"github.com/yungbote/sitevisit-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *db.PostgresService
	Cfg      Config
	Clients  Clients
	Services Services
	SSEHub   *realtime.SSEHub
	Server   *http.Server

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	cfg := LoadConfig()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	store, err := openDatabase(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	if err := store.AutoMigrateAll(); err != nil {
		_ = store.Close()
		log.Sync()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = store.Close()
		log.Sync()
		return nil, err
	}

	ssehub := realtime.NewSSEHub(log)
	var fanout realtime.Fanout
	if clients.SSEBus != nil {
		fanout = clients.SSEBus
	}
	publisher := realtime.NewPublisher(ssehub, fanout, log)

	serviceset, err := wireServices(store.DB(), log, cfg, clients, publisher)
	if err != nil {
		clients.Close()
		_ = store.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, serviceset, ssehub, clients.Media)
	middleware := wireMiddleware(log, cfg)
	server := wireServer(log, cfg, handlerset, middleware, clients.Media)

	return &App{
		Log:          log,
		DB:           store,
		Cfg:          cfg,
		Clients:      clients,
		Services:     serviceset,
		SSEHub:       ssehub,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

func openDatabase(log *logger.Logger, cfg Config) (*db.PostgresService, error) {
	switch cfg.DatabaseDriver {
	case "sqlite":
		log.Info("Opening sqlite database", "path", cfg.SQLitePath)
		return db.NewSQLiteService(cfg.SQLitePath, log)
	case "", "postgres":
		return db.NewPostgresService(db.PostgresDSN(), log)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
}

// Start begins background work: the redis forwarder feeds bus messages into the local hub.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Clients.SSEBus != nil {
		if err := a.Clients.SSEBus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			return fmt.Errorf("start SSE forwarder: %w", err)
		}
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "port", a.Cfg.Port)
	return a.Server.Run(":" + a.Cfg.Port)
}

// Close stops accepting requests, flushes open capture sessions, then releases clients.
func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if err := a.Server.Shutdown(ctx); err != nil {
		a.Log.Warn("http shutdown", "error", err)
	}
	a.Services.Capture.CloseAll(ctx)
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if err := a.DB.Close(); err != nil {
		a.Log.Warn("database close", "error", err)
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown", "error", err)
		}
	}
	a.Log.Sync()
}
