package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/sitevisit-backend/internal/bridge"
	"github.com/yungbote/sitevisit-backend/internal/draft"
	"github.com/yungbote/sitevisit-backend/internal/platform/gcp"
	"github.com/yungbote/sitevisit-backend/internal/platform/localmedia"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
	"github.com/yungbote/sitevisit-backend/internal/realtime/bus"
	"github.com/yungbote/sitevisit-backend/internal/services"
	"github.com/yungbote/sitevisit-backend/internal/voice"
)

type Clients struct {
	Redis   goredis.UniversalClient
	SSEBus  bus.Bus
	DraftKV draft.KV
	Media   *localmedia.Store
	Photos  photoProvider
	Bridge  *bridge.Client
	Voice   services.TransportFactory
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Redis
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:        cfg.RedisAddr,
			DialTimeout: 5 * time.Second,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("redis ping: %w", err)
		}
		c.Redis = rdb
		c.SSEBus = bus.NewRedisBus(log, rdb, cfg.RedisChannel)
		c.DraftKV = draft.NewRedisKV(rdb, cfg.DraftTTL)
	} else {
		log.Warn("REDIS_ADDR not set; drafts and realtime stay in process memory")
		c.DraftKV = draft.NewMemoryKV()
	}

	// Local media
	media, err := localmedia.New(cfg.LocalMediaDir, log)
	if err != nil {
		c.Close()
		return Clients{}, fmt.Errorf("init local media: %w", err)
	}
	c.Media = media

	// Photo publishing
	storageCfg, cfgErr := gcp.ResolveStorageConfigFromEnv()
	photos, err := resolvePhotoPublisher(ctx, log, storageCfg, cfgErr, media, cfg.MediaBaseURL)
	if err != nil {
		c.Close()
		return Clients{}, err
	}
	c.Photos = photos

	// Documentation bridge
	c.Bridge = bridge.NewClient(bridge.Config{
		BaseURL: cfg.BridgeBaseURL,
		APIKey:  cfg.BridgeAPIKey,
		Timeout: cfg.BridgeTimeout,
	}, log)

	// Voice agent
	if cfg.VoiceAgentURL != "" {
		wsCfg := voice.WSConfig{URL: cfg.VoiceAgentURL, APIKey: cfg.VoiceAgentAPIKey}
		c.Voice = func() voice.Transport { return voice.NewWSTransport(wsCfg) }
	} else {
		log.Warn("VOICE_AGENT_URL not set; voice capture is disabled")
	}

	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.SSEBus != nil {
		_ = c.SSEBus.Close()
	}
	_ = c.Photos.Close()
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
