package app

import (
	"strings"
	"time"

	"github.com/yungbote/sitevisit-backend/internal/platform/envutil"
)

type Config struct {
	LogMode     string
	Port        string
	ServiceName string
	Environment string
	Version     string

	// DatabaseDriver is postgres or sqlite; sqlite is for local runs.
	DatabaseDriver string
	SQLitePath     string

	RedisAddr    string
	RedisChannel string

	DraftKeyPrefix string
	DraftDebounce  time.Duration
	DraftTTL       time.Duration

	LocalMediaDir string
	MediaBaseURL  string

	BridgeBaseURL string
	BridgeAPIKey  string
	BridgeTimeout time.Duration

	VoiceAgentURL       string
	VoiceAgentAPIKey    string
	VoiceConnectTimeout time.Duration

	ShareTokenSecret string
	ShareTokenTTL    time.Duration

	ChecklistRulesFile string
	PromptCatalogFile  string

	APIKeys     []string
	CORSOrigins []string
}

func LoadConfig() Config {
	port := envutil.String("PORT", "8080")
	return Config{
		LogMode:     envutil.String("LOG_MODE", "development"),
		Port:        port,
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "sitevisit-api"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", ""),

		DatabaseDriver: strings.ToLower(envutil.String("DATABASE_DRIVER", "postgres")),
		SQLitePath:     envutil.String("SQLITE_PATH", "sitevisit.db"),

		RedisAddr:    envutil.String("REDIS_ADDR", ""),
		RedisChannel: envutil.String("REDIS_CHANNEL", "sitevisit:sse"),

		DraftKeyPrefix: envutil.String("DRAFT_KEY_PREFIX", "sitevisit:draft"),
		DraftDebounce:  envutil.Duration("DRAFT_DEBOUNCE_MS", 800, time.Millisecond),
		DraftTTL:       envutil.Duration("DRAFT_TTL_HOURS", 336, time.Hour),

		LocalMediaDir: envutil.String("LOCAL_MEDIA_DIR", "./media"),
		MediaBaseURL:  strings.TrimRight(envutil.String("MEDIA_BASE_URL", "http://localhost:"+port+"/media"), "/"),

		BridgeBaseURL: envutil.String("DOC_BRIDGE_BASE_URL", ""),
		BridgeAPIKey:  envutil.String("DOC_BRIDGE_API_KEY", ""),
		BridgeTimeout: envutil.Duration("DOC_BRIDGE_TIMEOUT_SECONDS", 20, time.Second),

		VoiceAgentURL:       envutil.String("VOICE_AGENT_URL", ""),
		VoiceAgentAPIKey:    envutil.String("VOICE_AGENT_API_KEY", ""),
		VoiceConnectTimeout: envutil.Duration("VOICE_CONNECT_TIMEOUT_SECONDS", 15, time.Second),

		ShareTokenSecret: envutil.String("SHARE_TOKEN_SECRET", ""),
		ShareTokenTTL:    envutil.Duration("SHARE_TOKEN_TTL_HOURS", 720, time.Hour),

		ChecklistRulesFile: envutil.String("CHECKLIST_RULES_FILE", ""),
		PromptCatalogFile:  envutil.String("PROMPT_CATALOG_FILE", ""),

		APIKeys:     splitList(envutil.String("API_KEYS", "")),
		CORSOrigins: splitList(envutil.String("CORS_ORIGINS", "")),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
