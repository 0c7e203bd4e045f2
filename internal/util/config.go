package util

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

//nolint:gochecknoglobals // here its ok
var once sync.Once

func init() {
	once.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	})
}

const (
	defaultAPIBaseURL = "http://localhost:8080/api/v1"
	defaultWSBaseURL  = "ws://localhost:8080"

	defaultAPITimeout  = 10 * time.Second
	defaultFileTimeout = 60 * time.Second

	defaultRefreshLead  = 60 * time.Second
	defaultRefreshFloor = 60 * time.Second
	defaultRefreshGrace = 100 * time.Millisecond

	defaultHeartbeatInterval    = 30 * time.Second
	defaultReconnectInterval    = 1 * time.Second
	defaultMaxReconnectInterval = 30 * time.Second
	defaultMaxReconnectAttempts = 5
)

type ClientConfig struct {
	BaseURL     string
	APITimeout  time.Duration
	FileTimeout time.Duration
}

func NewClientConfig() *ClientConfig {
	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}

	return &ClientConfig{
		BaseURL:     baseURL,
		APITimeout:  parseDurationOrDefault("API_TIMEOUT", defaultAPITimeout),
		FileTimeout: parseDurationOrDefault("FILE_TIMEOUT", defaultFileTimeout),
	}
}

type SessionConfig struct {
	ProfilePath  string
	RefreshLead  time.Duration
	RefreshFloor time.Duration
	RefreshGrace time.Duration
}

func NewSessionConfig() *SessionConfig {
	return &SessionConfig{
		ProfilePath:  profilePath(),
		RefreshLead:  parseDurationOrDefault("TOKEN_REFRESH_LEAD", defaultRefreshLead),
		RefreshFloor: parseDurationOrDefault("TOKEN_REFRESH_FLOOR", defaultRefreshFloor),
		RefreshGrace: parseDurationOrDefault("TOKEN_REFRESH_GRACE", defaultRefreshGrace),
	}
}

type RealtimeConfig struct {
	WSBaseURL            string
	HeartbeatInterval    time.Duration
	ReconnectInterval    time.Duration
	MaxReconnectInterval time.Duration
	MaxReconnectAttempts int
}

func NewRealtimeConfig() *RealtimeConfig {
	wsURL := os.Getenv("WS_BASE_URL")
	if wsURL == "" {
		wsURL = defaultWSBaseURL
	}

	return &RealtimeConfig{
		WSBaseURL:            wsURL,
		HeartbeatInterval:    parseDurationOrDefault("WS_HEARTBEAT_INTERVAL", defaultHeartbeatInterval),
		ReconnectInterval:    parseDurationOrDefault("WS_RECONNECT_INTERVAL", defaultReconnectInterval),
		MaxReconnectInterval: parseDurationOrDefault("WS_MAX_RECONNECT_INTERVAL", defaultMaxReconnectInterval),
		MaxReconnectAttempts: defaultMaxReconnectAttempts,
	}
}

// profilePath returns where the user profile is persisted between runs.
// Only the profile lives here, never the access token (see storage/file).
func profilePath() string {
	if p := os.Getenv("PROFILE_PATH"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".classboard-profile.json"
	}
	return filepath.Join(dir, "classboard", "profile.json")
}

func parseDurationOrDefault(varName string, def time.Duration) time.Duration {
	if v := os.Getenv(varName); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Invalid duration in %s: %s, using default %s", varName, v, def)
	}
	return def
}
