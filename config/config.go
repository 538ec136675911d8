// Package config, sync engine ayarlarını environment variable'lardan okur.
//
// Neden environment variable?
// Aynı binary farklı kullanıcı ve sunucularla çalışır; token ve URL gibi
// değerler koda gömülmez. Geliştirmede çalışma dizinindeki .env dosyası
// godotenv ile önce yüklenir, production'da gerçek env değerleri kullanılır.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Upstream UpstreamConfig
	Database DatabaseConfig
	Sync     SyncConfig
	Status   StatusConfig
}

// UpstreamConfig is the chat server connection.
type UpstreamConfig struct {
	URL    string
	APIKey string
	Token  string // JWT; the current user id comes from its user_id claim
	// UserID overrides the id taken from Token.
	UserID string
}

type DatabaseConfig struct {
	Path string // SQLite file, e.g. ./data/sync.db
}

type SyncConfig struct {
	TypingTimeout time.Duration
	QueueSize     int
}

// StatusConfig is the local HTTP server (health, stats, subscriber ws).
type StatusConfig struct {
	Host          string
	Port          int
	CORSOrigins   []string
	// TokenCacheTTL is how long a parsed bearer token is remembered.
	TokenCacheTTL time.Duration
}

func Load() (*Config, error) {
	// A missing .env is fine; production sets real env vars.
	_ = godotenv.Load()

	typingSeconds, err := positiveInt("TYPING_TIMEOUT_SECONDS", "30")
	if err != nil {
		return nil, err
	}
	tokenCacheSeconds, err := positiveInt("TOKEN_CACHE_SECONDS", "300")
	if err != nil {
		return nil, err
	}
	queueSize, err := positiveInt("SYNC_QUEUE_SIZE", "256")
	if err != nil {
		return nil, err
	}
	port, err := positiveInt("STATUS_PORT", "9191")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Upstream: UpstreamConfig{
			URL:    getEnv("SYNC_WS_URL", ""),
			APIKey: getEnv("SYNC_API_KEY", ""),
			Token:  getEnv("SYNC_TOKEN", ""),
			UserID: getEnv("SYNC_USER_ID", ""),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/sync.db"),
		},
		Sync: SyncConfig{
			TypingTimeout: time.Duration(typingSeconds) * time.Second,
			QueueSize:     queueSize,
		},
		Status: StatusConfig{
			Host:          getEnv("STATUS_HOST", "127.0.0.1"),
			Port:          port,
			CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3030")),
			TokenCacheTTL: time.Duration(tokenCacheSeconds) * time.Second,
		},
	}

	if cfg.Upstream.URL == "" {
		return nil, fmt.Errorf("SYNC_WS_URL environment variable is required")
	}
	if cfg.Upstream.Token == "" && cfg.Upstream.UserID == "" {
		return nil, fmt.Errorf("SYNC_TOKEN or SYNC_USER_ID environment variable is required")
	}

	return cfg, nil
}

// Addr is the status server listen address, e.g. "127.0.0.1:9191".
func (c *StatusConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func positiveInt(key, fallback string) (int, error) {
	n, err := strconv.Atoi(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %d", key, n)
	}
	return n, nil
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
