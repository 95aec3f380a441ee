package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const DefaultGraphBaseURL = "https://graph.facebook.com/v21.0"

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// Webhook verification handshake secret
	VerifyToken string

	// WhatsApp Business Cloud API credentials
	AccessToken  string
	NumberID     string
	GraphBaseURL string

	// Story content
	StoryDir   string
	StartScene string
	ErrorScene string

	// Persistence
	AuditDBPath string
	RedisURL    string // empty means in-memory sessions
}

func Load() (*Config, error) {
	// Optional .env for local development; real env vars win.
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		LogLevel:     parseLogLevel(getEnv("LOG_LEVEL", "info")),
		VerifyToken:  os.Getenv("VERIFY_TOKEN"),
		AccessToken:  os.Getenv("WHATSAPP_ACCESS_TOKEN"),
		NumberID:     os.Getenv("WHATSAPP_NUMBER_ID"),
		GraphBaseURL: getEnv("GRAPH_BASE_URL", DefaultGraphBaseURL),
		StoryDir:     getEnv("STORY_DIR", "./data/story"),
		StartScene:   getEnv("START_SCENE", "intro/welcome"),
		ErrorScene:   getEnv("ERROR_SCENE", "common/error"),
		AuditDBPath:  getEnv("AUDIT_DB_PATH", "webhooks.db"),
		RedisURL:     os.Getenv("REDIS_URL"),
	}

	var missing []string
	if cfg.VerifyToken == "" {
		missing = append(missing, "VERIFY_TOKEN")
	}
	if cfg.AccessToken == "" {
		missing = append(missing, "WHATSAPP_ACCESS_TOKEN")
	}
	if cfg.NumberID == "" {
		missing = append(missing, "WHATSAPP_NUMBER_ID")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
