package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	BrokerURL   string

	StoragePath  string
	MediaBaseURL string

	TextBaseURL string
	TextAPIKey  string
	TextModel   string
	TextTimeout time.Duration

	ImageBaseURL      string
	ImageTimeout      time.Duration
	ImageRetryMax     int
	ImageRetryBackoff time.Duration

	MaxVariants    int
	ComposeEnabled bool
	NotifyInterval time.Duration
	ResultTTL      time.Duration
	PollInterval   time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		BrokerURL:   os.Getenv("BROKER_URL"),

		StoragePath:  getEnv("STORAGE_PATH", "./generated_media"),
		MediaBaseURL: getEnv("MEDIA_BASE_URL", "/media"),

		TextBaseURL: getEnv("TEXT_BASE_URL", "https://api.openai.com/v1"),
		TextAPIKey:  os.Getenv("TEXT_API_KEY"),
		TextModel:   getEnv("TEXT_MODEL", "gpt-4o-mini"),
		TextTimeout: time.Second * time.Duration(getEnvInt("TEXT_TIMEOUT_SECONDS", 30)),

		ImageBaseURL:      getEnv("IMAGE_BASE_URL", "https://image.pollinations.ai"),
		ImageTimeout:      time.Second * time.Duration(getEnvInt("IMAGE_TIMEOUT_SECONDS", 45)),
		ImageRetryMax:     getEnvInt("IMAGE_RETRY_MAX", 3),
		ImageRetryBackoff: time.Second * time.Duration(getEnvInt("IMAGE_RETRY_BACKOFF_SECONDS", 2)),

		MaxVariants:    getEnvInt("MAX_VARIANTS", 4),
		ComposeEnabled: getEnvBool("COMPOSE_ENABLED", true),
		NotifyInterval: time.Millisecond * time.Duration(getEnvInt("NOTIFY_INTERVAL_MS", 500)),
		ResultTTL:      time.Second * time.Duration(getEnvInt("RESULT_TTL_SECONDS", 3600)),
		PollInterval:   time.Second * time.Duration(getEnvInt("WORKER_POLL_SECONDS", 2)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.MaxVariants < 1 {
		return nil, fmt.Errorf("MAX_VARIANTS must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
