package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jwebster45206/memory-gate/pkg/answer"
)

// Configuration sources for the questions and images documents.
const (
	SourceBundled = "bundled"
	SourceFile    = "file"
	SourceHTTP    = "http"
)

// Unlock state stores.
const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel    slog.Level

	// Where the two gallery documents come from
	ConfigSource  string        `env:"CONFIG_SOURCE" envDefault:"bundled"`
	DataDir       string        `env:"DATA_DIR" envDefault:"./data"`
	ConfigBaseURL string        `env:"CONFIG_BASE_URL"`
	FetchTimeout  time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`

	// Optional local image folders, one sub-directory per section
	ImagesDir     string `env:"IMAGES_DIR"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`

	MatchModeRaw     string        `env:"MATCH_MODE" envDefault:"exact"`
	MatchMode        answer.Mode
	WrongAnswerDelay time.Duration `env:"WRONG_ANSWER_DELAY" envDefault:"900ms"`

	UnlockStore string        `env:"UNLOCK_STORE" envDefault:"redis"`
	RedisURL    string        `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	UnlockTTL   time.Duration `env:"UNLOCK_TTL" envDefault:"720h"`

	PreloadImages      bool `env:"PRELOAD_IMAGES" envDefault:"true"`
	PreloadConcurrency int  `env:"PRELOAD_CONCURRENCY" envDefault:"8"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)
	cfg.ConfigSource = strings.ToLower(strings.TrimSpace(cfg.ConfigSource))
	cfg.UnlockStore = strings.ToLower(strings.TrimSpace(cfg.UnlockStore))

	mode, err := answer.ParseMode(cfg.MatchModeRaw)
	if err != nil {
		return nil, err
	}
	cfg.MatchMode = mode

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.ConfigSource {
	case SourceBundled, SourceFile:
	case SourceHTTP:
		if c.ConfigBaseURL == "" {
			return fmt.Errorf("CONFIG_BASE_URL is required when CONFIG_SOURCE=%s", SourceHTTP)
		}
	default:
		return fmt.Errorf("invalid CONFIG_SOURCE %q (supported: bundled, file, http)", c.ConfigSource)
	}

	switch c.UnlockStore {
	case StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("invalid UNLOCK_STORE %q (supported: redis, memory)", c.UnlockStore)
	}

	if c.PreloadConcurrency < 1 {
		return fmt.Errorf("PRELOAD_CONCURRENCY must be at least 1, got %d", c.PreloadConcurrency)
	}
	return nil
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
