package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/paulexconde/eventmatch/internal/pkg/store"
)

// Config is read from EVENTMATCH_* environment variables at startup.
type Config struct {
	Addr          string        `env:"EVENTMATCH_ADDR"            envDefault:":8080"`
	DBDriver      string        `env:"EVENTMATCH_DB_DRIVER"       envDefault:"sqlite"`
	DatabaseURL   string        `env:"EVENTMATCH_DATABASE_URL"    envDefault:"eventmatch.db"`
	JWTSecret     string        `env:"EVENTMATCH_JWT_SECRET"      envDefault:"eventmatch-dev-secret"`
	TokenTTL      time.Duration `env:"EVENTMATCH_TOKEN_TTL"       envDefault:"24h"`
	PublicBaseURL string        `env:"EVENTMATCH_PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	MediaDir      string        `env:"EVENTMATCH_MEDIA_DIR"       envDefault:"media"`

	NATSURL           string `env:"EVENTMATCH_NATS_URL"`
	NATSSubjectPrefix string `env:"EVENTMATCH_NATS_SUBJECT_PREFIX" envDefault:"eventmatch"`

	Workers         int           `env:"EVENTMATCH_WORKERS"          envDefault:"4"`
	QueueSize       int           `env:"EVENTMATCH_QUEUE_SIZE"       envDefault:"256"`
	ShutdownTimeout time.Duration `env:"EVENTMATCH_SHUTDOWN_TIMEOUT" envDefault:"15s"`

	LogLevel  string `env:"EVENTMATCH_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"EVENTMATCH_LOG_FORMAT" envDefault:"text"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := store.ParseDialect(c.DBDriver); err != nil {
		return err
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("EVENTMATCH_DATABASE_URL is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("EVENTMATCH_WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("EVENTMATCH_QUEUE_SIZE must not be negative, got %d", c.QueueSize)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("EVENTMATCH_LOG_LEVEL: %w", err)
	}
	return level, nil
}

// Logger builds the process logger on stderr.
func (c *Config) Logger() *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(c.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
