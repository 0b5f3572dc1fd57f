package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration
type Config struct {
	ServerPort      string        `env:"PORT" envDefault:"8080"`
	DatabaseType    string        `env:"DATABASE_TYPE" envDefault:"sqlite"`
	DatabasePath    string        `env:"DB_PATH" envDefault:"./littlesteps.db"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	TemplatesPath   string        `env:"TEMPLATES_PATH"`
	AppSecret       string        `env:"APP_SECRET"`
	DeviceTokenTTL  time.Duration `env:"DEVICE_TOKEN_TTL" envDefault:"8760h"`
	PhotoMaxBytes   int           `env:"PHOTO_MAX_BYTES" envDefault:"2097152"` // 2MB
	AssistantDelay  time.Duration `env:"ASSISTANT_REPLY_DELAY" envDefault:"1s"`
	RateLimit       int           `env:"RATE_LIMIT" envDefault:"60"`
	RateWindow      time.Duration `env:"RATE_WINDOW" envDefault:"1m"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	SeedExample     bool          `env:"SEED_EXAMPLE_PROFILE" envDefault:"true"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	DeviceIdleTTL   time.Duration `env:"DEVICE_IDLE_TTL" envDefault:"30m"`
	DeviceSweep     time.Duration `env:"DEVICE_SWEEP_INTERVAL" envDefault:"5m"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks combinations env parsing cannot express.
func (c *Config) Validate() error {
	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "sqlite3", "sqlite-go", "":
		if c.DatabasePath == "" {
			return errors.New("DB_PATH is required for sqlite")
		}
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s", c.DatabaseType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
	if c.PhotoMaxBytes <= 0 {
		return errors.New("PHOTO_MAX_BYTES must be positive")
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		return errors.New("RATE_LIMIT and RATE_WINDOW must be positive")
	}
	if c.DeviceIdleTTL <= 0 || c.DeviceSweep <= 0 {
		return errors.New("DEVICE_IDLE_TTL and DEVICE_SWEEP_INTERVAL must be positive")
	}
	if c.AssistantDelay < 0 {
		return errors.New("ASSISTANT_REPLY_DELAY must not be negative")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format: %s", c.LogFormat)
	}
	return nil
}
