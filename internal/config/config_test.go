package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "./littlesteps.db", cfg.DatabasePath)
	assert.Equal(t, time.Second, cfg.AssistantDelay)
	assert.Equal(t, 2*1024*1024, cfg.PhotoMaxBytes)
	assert.True(t, cfg.SeedExample)
	assert.Equal(t, 30*time.Minute, cfg.DeviceIdleTTL)
	assert.Equal(t, 5*time.Minute, cfg.DeviceSweep)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/littlesteps")
	t.Setenv("ASSISTANT_REPLY_DELAY", "250ms")
	t.Setenv("SEED_EXAMPLE_PROFILE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.DatabaseType)
	assert.Equal(t, 250*time.Millisecond, cfg.AssistantDelay)
	assert.False(t, cfg.SeedExample)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			DatabaseType:  "sqlite",
			DatabasePath:  "x.db",
			PhotoMaxBytes: 10,
			RateLimit:     1,
			RateWindow:    time.Second,
			LogFormat:     "json",
			DeviceIdleTTL: time.Minute,
			DeviceSweep:   time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid sqlite", mutate: func(*Config) {}},
		{name: "mysql without url", mutate: func(c *Config) { c.DatabaseType = "mysql" }, wantErr: true},
		{name: "unknown database", mutate: func(c *Config) { c.DatabaseType = "oracle" }, wantErr: true},
		{name: "zero photo limit", mutate: func(c *Config) { c.PhotoMaxBytes = 0 }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
		{name: "negative delay", mutate: func(c *Config) { c.AssistantDelay = -time.Second }, wantErr: true},
		{name: "zero idle ttl", mutate: func(c *Config) { c.DeviceIdleTTL = 0 }, wantErr: true},
		{name: "zero sweep interval", mutate: func(c *Config) { c.DeviceSweep = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
