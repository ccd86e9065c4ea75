package app

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PG_DSN", "postgres://x@localhost/db")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "15 2 * * *", cfg.CashflowSyncCron)
	assert.Equal(t, 35*time.Minute, cfg.CacheTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", " Memory ")
	t.Setenv("APP_ENV", "production")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
	t.Setenv("LOG_LEVEL", "debug")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.True(t, cfg.IsProduction())
}

func TestValidateRejects(t *testing.T) {
	base := func() Config {
		return Config{StoreDriver: StoreDriverMemory, RateLimitPerMinute: 10, LogLevel: "info", CacheTTL: time.Minute}
	}
	cases := map[string]func(*Config){
		"driver":     func(c *Config) { c.StoreDriver = "sqlite" },
		"rate limit": func(c *Config) { c.RateLimitPerMinute = 0 },
		"dsn":        func(c *Config) { c.StoreDriver = StoreDriverPostgres; c.PGDSN = "" },
		"log level":  func(c *Config) { c.LogLevel = "chatty" },
		"cache ttl":  func(c *Config) { c.CacheTTL = 0 },
		"ttl a day":  func(c *Config) { c.CacheTTL = 24 * time.Hour },
	}
	for name, mutate := range cases {
		cfg := base()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
	cfg := base()
	assert.NoError(t, cfg.Validate())
}

func TestLoggerHonoursLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogFormat: "json", LogLevel: "warn"})
	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"k":"v"`)
}
