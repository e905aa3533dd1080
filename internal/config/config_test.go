package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 300, cfg.Server.RateLimitPerMinute)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "development", cfg.Environment)
}

func TestValidate(t *testing.T) {
	t.Run("default config with sqlite path is valid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Store.SQLitePath = "/tmp/sessions.db"
		require.NoError(t, cfg.Validate())
	})

	t.Run("memory backend needs no path", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Store.Backend = BackendMemory
		require.NoError(t, cfg.Validate())
	})

	t.Run("sqlite backend requires a path", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Store.Backend = BackendSQLite
		cfg.Store.SQLitePath = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database path")
	})

	t.Run("unknown backend is rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Store.Backend = "redis"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown store backend")
	})

	t.Run("invalid port is rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Store.Backend = BackendMemory
		cfg.Server.Port = 0
		assert.Error(t, cfg.Validate())

		cfg.Server.Port = 70000
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative rate limit is rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Store.Backend = BackendMemory
		cfg.Server.RateLimitPerMinute = -1
		assert.Error(t, cfg.Validate())
	})
}
