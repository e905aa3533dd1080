package config

import (
	"fmt"
	"time"
)

// Config represents the main chatstore configuration
type Config struct {
	// HTTP server
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Session store backend
	Store StoreConfig `json:"store" mapstructure:"store"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Environment label reported by the health endpoint
	Environment string `json:"environment" mapstructure:"environment"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host               string        `json:"host" mapstructure:"host"`
	Port               int           `json:"port" mapstructure:"port"`
	RateLimitPerMinute int           `json:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
	ShutdownTimeout    time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// StoreConfig selects and configures the session store backend
type StoreConfig struct {
	// Backend is "memory" or "sqlite"
	Backend string `json:"backend" mapstructure:"backend"`

	// SQLitePath is the database file path, used by the sqlite backend
	SQLitePath string `json:"sqlite_path" mapstructure:"sqlite_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// Store backends
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               3000,
			RateLimitPerMinute: 300,
			ShutdownTimeout:    30 * time.Second,
		},
		Store: StoreConfig{
			Backend: BackendSQLite,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
		Environment: "development",
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("sqlite backend requires a database path")
		}
	default:
		return fmt.Errorf("unknown store backend: %s (expected %s or %s)", c.Store.Backend, BackendMemory, BackendSQLite)
	}

	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate limit cannot be negative: %d", c.Server.RateLimitPerMinute)
	}

	return nil
}
