// Package config handles configuration loading and defaults for openhours
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/openhours/openhours/internal/hours"
)

// Config holds all configuration for openhours
type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Server  ServerConfig  `toml:"server"`
	Store   StoreConfig   `toml:"store"`
	Logging LoggingConfig `toml:"logging"`
}

// EngineConfig holds rule evaluation settings
type EngineConfig struct {
	Timezone      string `toml:"timezone"`       // IANA name used when a place has none; empty = local zone
	LookaheadDays int    `toml:"lookahead_days"` // how far the transition search looks ahead
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Listen            string  `toml:"listen"`
	RequestsPerSecond float64 `toml:"requests_per_second"` // 0 = unlimited
	Burst             int     `toml:"burst"`

	// Per client IP; 0 = unlimited
	PerClientRequestsPerSecond float64 `toml:"per_client_requests_per_second"`
	PerClientBurst             int     `toml:"per_client_burst"`
}

// StoreConfig holds place registry settings
type StoreConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// SecurityWarning describes a setting that exposes more than intended
type SecurityWarning struct {
	Message string
	File    string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Engine: EngineConfig{
			Timezone:      "",
			LookaheadDays: hours.DefaultLookahead,
		},
		Server: ServerConfig{
			Listen:                     "127.0.0.1:8086",
			RequestsPerSecond:          50,
			Burst:                      100,
			PerClientRequestsPerSecond: 10,
			PerClientBurst:             20,
		},
		Store: StoreConfig{
			Path: filepath.Join(homeDir, ".local", "share", "openhours", "places.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// Load reads configuration from a file, merging with defaults
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if no config file
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// LoadWithWarnings loads configuration and reports settings that expose the
// API beyond the local machine.
func LoadWithWarnings(path string) (*Config, []SecurityWarning, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, nil, err
	}

	var warnings []SecurityWarning
	if host, _, err := net.SplitHostPort(cfg.Server.Listen); err == nil {
		ip := net.ParseIP(host)
		if host == "" || (ip != nil && !ip.IsLoopback()) {
			warnings = append(warnings, SecurityWarning{
				Message: fmt.Sprintf("server.listen %q accepts connections from other hosts", cfg.Server.Listen),
				File:    path,
			})
		}
	}
	if cfg.Server.RequestsPerSecond <= 0 {
		warnings = append(warnings, SecurityWarning{
			Message: "server.requests_per_second is 0, API requests are not rate limited",
			File:    path,
		})
	}

	return cfg, warnings, nil
}

// Validate checks values the rest of the program relies on
func (c *Config) Validate() error {
	var errs []error

	if c.Engine.Timezone != "" {
		if _, err := hours.LoadLocation(c.Engine.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("engine.timezone: %w", err))
		}
	}
	if c.Engine.LookaheadDays < 1 {
		errs = append(errs, fmt.Errorf("engine.lookahead_days must be at least 1, got %d", c.Engine.LookaheadDays))
	}
	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		errs = append(errs, fmt.Errorf("server.listen: %w", err))
	}
	if c.Server.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("server.requests_per_second must not be negative"))
	}
	if c.Server.RequestsPerSecond > 0 && c.Server.Burst < 1 {
		errs = append(errs, fmt.Errorf("server.burst must be at least 1 when rate limiting"))
	}
	if c.Server.PerClientRequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("server.per_client_requests_per_second must not be negative"))
	}
	if c.Server.PerClientRequestsPerSecond > 0 && c.Server.PerClientBurst < 1 {
		errs = append(errs, fmt.Errorf("server.per_client_burst must be at least 1 when rate limiting"))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save writes configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
