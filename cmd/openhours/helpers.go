package main

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/openhours/openhours/internal/config"
	"github.com/openhours/openhours/internal/hours"
	"github.com/openhours/openhours/internal/store"
)

// setupLogger creates a configured zap logger. Flags win over the config file.
func setupLogger(cfg *config.Config) (*zap.Logger, error) {
	levelName := logLevel
	if levelName == "" {
		levelName = cfg.Logging.Level
	}
	level := zapcore.InfoLevel
	switch levelName {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	zcfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	path := logFile
	if path == "" {
		path = cfg.Logging.File
	}
	if path != "" {
		zcfg.OutputPaths = []string{path}
	}

	return zcfg.Build()
}

// configPaths returns the list of config file paths to search.
func configPaths() []string {
	if cfgFile != "" {
		return []string{cfgFile}
	}
	homeDir, _ := os.UserHomeDir()
	return []string{
		"/etc/openhours/config.toml",
		filepath.Join(homeDir, ".config", "openhours", "config.toml"),
	}
}

// loadConfig loads configuration from the first available config file.
func loadConfig() (*config.Config, error) {
	cfg, _, err := loadConfigWithWarnings()
	return cfg, err
}

// loadConfigWithWarnings loads config and returns security warnings for sensitive settings.
func loadConfigWithWarnings() (*config.Config, []config.SecurityWarning, error) {
	for _, path := range configPaths() {
		if _, err := os.Stat(path); err == nil {
			return config.LoadWithWarnings(path)
		}
	}
	return config.DefaultConfig(), nil, nil
}

// openStore opens the place registry named by --store or the config.
func openStore(cfg *config.Config, logger *zap.Logger) (*store.Store, error) {
	path := storePath
	if path == "" {
		path = cfg.Store.Path
	}
	return store.Open(path, wallClock, logger)
}

func newEvaluator(cfg *config.Config, logger *zap.Logger) *hours.Evaluator {
	return hours.New(
		hours.WithClock(wallClock),
		hours.WithLookahead(cfg.Engine.LookaheadDays),
		hours.WithLogger(logger),
	)
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
