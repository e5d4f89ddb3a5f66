package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openhours/openhours/internal/api"
	"github.com/openhours/openhours/internal/metrics"
)

func serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the opening-hours HTTP API.

Routes:
  GET  /api/places                  list stored places
  GET  /api/places/{name}           show one place
  GET  /api/places/{name}/state     evaluate a place (?at=RFC3339&timezone=)
  POST /api/evaluate                evaluate rules from the request body
  GET  /api/resolve                 resolve ?clock=HH:MM&date=YYYY-MM-DD&timezone=
  GET  /health                      liveness
  GET  /metrics                     Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config)")

	return cmd
}

func runServe(listen string) error {
	// Load configuration with security warnings
	cfg, warnings, err := loadConfigWithWarnings()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := setupLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	for _, warn := range warnings {
		logger.Warn("Security warning", zap.String("message", warn.Message), zap.String("file", warn.File))
	}

	if listen != "" {
		cfg.Server.Listen = listen
	}

	places, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open place registry: %w", err)
	}
	defer places.Close()

	m := metrics.New()
	server := api.NewServer(&api.Config{
		Addr:              cfg.Server.Listen,
		DefaultTimezone:   cfg.Engine.Timezone,
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		Burst:             cfg.Server.Burst,
		PerClientRPS:      cfg.Server.PerClientRequestsPerSecond,
		PerClientBurst:    cfg.Server.PerClientBurst,
		Clock:             wallClock,
		Evaluator:         newEvaluator(cfg, logger),
		Metrics:           m,
	}, places, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runPeriodicTasks(ctx, server)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- err
		}
	}()

	logger.Info("openhours API started",
		zap.String("addr", cfg.Server.Listen),
		zap.String("store", firstNonEmpty(storePath, cfg.Store.Path)),
		zap.Int("lookaheadDays", cfg.Engine.LookaheadDays))

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.Error("Server error", zap.Error(err))
		return err
	}

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("API shutdown error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}

// runPeriodicTasks keeps gauges current while places change from the CLI.
func runPeriodicTasks(ctx context.Context, server *api.Server) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			server.RefreshPlaceCount()
		}
	}
}
