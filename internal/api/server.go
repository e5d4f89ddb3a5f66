// Package api serves opening-hours evaluation over HTTP
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/openhours/openhours/internal/hours"
	"github.com/openhours/openhours/internal/metrics"
	"github.com/openhours/openhours/internal/ratelimit"
	"github.com/openhours/openhours/internal/requestid"
	"github.com/openhours/openhours/internal/sanitize"
	"github.com/openhours/openhours/internal/store"
)

// maxBodyBytes caps POST bodies; a rule set is a few KB at most.
const maxBodyBytes = 1 << 20

// Server is the HTTP API server
type Server struct {
	addr            string
	evaluator       *hours.Evaluator
	places          *store.Store
	clock           clock.Clock
	defaultTimezone string
	limiter         *ratelimit.Limiter
	metrics         *metrics.Metrics
	logger          *zap.Logger
	server          *http.Server
}

// Config holds API server configuration
type Config struct {
	Addr              string
	DefaultTimezone   string  // used for places and requests without a timezone
	RequestsPerSecond float64 // 0 = unlimited
	Burst             int
	PerClientRPS      float64 // 0 = unlimited
	PerClientBurst    int
	Clock             clock.Clock // nil = wall clock
	Evaluator         *hours.Evaluator
	Metrics           *metrics.Metrics
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Addr:              "127.0.0.1:8086",
		RequestsPerSecond: 50,
		Burst:             100,
		PerClientRPS:      10,
		PerClientBurst:    20,
	}
}

// NewServer creates a new API server. places may be nil, in which case only
// the stateless routes are useful.
func NewServer(cfg *Config, places *store.Store, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	ev := cfg.Evaluator
	if ev == nil {
		ev = hours.New(hours.WithClock(clk), hours.WithLogger(logger))
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.New()
	}

	s := &Server{
		addr:            cfg.Addr,
		evaluator:       ev,
		places:          places,
		clock:           clk,
		defaultTimezone: cfg.DefaultTimezone,
		metrics:         m,
		logger:          logger,
	}
	s.limiter = ratelimit.New(ratelimit.Config{
		RequestsPerSecond:          cfg.RequestsPerSecond,
		Burst:                      cfg.Burst,
		PerClientRequestsPerSecond: cfg.PerClientRPS,
		PerClientBurst:             cfg.PerClientBurst,
		Clock:                      clk,
		Logger:                     logger,
	})

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	s.registerAPIRoutes(mux)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      requestid.Middleware(s.rateLimit(mux), logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.RefreshPlaceCount()
	return s
}

// Handler returns the root handler, including rate limiting.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the API server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting API server", zap.String("addr", s.addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.limiter.Close()
	return s.server.Shutdown(ctx)
}

// rateLimit rejects requests beyond the configured rates with 429. Health
// checks are never limited.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := ratelimit.ClientKey(r)
		if r.URL.Path != "/health" && !s.limiter.Allow(client) {
			s.metrics.RateLimited.Inc()
			requestid.Logger(r.Context(), s.logger).Debug("Rate limited",
				sanitize.Field("client", client),
				sanitize.Field("path", r.URL.Path))
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RefreshPlaceCount updates the places gauge from the registry.
func (s *Server) RefreshPlaceCount() {
	if s.places == nil {
		return
	}
	places, err := s.places.List()
	if err != nil {
		s.logger.Warn("Failed to count places", zap.Error(err))
		return
	}
	s.metrics.Places.Set(float64(len(places)))
}
