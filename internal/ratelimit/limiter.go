// Package ratelimit throttles API requests globally and per client
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultIdleTimeout is how long a client's limiter survives without requests.
const DefaultIdleTimeout = 5 * time.Minute

// Config configures a Limiter. Zero rates disable the matching limit.
type Config struct {
	// RequestsPerSecond caps all requests together
	RequestsPerSecond float64
	Burst             int

	// PerClientRequestsPerSecond caps requests from one client address
	PerClientRequestsPerSecond float64
	PerClientBurst             int

	// IdleTimeout is how long before idle client limiters are dropped
	IdleTimeout time.Duration

	Clock  clock.Clock
	Logger *zap.Logger
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter admits or rejects requests by client key
type Limiter struct {
	global *rate.Limiter // nil = unlimited

	perClient      rate.Limit // 0 = unlimited
	perClientBurst int
	idleTimeout    time.Duration

	mu      sync.Mutex
	clients map[string]*client

	clock  clock.Clock
	logger *zap.Logger
	stop   chan struct{}
	wg     sync.WaitGroup
}

// New creates a Limiter. When per-client limiting is on, a background
// sweep drops idle clients until Close is called.
func New(cfg Config) *Limiter {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}

	l := &Limiter{
		clients:     make(map[string]*client),
		idleTimeout: idle,
		clock:       clk,
		logger:      logger,
		stop:        make(chan struct{}),
	}
	if cfg.RequestsPerSecond > 0 {
		l.global = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), atLeastOne(cfg.Burst))
	}
	if cfg.PerClientRequestsPerSecond > 0 {
		l.perClient = rate.Limit(cfg.PerClientRequestsPerSecond)
		l.perClientBurst = atLeastOne(cfg.PerClientBurst)

		l.wg.Add(1)
		go l.sweep()
	}
	return l
}

// Enabled reports whether any limit is active
func (l *Limiter) Enabled() bool {
	return l != nil && (l.global != nil || l.perClient > 0)
}

// Allow reports whether a request from key may proceed now. The client
// limit is checked first so one noisy client cannot drain the global bucket.
func (l *Limiter) Allow(key string) bool {
	if !l.Enabled() {
		return true
	}
	now := l.clock.Now()

	if l.perClient > 0 && !l.clientLimiter(key, now).AllowN(now, 1) {
		return false
	}
	if l.global != nil && !l.global.AllowN(now, 1) {
		return false
	}
	return true
}

func (l *Limiter) clientLimiter(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.perClient, l.perClientBurst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

// Clients returns the number of tracked client limiters
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) sweep() {
	defer l.wg.Done()

	ticker := l.clock.Ticker(l.idleTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.dropIdle(l.clock.Now())
		}
	}
}

// dropIdle forgets clients not seen since now minus the idle timeout.
func (l *Limiter) dropIdle(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	dropped := 0
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) >= l.idleTimeout {
			delete(l.clients, key)
			dropped++
		}
	}
	if dropped > 0 {
		l.logger.Debug("Dropped idle client limiters",
			zap.Int("dropped", dropped),
			zap.Int("remaining", len(l.clients)))
	}
	return dropped
}

// Close stops the idle sweep
func (l *Limiter) Close() {
	if l == nil {
		return
	}
	select {
	case <-l.stop:
	default:
		close(l.stop)
	}
	l.wg.Wait()
}

// ClientKey identifies the client of r by its remote IP.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
