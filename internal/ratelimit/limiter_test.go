package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest"
)

func TestNew_Unlimited(t *testing.T) {
	l := New(Config{})
	defer l.Close()

	if l.Enabled() {
		t.Error("zero config should create a disabled limiter")
	}
	for i := 0; i < 1000; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d rejected by disabled limiter", i)
		}
	}
}

func TestLimiter_NilSafe(t *testing.T) {
	var l *Limiter
	if l.Enabled() {
		t.Error("nil Limiter.Enabled() should return false")
	}
	if !l.Allow("x") {
		t.Error("nil Limiter should allow")
	}
	l.Close()
}

func TestLimiter_Global(t *testing.T) {
	mock := clock.NewMock()
	l := New(Config{RequestsPerSecond: 1, Burst: 2, Clock: mock})
	defer l.Close()

	if !l.Allow("a") || !l.Allow("b") {
		t.Fatal("burst of 2 should admit two requests")
	}
	if l.Allow("c") {
		t.Error("third request should be rejected")
	}

	mock.Add(time.Second)
	if !l.Allow("c") {
		t.Error("a token should refill after one second")
	}
}

func TestLimiter_PerClient(t *testing.T) {
	mock := clock.NewMock()
	l := New(Config{PerClientRequestsPerSecond: 1, PerClientBurst: 1, Clock: mock})
	defer l.Close()

	if !l.Allow("10.0.0.1") {
		t.Fatal("first request from client should pass")
	}
	if l.Allow("10.0.0.1") {
		t.Error("second request from same client should be rejected")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("other client should have its own bucket")
	}
	if got := l.Clients(); got != 2 {
		t.Errorf("Clients() = %d, want 2", got)
	}
}

func TestLimiter_DropIdle(t *testing.T) {
	mock := clock.NewMock()
	l := New(Config{
		PerClientRequestsPerSecond: 10,
		PerClientBurst:             10,
		IdleTimeout:                time.Minute,
		Clock:                      mock,
		Logger:                     zaptest.NewLogger(t),
	})
	defer l.Close()

	l.Allow("old")
	mock.Add(30 * time.Second)
	l.Allow("new")

	if got := l.dropIdle(mock.Now().Add(30 * time.Second)); got != 1 {
		t.Errorf("dropIdle() = %d, want 1", got)
	}
	if got := l.Clients(); got != 1 {
		t.Errorf("Clients() = %d, want 1", got)
	}
}

func TestLimiter_CloseTwice(t *testing.T) {
	l := New(Config{PerClientRequestsPerSecond: 1})
	l.Close()
	l.Close()
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"no-port", "no-port"},
	}

	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = tt.remote
		if got := ClientKey(r); got != tt.want {
			t.Errorf("ClientKey(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}
