package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	m := New()

	if m == nil {
		t.Fatal("New() returned nil")
	}
	if m.Evaluations == nil || m.HorizonExhausted == nil || m.RateLimited == nil {
		t.Error("counters not initialized")
	}
	if m.Places == nil {
		t.Error("Places not initialized")
	}
	if m.RequestDuration == nil {
		t.Error("RequestDuration not initialized")
	}
}

func TestNewIsolatedRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := New()
	b := New()

	a.RateLimited.Inc()
	if got := testutil.ToFloat64(b.RateLimited); got != 0 {
		t.Errorf("second instance RateLimited = %v, want 0", got)
	}
}

func TestObserveEvaluation(t *testing.T) {
	m := New()

	m.ObserveEvaluation(true, true, nil)
	m.ObserveEvaluation(false, true, nil)
	m.ObserveEvaluation(false, false, nil)
	m.ObserveEvaluation(false, false, errors.New("bad rule"))

	if got := testutil.ToFloat64(m.Evaluations.WithLabelValues("open")); got != 1 {
		t.Errorf("open = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Evaluations.WithLabelValues("closed")); got != 2 {
		t.Errorf("closed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Evaluations.WithLabelValues("error")); got != 1 {
		t.Errorf("error = %v, want 1", got)
	}
	// Errors do not count as an exhausted horizon.
	if got := testutil.ToFloat64(m.HorizonExhausted); got != 1 {
		t.Errorf("horizon exhausted = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.Places.Set(3)
	m.ObserveEvaluation(true, true, nil)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(w, r)

	body := w.Body.String()
	for _, want := range []string{
		"openhours_places 3",
		`openhours_evaluations_total{result="open"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
