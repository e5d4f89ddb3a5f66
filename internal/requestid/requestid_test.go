package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestGenerate(t *testing.T) {
	id := Generate()
	if len(id) != 20 {
		t.Errorf("Generate() returned ID of length %d, want 20", len(id))
	}
	if !Acceptable(id) {
		t.Errorf("Generate() returned unacceptable ID: %s", id)
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := Generate()
		if seen[id] {
			t.Fatalf("Generate() produced duplicate ID: %s", id)
		}
		seen[id] = true
	}
}

func TestGenerate_TimeSortable(t *testing.T) {
	id1 := Generate()
	time.Sleep(2 * time.Millisecond)
	id2 := Generate()

	// First 12 hex chars are the timestamp
	if id2[:12] < id1[:12] {
		t.Errorf("IDs not time-sortable: %s generated after %s", id2, id1)
	}
}

func TestAcceptable(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"0123456789abcdef0123", true},
		{"trace-42.abc_DEF", true},
		{"short", false},
		{"", false},
		{"has space in it", false},
		{"line\nbreak-injection", false},
		{"0123456789012345678901234567890123456789012345678901234567890123456789", false},
	}

	for _, tt := range tests {
		if got := Acceptable(tt.id); got != tt.want {
			t.Errorf("Acceptable(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	fallback := zap.NewNop()

	if got := FromContext(ctx); got != "" {
		t.Errorf("FromContext(background) = %q, want empty", got)
	}
	if got := Logger(ctx, fallback); got != fallback {
		t.Error("Logger(background) did not return fallback")
	}

	ctx = NewContext(ctx, "req-00000001", zaptest.NewLogger(t))
	if got := FromContext(ctx); got != "req-00000001" {
		t.Errorf("FromContext() = %q, want req-00000001", got)
	}
	if got := Logger(ctx, fallback); got == fallback {
		t.Error("Logger() returned fallback inside a request")
	}
}

func TestMiddleware(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}), zaptest.NewLogger(t))

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"no header", "", false},
		{"acceptable header", "client-trace-0001", true},
		{"garbage header", "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.incoming != "" {
				r.Header.Set(Header, tt.incoming)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			got := w.Header().Get(Header)
			if got == "" || got != seen {
				t.Fatalf("response ID %q, handler saw %q", got, seen)
			}
			if tt.keep && got != tt.incoming {
				t.Errorf("ID = %q, want incoming %q", got, tt.incoming)
			}
			if !tt.keep && got == tt.incoming {
				t.Errorf("unacceptable incoming ID %q was reused", got)
			}
		})
	}
}

func FuzzAcceptable(f *testing.F) {
	f.Add("0123456789abcdef0123")
	f.Add("")
	f.Add("a\nb\nc\nd\ne")

	f.Fuzz(func(t *testing.T, input string) {
		if !Acceptable(input) {
			return
		}
		if len(input) < 8 || len(input) > 64 {
			t.Errorf("Acceptable returned true for len=%d", len(input))
		}
		for _, c := range input {
			if c < 0x21 || c > 0x7e {
				t.Errorf("Acceptable returned true for %q", input)
			}
		}
	})
}
