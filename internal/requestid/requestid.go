// Package requestid tags API requests with an ID carried in the
// X-Request-ID header, the request context and every log line.
package requestid

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"net/http"
	"regexp"
	"time"

	"go.uber.org/zap"
)

// Header is the HTTP header that carries the request ID both ways.
const Header = "X-Request-ID"

type contextKey int

const (
	idKey contextKey = iota
	loggerKey
)

// Client-supplied IDs are accepted if they look like a token, not free text.
var acceptable = regexp.MustCompile(`^[A-Za-z0-9._-]{8,64}$`)

// Generate returns a 20-character hex ID: 6 bytes of Unix milliseconds
// followed by 4 random bytes, so IDs sort by creation time.
func Generate() string {
	var b [10]byte
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(time.Now().UnixMilli()))
	copy(b[:6], ts[2:])
	_, _ = rand.Read(b[6:])
	return hex.EncodeToString(b[:])
}

// Acceptable reports whether id may be reused from an incoming request.
func Acceptable(id string) bool {
	return acceptable.MatchString(id)
}

// FromContext returns the request ID, or "" outside a request.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(idKey).(string)
	return id
}

// Logger returns the request-scoped logger, or fallback outside a request.
func Logger(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return fallback
}

// NewContext stores id and a logger tagged with it in ctx.
func NewContext(ctx context.Context, id string, base *zap.Logger) context.Context {
	ctx = context.WithValue(ctx, idKey, id)
	return context.WithValue(ctx, loggerKey, base.With(zap.String("requestID", id)))
}

// Middleware reuses an acceptable incoming X-Request-ID or generates one,
// echoes it on the response and attaches it to the request context.
func Middleware(next http.Handler, base *zap.Logger) http.Handler {
	if base == nil {
		base = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if !Acceptable(id) {
			id = Generate()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id, base)))
	})
}
