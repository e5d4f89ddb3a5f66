// Package sanitize escapes request-supplied text before it reaches the logs.
package sanitize

import (
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// MaxLen is the number of runes kept before truncating with "...".
const MaxLen = 200

// String escapes control characters and backslashes in s and truncates it,
// so a place name or query value cannot forge log lines.
func String(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(min(len(s), MaxLen) + 8)

	n := 0
	for _, r := range s {
		if n == MaxLen {
			b.WriteString("...")
			break
		}
		n++

		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case unicode.IsControl(r):
			q := strconv.QuoteRune(r)
			b.WriteString(q[1 : len(q)-1])
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Field is zap.String with the value sanitized.
func Field(key, value string) zap.Field {
	return zap.String(key, String(value))
}

// Error is zap.Error with the message sanitized; rule errors quote user input.
func Error(err error) zap.Field {
	if err == nil {
		return zap.Skip()
	}
	return zap.String("error", String(err.Error()))
}
