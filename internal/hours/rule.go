// Package hours evaluates opening-hour rule sets: whether a place is open at
// an instant and when that state next changes.
//
// When several rules apply to the same day, the most specific one governs the
// whole day. Rules are never merged: a "Tuesdays in January" rule replaces a
// generic daily rule on those days rather than narrowing it.
package hours

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidClock    = errors.New("invalid clock time")
	ErrInvalidTimezone = errors.New("invalid timezone")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidWeekday  = errors.New("invalid weekday")
)

// Sentinel clock pairs that describe a whole day.
const (
	Midnight = "00:00"
	EndOfDay = "23:59"
)

// Rule is one opening window, optionally scoped to weekdays and a date range.
// The shape follows schema.org's OpeningHoursSpecification.
type Rule struct {
	// "monday", "tuesday", ... Empty means every day.
	DayOfWeek []string `json:"dayOfWeek,omitempty" yaml:"dayOfWeek,omitempty"`

	// "08:00" and "18:00" (24h format).
	Opens  string `json:"opens" yaml:"opens"`
	Closes string `json:"closes" yaml:"closes"`

	// Inclusive calendar-date bounds, "2025-01-31". Empty means unbounded.
	ValidFrom    string `json:"validFrom,omitempty" yaml:"validFrom,omitempty"`
	ValidThrough string `json:"validThrough,omitempty" yaml:"validThrough,omitempty"`
}

// RuleSet is the full schedule of a place, in the order the caller gave it.
type RuleSet []Rule

// WhollyClosed reports whether r is the "closed all day" sentinel.
func (r Rule) WhollyClosed() bool {
	return r.Opens == Midnight && r.Closes == Midnight
}

// WhollyOpen reports whether r is the "open all day" sentinel.
func (r Rule) WhollyOpen() bool {
	return r.Opens == Midnight && r.Closes == EndOfDay
}

// compiledRule is a Rule with every string field parsed.
type compiledRule struct {
	Rule
	days      map[time.Weekday]bool // nil means every day
	from      *Date
	through   *Date
	openHour  int
	openMin   int
	closeHour int
	closeMin  int
}

func compile(r Rule) (*compiledRule, error) {
	cr := &compiledRule{Rule: r}

	if len(r.DayOfWeek) > 0 {
		cr.days = make(map[time.Weekday]bool, len(r.DayOfWeek))
		for _, name := range r.DayOfWeek {
			wd, err := ParseWeekday(name)
			if err != nil {
				return nil, err
			}
			cr.days[wd] = true
		}
	}

	var err error
	if cr.openHour, cr.openMin, err = parseClock(r.Opens); err != nil {
		return nil, fmt.Errorf("opens: %w", err)
	}
	if cr.closeHour, cr.closeMin, err = parseClock(r.Closes); err != nil {
		return nil, fmt.Errorf("closes: %w", err)
	}

	if r.ValidFrom != "" {
		d, err := ParseDate(r.ValidFrom)
		if err != nil {
			return nil, fmt.Errorf("validFrom: %w", err)
		}
		cr.from = &d
	}
	if r.ValidThrough != "" {
		d, err := ParseDate(r.ValidThrough)
		if err != nil {
			return nil, fmt.Errorf("validThrough: %w", err)
		}
		cr.through = &d
	}

	return cr, nil
}

// compileAll parses every rule up front so a single malformed rule fails the
// whole query instead of being skipped.
func compileAll(rules RuleSet) ([]*compiledRule, error) {
	out := make([]*compiledRule, 0, len(rules))
	for i, r := range rules {
		cr, err := compile(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		out = append(out, cr)
	}
	return out, nil
}

// ParseWeekday parses an English weekday name, full or abbreviated, in any case.
func ParseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "monday", "mon":
		return time.Monday, nil
	case "tuesday", "tue":
		return time.Tuesday, nil
	case "wednesday", "wed":
		return time.Wednesday, nil
	case "thursday", "thu":
		return time.Thursday, nil
	case "friday", "fri":
		return time.Friday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	case "sunday", "sun":
		return time.Sunday, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
}

// parseClock parses a strict 24-hour "HH:MM" string.
func parseClock(s string) (hour, min int, err error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, fmt.Errorf("%w: %q: expected HH:MM", ErrInvalidClock, s)
	}
	hour, ok1 := twoDigits(s[0:2])
	min, ok2 := twoDigits(s[3:5])
	if !ok1 || !ok2 || hour > 23 || min > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return hour, min, nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}
