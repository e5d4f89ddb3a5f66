// Package status renders evaluation results as short human-readable text.
package status

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/openhours/openhours/internal/hours"
)

// Format renders state relative to now, with clock times shown in loc:
//
//	Open. Closes at 18:00
//	Closed. Opens tomorrow at 8:00
//	Closed. Opens Monday at 8:00
//	Closed. Opens on 2 Jan at 8:00
func Format(state hours.State, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	headline := "Closed"
	verb := "Opens"
	if state.IsOpen {
		headline = "Open"
		verb = "Closes"
	}

	next, ok := state.NextChange()
	if !ok {
		return headline
	}
	return fmt.Sprintf("%s. %s %s", headline, verb, When(next, now, loc))
}

// When describes t as seen from now: "at 18:00" for today, "tomorrow at
// 8:00", a weekday name within the coming week, or a date beyond that.
func When(t, now time.Time, loc *time.Location) string {
	t = t.In(loc)
	clock := fmt.Sprintf("%d:%02d", t.Hour(), t.Minute())

	days := daysBetween(now.In(loc), t)
	switch {
	case days <= 0:
		return "at " + clock
	case days == 1:
		return "tomorrow at " + clock
	case days < 7:
		return fmt.Sprintf("%s at %s", t.Weekday(), clock)
	}
	return fmt.Sprintf("on %s at %s", t.Format("2 Jan"), clock)
}

// Relative describes how far away the next change is, e.g. "3 hours from
// now". It returns "" when no change is known.
func Relative(state hours.State, now time.Time) string {
	next, ok := state.NextChange()
	if !ok {
		return ""
	}
	return humanize.RelTime(now, next, "from now", "ago")
}

// daysBetween counts calendar days from a's day to b's day in a's zone.
func daysBetween(a, b time.Time) int {
	da := hours.DateOf(a, a.Location())
	db := hours.DateOf(b, a.Location())
	n := 0
	for d := da; d.Before(db) && n < 8; d = d.AddDays(1) {
		n++
	}
	return n
}
