package hours

import (
	"time"
)

// Direction selects which transition the search looks for.
type Direction int

const (
	LookingForOpen Direction = iota
	LookingForClose
)

func (d Direction) String() string {
	if d == LookingForClose {
		return "close"
	}
	return "open"
}

// NextChange finds the first opening (or closing) instant strictly after
// from. found is false when none exists within the lookahead.
func (e *Evaluator) NextChange(rules RuleSet, from time.Time, dir Direction, timezone string) (next time.Time, found bool, err error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, false, err
	}
	compiled, err := compileAll(rules)
	if err != nil {
		return time.Time{}, false, err
	}
	next, found = e.search(rankCompiled(compiled), from, dir, loc)
	return next, found, nil
}

// search walks forward one calendar day at a time from from's day. Each day
// is governed by at most one rule; a day with no rule is closed.
func (e *Evaluator) search(ranked []*compiledRule, from time.Time, dir Direction, loc *time.Location) (time.Time, bool) {
	start := DateOf(from, loc)

	for i := 0; i <= e.lookahead; i++ {
		day := start.AddDays(i)
		r := governing(ranked, day)

		var candidate time.Time
		switch dir {
		case LookingForOpen:
			switch {
			case r == nil, r.WhollyClosed():
				continue
			case r.WhollyOpen():
				candidate = day.In(0, 0, loc)
			default:
				candidate, _ = r.window(day, loc)
			}

		case LookingForClose:
			// A wholly open day closes at its 23:59 like any other window.
			if r == nil || r.WhollyClosed() {
				continue
			}
			_, candidate = r.window(day, loc)
		}

		// Earlier days are past; on later days anything qualifies.
		if i == 0 && !candidate.After(from) {
			continue
		}
		return candidate, true
	}
	return time.Time{}, false
}
