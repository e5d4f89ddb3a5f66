package hours

import "sort"

// Rank returns a copy of rules ordered from most to least specific:
// rules bounded on both dates, then on one date, then unbounded; within each
// tier, rules scoped to weekdays come first. Ties keep their input order.
func Rank(rules RuleSet) RuleSet {
	return rankBy(rules, func(r Rule) Rule { return r })
}

func rankCompiled(rules []*compiledRule) []*compiledRule {
	return rankBy(rules, func(r *compiledRule) Rule { return r.Rule })
}

// rankBy returns a stable-sorted copy of items, most specific first.
func rankBy[T any](items []T, rule func(T) Rule) []T {
	ranked := make([]T, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return specificity(rule(ranked[i])) > specificity(rule(ranked[j]))
	})
	return ranked
}

func specificity(r Rule) int {
	score := 0
	if r.ValidFrom != "" {
		score += 2
	}
	if r.ValidThrough != "" {
		score += 2
	}
	if len(r.DayOfWeek) > 0 {
		score++
	}
	return score
}

// appliesTo reports whether r governs day.
func (r *compiledRule) appliesTo(day Date) bool {
	if r.days != nil && !r.days[day.Weekday()] {
		return false
	}
	if r.from != nil && day.Before(*r.from) {
		return false
	}
	if r.through != nil && day.After(*r.through) {
		return false
	}
	return true
}

// AppliesToDay reports whether rule governs day. Weekday and date bounds are
// compared at day granularity.
func AppliesToDay(rule Rule, day Date) (bool, error) {
	cr, err := compile(rule)
	if err != nil {
		return false, err
	}
	return cr.appliesTo(day), nil
}

// governing returns the first rule in ranked order that applies to day, or nil.
func governing(ranked []*compiledRule, day Date) *compiledRule {
	for _, r := range ranked {
		if r.appliesTo(day) {
			return r
		}
	}
	return nil
}
