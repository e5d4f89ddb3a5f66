package hours

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// DefaultLookahead is how many days past the query day the transition search
// inspects before giving up.
const DefaultLookahead = 366

// Query is an instant to evaluate plus the timezone the rules' clock strings
// are written in.
type Query struct {
	At       time.Time // zero means now
	Timezone string    // IANA name; empty means the local zone
}

// State is the result of an evaluation. At most one of OpensAt and ClosesAt
// is set, matching IsOpen; neither is set when no transition was found within
// the lookahead.
type State struct {
	IsOpen   bool       `json:"isOpen"`
	OpensAt  *time.Time `json:"opensAt,omitempty"`
	ClosesAt *time.Time `json:"closesAt,omitempty"`
}

// NextChange returns the instant the state flips, if known.
func (s State) NextChange() (time.Time, bool) {
	switch {
	case s.IsOpen && s.ClosesAt != nil:
		return *s.ClosesAt, true
	case !s.IsOpen && s.OpensAt != nil:
		return *s.OpensAt, true
	}
	return time.Time{}, false
}

// Evaluator answers open/closed queries against rule sets. It holds only
// immutable configuration and is safe for concurrent use.
type Evaluator struct {
	clock     clock.Clock
	lookahead int
	logger    *zap.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock sets the clock used when a query carries no instant.
func WithClock(c clock.Clock) Option {
	return func(e *Evaluator) { e.clock = c }
}

// WithLookahead bounds the transition search to days past the query day.
// Non-positive values keep the default.
func WithLookahead(days int) Option {
	return func(e *Evaluator) {
		if days > 0 {
			e.lookahead = days
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		clock:     clock.New(),
		lookahead: DefaultLookahead,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Lookahead returns the configured search horizon in days.
func (e *Evaluator) Lookahead() int {
	return e.lookahead
}

var defaultEvaluator = New()

// Evaluate evaluates rules with a default Evaluator reading the system clock.
func Evaluate(rules RuleSet, q Query) (State, error) {
	return defaultEvaluator.Evaluate(rules, q)
}

// Evaluate reports whether the place described by rules is open at q.At and
// when that next changes.
func (e *Evaluator) Evaluate(rules RuleSet, q Query) (State, error) {
	loc, err := LoadLocation(q.Timezone)
	if err != nil {
		return State{}, err
	}
	compiled, err := compileAll(rules)
	if err != nil {
		return State{}, err
	}

	at := q.At
	if at.IsZero() {
		at = e.clock.Now()
	}
	if len(compiled) == 0 {
		return State{}, nil
	}

	ranked := rankCompiled(compiled)
	open := isOpenAt(governing(ranked, DateOf(at, loc)), at, loc)

	dir := LookingForOpen
	if open {
		dir = LookingForClose
	}
	next, found := e.search(ranked, at, dir, loc)
	if !found {
		e.logger.Debug("No transition within lookahead",
			zap.Time("at", at),
			zap.Stringer("direction", dir),
			zap.Int("lookaheadDays", e.lookahead))
		return State{IsOpen: open}, nil
	}

	if open {
		return State{IsOpen: true, ClosesAt: &next}, nil
	}
	return State{IsOpen: false, OpensAt: &next}, nil
}

// isOpenAt classifies at against the governing rule of its day. Window edges
// are exclusive: the place is closed at the opening and the closing instant.
func isOpenAt(r *compiledRule, at time.Time, loc *time.Location) bool {
	switch {
	case r == nil:
		return false
	case r.WhollyClosed():
		return false
	case r.WhollyOpen():
		return true
	}
	opens, closes := r.window(DateOf(at, loc), loc)
	return at.After(opens) && at.Before(closes)
}
