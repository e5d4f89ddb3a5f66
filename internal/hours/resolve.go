package hours

import (
	"fmt"
	"time"
)

// LoadLocation resolves an IANA timezone name. An empty name means the local
// zone. Unknown names are an error; there is no fallback zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTimezone, name, err)
	}
	return loc, nil
}

// ResolveClockTime anchors a "HH:MM" clock string to day in the named zone
// and returns the absolute instant.
func ResolveClockTime(clock string, day Date, timezone string) (time.Time, error) {
	hour, min, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	return day.In(hour, min, loc), nil
}

// window returns the resolved opens and closes instants of r on day.
func (r *compiledRule) window(day Date, loc *time.Location) (opens, closes time.Time) {
	return day.In(r.openHour, r.openMin, loc), day.In(r.closeHour, r.closeMin, loc)
}
