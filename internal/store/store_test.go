package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/openhours/openhours/internal/hours"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "places.db"), nil, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func bakery() *Place {
	return &Place{
		Name:     "bakery",
		Timezone: "Europe/Berlin",
		Rules: hours.RuleSet{
			{Opens: "07:00", Closes: "18:00"},
			{DayOfWeek: []string{"sunday"}, Opens: "00:00", Closes: "00:00"},
		},
	}
}

func TestPutGet(t *testing.T) {
	s := newTestStore(t)

	p := bakery()
	if err := s.Put(p); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if p.UpdatedAt.IsZero() {
		t.Error("Put() should set UpdatedAt")
	}

	got, err := s.Get("bakery")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %s, want Europe/Berlin", got.Timezone)
	}
	if diff := cmp.Diff(p.Rules, got.Rules); diff != "" {
		t.Errorf("Rules mismatch (-want +got):\n%s", diff)
	}
}

func TestPutReplaces(t *testing.T) {
	s := newTestStore(t)

	if err := s.Put(bakery()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	updated := bakery()
	updated.Timezone = "UTC"
	updated.Rules = hours.RuleSet{{Opens: "06:00", Closes: "12:00"}}
	if err := s.Put(updated); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get("bakery")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Timezone != "UTC" || len(got.Rules) != 1 || got.Rules[0].Opens != "06:00" {
		t.Errorf("Get() = %+v, want replaced place", got)
	}
}

func TestPutRejectsInvalid(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name  string
		place *Place
		want  error
	}{
		{
			name:  "empty name",
			place: &Place{Rules: hours.RuleSet{{Opens: "08:00", Closes: "18:00"}}},
			want:  ErrInvalidName,
		},
		{
			name:  "name with slash",
			place: &Place{Name: "a/b", Rules: hours.RuleSet{{Opens: "08:00", Closes: "18:00"}}},
			want:  ErrInvalidName,
		},
		{
			name:  "malformed clock",
			place: &Place{Name: "shop", Rules: hours.RuleSet{{Opens: "8", Closes: "18:00"}}},
			want:  hours.ErrInvalidClock,
		},
		{
			name:  "unknown timezone",
			place: &Place{Name: "shop", Timezone: "Nowhere/Town", Rules: hours.RuleSet{{Opens: "08:00", Closes: "18:00"}}},
			want:  hours.ErrInvalidTimezone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Put(tt.place); !errors.Is(err, tt.want) {
				t.Errorf("Put() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestListAndDelete(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"zoo", "bakery", "library"} {
		p := bakery()
		p.Name = name
		if err := s.Put(p); err != nil {
			t.Fatalf("Put(%s) error = %v", name, err)
		}
	}

	places, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var names []string
	for _, p := range places {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"bakery", "library", "zoo"}, names); diff != "" {
		t.Errorf("List() names mismatch (-want +got):\n%s", diff)
	}

	if err := s.Delete("library"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get("library"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
	}
	if err := s.Delete("library"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get("nothing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestInMemory(t *testing.T) {
	s, err := Open(":memory:", nil, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if err := s.Put(bakery()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := s.Get("bakery"); err != nil {
		t.Errorf("Get() error = %v", err)
	}
}

func TestPutStampsFromClock(t *testing.T) {
	mock := clock.NewMock()
	stamp := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	mock.Set(stamp)

	s, err := Open(":memory:", mock, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	p := bakery()
	if err := s.Put(p); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if !p.UpdatedAt.Equal(stamp) {
		t.Errorf("UpdatedAt = %v, want %v", p.UpdatedAt, stamp)
	}

	mock.Add(time.Hour)
	if err := s.Put(bakery()); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}
	got, err := s.Get("bakery")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if want := stamp.Add(time.Hour); !got.UpdatedAt.Equal(want) {
		t.Errorf("stored UpdatedAt = %v, want %v", got.UpdatedAt, want)
	}
}

func TestReopenKeepsPlaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.db")

	s, err := Open(path, nil, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Put(bakery()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	s.Close()

	s, err = Open(path, nil, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	if _, err := s.Get("bakery"); err != nil {
		t.Errorf("Get() after reopen error = %v", err)
	}
}
