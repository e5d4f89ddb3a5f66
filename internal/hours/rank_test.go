package hours

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRank(t *testing.T) {
	generic := Rule{Opens: "08:00", Closes: "18:00"}
	fridays := Rule{DayOfWeek: []string{"friday"}, Opens: "00:00", Closes: "00:00"}
	fromOnly := Rule{ValidFrom: "2025-06-01", Opens: "09:00", Closes: "17:00"}
	throughWeekday := Rule{DayOfWeek: []string{"monday"}, ValidThrough: "2025-06-30", Opens: "10:00", Closes: "12:00"}
	bounded := Rule{ValidFrom: "2025-12-24", ValidThrough: "2025-12-26", Opens: "00:00", Closes: "00:00"}
	boundedWeekday := Rule{DayOfWeek: []string{"sunday"}, ValidFrom: "2025-12-01", ValidThrough: "2025-12-31", Opens: "11:00", Closes: "15:00"}
	genericLate := Rule{Opens: "12:00", Closes: "20:00"}

	input := RuleSet{generic, fridays, fromOnly, genericLate, throughWeekday, bounded, boundedWeekday}
	want := RuleSet{boundedWeekday, bounded, throughWeekday, fromOnly, fridays, generic, genericLate}

	if diff := cmp.Diff(want, Rank(input)); diff != "" {
		t.Errorf("Rank() mismatch (-want +got):\n%s", diff)
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	input := RuleSet{
		{Opens: "08:00", Closes: "18:00"},
		{DayOfWeek: []string{"friday"}, Opens: "00:00", Closes: "00:00"},
	}
	before := append(RuleSet(nil), input...)

	_ = Rank(input)

	if diff := cmp.Diff(before, input); diff != "" {
		t.Errorf("Rank() mutated its input (-before +after):\n%s", diff)
	}
}

func TestRankStableForEqualSpecificity(t *testing.T) {
	input := RuleSet{
		{DayOfWeek: []string{"monday"}, Opens: "08:00", Closes: "12:00"},
		{DayOfWeek: []string{"monday"}, Opens: "13:00", Closes: "17:00"},
		{DayOfWeek: []string{"tuesday"}, Opens: "09:00", Closes: "10:00"},
	}
	if diff := cmp.Diff(input, Rank(input)); diff != "" {
		t.Errorf("equal rules should keep input order (-want +got):\n%s", diff)
	}
}

func TestRankCompiledMatchesRank(t *testing.T) {
	input := RuleSet{
		{Opens: "08:00", Closes: "18:00"},
		{DayOfWeek: []string{"friday"}, Opens: "00:00", Closes: "00:00"},
		{ValidFrom: "2025-06-01", Opens: "09:00", Closes: "17:00"},
		{ValidFrom: "2025-12-24", ValidThrough: "2025-12-26", Opens: "00:00", Closes: "00:00"},
	}
	compiled, err := compileAll(input)
	if err != nil {
		t.Fatalf("compileAll() error = %v", err)
	}

	var got RuleSet
	for _, r := range rankCompiled(compiled) {
		got = append(got, r.Rule)
	}
	if diff := cmp.Diff(Rank(input), got); diff != "" {
		t.Errorf("rankCompiled() order differs from Rank() (-want +got):\n%s", diff)
	}
}

func TestAppliesToDay(t *testing.T) {
	friday := Date{Year: 2025, Month: time.January, Day: 10}

	tests := []struct {
		name string
		rule Rule
		day  Date
		want bool
	}{
		{
			name: "no weekday applies every day",
			rule: Rule{Opens: "08:00", Closes: "18:00"},
			day:  friday,
			want: true,
		},
		{
			name: "weekday member",
			rule: Rule{DayOfWeek: []string{"Thursday", "Friday"}, Opens: "08:00", Closes: "18:00"},
			day:  friday,
			want: true,
		},
		{
			name: "weekday not member",
			rule: Rule{DayOfWeek: []string{"saturday"}, Opens: "08:00", Closes: "18:00"},
			day:  friday,
			want: false,
		},
		{
			name: "validFrom inclusive",
			rule: Rule{ValidFrom: "2025-01-10", Opens: "08:00", Closes: "18:00"},
			day:  friday,
			want: true,
		},
		{
			name: "before validFrom",
			rule: Rule{ValidFrom: "2025-01-11", Opens: "08:00", Closes: "18:00"},
			day:  friday,
			want: false,
		},
		{
			name: "validThrough inclusive",
			rule: Rule{ValidThrough: "2025-01-10", Opens: "08:00", Closes: "18:00"},
			day:  friday,
			want: true,
		},
		{
			name: "after validThrough",
			rule: Rule{ValidThrough: "2025-01-09", Opens: "08:00", Closes: "18:00"},
			day:  friday,
			want: false,
		},
		{
			name: "inside range but wrong weekday",
			rule: Rule{DayOfWeek: []string{"monday"}, ValidFrom: "2025-01-01", ValidThrough: "2025-01-31", Opens: "08:00", Closes: "18:00"},
			day:  friday,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AppliesToDay(tt.rule, tt.day)
			if err != nil {
				t.Fatalf("AppliesToDay() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("AppliesToDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppliesToDayMalformed(t *testing.T) {
	_, err := AppliesToDay(Rule{ValidFrom: "01/02/2025", Opens: "08:00", Closes: "18:00"}, Date{Year: 2025, Month: 1, Day: 1})
	if err == nil {
		t.Fatal("AppliesToDay() should fail on a malformed validFrom")
	}
}
