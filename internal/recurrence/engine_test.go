package recurrence

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestEngine_Dates(t *testing.T) {
	t.Parallel()

	engine := NewEngine(0)

	tests := []struct {
		name string
		rule Rule
		want []string
	}{
		{
			name: "every other saturday",
			rule: Rule{StartsOn: "2025-01-04", EndsOn: "2025-02-28", IntervalWeeks: 2},
			want: []string{"2025-01-04", "2025-01-18", "2025-02-01", "2025-02-15"},
		},
		{
			name: "weekly on selected weekdays",
			rule: Rule{StartsOn: "2025-01-04", EndsOn: "2025-01-14", IntervalWeeks: 1, Weekdays: []time.Weekday{time.Tuesday, time.Saturday}},
			want: []string{"2025-01-04", "2025-01-07", "2025-01-11", "2025-01-14"},
		},
		{
			name: "biweekly skips whole weeks counted from the start",
			rule: Rule{StartsOn: "2025-01-04", EndsOn: "2025-01-21", IntervalWeeks: 2, Weekdays: []time.Weekday{time.Tuesday, time.Saturday}},
			want: []string{"2025-01-04", "2025-01-07", "2025-01-18", "2025-01-21"},
		},
		{
			name: "crosses a leap day",
			rule: Rule{StartsOn: "2024-02-24", EndsOn: "2024-03-09", IntervalWeeks: 1},
			want: []string{"2024-02-24", "2024-03-02", "2024-03-09"},
		},
		{
			name: "single day window",
			rule: Rule{StartsOn: "2025-01-04", EndsOn: "2025-01-04", IntervalWeeks: 2},
			want: []string{"2025-01-04"},
		},
		{
			name: "no selected weekday in the window",
			rule: Rule{StartsOn: "2025-01-04", EndsOn: "2025-01-05", IntervalWeeks: 1, Weekdays: []time.Weekday{time.Monday}},
			want: []string{},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := engine.Dates(tc.rule)
			if err != nil {
				t.Fatalf("Dates: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestEngine_DatesErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		engine *Engine
		rule   Rule
		want   error
	}{
		{"zero interval", NewEngine(0), Rule{StartsOn: "2025-01-04", EndsOn: "2025-02-01"}, ErrInvalidInterval},
		{"malformed start", NewEngine(0), Rule{StartsOn: "2025-1-4", EndsOn: "2025-02-01", IntervalWeeks: 1}, ErrInvalidWindow},
		{"reversed window", NewEngine(0), Rule{StartsOn: "2025-02-01", EndsOn: "2025-01-04", IntervalWeeks: 1}, ErrInvalidWindow},
		{"over the cap", NewEngine(3), Rule{StartsOn: "2025-01-04", EndsOn: "2025-02-28", IntervalWeeks: 1}, ErrTooManyOccurrences},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := tc.engine.Dates(tc.rule); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
