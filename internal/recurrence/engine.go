package recurrence

import (
	"errors"
	"time"

	"github.com/example/sanshin-calendar/internal/calendar"
)

// DefaultMaxOccurrences caps a single expansion at a year of weekly dates.
const DefaultMaxOccurrences = 52

// Rule describes a repeating session pattern.
type Rule struct {
	// StartsOn is the first candidate date, YYYY-MM-DD. Its week anchors the interval.
	StartsOn string
	// EndsOn is the last candidate date, inclusive.
	EndsOn string
	// IntervalWeeks is 1 for weekly, 2 for every other week.
	IntervalWeeks int
	// Weekdays restricts the days within a selected week. Empty means the
	// weekday of StartsOn.
	Weekdays []time.Weekday
}

// Engine expands rules into calendar dates.
type Engine struct {
	maxOccurrences int
}

// NewEngine constructs an Engine that refuses to produce more than max dates.
// A non-positive max uses DefaultMaxOccurrences.
func NewEngine(max int) *Engine {
	if max <= 0 {
		max = DefaultMaxOccurrences
	}
	return &Engine{maxOccurrences: max}
}

// ErrInvalidInterval indicates the week interval is not positive.
var ErrInvalidInterval = errors.New("recurrence: interval must be at least one week")

// ErrInvalidWindow indicates the bounds are malformed or reversed.
var ErrInvalidWindow = errors.New("recurrence: window requires valid start and end dates in order")

// ErrTooManyOccurrences indicates the window would produce more dates than allowed.
var ErrTooManyOccurrences = errors.New("recurrence: too many occurrences")

// Dates returns every YYYY-MM-DD date the rule selects, in ascending order.
//
// A date is selected when its weekday is in the rule's set and it falls in a
// week that is a multiple of IntervalWeeks after the week of StartsOn. Weeks
// are counted in whole days from StartsOn, so no time zone is involved.
func (e *Engine) Dates(rule Rule) ([]string, error) {
	if rule.IntervalWeeks < 1 {
		return nil, ErrInvalidInterval
	}
	start, err := calendar.ParseDate(rule.StartsOn)
	if err != nil {
		return nil, ErrInvalidWindow
	}
	end, err := calendar.ParseDate(rule.EndsOn)
	if err != nil {
		return nil, ErrInvalidWindow
	}

	first := civil(start)
	last := civil(end)
	if last.Before(first) {
		return nil, ErrInvalidWindow
	}

	weekdaySet := make(map[time.Weekday]struct{}, len(rule.Weekdays))
	for _, day := range rule.Weekdays {
		weekdaySet[day] = struct{}{}
	}
	if len(weekdaySet) == 0 {
		weekdaySet[first.Weekday()] = struct{}{}
	}

	max := e.maxOccurrences
	if max <= 0 {
		max = DefaultMaxOccurrences
	}

	dates := make([]string, 0)
	for current, offset := first, 0; !current.After(last); current, offset = current.AddDate(0, 0, 1), offset+1 {
		if (offset/7)%rule.IntervalWeeks != 0 {
			continue
		}
		if _, ok := weekdaySet[current.Weekday()]; !ok {
			continue
		}
		if len(dates) == max {
			return nil, ErrTooManyOccurrences
		}
		dates = append(dates, calendar.DateOf(current))
	}
	return dates, nil
}

func civil(d calendar.Date) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}
