package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// ErrInvalidDate is returned when a value is not a YYYY-MM-DD calendar date.
var ErrInvalidDate = errors.New("calendar: invalid date")

// ErrInvalidClock is returned when a value is not an HH:MM wall-clock time.
var ErrInvalidClock = errors.New("calendar: invalid clock time")

// Date holds the components of a YYYY-MM-DD string. It carries no location,
// so comparisons never shift across a day boundary.
type Date struct {
	Year  int
	Month int
	Day   int
}

// ParseDate splits a YYYY-MM-DD string into its components and checks that the
// day exists in that month.
func ParseDate(value string) (Date, error) {
	if len(value) != 10 || value[4] != '-' || value[7] != '-' {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	year, err := parseDigits(value[0:4])
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	month, err := parseDigits(value[5:7])
	if err != nil || month < 1 || month > 12 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	day, err := parseDigits(value[8:10])
	if err != nil || day < 1 || day > daysIn(year, month) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// String formats the date back to YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// DateOf formats the calendar day of t in t's own location.
func DateOf(t time.Time) string {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}.String()
}

// InMonth reports whether the date string falls in the given year and month.
// Malformed dates never match.
func InMonth(value string, year, month int) bool {
	d, err := ParseDate(value)
	if err != nil {
		return false
	}
	return d.Year == year && d.Month == month
}

// SortByDate orders sessions ascending by their date string. Equal dates keep
// their relative order.
func SortByDate(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Date < sessions[j].Date
	})
}

// ValidateClock checks an HH:MM 24-hour time.
func ValidateClock(value string) error {
	if len(value) != 5 || value[2] != ':' {
		return fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	hour, err := parseDigits(value[0:2])
	if err != nil || hour > 23 {
		return fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	minute, err := parseDigits(value[3:5])
	if err != nil || minute > 59 {
		return fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	return nil
}

func parseDigits(value string) (int, error) {
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(value)
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
