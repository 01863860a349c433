package testfixtures

import (
	"sync"
	"time"

	"github.com/example/sanshin-calendar/internal/calendar"
)

// Clock is the fixture time source. It starts at ReferenceTime and only
// moves when a test moves it.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: ReferenceTime()}
}

// NewClockOn starts the clock at 09:00 UTC on date, the hour lessons open
// for registration in the fixtures.
func NewClockOn(date string) (*Clock, error) {
	d, err := calendar.ParseDate(date)
	if err != nil {
		return nil, err
	}
	return &Clock{now: time.Date(d.Year, time.Month(d.Month), d.Day, 9, 0, 0, 0, time.UTC)}, nil
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NowFunc is what the services take as their clock. A nil Clock falls back
// to wall time.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// AdvanceDays moves the clock by whole calendar days and returns the new date.
func (c *Clock) AdvanceDays(days int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, days)
	return calendar.DateOf(c.now)
}

// Today is the clock's calendar date, YYYY-MM-DD.
func (c *Clock) Today() string {
	return calendar.DateOf(c.Now())
}

// Cutoff is the first date kept by a retention window of the given length.
func (c *Clock) Cutoff(retention time.Duration) string {
	return calendar.DateOf(c.Now().Add(-retention))
}

// TimestampMillis is the registration timestamp the services stamp at this instant.
func (c *Clock) TimestampMillis() int64 {
	return c.Now().UnixMilli()
}
