package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/sanshin-calendar/internal/persistence"
)

var (
	sessionCounter      uint64
	classCounter        uint64
	registrationCounter uint64
)

var referenceTime = time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the ReferenceTime day shifted by offset days as YYYY-MM-DD.
func ReferenceDate(offset int) string {
	return referenceTime.AddDate(0, 0, offset).Format("2006-01-02")
}

// ----------------------------- Session fixtures -----------------------------

// SessionOption configures the generated session fixture.
type SessionOption func(*persistence.Session)

// NewSessionFixture returns a regular session one week after ReferenceTime
// with a single beginner class, unless options say otherwise.
func NewSessionFixture(opts ...SessionOption) persistence.Session {
	idx := atomic.AddUint64(&sessionCounter, 1)
	date := ReferenceDate(7)
	session := persistence.Session{
		ID:       fmt.Sprintf("session-%s-%08x", date, idx),
		Date:     date,
		Location: fmt.Sprintf("Community hall %d", idx),
	}
	session.Classes = []persistence.Class{NewClassFixture(date)}
	for _, opt := range opts {
		opt(&session)
	}
	for i := range session.Classes {
		session.Classes[i].Date = session.Date
	}
	return session
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) SessionOption {
	return func(s *persistence.Session) {
		s.ID = id
	}
}

// WithSessionDate overrides the session date. Class dates follow it.
func WithSessionDate(date string) SessionOption {
	return func(s *persistence.Session) {
		s.Date = date
	}
}

// WithLocation overrides the generated location.
func WithLocation(location string) SessionOption {
	return func(s *persistence.Session) {
		s.Location = location
	}
}

// WithClasses replaces the generated classes.
func WithClasses(classes ...persistence.Class) SessionOption {
	return func(s *persistence.Session) {
		s.Classes = append([]persistence.Class{}, classes...)
	}
}

// AsSpecialEvent turns the session into a special event with the given capacity.
func AsSpecialEvent(title string, capacity int) SessionOption {
	return func(s *persistence.Session) {
		s.IsSpecialEvent = true
		s.Classes = []persistence.Class{}
		s.EventTitle = title
		s.EventStartTime = "13:00"
		s.EventEndTime = "16:00"
		s.EventMaxParticipants = capacity
	}
}

// ClassOption configures the generated class fixture.
type ClassOption func(*persistence.Class)

// NewClassFixture returns a one-hour beginner class with room for ten.
func NewClassFixture(date string, opts ...ClassOption) persistence.Class {
	idx := atomic.AddUint64(&classCounter, 1)
	class := persistence.Class{
		ID:              fmt.Sprintf("class-%s-10:00-%08x", date, idx),
		Date:            date,
		Type:            "beginner",
		StartTime:       "10:00",
		Duration:        60,
		MaxParticipants: 10,
	}
	for _, opt := range opts {
		opt(&class)
	}
	return class
}

// WithClassID overrides the generated class ID.
func WithClassID(id string) ClassOption {
	return func(c *persistence.Class) {
		c.ID = id
	}
}

// WithClassType overrides the class type.
func WithClassType(classType string) ClassOption {
	return func(c *persistence.Class) {
		c.Type = classType
	}
}

// WithStartTime overrides the start time.
func WithStartTime(start string) ClassOption {
	return func(c *persistence.Class) {
		c.StartTime = start
	}
}

// WithCapacity overrides the participant limit.
func WithCapacity(capacity int) ClassOption {
	return func(c *persistence.Class) {
		c.MaxParticipants = capacity
	}
}

// WithInstructor sets the instructor name.
func WithInstructor(name string) ClassOption {
	return func(c *persistence.Class) {
		c.Instructor = name
	}
}

// --------------------------- Registration fixtures ---------------------------

// RegistrationOption configures the generated registration fixture.
type RegistrationOption func(*persistence.Registration)

// NewRegistrationFixture returns a registration for targetID with a unique email.
func NewRegistrationFixture(targetID string, opts ...RegistrationOption) persistence.Registration {
	idx := atomic.AddUint64(&registrationCounter, 1)
	registration := persistence.Registration{
		ID:        fmt.Sprintf("reg-fixture-%03d", idx),
		SessionID: targetID,
		Name:      fmt.Sprintf("Player %03d", idx),
		Email:     fmt.Sprintf("player-%03d@example.com", idx),
		Color:     "#3182CE",
		Timestamp: referenceTime.Add(time.Duration(idx) * time.Minute).UnixMilli(),
	}
	for _, opt := range opts {
		opt(&registration)
	}
	return registration
}

// WithRegistrationID overrides the generated registration ID.
func WithRegistrationID(id string) RegistrationOption {
	return func(r *persistence.Registration) {
		r.ID = id
	}
}

// WithRegistrant overrides the registrant name and email.
func WithRegistrant(name, email string) RegistrationOption {
	return func(r *persistence.Registration) {
		r.Name = name
		r.Email = email
	}
}

// RegistrationsFor returns n registrations for targetID.
func RegistrationsFor(targetID string, n int) []persistence.Registration {
	out := make([]persistence.Registration, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, NewRegistrationFixture(targetID))
	}
	return out
}
