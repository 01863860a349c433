package application

import (
	"context"
	"time"

	"github.com/example/sanshin-calendar/internal/calendar"
)

// SessionRepository captures the sessions collection operations needed by the services.
type SessionRepository interface {
	FetchSessions(ctx context.Context) ([]calendar.Session, error)
	FreshSessions(ctx context.Context) ([]calendar.Session, error)
	CachedSessions(ctx context.Context) ([]calendar.Session, error)
	ReplaceSessions(ctx context.Context, sessions []calendar.Session) error
	AppendSession(ctx context.Context, session calendar.Session) error
	RemoveSession(ctx context.Context, id string) (removed calendar.Session, surviving []calendar.Session, err error)
	MutateSessions(ctx context.Context, mutate func([]calendar.Session) ([]calendar.Session, error)) (before, after []calendar.Session, err error)
}

// RegistrationRepository captures the registrations collection operations needed by the services.
type RegistrationRepository interface {
	FetchRegistrations(ctx context.Context) ([]calendar.Registration, error)
	CachedRegistrations(ctx context.Context) ([]calendar.Registration, error)
	ReplaceRegistrations(ctx context.Context, registrations []calendar.Registration) error
	AppendRegistration(ctx context.Context, registration calendar.Registration, check func([]calendar.Registration) error) error
	RemoveRegistration(ctx context.Context, id string, check func(calendar.Registration) error) (calendar.Registration, error)
	MutateRegistrations(ctx context.Context, mutate func([]calendar.Registration) ([]calendar.Registration, bool, error)) ([]calendar.Registration, error)
}

// AdminConfigRepository reads and writes the admin-config document.
type AdminConfigRepository interface {
	FetchAdminConfig(ctx context.Context) (AdminConfig, error)
	ReplaceAdminConfig(ctx context.Context, cfg AdminConfig) error
}

// IdentityRepository remembers the last registrant details per client.
type IdentityRepository interface {
	LoadIdentity(ctx context.Context, clientID string) (Identity, error)
	SaveIdentity(ctx context.Context, clientID string, identity Identity) error
	DeleteIdentity(ctx context.Context, clientID string) error
}

// AdminConfig holds the stored admin password hash.
type AdminConfig struct {
	PasswordHash string
	LastUpdated  time.Time
}

// Configured reports whether an admin password has been set.
func (c AdminConfig) Configured() bool {
	return c.PasswordHash != ""
}

// DefaultIdentityColor is the tag colour offered to registrants who have not picked one.
const DefaultIdentityColor = "#E53E3E"

// Identity is the registrant name, email, and colour remembered for pre-filling.
type Identity struct {
	Name  string
	Email string
	Color string
}

// ClassInput captures admin provided class fields.
type ClassInput struct {
	ID              string
	Type            string
	StartTime       string
	Duration        int
	MaxParticipants int
	Instructor      string
}

// SessionInput captures admin provided session fields. ID may be empty for new sessions.
type SessionInput struct {
	ID                   string
	Date                 string
	Location             string
	IsSpecialEvent       bool
	Classes              []ClassInput
	EventTitle           string
	EventDescription     string
	EventStartTime       string
	EventEndTime         string
	EventMaxParticipants int
}

// SeriesInput repeats Template on every date a recurrence rule selects,
// starting at Template.Date and ending on EndsOn inclusive.
type SeriesInput struct {
	Template      SessionInput
	EndsOn        string
	IntervalWeeks int
	Weekdays      []time.Weekday
}

// SubmitRegistrationParams wraps the data required to register for a class or event.
type SubmitRegistrationParams struct {
	TargetID string
	Name     string
	Email    string
	Color    string
	ClientID string
}

// CancelRegistrationParams wraps the data required to cancel a registration.
// RequesterEmail falls back to the identity remembered for ClientID.
type CancelRegistrationParams struct {
	RegistrationID string
	RequesterEmail string
	ClientID       string
}

// UpdatePasswordParams wraps a new admin password and its confirmation.
type UpdatePasswordParams struct {
	NewPassword  string
	Confirmation string
}

// AdminToken is a signed admin credential returned by Login.
type AdminToken struct {
	Token     string
	ExpiresAt time.Time
}

// AdminPrincipal describes a validated admin token.
type AdminPrincipal struct {
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpireResult reports what a retention pass removed.
type ExpireResult struct {
	Sessions      int
	Registrations int
}

// MigrationReport reports how many legacy ids were rewritten.
type MigrationReport struct {
	Sessions      int
	Classes       int
	Registrations int
	Mapping       map[string]string
}
