package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/example/sanshin-calendar/internal/calendar"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// RegistrationService enforces capacity and one-registration-per-email when
// people sign up, and ownership when they cancel.
type RegistrationService struct {
	sessions      SessionRepository
	registrations RegistrationRepository
	identities    IdentityRepository
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewRegistrationService constructs a registration service with the provided dependencies.
func NewRegistrationService(sessions SessionRepository, registrations RegistrationRepository, identities IdentityRepository, idGenerator func() string, now func() time.Time) *RegistrationService {
	return NewRegistrationServiceWithLogger(sessions, registrations, identities, idGenerator, now, nil)
}

// NewRegistrationServiceWithLogger constructs a registration service with a specified logger.
func NewRegistrationServiceWithLogger(sessions SessionRepository, registrations RegistrationRepository, identities IdentityRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RegistrationService {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = RegistrationIDGenerator(now)
	}
	return &RegistrationService{
		sessions:      sessions,
		registrations: registrations,
		identities:    identities,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *RegistrationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RegistrationService", operation, attrs...)
}

// Submit registers a person for a class slot or special event. Capacity and
// duplicates are checked against the registrations re-read immediately before
// the append, never against a count the caller holds.
func (s *RegistrationService) Submit(ctx context.Context, params SubmitRegistrationParams) (registration calendar.Registration, err error) {
	if s == nil {
		err = fmt.Errorf("RegistrationService is nil")
		return
	}
	if s.sessions == nil || s.registrations == nil {
		err = fmt.Errorf("repositories not configured")
		return
	}

	targetID := strings.TrimSpace(params.TargetID)
	logger := s.loggerWith(ctx, "Submit", "target_id", targetID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to register", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("registration_id", registration.ID).InfoContext(ctx, "registration created")
	}()

	name := strings.TrimSpace(params.Name)
	email := strings.TrimSpace(params.Email)
	color := strings.TrimSpace(params.Color)
	if color == "" {
		color = DefaultIdentityColor
	}

	vErr := &ValidationError{}
	if targetID == "" {
		vErr.add("targetId", "is required")
	}
	if name == "" {
		vErr.add("name", "is required")
	}
	if email == "" {
		vErr.add("email", "is required")
	} else if _, parseErr := mail.ParseAddress(email); parseErr != nil {
		vErr.add("email", "must be a valid email address")
	}
	if !colorPattern.MatchString(color) {
		vErr.add("color", "must be a #RRGGBB colour")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var sessions []calendar.Session
	sessions, err = s.sessions.FetchSessions(ctx)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	target, ok := calendar.FindTarget(sessions, targetID)
	if !ok {
		err = ErrNotFound
		return
	}

	registration = calendar.Registration{
		ID:        s.idGenerator(),
		SessionID: target.ID,
		Name:      name,
		Email:     email,
		Color:     color,
		Timestamp: s.now().UnixMilli(),
	}

	err = s.registrations.AppendRegistration(ctx, registration, func(current []calendar.Registration) error {
		count, registered := calendar.CountFor(current, target.ID, email)
		if count >= target.Capacity {
			return ErrFull
		}
		if registered {
			return ErrAlreadyRegistered
		}
		return nil
	})
	if err != nil {
		registration = calendar.Registration{}
		err = mapRepoError(err)
		return
	}

	s.rememberIdentity(ctx, logger, params.ClientID, Identity{Name: name, Email: email, Color: color})
	return
}

// Cancel removes a registration when the requester's email matches the stored
// one. Without an explicit email the identity remembered for the client is used.
func (s *RegistrationService) Cancel(ctx context.Context, params CancelRegistrationParams) (err error) {
	if s == nil {
		return fmt.Errorf("RegistrationService is nil")
	}
	if s.registrations == nil {
		return fmt.Errorf("registration repository not configured")
	}

	logger := s.loggerWith(ctx, "Cancel", "registration_id", params.RegistrationID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel registration", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "registration cancelled")
	}()

	requester := calendar.NormalizeEmail(params.RequesterEmail)
	if requester == "" && params.ClientID != "" && s.identities != nil {
		identity, loadErr := s.identities.LoadIdentity(ctx, params.ClientID)
		loadErr = mapRepoError(loadErr)
		switch {
		case loadErr == nil:
			requester = calendar.NormalizeEmail(identity.Email)
		case !errors.Is(loadErr, ErrNotFound):
			logger.WarnContext(ctx, "identity lookup failed", "error", loadErr)
		}
	}
	if requester == "" {
		return ErrForbidden
	}

	_, err = s.registrations.RemoveRegistration(ctx, params.RegistrationID, func(stored calendar.Registration) error {
		if calendar.NormalizeEmail(stored.Email) != requester {
			return ErrForbidden
		}
		return nil
	})
	return mapRepoError(err)
}

// Identity returns the registrant details remembered for the client, or
// ErrNotFound when there are none.
func (s *RegistrationService) Identity(ctx context.Context, clientID string) (Identity, error) {
	if s == nil {
		return Identity{}, fmt.Errorf("RegistrationService is nil")
	}
	if s.identities == nil || clientID == "" {
		return Identity{}, ErrNotFound
	}
	identity, err := s.identities.LoadIdentity(ctx, clientID)
	if err != nil {
		return Identity{}, mapRepoError(err)
	}
	if identity.Color == "" {
		identity.Color = DefaultIdentityColor
	}
	return identity, nil
}

// ForgetIdentity drops the remembered registrant details for the client.
func (s *RegistrationService) ForgetIdentity(ctx context.Context, clientID string) error {
	if s == nil {
		return fmt.Errorf("RegistrationService is nil")
	}
	if s.identities == nil || clientID == "" {
		return nil
	}
	if err := s.identities.DeleteIdentity(ctx, clientID); err != nil {
		s.loggerWith(ctx, "ForgetIdentity").ErrorContext(ctx, "failed to forget identity", "error", err)
		return err
	}
	return nil
}

// rememberIdentity is best effort; the registration already succeeded.
func (s *RegistrationService) rememberIdentity(ctx context.Context, logger *slog.Logger, clientID string, identity Identity) {
	if s.identities == nil || clientID == "" {
		return
	}
	if err := s.identities.SaveIdentity(ctx, clientID, identity); err != nil {
		logger.WarnContext(ctx, "failed to remember identity", "error", err)
	}
}
