package bootstrap

import (
	"context"
	"time"

	"github.com/example/sanshin-calendar/internal/application"
	"github.com/example/sanshin-calendar/internal/calendar"
	"github.com/example/sanshin-calendar/internal/persistence"
)

// lastUpdatedLayout matches the ISO-8601 timestamps other clients of the admin
// document write, with millisecond precision in UTC.
const lastUpdatedLayout = "2006-01-02T15:04:05.000Z07:00"

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) FetchSessions(ctx context.Context) ([]calendar.Session, error) {
	models, err := a.repo.FetchSessions(ctx)
	if err != nil {
		return nil, err
	}
	return toCalendarSessions(models), nil
}

func (a *sessionRepositoryAdapter) FreshSessions(ctx context.Context) ([]calendar.Session, error) {
	models, err := a.repo.FreshSessions(ctx)
	if err != nil {
		return nil, err
	}
	return toCalendarSessions(models), nil
}

func (a *sessionRepositoryAdapter) CachedSessions(ctx context.Context) ([]calendar.Session, error) {
	models, err := a.repo.CachedSessions(ctx)
	if err != nil {
		return nil, err
	}
	return toCalendarSessions(models), nil
}

func (a *sessionRepositoryAdapter) ReplaceSessions(ctx context.Context, sessions []calendar.Session) error {
	return a.repo.ReplaceSessions(ctx, toPersistenceSessions(sessions))
}

func (a *sessionRepositoryAdapter) AppendSession(ctx context.Context, session calendar.Session) error {
	return a.repo.AppendSession(ctx, toPersistenceSession(session))
}

func (a *sessionRepositoryAdapter) RemoveSession(ctx context.Context, id string) (calendar.Session, []calendar.Session, error) {
	removed, surviving, err := a.repo.RemoveSession(ctx, id)
	if err != nil {
		return calendar.Session{}, nil, err
	}
	return toCalendarSession(removed), toCalendarSessions(surviving), nil
}

func (a *sessionRepositoryAdapter) MutateSessions(ctx context.Context, mutate func([]calendar.Session) ([]calendar.Session, error)) ([]calendar.Session, []calendar.Session, error) {
	before, after, err := a.repo.MutateSessions(ctx, func(current []persistence.Session) ([]persistence.Session, error) {
		next, err := mutate(toCalendarSessions(current))
		if err != nil {
			return nil, err
		}
		return toPersistenceSessions(next), nil
	})
	if err != nil {
		return nil, nil, err
	}
	return toCalendarSessions(before), toCalendarSessions(after), nil
}

type registrationRepositoryAdapter struct {
	repo persistence.RegistrationRepository
}

func newRegistrationRepositoryAdapter(repo persistence.RegistrationRepository) *registrationRepositoryAdapter {
	return &registrationRepositoryAdapter{repo: repo}
}

func (a *registrationRepositoryAdapter) FetchRegistrations(ctx context.Context) ([]calendar.Registration, error) {
	models, err := a.repo.FetchRegistrations(ctx)
	if err != nil {
		return nil, err
	}
	return toCalendarRegistrations(models), nil
}

func (a *registrationRepositoryAdapter) CachedRegistrations(ctx context.Context) ([]calendar.Registration, error) {
	models, err := a.repo.CachedRegistrations(ctx)
	if err != nil {
		return nil, err
	}
	return toCalendarRegistrations(models), nil
}

func (a *registrationRepositoryAdapter) ReplaceRegistrations(ctx context.Context, registrations []calendar.Registration) error {
	return a.repo.ReplaceRegistrations(ctx, toPersistenceRegistrations(registrations))
}

func (a *registrationRepositoryAdapter) AppendRegistration(ctx context.Context, registration calendar.Registration, check func([]calendar.Registration) error) error {
	var persistenceCheck func([]persistence.Registration) error
	if check != nil {
		persistenceCheck = func(current []persistence.Registration) error {
			return check(toCalendarRegistrations(current))
		}
	}
	return a.repo.AppendRegistration(ctx, toPersistenceRegistration(registration), persistenceCheck)
}

func (a *registrationRepositoryAdapter) RemoveRegistration(ctx context.Context, id string, check func(calendar.Registration) error) (calendar.Registration, error) {
	var persistenceCheck func(persistence.Registration) error
	if check != nil {
		persistenceCheck = func(stored persistence.Registration) error {
			return check(toCalendarRegistration(stored))
		}
	}
	removed, err := a.repo.RemoveRegistration(ctx, id, persistenceCheck)
	if err != nil {
		return calendar.Registration{}, err
	}
	return toCalendarRegistration(removed), nil
}

func (a *registrationRepositoryAdapter) MutateRegistrations(ctx context.Context, mutate func([]calendar.Registration) ([]calendar.Registration, bool, error)) ([]calendar.Registration, error) {
	result, err := a.repo.MutateRegistrations(ctx, func(current []persistence.Registration) ([]persistence.Registration, bool, error) {
		next, changed, err := mutate(toCalendarRegistrations(current))
		if err != nil {
			return nil, false, err
		}
		return toPersistenceRegistrations(next), changed, nil
	})
	if err != nil {
		return nil, err
	}
	return toCalendarRegistrations(result), nil
}

type adminConfigRepositoryAdapter struct {
	repo persistence.AdminConfigRepository
}

func newAdminConfigRepositoryAdapter(repo persistence.AdminConfigRepository) *adminConfigRepositoryAdapter {
	return &adminConfigRepositoryAdapter{repo: repo}
}

func (a *adminConfigRepositoryAdapter) FetchAdminConfig(ctx context.Context) (application.AdminConfig, error) {
	model, err := a.repo.FetchAdminConfig(ctx)
	if err != nil {
		return application.AdminConfig{}, err
	}
	return toApplicationAdminConfig(model), nil
}

func (a *adminConfigRepositoryAdapter) ReplaceAdminConfig(ctx context.Context, cfg application.AdminConfig) error {
	return a.repo.ReplaceAdminConfig(ctx, toPersistenceAdminConfig(cfg))
}

type identityRepositoryAdapter struct {
	repo persistence.IdentityRepository
}

func newIdentityRepositoryAdapter(repo persistence.IdentityRepository) *identityRepositoryAdapter {
	return &identityRepositoryAdapter{repo: repo}
}

func (a *identityRepositoryAdapter) LoadIdentity(ctx context.Context, clientID string) (application.Identity, error) {
	model, err := a.repo.LoadIdentity(ctx, clientID)
	if err != nil {
		return application.Identity{}, err
	}
	return application.Identity{Name: model.Name, Email: model.Email, Color: model.Color}, nil
}

func (a *identityRepositoryAdapter) SaveIdentity(ctx context.Context, clientID string, identity application.Identity) error {
	return a.repo.SaveIdentity(ctx, clientID, persistence.Identity{
		Name:  identity.Name,
		Email: identity.Email,
		Color: identity.Color,
	})
}

func (a *identityRepositoryAdapter) DeleteIdentity(ctx context.Context, clientID string) error {
	return a.repo.DeleteIdentity(ctx, clientID)
}

func toCalendarSessions(models []persistence.Session) []calendar.Session {
	sessions := make([]calendar.Session, 0, len(models))
	for _, model := range models {
		sessions = append(sessions, toCalendarSession(model))
	}
	return sessions
}

func toCalendarSession(model persistence.Session) calendar.Session {
	classes := make([]calendar.ClassSlot, 0, len(model.Classes))
	for _, class := range model.Classes {
		classes = append(classes, calendar.ClassSlot{
			ID:              class.ID,
			Date:            class.Date,
			Type:            calendar.ClassType(class.Type),
			StartTime:       class.StartTime,
			Duration:        class.Duration,
			MaxParticipants: class.MaxParticipants,
			Instructor:      class.Instructor,
		})
	}
	return calendar.Session{
		ID:                   model.ID,
		Date:                 model.Date,
		Location:             model.Location,
		IsSpecialEvent:       model.IsSpecialEvent,
		Classes:              classes,
		EventTitle:           model.EventTitle,
		EventDescription:     model.EventDescription,
		EventStartTime:       model.EventStartTime,
		EventEndTime:         model.EventEndTime,
		EventMaxParticipants: model.EventMaxParticipants,
	}
}

func toPersistenceSessions(sessions []calendar.Session) []persistence.Session {
	models := make([]persistence.Session, 0, len(sessions))
	for _, session := range sessions {
		models = append(models, toPersistenceSession(session))
	}
	return models
}

func toPersistenceSession(session calendar.Session) persistence.Session {
	classes := make([]persistence.Class, 0, len(session.Classes))
	for _, class := range session.Classes {
		classes = append(classes, persistence.Class{
			ID:              class.ID,
			Date:            class.Date,
			Type:            string(class.Type),
			StartTime:       class.StartTime,
			Duration:        class.Duration,
			MaxParticipants: class.MaxParticipants,
			Instructor:      class.Instructor,
		})
	}
	return persistence.Session{
		ID:                   session.ID,
		Date:                 session.Date,
		Location:             session.Location,
		IsSpecialEvent:       session.IsSpecialEvent,
		Classes:              classes,
		EventTitle:           session.EventTitle,
		EventDescription:     session.EventDescription,
		EventStartTime:       session.EventStartTime,
		EventEndTime:         session.EventEndTime,
		EventMaxParticipants: session.EventMaxParticipants,
	}
}

func toCalendarRegistrations(models []persistence.Registration) []calendar.Registration {
	registrations := make([]calendar.Registration, 0, len(models))
	for _, model := range models {
		registrations = append(registrations, toCalendarRegistration(model))
	}
	return registrations
}

func toCalendarRegistration(model persistence.Registration) calendar.Registration {
	return calendar.Registration{
		ID:        model.ID,
		SessionID: model.SessionID,
		Name:      model.Name,
		Email:     model.Email,
		Color:     model.Color,
		Timestamp: model.Timestamp,
	}
}

func toPersistenceRegistrations(registrations []calendar.Registration) []persistence.Registration {
	models := make([]persistence.Registration, 0, len(registrations))
	for _, registration := range registrations {
		models = append(models, toPersistenceRegistration(registration))
	}
	return models
}

func toPersistenceRegistration(registration calendar.Registration) persistence.Registration {
	return persistence.Registration{
		ID:        registration.ID,
		SessionID: registration.SessionID,
		Name:      registration.Name,
		Email:     registration.Email,
		Color:     registration.Color,
		Timestamp: registration.Timestamp,
	}
}

// toApplicationAdminConfig tolerates a missing or malformed lastUpdated; the
// zero time then admits any token that is otherwise valid.
func toApplicationAdminConfig(model persistence.AdminConfig) application.AdminConfig {
	cfg := application.AdminConfig{PasswordHash: model.PasswordHash}
	if model.LastUpdated != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, model.LastUpdated); err == nil {
			cfg.LastUpdated = parsed.UTC()
		}
	}
	return cfg
}

func toPersistenceAdminConfig(cfg application.AdminConfig) persistence.AdminConfig {
	model := persistence.AdminConfig{PasswordHash: cfg.PasswordHash}
	if !cfg.LastUpdated.IsZero() {
		model.LastUpdated = cfg.LastUpdated.UTC().Format(lastUpdatedLayout)
	}
	return model
}
