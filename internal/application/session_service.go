package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/sanshin-calendar/internal/calendar"
	"github.com/example/sanshin-calendar/internal/recurrence"
)

// errUnchanged aborts a mutation that would rewrite the document with identical content.
var errUnchanged = errors.New("application: nothing to change")

// SessionService is the admin mutation surface over the sessions collection.
// Every mutation that can remove a class or event is followed by an integrity prune.
type SessionService struct {
	sessions      SessionRepository
	registrations RegistrationRepository
	integrity     *IntegrityMaintainer
	series        *recurrence.Engine
	now           func() time.Time
	logger        *slog.Logger
}

// NewSessionService constructs a session service with the provided dependencies.
func NewSessionService(sessions SessionRepository, registrations RegistrationRepository, now func() time.Time) *SessionService {
	return NewSessionServiceWithLogger(sessions, registrations, now, nil)
}

// NewSessionServiceWithLogger constructs a session service with a specified logger.
func NewSessionServiceWithLogger(sessions SessionRepository, registrations RegistrationRepository, now func() time.Time, logger *slog.Logger) *SessionService {
	if now == nil {
		now = time.Now
	}
	logger = defaultLogger(logger)
	return &SessionService{
		sessions:      sessions,
		registrations: registrations,
		integrity:     NewIntegrityMaintainer(registrations, logger),
		series:        recurrence.NewEngine(0),
		now:           now,
		logger:        logger,
	}
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, attrs...)
}

// ListSessions returns the stored sessions ordered by date.
func (s *SessionService) ListSessions(ctx context.Context) (sessions []calendar.Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.sessions == nil {
		return []calendar.Session{}, nil
	}

	sessions, err = s.sessions.FetchSessions(ctx)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "ListSessions").ErrorContext(ctx, "failed to list sessions", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	calendar.SortByDate(sessions)
	return sessions, nil
}

// ReplaceSessions validates a full caller-supplied collection and writes it in
// one replace. Registrations for classes or events that disappeared are pruned.
func (s *SessionService) ReplaceSessions(ctx context.Context, inputs []SessionInput) (sessions []calendar.Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ReplaceSessions", "count", len(inputs))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to replace sessions", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "sessions replaced")
	}()

	vErr := &ValidationError{}
	for i, input := range inputs {
		vErr.merge(validateSessionInput(input, fmt.Sprintf("sessions[%d].", i)))
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	sessions = make([]calendar.Session, 0, len(inputs))
	for _, input := range inputs {
		sessions = append(sessions, normalizeSession(input))
	}
	if dup := checkUniqueIDs(sessions); dup.HasErrors() {
		err = dup
		return
	}
	calendar.SortByDate(sessions)

	var before, after []calendar.Session
	before, after, err = s.sessions.MutateSessions(ctx, func([]calendar.Session) ([]calendar.Session, error) {
		return sessions, nil
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	err = s.pruneIfRemoved(ctx, before, after)
	return
}

// CreateSession appends a new session. Session and class ids are always generated.
func (s *SessionService) CreateSession(ctx context.Context, input SessionInput) (session calendar.Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateSession", "date", input.Date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_id", session.ID).InfoContext(ctx, "session created")
	}()

	vErr := validateSessionInput(input, "")
	if vErr.HasErrors() {
		err = vErr
		return
	}

	input.ID = ""
	for i := range input.Classes {
		input.Classes[i].ID = ""
	}
	session = normalizeSession(input)

	if s.sessions == nil {
		return
	}
	if err = s.sessions.AppendSession(ctx, session); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// CreateSeries appends a copy of the template for every date the rule selects.
// Ids are generated per copy and the whole series lands in one write.
func (s *SessionService) CreateSeries(ctx context.Context, input SeriesInput) (sessions []calendar.Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateSeries", "starts_on", input.Template.Date, "ends_on", input.EndsOn, "interval_weeks", input.IntervalWeeks)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create session series", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("count", len(sessions)).InfoContext(ctx, "session series created")
	}()

	vErr := validateSessionInput(input.Template, "template.")
	if vErr.HasErrors() {
		err = vErr
		return
	}

	dates, ruleErr := s.series.Dates(recurrence.Rule{
		StartsOn:      strings.TrimSpace(input.Template.Date),
		EndsOn:        strings.TrimSpace(input.EndsOn),
		IntervalWeeks: input.IntervalWeeks,
		Weekdays:      input.Weekdays,
	})
	switch {
	case errors.Is(ruleErr, recurrence.ErrInvalidInterval):
		vErr.add("intervalWeeks", "must be at least 1")
	case errors.Is(ruleErr, recurrence.ErrInvalidWindow):
		vErr.add("endsOn", "must be a calendar date on or after the first date")
	case errors.Is(ruleErr, recurrence.ErrTooManyOccurrences):
		vErr.add("endsOn", "selects too many dates")
	case ruleErr != nil:
		err = ruleErr
		return
	case len(dates) == 0:
		vErr.add("weekdays", "must select at least one date")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	sessions = make([]calendar.Session, 0, len(dates))
	for _, date := range dates {
		copyInput := input.Template
		copyInput.ID = ""
		copyInput.Date = date
		copyInput.Classes = make([]ClassInput, len(input.Template.Classes))
		for i, class := range input.Template.Classes {
			class.ID = ""
			copyInput.Classes[i] = class
		}
		sessions = append(sessions, normalizeSession(copyInput))
	}

	_, _, err = s.sessions.MutateSessions(ctx, func(current []calendar.Session) ([]calendar.Session, error) {
		merged := append(append(make([]calendar.Session, 0, len(current)+len(sessions)), current...), sessions...)
		if dup := checkUniqueIDs(merged); dup.HasErrors() {
			return nil, dup
		}
		calendar.SortByDate(merged)
		return merged, nil
	})
	if err != nil {
		sessions = nil
		err = mapRepoError(err)
	}
	return
}

// UpdateSession swaps the stored session with id for the normalized input.
// Classes without an id are treated as new.
func (s *SessionService) UpdateSession(ctx context.Context, id string, input SessionInput) (session calendar.Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSession", "session_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session updated")
	}()

	vErr := validateSessionInput(input, "")
	if vErr.HasErrors() {
		err = vErr
		return
	}
	input.ID = id
	session = normalizeSession(input)

	var before, after []calendar.Session
	before, after, err = s.sessions.MutateSessions(ctx, func(current []calendar.Session) ([]calendar.Session, error) {
		index := -1
		for i := range current {
			if current[i].ID == id {
				index = i
				break
			}
		}
		if index < 0 {
			return nil, ErrNotFound
		}
		current[index] = session
		if dup := checkUniqueIDs(current); dup.HasErrors() {
			return nil, dup
		}
		calendar.SortByDate(current)
		return current, nil
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	err = s.pruneIfRemoved(ctx, before, after)
	return
}

// DeleteSession removes the session and every registration that referenced it.
func (s *SessionService) DeleteSession(ctx context.Context, id string) (err error) {
	if s == nil {
		return fmt.Errorf("SessionService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteSession", "session_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session deleted")
	}()

	_, surviving, err := s.sessions.RemoveSession(ctx, id)
	if err != nil {
		return mapRepoError(err)
	}
	_, err = s.integrity.Prune(ctx, surviving)
	return err
}

// ExpireSessions removes sessions dated before the calendar day of before, then
// prunes their registrations.
func (s *SessionService) ExpireSessions(ctx context.Context, before time.Time) (result ExpireResult, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	cutoff := calendar.DateOf(before)
	logger := s.loggerWith(ctx, "ExpireSessions", "cutoff", cutoff)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to expire sessions", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("sessions", result.Sessions, "registrations", result.Registrations).InfoContext(ctx, "expired sessions removed")
	}()

	var after []calendar.Session
	_, after, err = s.sessions.MutateSessions(ctx, func(current []calendar.Session) ([]calendar.Session, error) {
		kept := make([]calendar.Session, 0, len(current))
		for _, session := range current {
			if session.Date < cutoff {
				result.Sessions++
				continue
			}
			kept = append(kept, session)
		}
		if result.Sessions == 0 {
			return nil, errUnchanged
		}
		return kept, nil
	})
	if errors.Is(err, errUnchanged) {
		err = nil
		return
	}
	if err != nil {
		result = ExpireResult{}
		err = mapRepoError(err)
		return
	}

	result.Registrations, err = s.integrity.Prune(ctx, after)
	return
}

// RepairIntegrity prunes orphaned registrations against the sessions currently in the store.
func (s *SessionService) RepairIntegrity(ctx context.Context) (removed int, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	var sessions []calendar.Session
	sessions, err = s.sessions.FreshSessions(ctx)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "RepairIntegrity").ErrorContext(ctx, "failed to read sessions", "error", err, "error_kind", ErrorKind(err))
		return
	}
	return s.integrity.Prune(ctx, sessions)
}

// MigrateLegacyIDs gives legacy session, class, and registration ids their
// unique suffix. Sessions are written first. The suffix is derived from the
// legacy id, so a run interrupted between the two writes can simply be repeated.
func (s *SessionService) MigrateLegacyIDs(ctx context.Context) (report MigrationReport, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.sessions == nil || s.registrations == nil {
		err = fmt.Errorf("repositories not configured")
		return
	}

	logger := s.loggerWith(ctx, "MigrateLegacyIDs")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to migrate ids", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"sessions", report.Sessions,
			"classes", report.Classes,
			"registrations", report.Registrations,
		).InfoContext(ctx, "legacy ids migrated")
	}()

	report.Mapping = make(map[string]string)
	_, _, err = s.sessions.MutateSessions(ctx, func(current []calendar.Session) ([]calendar.Session, error) {
		for i := range current {
			if id := MigrateID(current[i].ID); id != current[i].ID {
				report.Mapping[current[i].ID] = id
				current[i].ID = id
				report.Sessions++
			}
			for j := range current[i].Classes {
				class := &current[i].Classes[j]
				if id := MigrateID(class.ID); id != class.ID {
					report.Mapping[class.ID] = id
					class.ID = id
					report.Classes++
				}
			}
		}
		if len(report.Mapping) == 0 {
			return nil, errUnchanged
		}
		return current, nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		report = MigrationReport{}
		err = mapRepoError(err)
		return
	}

	_, err = s.registrations.MutateRegistrations(ctx, func(current []calendar.Registration) ([]calendar.Registration, bool, error) {
		for i := range current {
			reg := &current[i]
			changed := false
			if id := MigrateID(reg.ID); id != reg.ID {
				reg.ID = id
				changed = true
			}
			if target := MigrateID(reg.SessionID); target != reg.SessionID {
				reg.SessionID = target
				changed = true
			}
			if changed {
				report.Registrations++
			}
		}
		return current, report.Registrations > 0, nil
	})
	if err != nil {
		err = mapRepoError(err)
	}
	return
}

func (s *SessionService) pruneIfRemoved(ctx context.Context, before, after []calendar.Session) error {
	if len(calendar.RemovedIDs(before, after)) == 0 {
		return nil
	}
	_, err := s.integrity.Prune(ctx, after)
	return err
}

func validateSessionInput(input SessionInput, prefix string) *ValidationError {
	vErr := &ValidationError{}

	date := strings.TrimSpace(input.Date)
	if _, err := calendar.ParseDate(date); err != nil {
		vErr.add(prefix+"date", "must be a calendar date in YYYY-MM-DD format")
	}

	if input.IsSpecialEvent {
		if strings.TrimSpace(input.EventTitle) == "" {
			vErr.add(prefix+"eventTitle", "is required")
		}
		if input.EventMaxParticipants < 0 {
			vErr.add(prefix+"eventMaxParticipants", "must not be negative")
		}
		start := strings.TrimSpace(input.EventStartTime)
		end := strings.TrimSpace(input.EventEndTime)
		if start != "" && calendar.ValidateClock(start) != nil {
			vErr.add(prefix+"eventStartTime", "must be HH:MM")
		}
		if end != "" && calendar.ValidateClock(end) != nil {
			vErr.add(prefix+"eventEndTime", "must be HH:MM")
		}
		if start != "" && end != "" && calendar.ValidateClock(start) == nil && calendar.ValidateClock(end) == nil && end <= start {
			vErr.add(prefix+"eventEndTime", "must be after the start time")
		}
		return vErr
	}

	if len(input.Classes) == 0 {
		vErr.add(prefix+"classes", "at least one class is required")
	}
	for i, class := range input.Classes {
		field := fmt.Sprintf("%sclasses[%d].", prefix, i)
		if !calendar.ClassType(strings.ToLower(strings.TrimSpace(class.Type))).Valid() {
			vErr.add(field+"type", "must be beginner, intermediate, or experience")
		}
		if calendar.ValidateClock(strings.TrimSpace(class.StartTime)) != nil {
			vErr.add(field+"startTime", "must be HH:MM")
		}
		if class.Duration <= 0 {
			vErr.add(field+"duration", "must be greater than zero")
		}
		if class.MaxParticipants < 1 {
			vErr.add(field+"maxParticipants", "must be at least 1")
		}
	}
	return vErr
}

// normalizeSession trims fields, fills in missing ids, and keeps exactly one of
// the class list or the event fields. Class dates always copy the session date.
func normalizeSession(input SessionInput) calendar.Session {
	date := strings.TrimSpace(input.Date)
	session := calendar.Session{
		ID:             strings.TrimSpace(input.ID),
		Date:           date,
		Location:       strings.TrimSpace(input.Location),
		IsSpecialEvent: input.IsSpecialEvent,
		Classes:        []calendar.ClassSlot{},
	}
	if session.ID == "" {
		session.ID = NewSessionID(date)
	}

	if input.IsSpecialEvent {
		session.EventTitle = strings.TrimSpace(input.EventTitle)
		session.EventDescription = strings.TrimSpace(input.EventDescription)
		session.EventStartTime = strings.TrimSpace(input.EventStartTime)
		session.EventEndTime = strings.TrimSpace(input.EventEndTime)
		session.EventMaxParticipants = input.EventMaxParticipants
		if session.EventMaxParticipants == 0 {
			session.EventMaxParticipants = calendar.DefaultEventMaxParticipants
		}
		return session
	}

	for _, class := range input.Classes {
		start := strings.TrimSpace(class.StartTime)
		slot := calendar.ClassSlot{
			ID:              strings.TrimSpace(class.ID),
			Date:            date,
			Type:            calendar.ClassType(strings.ToLower(strings.TrimSpace(class.Type))),
			StartTime:       start,
			Duration:        class.Duration,
			MaxParticipants: class.MaxParticipants,
			Instructor:      strings.TrimSpace(class.Instructor),
		}
		if slot.ID == "" {
			slot.ID = NewClassID(date, start)
		}
		session.Classes = append(session.Classes, slot)
	}
	return session
}

// checkUniqueIDs rejects collections where a session or class id appears twice.
// Registrations reference both kinds through one field, so they share a namespace.
func checkUniqueIDs(sessions []calendar.Session) *ValidationError {
	vErr := &ValidationError{}
	seen := make(map[string]struct{})
	claim := func(id string) {
		if _, ok := seen[id]; ok {
			vErr.add("id", fmt.Sprintf("duplicate id %q", id))
			return
		}
		seen[id] = struct{}{}
	}
	for _, session := range sessions {
		claim(session.ID)
		for _, class := range session.Classes {
			claim(class.ID)
		}
	}
	return vErr
}
