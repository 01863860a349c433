package application

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/example/sanshin-calendar/internal/calendar"
)

// CalendarService builds the public calendar views from both collections.
type CalendarService struct {
	sessions      SessionRepository
	registrations RegistrationRepository
	logger        *slog.Logger
}

// NewCalendarService constructs a calendar service with the provided repositories.
func NewCalendarService(sessions SessionRepository, registrations RegistrationRepository) *CalendarService {
	return NewCalendarServiceWithLogger(sessions, registrations, nil)
}

// NewCalendarServiceWithLogger constructs a calendar service with a specified logger.
func NewCalendarServiceWithLogger(sessions SessionRepository, registrations RegistrationRepository, logger *slog.Logger) *CalendarService {
	return &CalendarService{sessions: sessions, registrations: registrations, logger: defaultLogger(logger)}
}

func (s *CalendarService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CalendarService", operation, attrs...)
}

// Sessions fetches both collections in parallel and returns every session with
// its registrations attached, ordered by date.
func (s *CalendarService) Sessions(ctx context.Context) (views []calendar.SessionWithRegistrations, err error) {
	if s == nil {
		err = fmt.Errorf("CalendarService is nil")
		return
	}
	if s.sessions == nil || s.registrations == nil {
		err = fmt.Errorf("repositories not configured")
		return
	}

	var (
		sessions      []calendar.Session
		registrations []calendar.Registration
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var fetchErr error
		sessions, fetchErr = s.sessions.FetchSessions(groupCtx)
		return fetchErr
	})
	group.Go(func() error {
		var fetchErr error
		registrations, fetchErr = s.registrations.FetchRegistrations(groupCtx)
		return fetchErr
	})
	if err = group.Wait(); err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "Sessions").ErrorContext(ctx, "failed to load calendar", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	views = calendar.Merge(sessions, registrations)
	calendar.SortViews(views)
	return views, nil
}

// Month returns the merged sessions dated in the given year and month.
func (s *CalendarService) Month(ctx context.Context, year, month int) ([]calendar.SessionWithRegistrations, error) {
	vErr := &ValidationError{}
	if year < 1900 || year > 2100 {
		vErr.add("year", "must be between 1900 and 2100")
	}
	if month < 1 || month > 12 {
		vErr.add("month", "must be between 1 and 12")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	views, err := s.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	return calendar.FilterMonth(views, year, month), nil
}

// RefreshFromCache builds the merged view from the local cache only. Admin
// mutations write the cache together with the store, so the view can be
// refreshed after one without another round trip.
func (s *CalendarService) RefreshFromCache(ctx context.Context) ([]calendar.SessionWithRegistrations, error) {
	if s == nil {
		return nil, fmt.Errorf("CalendarService is nil")
	}
	if s.sessions == nil || s.registrations == nil {
		return nil, fmt.Errorf("repositories not configured")
	}

	sessions, err := s.sessions.CachedSessions(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	registrations, err := s.registrations.CachedRegistrations(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	views := calendar.Merge(sessions, registrations)
	calendar.SortViews(views)
	return views, nil
}
