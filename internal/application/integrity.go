package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/sanshin-calendar/internal/calendar"
)

// IntegrityMaintainer removes registrations whose class or event no longer exists.
type IntegrityMaintainer struct {
	registrations RegistrationRepository
	logger        *slog.Logger
}

// NewIntegrityMaintainer constructs a maintainer over the registrations collection.
func NewIntegrityMaintainer(registrations RegistrationRepository, logger *slog.Logger) *IntegrityMaintainer {
	return &IntegrityMaintainer{registrations: registrations, logger: defaultLogger(logger)}
}

// Prune keeps only registrations that reference a class or event session in
// sessions. The registrations document is rewritten only when something was
// dropped, so running it again is harmless.
func (m *IntegrityMaintainer) Prune(ctx context.Context, sessions []calendar.Session) (removed int, err error) {
	if m == nil {
		err = fmt.Errorf("IntegrityMaintainer is nil")
		return
	}
	if m.registrations == nil {
		err = fmt.Errorf("registration repository not configured")
		return
	}

	logger := serviceLogger(ctx, m.logger, "IntegrityMaintainer", "Prune", "sessions", len(sessions))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to prune registrations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if removed > 0 {
			logger.With("removed", removed).InfoContext(ctx, "orphaned registrations removed")
		}
	}()

	valid := calendar.ValidTargetIDs(sessions)
	_, err = m.registrations.MutateRegistrations(ctx, func(current []calendar.Registration) ([]calendar.Registration, bool, error) {
		kept, dropped := calendar.KeepReferenced(current, valid)
		removed = len(dropped)
		return kept, removed > 0, nil
	})
	if err != nil {
		removed = 0
		err = mapRepoError(err)
	}
	return
}
