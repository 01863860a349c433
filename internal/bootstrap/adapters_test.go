package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/example/sanshin-calendar/internal/application"
	"github.com/example/sanshin-calendar/internal/calendar"
	"github.com/example/sanshin-calendar/internal/persistence"
)

func TestSessionConversionRoundTrip(t *testing.T) {
	t.Parallel()

	model := persistence.Session{
		ID:       "session-2025-02-01-0a1b2c3d",
		Date:     "2025-02-01",
		Location: "Hall",
		Classes: []persistence.Class{{
			ID:              "class-2025-02-01-10:00-0a1b2c3d",
			Date:            "2025-02-01",
			Type:            "intermediate",
			StartTime:       "10:00",
			Duration:        90,
			MaxParticipants: 8,
			Instructor:      "Teruya",
		}},
	}

	session := toCalendarSession(model)
	assert.Equal(t, calendar.ClassTypeIntermediate, session.Classes[0].Type)
	assert.Equal(t, "Teruya", session.Classes[0].Instructor)
	assert.Equal(t, model, toPersistenceSession(session))

	event := toPersistenceSession(calendar.Session{ID: "session-x", IsSpecialEvent: true, EventTitle: "Festival"})
	if event.Classes == nil {
		t.Fatalf("expected classes to encode as an empty list")
	}
}

func TestAdminConfigConversion(t *testing.T) {
	t.Parallel()

	updated := time.Date(2025, 1, 10, 9, 30, 15, 250_000_000, time.UTC)
	model := toPersistenceAdminConfig(application.AdminConfig{PasswordHash: "hash", LastUpdated: updated})
	assert.Equal(t, "2025-01-10T09:30:15.250Z", model.LastUpdated)

	back := toApplicationAdminConfig(model)
	if !back.LastUpdated.Equal(updated) {
		t.Fatalf("expected %v, got %v", updated, back.LastUpdated)
	}

	for _, raw := range []string{"", "yesterday"} {
		cfg := toApplicationAdminConfig(persistence.AdminConfig{PasswordHash: "hash", LastUpdated: raw})
		if !cfg.LastUpdated.IsZero() {
			t.Fatalf("expected zero time for %q, got %v", raw, cfg.LastUpdated)
		}
	}

	offset := toApplicationAdminConfig(persistence.AdminConfig{LastUpdated: "2025-01-10T18:30:15+09:00"})
	assert.Equal(t, time.Date(2025, 1, 10, 9, 30, 15, 0, time.UTC), offset.LastUpdated)

	assert.Equal(t, "", toPersistenceAdminConfig(application.AdminConfig{}).LastUpdated)
}

type mutateStub struct {
	persistence.SessionRepository
	current []persistence.Session
	written []persistence.Session
}

func (m *mutateStub) MutateSessions(ctx context.Context, mutate func([]persistence.Session) ([]persistence.Session, error)) ([]persistence.Session, []persistence.Session, error) {
	next, err := mutate(m.current)
	if err != nil {
		return nil, nil, err
	}
	m.written = next
	return m.current, next, nil
}

func TestSessionAdapterMutatePassesErrorsThrough(t *testing.T) {
	t.Parallel()

	stub := &mutateStub{current: []persistence.Session{{ID: "session-a", Date: "2025-02-01"}}}
	adapter := newSessionRepositoryAdapter(stub)

	sentinel := errors.New("stop")
	_, _, err := adapter.MutateSessions(context.Background(), func([]calendar.Session) ([]calendar.Session, error) {
		return nil, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	if stub.written != nil {
		t.Fatalf("expected nothing to be written")
	}

	before, after, err := adapter.MutateSessions(context.Background(), func(current []calendar.Session) ([]calendar.Session, error) {
		return append(current, calendar.Session{ID: "session-b", Date: "2025-02-02"}), nil
	})
	if err != nil {
		t.Fatalf("MutateSessions returned error: %v", err)
	}
	assert.Equal(t, 1, len(before))
	assert.Equal(t, 2, len(after))
	assert.Equal(t, "session-b", stub.written[1].ID)
}
