package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/example/sanshin-calendar/internal/calendar"
)

func newSessionFixture(sessions ...calendar.Session) (*SessionService, *collectionStub) {
	repo := newCollectionStub(sessions...)
	return NewSessionService(repo, repo, fixedClock(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))), repo
}

func regularInput(date string, classes ...ClassInput) SessionInput {
	return SessionInput{Date: date, Location: "Community hall", Classes: classes}
}

func classInput(id, start string) ClassInput {
	return ClassInput{ID: id, Type: "beginner", StartTime: start, Duration: 60, MaxParticipants: 5}
}

func assertNoOrphans(t *testing.T, repo *collectionStub) {
	t.Helper()
	valid := calendar.ValidTargetIDs(repo.sessionList())
	for _, reg := range repo.registrationList() {
		if _, ok := valid[reg.SessionID]; !ok {
			t.Fatalf("registration %s references missing target %s", reg.ID, reg.SessionID)
		}
	}
}

func TestSessionService_CreateSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("validates input", func(t *testing.T) {
		t.Parallel()
		svc, repo := newSessionFixture()

		_, err := svc.CreateSession(ctx, SessionInput{
			Date:    "2025-02-30",
			Classes: []ClassInput{{Type: "expert", StartTime: "25:00", Duration: 0, MaxParticipants: 0}},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"date", "classes[0].type", "classes[0].startTime", "classes[0].duration", "classes[0].maxParticipants"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
		if repo.sessionWrites != 0 {
			t.Fatalf("expected no write")
		}
	})

	t.Run("regular session needs classes", func(t *testing.T) {
		t.Parallel()
		svc, _ := newSessionFixture()
		_, err := svc.CreateSession(ctx, regularInput("2025-02-01"))
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["classes"] == "" {
			t.Fatalf("expected classes validation error, got %v", err)
		}
	})

	t.Run("event needs a title", func(t *testing.T) {
		t.Parallel()
		svc, _ := newSessionFixture()
		_, err := svc.CreateSession(ctx, SessionInput{Date: "2025-02-01", IsSpecialEvent: true, EventStartTime: "18:00", EventEndTime: "17:00"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if vErr.FieldErrors["eventTitle"] == "" || vErr.FieldErrors["eventEndTime"] == "" {
			t.Fatalf("unexpected field errors %v", vErr.FieldErrors)
		}
	})

	t.Run("generates ids and copies the date into classes", func(t *testing.T) {
		t.Parallel()
		svc, repo := newSessionFixture(regularSession("s-late", "2025-03-01", classSlot("c-late", 2)))

		session, err := svc.CreateSession(ctx, regularInput(" 2025-02-01 ", classInput("ignored", "10:00"), classInput("", "11:30")))
		if err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
		if !strings.HasPrefix(session.ID, "session-2025-02-01-") || len(session.ID) != len("session-2025-02-01-")+8 {
			t.Fatalf("unexpected session id %q", session.ID)
		}
		if !strings.HasPrefix(session.Classes[0].ID, "class-2025-02-01-10:00-") {
			t.Fatalf("unexpected class id %q", session.Classes[0].ID)
		}
		for _, class := range session.Classes {
			if class.Date != "2025-02-01" {
				t.Fatalf("expected class date to follow session, got %q", class.Date)
			}
		}

		stored := repo.sessionList()
		if len(stored) != 2 || stored[0].ID != session.ID {
			t.Fatalf("expected new session sorted first, got %#v", stored)
		}
	})

	t.Run("event gets default capacity and no classes", func(t *testing.T) {
		t.Parallel()
		svc, _ := newSessionFixture()
		input := SessionInput{Date: "2025-08-15", IsSpecialEvent: true, EventTitle: "Festival", Classes: []ClassInput{classInput("", "10:00")}}

		session, err := svc.CreateSession(ctx, input)
		if err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
		if session.EventMaxParticipants != calendar.DefaultEventMaxParticipants {
			t.Fatalf("expected default capacity, got %d", session.EventMaxParticipants)
		}
		if len(session.Classes) != 0 {
			t.Fatalf("expected classes to be dropped for events, got %#v", session.Classes)
		}
	})
}

func TestSessionService_UpdateSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("missing session", func(t *testing.T) {
		t.Parallel()
		svc, _ := newSessionFixture()
		_, err := svc.UpdateSession(ctx, "nope", regularInput("2025-02-01", classInput("c1", "10:00")))
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("removing a class prunes its registrations", func(t *testing.T) {
		t.Parallel()
		svc, repo := newSessionFixture(regularSession("s1", "2025-02-01", classSlot("c1", 5), classSlot("c2", 5)))
		repo.registrations = []calendar.Registration{
			{ID: "r1", SessionID: "c1", Email: "a@x.com"},
			{ID: "r2", SessionID: "c2", Email: "b@x.com"},
		}

		session, err := svc.UpdateSession(ctx, "s1", regularInput("2025-02-01", classInput("c2", "11:00")))
		if err != nil {
			t.Fatalf("UpdateSession failed: %v", err)
		}
		if session.ID != "s1" || len(session.Classes) != 1 || session.Classes[0].StartTime != "11:00" {
			t.Fatalf("unexpected session %#v", session)
		}
		regs := repo.registrationList()
		if len(regs) != 1 || regs[0].ID != "r2" {
			t.Fatalf("expected only r2 to remain, got %#v", regs)
		}
	})

	t.Run("edits that keep every class leave registrations alone", func(t *testing.T) {
		t.Parallel()
		svc, repo := newSessionFixture(regularSession("s1", "2025-02-01", classSlot("c1", 5)))
		repo.registrations = []calendar.Registration{{ID: "r1", SessionID: "c1"}}

		input := regularInput("2025-02-01", classInput("c1", "10:00"))
		input.Location = "New hall"
		if _, err := svc.UpdateSession(ctx, "s1", input); err != nil {
			t.Fatalf("UpdateSession failed: %v", err)
		}
		if repo.registrationWrites != 0 {
			t.Fatalf("expected no registrations write, got %d", repo.registrationWrites)
		}
	})

	t.Run("rejects ids used by another session", func(t *testing.T) {
		t.Parallel()
		svc, _ := newSessionFixture(
			regularSession("s1", "2025-02-01", classSlot("c1", 5)),
			regularSession("s2", "2025-02-08", classSlot("c2", 5)),
		)
		_, err := svc.UpdateSession(ctx, "s2", regularInput("2025-02-08", classInput("c1", "10:00")))
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestSessionService_ReplaceSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("prefixes field errors with the index", func(t *testing.T) {
		t.Parallel()
		svc, _ := newSessionFixture()
		_, err := svc.ReplaceSessions(ctx, []SessionInput{regularInput("2025-02-01", classInput("c1", "10:00")), {Date: "bad"}})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["sessions[1].date"] == "" {
			t.Fatalf("expected indexed validation error, got %v", err)
		}
	})

	t.Run("writes once and prunes dropped targets", func(t *testing.T) {
		t.Parallel()
		svc, repo := newSessionFixture(
			regularSession("s1", "2025-02-01", classSlot("c1", 5)),
			eventSession("e1", "2025-02-08", 10),
		)
		repo.registrations = []calendar.Registration{
			{ID: "r1", SessionID: "c1"},
			{ID: "r2", SessionID: "e1"},
		}

		input := regularInput("2025-02-01", classInput("c1", "10:00"))
		input.ID = "s1"
		sessions, err := svc.ReplaceSessions(ctx, []SessionInput{input})
		if err != nil {
			t.Fatalf("ReplaceSessions failed: %v", err)
		}
		if len(sessions) != 1 || repo.sessionWrites != 1 {
			t.Fatalf("expected a single write of one session, got %d writes, %#v", repo.sessionWrites, sessions)
		}
		regs := repo.registrationList()
		if len(regs) != 1 || regs[0].ID != "r1" {
			t.Fatalf("expected event registration pruned, got %#v", regs)
		}
	})

	t.Run("empty collection is allowed", func(t *testing.T) {
		t.Parallel()
		svc, repo := newSessionFixture(regularSession("s1", "2025-02-01", classSlot("c1", 5)))
		repo.registrations = []calendar.Registration{{ID: "r1", SessionID: "c1"}}

		if _, err := svc.ReplaceSessions(ctx, nil); err != nil {
			t.Fatalf("ReplaceSessions failed: %v", err)
		}
		if len(repo.sessionList()) != 0 || len(repo.registrationList()) != 0 {
			t.Fatalf("expected everything removed")
		}
	})
}

func TestSessionService_CreateSeries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("biweekly saturdays in one write", func(t *testing.T) {
		t.Parallel()
		existing := calendar.Session{ID: "s-jan", Date: "2025-01-18", Classes: []calendar.ClassSlot{}}
		svc, repo := newSessionFixture(existing)

		created, err := svc.CreateSeries(ctx, SeriesInput{
			Template:      regularInput("2025-02-01", classInput("template-class", "10:00"), classInput("", "11:00")),
			EndsOn:        "2025-03-15",
			IntervalWeeks: 2,
		})
		if err != nil {
			t.Fatalf("CreateSeries: %v", err)
		}

		want := []string{"2025-02-01", "2025-02-15", "2025-03-01", "2025-03-15"}
		if len(created) != len(want) {
			t.Fatalf("expected %d sessions, got %d", len(want), len(created))
		}
		for i, session := range created {
			if session.Date != want[i] {
				t.Fatalf("session %d: expected %s, got %s", i, want[i], session.Date)
			}
			if len(session.Classes) != 2 {
				t.Fatalf("expected both classes copied, got %+v", session.Classes)
			}
			for _, class := range session.Classes {
				if class.Date != session.Date {
					t.Fatalf("class date %s does not follow session %s", class.Date, session.Date)
				}
				if class.ID == "template-class" {
					t.Fatalf("expected fresh class ids, got %s", class.ID)
				}
			}
		}
		if repo.sessionWrites != 1 {
			t.Fatalf("expected one write, got %d", repo.sessionWrites)
		}
		stored := repo.sessionList()
		if len(stored) != 5 || stored[0].ID != "s-jan" {
			t.Fatalf("expected the existing session kept first, got %+v", stored)
		}
		if err := checkUniqueIDs(stored); err.HasErrors() {
			t.Fatalf("expected unique ids, got %v", err)
		}
	})

	t.Run("explicit weekdays", func(t *testing.T) {
		t.Parallel()
		svc, _ := newSessionFixture()

		created, err := svc.CreateSeries(ctx, SeriesInput{
			Template:      regularInput("2025-02-03", classInput("", "19:00")),
			EndsOn:        "2025-02-09",
			IntervalWeeks: 1,
			Weekdays:      []time.Weekday{time.Wednesday, time.Saturday},
		})
		if err != nil {
			t.Fatalf("CreateSeries: %v", err)
		}
		if len(created) != 2 || created[0].Date != "2025-02-05" || created[1].Date != "2025-02-08" {
			t.Fatalf("unexpected dates %+v", created)
		}
	})

	cases := []struct {
		name  string
		input SeriesInput
		field string
	}{
		{
			name:  "template errors carry a prefix",
			input: SeriesInput{Template: regularInput("2025-02-01"), EndsOn: "2025-03-01", IntervalWeeks: 1},
			field: "template.classes",
		},
		{
			name:  "interval must be positive",
			input: SeriesInput{Template: regularInput("2025-02-01", classInput("", "10:00")), EndsOn: "2025-03-01"},
			field: "intervalWeeks",
		},
		{
			name:  "end before start",
			input: SeriesInput{Template: regularInput("2025-02-01", classInput("", "10:00")), EndsOn: "2025-01-01", IntervalWeeks: 1},
			field: "endsOn",
		},
		{
			name:  "window too wide",
			input: SeriesInput{Template: regularInput("2025-02-01", classInput("", "10:00")), EndsOn: "2027-02-01", IntervalWeeks: 1},
			field: "endsOn",
		},
		{
			name: "no selected dates",
			input: SeriesInput{
				Template:      regularInput("2025-02-01", classInput("", "10:00")),
				EndsOn:        "2025-02-02",
				IntervalWeeks: 1,
				Weekdays:      []time.Weekday{time.Tuesday},
			},
			field: "weekdays",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc, repo := newSessionFixture()

			_, err := svc.CreateSeries(ctx, tc.input)
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.FieldErrors[tc.field] == "" {
				t.Fatalf("expected %s validation error, got %v", tc.field, err)
			}
			if repo.sessionWrites != 0 {
				t.Fatalf("expected no write")
			}
		})
	}
}

func TestSessionService_DeleteSessionPrunesRegistrations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo := newSessionFixture(
		regularSession("S1", "2025-02-01", classSlot("C1", 5)),
		regularSession("S2", "2025-02-08", classSlot("C2", 5)),
	)
	repo.registrations = []calendar.Registration{
		{ID: "stale", SessionID: "C1", Email: "a@x.com"},
		{ID: "keep", SessionID: "C2", Email: "b@x.com"},
	}

	if err := svc.DeleteSession(ctx, "S1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	regs := repo.registrationList()
	if len(regs) != 1 || regs[0].ID != "keep" {
		t.Fatalf("expected stale registration removed, got %#v", regs)
	}
	if err := svc.DeleteSession(ctx, "S1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSessionService_ExpireSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, repo := newSessionFixture(
		regularSession("old", "2024-09-30", classSlot("c-old", 5)),
		eventSession("e-old", "2024-10-01", 5),
		regularSession("new", "2024-10-02", classSlot("c-new", 5)),
	)
	repo.registrations = []calendar.Registration{
		{ID: "r1", SessionID: "c-old"},
		{ID: "r2", SessionID: "e-old"},
		{ID: "r3", SessionID: "c-new"},
	}

	cutoff := time.Date(2024, 10, 2, 23, 0, 0, 0, time.UTC)
	result, err := svc.ExpireSessions(ctx, cutoff)
	if err != nil {
		t.Fatalf("ExpireSessions failed: %v", err)
	}
	if result.Sessions != 2 || result.Registrations != 2 {
		t.Fatalf("unexpected result %#v", result)
	}
	assertNoOrphans(t, repo)

	writes := repo.sessionWrites
	result, err = svc.ExpireSessions(ctx, cutoff)
	if err != nil || result != (ExpireResult{}) {
		t.Fatalf("expected nothing to expire, got %#v, %v", result, err)
	}
	if repo.sessionWrites != writes {
		t.Fatalf("expected no write when nothing expired")
	}
}

func TestSessionService_RepairIntegrity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo := newSessionFixture(regularSession("s1", "2025-02-01", classSlot("c1", 5)))
	repo.registrations = []calendar.Registration{{ID: "r1", SessionID: "c1"}, {ID: "r2", SessionID: "gone"}}

	removed, err := svc.RepairIntegrity(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("expected one orphan removed, got %d, %v", removed, err)
	}
	removed, err = svc.RepairIntegrity(ctx)
	if err != nil || removed != 0 {
		t.Fatalf("expected repair to be idempotent, got %d, %v", removed, err)
	}
	if repo.registrationWrites != 1 {
		t.Fatalf("expected a single registrations write, got %d", repo.registrationWrites)
	}
}

func TestSessionService_MigrateLegacyIDs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo := newSessionFixture(
		regularSession("session-2024-01-06", "2024-01-06", classSlot("class-2024-01-06-14:00", 5)),
		regularSession("session-2024-01-13-a1b2c3d4", "2024-01-13", classSlot("class-2024-01-13-14:00-deadbeef", 5)),
	)
	repo.registrations = []calendar.Registration{
		{ID: "reg-1704565200000", SessionID: "class-2024-01-06-14:00"},
		{ID: "reg-01HZX", SessionID: "class-2024-01-13-14:00-deadbeef"},
	}

	report, err := svc.MigrateLegacyIDs(ctx)
	if err != nil {
		t.Fatalf("MigrateLegacyIDs failed: %v", err)
	}
	if report.Sessions != 1 || report.Classes != 1 || report.Registrations != 1 {
		t.Fatalf("unexpected report %#v", report)
	}

	newClassID := report.Mapping["class-2024-01-06-14:00"]
	if newClassID != MigrateID("class-2024-01-06-14:00") {
		t.Fatalf("unexpected class mapping %q", newClassID)
	}
	regs := repo.registrationList()
	if regs[0].SessionID != newClassID || IsLegacyID(regs[0].ID) {
		t.Fatalf("registration not migrated: %#v", regs[0])
	}
	if regs[1].ID != "reg-01HZX" {
		t.Fatalf("current ids must be untouched, got %#v", regs[1])
	}
	assertNoOrphans(t, repo)

	report, err = svc.MigrateLegacyIDs(ctx)
	if err != nil || report.Sessions+report.Classes+report.Registrations != 0 {
		t.Fatalf("expected second run to be a no-op, got %#v, %v", report, err)
	}
}

func TestSessionService_MigrateLegacyIDsResumesAfterPartialFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo := newSessionFixture(regularSession("session-2024-01-06", "2024-01-06", classSlot("class-2024-01-06-14:00", 5)))
	repo.registrations = []calendar.Registration{{ID: "reg-1", SessionID: "class-2024-01-06-14:00"}}

	// Sessions already migrated by an earlier interrupted run.
	migrated := repo.sessionList()
	migrated[0].ID = MigrateID(migrated[0].ID)
	migrated[0].Classes[0].ID = MigrateID(migrated[0].Classes[0].ID)
	repo.sessions = migrated

	if _, err := svc.MigrateLegacyIDs(ctx); err != nil {
		t.Fatalf("MigrateLegacyIDs failed: %v", err)
	}
	assertNoOrphans(t, repo)
}

func TestSessionMutationsNeverLeaveOrphans(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	svc, repo := newSessionFixture()
	registrations := NewRegistrationService(repo, repo, nil, nil, fixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

	for step := 0; step < 200; step++ {
		sessions := repo.sessionList()
		switch op := rng.Intn(5); {
		case op == 0 || len(sessions) == 0:
			date := fmt.Sprintf("2025-%02d-%02d", rng.Intn(12)+1, rng.Intn(28)+1)
			input := regularInput(date, classInput("", "10:00"), classInput("", "13:00"))
			if rng.Intn(3) == 0 {
				input = SessionInput{Date: date, IsSpecialEvent: true, EventTitle: "Event", EventMaxParticipants: 5}
			}
			if _, err := svc.CreateSession(ctx, input); err != nil {
				t.Fatalf("CreateSession failed: %v", err)
			}
		case op == 1:
			victim := sessions[rng.Intn(len(sessions))]
			if err := svc.DeleteSession(ctx, victim.ID); err != nil {
				t.Fatalf("DeleteSession failed: %v", err)
			}
			assertNoOrphans(t, repo)
		case op == 2:
			target := sessions[rng.Intn(len(sessions))]
			if target.IsSpecialEvent {
				continue
			}
			keep := target.Classes[:rng.Intn(len(target.Classes))+1]
			input := regularInput(target.Date)
			for _, class := range keep {
				input.Classes = append(input.Classes, classInput(class.ID, class.StartTime))
			}
			if _, err := svc.UpdateSession(ctx, target.ID, input); err != nil {
				t.Fatalf("UpdateSession failed: %v", err)
			}
			assertNoOrphans(t, repo)
		default:
			ids := calendar.ValidTargetIDs(sessions)
			for id := range ids {
				_, err := registrations.Submit(ctx, SubmitRegistrationParams{
					TargetID: id,
					Name:     "Player",
					Email:    fmt.Sprintf("p%d@x.com", rng.Intn(6)),
				})
				if err != nil && !errors.Is(err, ErrFull) && !errors.Is(err, ErrAlreadyRegistered) {
					t.Fatalf("Submit failed: %v", err)
				}
				break
			}
		}
	}
}
