package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/docopt/docopt-go"

	"github.com/example/sanshin-calendar/internal/config"
	"github.com/example/sanshin-calendar/internal/testfixtures"
)

func parse(t *testing.T, args ...string) docopt.Opts {
	t.Helper()
	parser := &docopt.Parser{HelpHandler: docopt.NoHelpHandler}
	opts, err := parser.ParseArgs(usage, args, CalendarCtlVersion)
	if err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return opts
}

func TestExecute(t *testing.T) {
	cfg := config.Config{Retention: 30 * 24 * time.Hour}
	now := func() time.Time { return testfixtures.ReferenceTime() }

	t.Run("register then list", func(t *testing.T) {
		factory := testfixtures.NewServiceFactory()
		class := testfixtures.NewClassFixture(testfixtures.ReferenceDate(7), testfixtures.WithCapacity(4))
		factory.Harness.SeedSessions(t, testfixtures.NewSessionFixture(testfixtures.WithClasses(class)))
		services := factory.Services()

		var out bytes.Buffer
		err := execute(context.Background(), parse(t, "register", class.ID, "--name=Kana", "--email=kana@example.com"), services, cfg, now, nil, &out)
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if !strings.Contains(out.String(), "registered reg-1 for "+class.ID) {
			t.Fatalf("unexpected output %q", out.String())
		}

		out.Reset()
		if err := execute(context.Background(), parse(t, "sessions"), services, cfg, now, nil, &out); err != nil {
			t.Fatalf("sessions: %v", err)
		}
		if !strings.Contains(out.String(), class.ID) || !strings.Contains(out.String(), "1/4") {
			t.Fatalf("expected the class with one seat taken, got %q", out.String())
		}

		out.Reset()
		if err := execute(context.Background(), parse(t, "cancel", "reg-1", "--email=KANA@example.com"), services, cfg, now, nil, &out); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if len(factory.Harness.StoredRegistrations(t)) != 0 {
			t.Fatal("expected the registration to be removed")
		}
	})

	t.Run("validation errors list their fields", func(t *testing.T) {
		factory := testfixtures.NewServiceFactory()
		services := factory.Services()

		err := execute(context.Background(), parse(t, "register", "class-x", "--name=Kana", "--email=nope"), services, cfg, now, nil, &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), "email: must be a valid email address") {
			t.Fatalf("expected an email field error, got %v", err)
		}
	})

	t.Run("month rejects non-numeric input", func(t *testing.T) {
		services := testfixtures.NewServiceFactory().Services()

		err := execute(context.Background(), parse(t, "month", "twenty", "1"), services, cfg, now, nil, &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), "invalid year") {
			t.Fatalf("expected invalid year, got %v", err)
		}
	})

	t.Run("expire defaults to the retention window", func(t *testing.T) {
		factory := testfixtures.NewServiceFactory()
		factory.Harness.SeedSessions(t,
			testfixtures.NewSessionFixture(testfixtures.WithSessionDate("2024-11-01")),
			testfixtures.NewSessionFixture(testfixtures.WithSessionDate("2025-01-17")),
		)
		services := factory.Services()

		var out bytes.Buffer
		if err := execute(context.Background(), parse(t, "expire"), services, cfg, now, nil, &out); err != nil {
			t.Fatalf("expire: %v", err)
		}
		if !strings.Contains(out.String(), "expired 1 sessions and 0 registrations before 2024-12-11") {
			t.Fatalf("unexpected output %q", out.String())
		}

		out.Reset()
		if err := execute(context.Background(), parse(t, "expire", "--before=2025-13-01"), services, cfg, now, nil, &out); err == nil {
			t.Fatal("expected an invalid date error")
		}
	})

	t.Run("prune reports the removed count", func(t *testing.T) {
		factory := testfixtures.NewServiceFactory()
		session := testfixtures.NewSessionFixture()
		factory.Harness.SeedSessions(t, session)
		factory.Harness.SeedRegistrations(t,
			testfixtures.NewRegistrationFixture(session.Classes[0].ID),
			testfixtures.NewRegistrationFixture("class-gone"),
		)

		var out bytes.Buffer
		if err := execute(context.Background(), parse(t, "prune"), factory.Services(), cfg, now, nil, &out); err != nil {
			t.Fatalf("prune: %v", err)
		}
		if !strings.Contains(out.String(), "removed 1 orphaned registrations") {
			t.Fatalf("unexpected output %q", out.String())
		}
	})

	t.Run("series creates biweekly sessions", func(t *testing.T) {
		factory := testfixtures.NewServiceFactory()
		services := factory.Services()

		var out bytes.Buffer
		err := execute(context.Background(), parse(t, "series", "2025-02-01", "2025-03-01", "--start=10:00", "--location=Dojo"), services, cfg, now, nil, &out)
		if err != nil {
			t.Fatalf("series: %v", err)
		}
		if !strings.Contains(out.String(), "created 3 sessions") || !strings.Contains(out.String(), "2025-02-15") {
			t.Fatalf("unexpected output %q", out.String())
		}
		if got := len(factory.Harness.StoredSessions(t)); got != 3 {
			t.Fatalf("expected 3 stored sessions, got %d", got)
		}

		err = execute(context.Background(), parse(t, "series", "2025-02-01", "2025-03-01", "--start=10:00", "--every=0"), services, cfg, now, nil, &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), "intervalWeeks: must be at least 1") {
			t.Fatalf("expected an interval error, got %v", err)
		}
	})

	t.Run("set-password reads the password and confirmation from input", func(t *testing.T) {
		factory := testfixtures.NewServiceFactory()
		services := factory.Services()
		setPassword := parse(t, "set-password")

		var out bytes.Buffer
		input := lineReader(strings.NewReader("sanshin-2025\r\nsanshin-2025\n"))
		if err := execute(context.Background(), setPassword, services, cfg, now, input, &out); err != nil {
			t.Fatalf("set-password: %v", err)
		}
		if _, err := services.Admin.Login(context.Background(), "sanshin-2025"); err != nil {
			t.Fatalf("Login after set-password: %v", err)
		}
		if factory.Harness.StoredAdminConfig(t).PasswordHash == "" {
			t.Fatal("expected the hash in the admin-config document")
		}

		err := execute(context.Background(), setPassword, services, cfg, now, lineReader(strings.NewReader("sanshin-2026\nsanshin-2027\n")), &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), "confirmation") {
			t.Fatalf("expected a confirmation mismatch, got %v", err)
		}
		if _, err := services.Admin.Login(context.Background(), "sanshin-2025"); err != nil {
			t.Fatalf("mismatch must keep the old password: %v", err)
		}

		err = execute(context.Background(), setPassword, services, cfg, now, lineReader(strings.NewReader("short\nshort\n")), &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), "password: must be at least") {
			t.Fatalf("expected a length error, got %v", err)
		}

		err = execute(context.Background(), setPassword, services, cfg, now, lineReader(strings.NewReader("only-once\n")), &bytes.Buffer{})
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("expected a missing confirmation error, got %v", err)
		}
	})
}

func TestUsageParsesEveryCommand(t *testing.T) {
	commands := [][]string{
		{"sessions"},
		{"month", "2025", "1"},
		{"register", "class-1", "--name=A", "--email=a@example.com", "--color=#112233"},
		{"cancel", "reg-1", "--email=a@example.com"},
		{"prune", "--config=calendar.yaml"},
		{"expire", "--before=2025-01-01"},
		{"migrate-ids"},
		{"set-password"},
		{"series", "2025-02-01", "2025-03-29", "--start=10:00", "--every=1"},
	}
	if _, err := (&docopt.Parser{HelpHandler: docopt.NoHelpHandler}).ParseArgs(usage, []string{"set-password", "sanshin-2025"}, CalendarCtlVersion); err == nil {
		t.Fatal("the password must not be accepted as an argument")
	}
	for _, args := range commands {
		opts := parse(t, args...)
		if ok, _ := opts.Bool(args[0]); !ok {
			t.Fatalf("expected %q to be selected, got %v", args[0], opts)
		}
	}
}
