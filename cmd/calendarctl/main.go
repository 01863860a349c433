package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/docopt/docopt-go"
	"golang.org/x/term"

	"github.com/example/sanshin-calendar/internal/application"
	"github.com/example/sanshin-calendar/internal/bootstrap"
	"github.com/example/sanshin-calendar/internal/calendar"
	"github.com/example/sanshin-calendar/internal/config"
	"github.com/example/sanshin-calendar/internal/logging"
)

const CalendarCtlVersion = "0.1.0"

const usage = `Calendar control.

Operator tool for the lesson calendar. Configuration comes from the
environment (and .env) unless --config names a YAML/TOML/JSON file.
set-password prompts for the password and its confirmation on a terminal,
otherwise it reads them as two lines from stdin.

Usage:
    calendarctl sessions [--config=<path>]
    calendarctl month <year> <month> [--config=<path>]
    calendarctl register <target_id> --name=<name> --email=<email> [--color=<color>] [--config=<path>]
    calendarctl cancel <registration_id> --email=<email> [--config=<path>]
    calendarctl prune [--config=<path>]
    calendarctl expire [--before=<date>] [--config=<path>]
    calendarctl migrate-ids [--config=<path>]
    calendarctl set-password [--config=<path>]
    calendarctl series <first_date> <ends_on> --start=<time> [--type=<type>] [--duration=<minutes>] [--capacity=<n>] [--location=<location>] [--every=<weeks>] [--config=<path>]
    calendarctl -h | --help
    calendarctl --version

Options:
    -h --help           Show this screen.
    --version           Show version.
    --config=<path>     Read settings from a config file.
    --name=<name>       Registrant name.
    --email=<email>     Registrant email.
    --color=<color>     Registrant tag colour (#RRGGBB).
    --before=<date>     Expire sessions dated before YYYY-MM-DD. Defaults to now minus the retention window.
    --start=<time>      Class start time, HH:MM.
    --type=<type>       Class type [default: beginner].
    --duration=<minutes>  Class length in minutes [default: 60].
    --capacity=<n>      Seats per class [default: 10].
    --location=<location>  Session location.
    --every=<weeks>     Weeks between sessions [default: 2].`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "calendarctl: %v\n", err)
		os.Exit(1)
	}
}

func run(argv []string, stdout, stderr io.Writer) error {
	opts, err := docopt.ParseArgs(usage, argv, CalendarCtlVersion)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := logging.New(stderr, cfg.LogLevel)

	ctx := context.Background()
	app, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	return execute(ctx, opts, app.Services, cfg, time.Now, passwordReader(os.Stdin, stderr), stdout)
}

func loadConfig(opts docopt.Opts) (config.Config, error) {
	if path, _ := opts.String("--config"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// execute dispatches the parsed command against the services.
func execute(ctx context.Context, opts docopt.Opts, services bootstrap.Services, cfg config.Config, now func() time.Time, readPassword func(prompt string) (string, error), out io.Writer) error {
	if sessions_, _ := opts.Bool("sessions"); sessions_ {
		return listSessions(ctx, services, out)
	} else if month_, _ := opts.Bool("month"); month_ {
		return listMonth(ctx, opts, services, out)
	} else if register_, _ := opts.Bool("register"); register_ {
		return register(ctx, opts, services, out)
	} else if cancel_, _ := opts.Bool("cancel"); cancel_ {
		return cancel(ctx, opts, services, out)
	} else if prune_, _ := opts.Bool("prune"); prune_ {
		return prune(ctx, services, out)
	} else if expire_, _ := opts.Bool("expire"); expire_ {
		return expire(ctx, opts, services, cfg, now, out)
	} else if migrate_, _ := opts.Bool("migrate-ids"); migrate_ {
		return migrateIDs(ctx, services, out)
	} else if setPassword_, _ := opts.Bool("set-password"); setPassword_ {
		return setPassword(ctx, services, readPassword, out)
	} else if series_, _ := opts.Bool("series"); series_ {
		return createSeries(ctx, opts, services, out)
	}
	return errors.New("no command given")
}

func listSessions(ctx context.Context, services bootstrap.Services, out io.Writer) error {
	views, err := services.Calendar.Sessions(ctx)
	if err != nil {
		return describe(err)
	}
	return printViews(out, views)
}

func listMonth(ctx context.Context, opts docopt.Opts, services bootstrap.Services, out io.Writer) error {
	yearStr, _ := opts.String("<year>")
	monthStr, _ := opts.String("<month>")
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return fmt.Errorf("invalid year %q", yearStr)
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return fmt.Errorf("invalid month %q", monthStr)
	}

	views, err := services.Calendar.Month(ctx, year, month)
	if err != nil {
		return describe(err)
	}
	return printViews(out, views)
}

func printViews(out io.Writer, views []calendar.SessionWithRegistrations) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTARGET\tKIND\tTIME\tTAKEN\tLOCATION")
	for _, view := range views {
		if view.IsSpecialEvent {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s-%s\t%d/%d\t%s\n",
				view.Date, view.ID, "event:"+view.EventTitle, view.EventStartTime, view.EventEndTime,
				len(view.EventRegistrations), view.EventCapacity(), view.Location)
			continue
		}
		for _, slot := range view.Slots {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
				view.Date, slot.ID, slot.Type, slot.StartTime,
				len(slot.Registrations), slot.MaxParticipants, view.Location)
		}
	}
	return w.Flush()
}

func register(ctx context.Context, opts docopt.Opts, services bootstrap.Services, out io.Writer) error {
	targetID, _ := opts.String("<target_id>")
	name, _ := opts.String("--name")
	email, _ := opts.String("--email")
	color, _ := opts.String("--color")

	registration, err := services.Registrations.Submit(ctx, application.SubmitRegistrationParams{
		TargetID: targetID,
		Name:     name,
		Email:    email,
		Color:    color,
	})
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(out, "registered %s for %s\n", registration.ID, registration.SessionID)
	return nil
}

func cancel(ctx context.Context, opts docopt.Opts, services bootstrap.Services, out io.Writer) error {
	registrationID, _ := opts.String("<registration_id>")
	email, _ := opts.String("--email")

	err := services.Registrations.Cancel(ctx, application.CancelRegistrationParams{
		RegistrationID: registrationID,
		RequesterEmail: email,
	})
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(out, "cancelled %s\n", registrationID)
	return nil
}

func prune(ctx context.Context, services bootstrap.Services, out io.Writer) error {
	removed, err := services.Sessions.RepairIntegrity(ctx)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(out, "removed %d orphaned registrations\n", removed)
	return nil
}

func expire(ctx context.Context, opts docopt.Opts, services bootstrap.Services, cfg config.Config, now func() time.Time, out io.Writer) error {
	before := now().Add(-cfg.Retention)
	if value, _ := opts.String("--before"); strings.TrimSpace(value) != "" {
		date, err := calendar.ParseDate(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		before = time.Date(date.Year, time.Month(date.Month), date.Day, 0, 0, 0, 0, time.UTC)
	}

	result, err := services.Sessions.ExpireSessions(ctx, before)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(out, "expired %d sessions and %d registrations before %s\n",
		result.Sessions, result.Registrations, calendar.DateOf(before))
	return nil
}

func migrateIDs(ctx context.Context, services bootstrap.Services, out io.Writer) error {
	report, err := services.Sessions.MigrateLegacyIDs(ctx)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(out, "migrated %d sessions, %d classes, %d registrations\n",
		report.Sessions, report.Classes, report.Registrations)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, old := range sortedKeys(report.Mapping) {
		fmt.Fprintf(w, "%s\t->\t%s\n", old, report.Mapping[old])
	}
	return w.Flush()
}

func setPassword(ctx context.Context, services bootstrap.Services, readPassword func(string) (string, error), out io.Writer) error {
	if readPassword == nil {
		return errors.New("no password input available")
	}
	password, err := readPassword("New admin password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	confirmation, err := readPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("read confirmation: %w", err)
	}

	err = services.Admin.UpdatePassword(ctx, application.UpdatePasswordParams{
		NewPassword:  password,
		Confirmation: confirmation,
	})
	if err != nil {
		return describe(err)
	}
	fmt.Fprintln(out, "admin password updated")
	return nil
}

// passwordReader prompts without echo when in is a terminal. Piped input is
// read one line per call.
func passwordReader(in *os.File, prompt io.Writer) func(string) (string, error) {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		return func(label string) (string, error) {
			fmt.Fprint(prompt, label)
			password, err := term.ReadPassword(fd)
			fmt.Fprintln(prompt)
			return string(password), err
		}
	}
	return lineReader(in)
}

func lineReader(in io.Reader) func(string) (string, error) {
	lines := bufio.NewScanner(in)
	return func(string) (string, error) {
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimRight(lines.Text(), "\r"), nil
	}
}

// describe expands validation errors into their field messages.
func describe(err error) error {
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) || !vErr.HasErrors() {
		return err
	}
	fields := sortedKeys(vErr.FieldErrors)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+vErr.FieldErrors[field])
	}
	return fmt.Errorf("%w (%s)", err, strings.Join(parts, "; "))
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
