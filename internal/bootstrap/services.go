// Package bootstrap assembles the calendar services from configuration. Both
// binaries share it so the server and calendarctl see the same wiring.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/sanshin-calendar/internal/application"
	"github.com/example/sanshin-calendar/internal/config"
	"github.com/example/sanshin-calendar/internal/docstore"
	"github.com/example/sanshin-calendar/internal/persistence"
	"github.com/example/sanshin-calendar/internal/persistence/remote"
	"github.com/example/sanshin-calendar/internal/persistence/sqlite"
	"github.com/example/sanshin-calendar/internal/persistence/sqlite/migration"
)

// Stores are the persistence repositories the services run on.
type Stores struct {
	Sessions      persistence.SessionRepository
	Registrations persistence.RegistrationRepository
	AdminConfig   persistence.AdminConfigRepository
	Identities    persistence.IdentityRepository
}

// Options tune the service graph. Zero values fall back to the service defaults.
type Options struct {
	AdminSecret    []byte
	AdminTokenTTL  time.Duration
	AdminConfigTTL time.Duration
	HashParams     application.Argon2idParams
	// RegistrationIDs overrides the reg-<ULID> generator.
	RegistrationIDs func() string
	Now             func() time.Time
}

// Services is the wired application layer.
type Services struct {
	Sessions      *application.SessionService
	Registrations *application.RegistrationService
	Calendar      *application.CalendarService
	Admin         *application.AdminService
}

// NewServices adapts stores to the application repositories and builds every service.
func NewServices(stores Stores, opts Options, logger *slog.Logger) Services {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sessionRepo := newSessionRepositoryAdapter(stores.Sessions)
	registrationRepo := newRegistrationRepositoryAdapter(stores.Registrations)
	adminRepo := newAdminConfigRepositoryAdapter(stores.AdminConfig)

	var identityRepo application.IdentityRepository
	if stores.Identities != nil {
		identityRepo = newIdentityRepositoryAdapter(stores.Identities)
	}

	return Services{
		Sessions:      application.NewSessionServiceWithLogger(sessionRepo, registrationRepo, now, logger),
		Registrations: application.NewRegistrationServiceWithLogger(sessionRepo, registrationRepo, identityRepo, opts.RegistrationIDs, now, logger),
		Calendar:      application.NewCalendarServiceWithLogger(sessionRepo, registrationRepo, logger),
		Admin: application.NewAdminServiceWithLogger(adminRepo, application.AdminServiceConfig{
			Secret:     opts.AdminSecret,
			TokenTTL:   opts.AdminTokenTTL,
			ConfigTTL:  opts.AdminConfigTTL,
			HashParams: opts.HashParams,
		}, now, logger),
	}
}

// App owns the resources opened for a configuration.
type App struct {
	Services
	Config config.Config
	cache  *sqlite.Cache
}

// Open opens the local cache, connects the document store client, and wires the services.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	cache, err := sqlite.Open(ctx, migration.DefaultSQLiteConfig(cfg.CacheDSN), logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open cache: %w", err)
	}

	client := docstore.NewClient(docstore.ClientConfig{
		BaseURL:   cfg.Store.BaseURL,
		AccessKey: cfg.Store.AccessKey,
		KeyHeader: cfg.Store.KeyHeader,
		Timeout:   cfg.Store.Timeout,
	}, logger)
	docs := remote.Documents{
		Sessions:      cfg.Store.SessionsDoc,
		Registrations: cfg.Store.RegistrationsDoc,
		AdminConfig:   cfg.Store.AdminConfigDoc,
	}
	storage := remote.New(docstore.NewMirror(client, cache, docs.CacheKeys(), logger), docs, logger)

	services := NewServices(Stores{
		Sessions:      storage,
		Registrations: storage,
		AdminConfig:   storage,
		Identities:    persistence.NewIdentityStore(cache),
	}, Options{
		AdminSecret:    []byte(cfg.AdminSecret),
		AdminTokenTTL:  cfg.AdminTokenTTL,
		AdminConfigTTL: cfg.AdminConfigTTL,
	}, logger)

	return &App{Services: services, Config: cfg, cache: cache}, nil
}

// Close releases the local cache.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return a.cache.Close()
}
