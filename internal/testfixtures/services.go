package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/sanshin-calendar/internal/application"
	"github.com/example/sanshin-calendar/internal/bootstrap"
	"github.com/example/sanshin-calendar/internal/persistence"
)

// TestHashParams keeps argon2id cheap enough for unit tests.
var TestHashParams = application.Argon2idParams{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

// TestAdminSecret signs admin tokens issued by factory-built services.
const TestAdminSecret = "test-admin-secret"

// ServiceFactory assists tests with constructing the calendar services over an
// in-memory remote harness using deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock   *Clock
	IDs     *IDs
	Harness *RemoteHarness
	Logger  *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:   NewClock(),
		IDs:     NewIDs(),
		Harness: NewRemoteHarness(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock()
	}
	if factory.IDs == nil {
		factory.IDs = NewIDs()
	}
	if factory.Harness == nil {
		factory.Harness = NewRemoteHarness()
	}
	if factory.Logger == nil {
		factory.Logger = DiscardLogger()
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDs overrides the id sequence used by the factory.
func WithIDs(ids *IDs) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDs = ids
	}
}

// WithHarness shares an existing harness, so several service graphs see the
// same documents the way separate devices would.
func WithHarness(harness *RemoteHarness) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Harness = harness
	}
}

// WithLogger routes service logs to logger.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// Services builds the full service graph over the factory harness. Identities
// are remembered in the harness cache.
func (f *ServiceFactory) Services() bootstrap.Services {
	storage := f.Harness.Storage
	return bootstrap.NewServices(bootstrap.Stores{
		Sessions:      storage,
		Registrations: storage,
		AdminConfig:   storage,
		Identities:    persistence.NewIdentityStore(f.Harness.Cache),
	}, bootstrap.Options{
		AdminSecret:     []byte(TestAdminSecret),
		AdminTokenTTL:   time.Hour,
		AdminConfigTTL:  time.Minute,
		HashParams:      TestHashParams,
		RegistrationIDs: f.IDs.RegistrationFunc(),
		Now:             f.Clock.NowFunc(),
	}, f.Logger)
}
