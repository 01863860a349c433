package persistence

import "context"

// Local cache keys. Identity entries are keyed per client with IdentityKey.
const (
	KeySessions      = "sessions"
	KeyRegistrations = "registrations"
	identityPrefix   = "identity:"
)

// IdentityKey returns the cache key holding the identity remembered for clientID.
func IdentityKey(clientID string) string {
	return identityPrefix + clientID
}

// Cache is the on-device key/value store. Values are whole JSON documents.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// SessionRepository stores the sessions collection. Every mutation rewrites
// the whole document.
type SessionRepository interface {
	FetchSessions(ctx context.Context) ([]Session, error)
	// FreshSessions never falls back to the local cache.
	FreshSessions(ctx context.Context) ([]Session, error)
	CachedSessions(ctx context.Context) ([]Session, error)
	ReplaceSessions(ctx context.Context, sessions []Session) error
	AppendSession(ctx context.Context, session Session) error
	// RemoveSession deletes the session and returns it with the collection that was written.
	RemoveSession(ctx context.Context, id string) (removed Session, surviving []Session, err error)
	// MutateSessions applies mutate to a fresh copy of the collection and writes the result.
	MutateSessions(ctx context.Context, mutate func([]Session) ([]Session, error)) (before, after []Session, err error)
}

// RegistrationRepository stores the registrations collection.
type RegistrationRepository interface {
	FetchRegistrations(ctx context.Context) ([]Registration, error)
	CachedRegistrations(ctx context.Context) ([]Registration, error)
	ReplaceRegistrations(ctx context.Context, registrations []Registration) error
	// AppendRegistration re-fetches, runs check against the fresh collection, then appends.
	AppendRegistration(ctx context.Context, registration Registration, check func([]Registration) error) error
	// RemoveRegistration re-fetches, runs check against the stored record, then removes it.
	RemoveRegistration(ctx context.Context, id string, check func(Registration) error) (Registration, error)
	// MutateRegistrations applies mutate to a fresh copy and writes only when changed is true.
	MutateRegistrations(ctx context.Context, mutate func([]Registration) (next []Registration, changed bool, err error)) ([]Registration, error)
}

// AdminConfigRepository reads and writes the admin-config document.
type AdminConfigRepository interface {
	FetchAdminConfig(ctx context.Context) (AdminConfig, error)
	ReplaceAdminConfig(ctx context.Context, cfg AdminConfig) error
}

// IdentityRepository remembers registrant details per client.
type IdentityRepository interface {
	LoadIdentity(ctx context.Context, clientID string) (Identity, error)
	SaveIdentity(ctx context.Context, clientID string, identity Identity) error
	DeleteIdentity(ctx context.Context, clientID string) error
}
