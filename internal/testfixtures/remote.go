package testfixtures

import (
	"encoding/json"
	"testing"

	"github.com/example/sanshin-calendar/internal/docstore"
	"github.com/example/sanshin-calendar/internal/persistence"
	"github.com/example/sanshin-calendar/internal/persistence/remote"
)

// Document ids used by the in-memory harness.
const (
	SessionsDocument      = "doc-sessions"
	RegistrationsDocument = "doc-registrations"
	AdminConfigDocument   = "doc-admin-config"
)

// RemoteHarness wires remote.Storage to an in-memory store and cache.
type RemoteHarness struct {
	Store   *MemoryStore
	Cache   *MemoryCache
	Mirror  *docstore.Mirror
	Storage *remote.Storage
	Docs    remote.Documents
}

// NewRemoteHarness returns a harness with empty documents.
func NewRemoteHarness() *RemoteHarness {
	docs := remote.Documents{
		Sessions:      SessionsDocument,
		Registrations: RegistrationsDocument,
		AdminConfig:   AdminConfigDocument,
	}
	store := NewMemoryStore()
	cache := NewMemoryCache()
	mirror := docstore.NewMirror(store, cache, docs.CacheKeys(), DiscardLogger())
	return &RemoteHarness{
		Store:   store,
		Cache:   cache,
		Mirror:  mirror,
		Storage: remote.New(mirror, docs, DiscardLogger()),
		Docs:    docs,
	}
}

// SeedSessions stores sessions as the sessions document without counting a write.
func (h *RemoteHarness) SeedSessions(tb testing.TB, sessions ...persistence.Session) {
	tb.Helper()
	payload, err := persistence.EncodeSessions(sessions)
	if err != nil {
		tb.Fatalf("encode sessions: %v", err)
	}
	h.Store.Seed(h.Docs.Sessions, payload)
}

// SeedRegistrations stores registrations as the registrations document.
func (h *RemoteHarness) SeedRegistrations(tb testing.TB, registrations ...persistence.Registration) {
	tb.Helper()
	payload, err := persistence.EncodeRegistrations(registrations)
	if err != nil {
		tb.Fatalf("encode registrations: %v", err)
	}
	h.Store.Seed(h.Docs.Registrations, payload)
}

// SeedAdminConfig stores the admin-config document.
func (h *RemoteHarness) SeedAdminConfig(tb testing.TB, cfg persistence.AdminConfig) {
	tb.Helper()
	payload, err := json.Marshal(cfg)
	if err != nil {
		tb.Fatalf("encode admin config: %v", err)
	}
	h.Store.Seed(h.Docs.AdminConfig, payload)
}

// StoredSessions decodes the sessions document as currently stored.
func (h *RemoteHarness) StoredSessions(tb testing.TB) []persistence.Session {
	tb.Helper()
	sessions, err := persistence.DecodeSessions(h.Store.Document(h.Docs.Sessions))
	if err != nil {
		tb.Fatalf("decode sessions: %v", err)
	}
	return sessions
}

// StoredRegistrations decodes the registrations document as currently stored.
func (h *RemoteHarness) StoredRegistrations(tb testing.TB) []persistence.Registration {
	tb.Helper()
	registrations, err := persistence.DecodeRegistrations(h.Store.Document(h.Docs.Registrations))
	if err != nil {
		tb.Fatalf("decode registrations: %v", err)
	}
	return registrations
}

// StoredAdminConfig decodes the admin-config document as currently stored.
func (h *RemoteHarness) StoredAdminConfig(tb testing.TB) persistence.AdminConfig {
	tb.Helper()
	cfg, err := persistence.DecodeAdminConfig(h.Store.Document(h.Docs.AdminConfig))
	if err != nil {
		tb.Fatalf("decode admin config: %v", err)
	}
	return cfg
}
