// Package remote implements the collection repositories over the hosted
// document store. Every mutation reads the whole document, changes it in
// memory and writes the whole document back.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/sanshin-calendar/internal/docstore"
	"github.com/example/sanshin-calendar/internal/logging"
	"github.com/example/sanshin-calendar/internal/persistence"
)

// Mirror is the document access used by Storage; docstore.Mirror implements it.
type Mirror interface {
	ReadLatest(ctx context.Context, documentID string) ([]byte, error)
	ReadFresh(ctx context.Context, documentID string) ([]byte, error)
	ReadCached(ctx context.Context, documentID string) ([]byte, bool, error)
	Replace(ctx context.Context, documentID string, payload []byte) error
}

// Documents names the remote document holding each collection.
type Documents struct {
	Sessions      string
	Registrations string
	AdminConfig   string
}

// CacheKeys returns the document id to local cache key mapping. The admin
// config is deliberately absent.
func (d Documents) CacheKeys() map[string]string {
	return map[string]string{
		d.Sessions:      persistence.KeySessions,
		d.Registrations: persistence.KeyRegistrations,
	}
}

// Storage implements the session, registration and admin-config repositories.
// Read-modify-write sequences on one document are serialized within the process;
// other processes can still interleave and the last write wins.
type Storage struct {
	mirror Mirror
	docs   Documents
	logger *slog.Logger

	sessionsMu      sync.Mutex
	registrationsMu sync.Mutex
	adminMu         sync.Mutex
}

var (
	_ persistence.SessionRepository      = (*Storage)(nil)
	_ persistence.RegistrationRepository = (*Storage)(nil)
	_ persistence.AdminConfigRepository  = (*Storage)(nil)
)

// New constructs a Storage over mirror.
func New(mirror Mirror, docs Documents, logger *slog.Logger) *Storage {
	return &Storage{mirror: mirror, docs: docs, logger: logger}
}

func (s *Storage) log(ctx context.Context, op string) *slog.Logger {
	return logging.FromContextOr(ctx, s.logger).With("component", "remote_storage", "operation", op)
}

// detach keeps a started write running when the caller goes away; the store
// client timeout still bounds it.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func mapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, docstore.ErrUnreachable) {
		return fmt.Errorf("remote: %s: %w: %w", op, persistence.ErrUnavailable, err)
	}
	return fmt.Errorf("remote: %s: %w", op, err)
}

// FetchAdminConfig reads the admin-config document. It is never served from the local cache.
func (s *Storage) FetchAdminConfig(ctx context.Context) (persistence.AdminConfig, error) {
	payload, err := s.mirror.ReadFresh(ctx, s.docs.AdminConfig)
	if err != nil {
		return persistence.AdminConfig{}, mapStoreError("fetch admin config", err)
	}
	return persistence.DecodeAdminConfig(payload)
}

// ReplaceAdminConfig overwrites the admin-config document.
func (s *Storage) ReplaceAdminConfig(ctx context.Context, cfg persistence.AdminConfig) error {
	s.adminMu.Lock()
	defer s.adminMu.Unlock()

	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := s.mirror.Replace(detach(ctx), s.docs.AdminConfig, payload); err != nil {
		return mapStoreError("replace admin config", err)
	}
	s.log(ctx, "replace_admin_config").Info("admin config replaced")
	return nil
}
