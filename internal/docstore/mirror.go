package docstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/sanshin-calendar/internal/logging"
)

// Store is the read-latest / overwrite contract implemented by Client.
type Store interface {
	ReadLatest(ctx context.Context, documentID string) ([]byte, error)
	Replace(ctx context.Context, documentID string, payload []byte) error
}

// Cache is the local key/value fallback.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Mirror keeps the local cache in step with the remote store. Only documents
// listed in keys are mirrored.
type Mirror struct {
	store  Store
	cache  Cache
	keys   map[string]string
	logger *slog.Logger
}

// NewMirror maps document ids to the cache keys that mirror them.
func NewMirror(store Store, cache Cache, keys map[string]string, logger *slog.Logger) *Mirror {
	copied := make(map[string]string, len(keys))
	for id, key := range keys {
		copied[id] = key
	}
	return &Mirror{store: store, cache: cache, keys: copied, logger: logger}
}

// ReadLatest returns the remote document, falling back to the cached copy when
// the store cannot be reached. ErrUnreachable is returned only when there is no
// cached copy either.
func (m *Mirror) ReadLatest(ctx context.Context, documentID string) ([]byte, error) {
	payload, err := m.ReadFresh(ctx, documentID)
	if err == nil {
		return payload, nil
	}

	logger := m.log(ctx, "read_latest", documentID)
	cached, ok, cacheErr := m.ReadCached(ctx, documentID)
	if cacheErr != nil {
		logger.Error("local cache read failed", "error", cacheErr)
	}
	if ok {
		logger.Warn("serving cached document", "error", err)
		return cached, nil
	}
	logger.Error("document unavailable", "error", err)
	return nil, err
}

// ReadFresh returns the remote document without any fallback. A successful
// read refreshes the cached copy.
func (m *Mirror) ReadFresh(ctx context.Context, documentID string) ([]byte, error) {
	payload, err := m.store.ReadLatest(ctx, documentID)
	if err != nil {
		return nil, err
	}
	m.remember(ctx, documentID, payload)
	return payload, nil
}

// Replace overwrites the remote document and, only once the store accepted it,
// the cached copy.
func (m *Mirror) Replace(ctx context.Context, documentID string, payload []byte) error {
	if err := m.store.Replace(ctx, documentID, payload); err != nil {
		return err
	}
	m.remember(ctx, documentID, payload)
	return nil
}

// ReadCached returns the cached copy of the document, if any.
func (m *Mirror) ReadCached(ctx context.Context, documentID string) ([]byte, bool, error) {
	key, ok := m.keys[documentID]
	if !ok || m.cache == nil {
		return nil, false, nil
	}
	payload, found, err := m.cache.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("docstore: read cache %s: %w", key, err)
	}
	return payload, found, nil
}

func (m *Mirror) remember(ctx context.Context, documentID string, payload []byte) {
	key, ok := m.keys[documentID]
	if !ok || m.cache == nil {
		return
	}
	if err := m.cache.Set(ctx, key, payload); err != nil {
		m.log(ctx, "remember", documentID).Error("local cache write failed", "cache_key", key, "error", err)
	}
}

func (m *Mirror) log(ctx context.Context, op, documentID string) *slog.Logger {
	return logging.FromContextOr(ctx, m.logger).With("component", "docstore_mirror", "operation", op, "document_id", documentID)
}
