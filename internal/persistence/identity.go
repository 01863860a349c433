package persistence

import (
	"context"
	"encoding/json"
	"fmt"
)

// IdentityStore keeps identities in the local cache. It never touches the remote store.
type IdentityStore struct {
	cache Cache
}

// NewIdentityStore wraps the local cache.
func NewIdentityStore(cache Cache) *IdentityStore {
	return &IdentityStore{cache: cache}
}

// LoadIdentity returns ErrNotFound when nothing is remembered for the client.
func (s *IdentityStore) LoadIdentity(ctx context.Context, clientID string) (Identity, error) {
	payload, ok, err := s.cache.Get(ctx, IdentityKey(clientID))
	if err != nil {
		return Identity{}, err
	}
	if !ok {
		return Identity{}, ErrNotFound
	}
	var identity Identity
	if err := json.Unmarshal(payload, &identity); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return identity, nil
}

func (s *IdentityStore) SaveIdentity(ctx context.Context, clientID string, identity Identity) error {
	payload, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, IdentityKey(clientID), payload)
}

func (s *IdentityStore) DeleteIdentity(ctx context.Context, clientID string) error {
	return s.cache.Delete(ctx, IdentityKey(clientID))
}
