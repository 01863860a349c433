package testfixtures

import (
	"bytes"
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process document store with failure injection. A
// missing document reads as an empty payload.
type MemoryStore struct {
	mu         sync.Mutex
	docs       map[string][]byte
	readErrs   map[string]error
	writeErrs  map[string]error
	reads      map[string]int
	writes     map[string]int
	beforeRead func(documentID string)
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:      make(map[string][]byte),
		readErrs:  make(map[string]error),
		writeErrs: make(map[string]error),
		reads:     make(map[string]int),
		writes:    make(map[string]int),
	}
}

// ReadLatest implements docstore.Store.
func (s *MemoryStore) ReadLatest(ctx context.Context, documentID string) ([]byte, error) {
	s.mu.Lock()
	hook := s.beforeRead
	s.mu.Unlock()
	if hook != nil {
		hook(documentID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.reads[documentID]++
	if err := s.readErrs[documentID]; err != nil {
		return nil, err
	}
	return bytes.Clone(s.docs[documentID]), nil
}

// Replace implements docstore.Store.
func (s *MemoryStore) Replace(ctx context.Context, documentID string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.writeErrs[documentID]; err != nil {
		return err
	}
	s.writes[documentID]++
	s.docs[documentID] = bytes.Clone(payload)
	return nil
}

// Seed stores payload without counting a write.
func (s *MemoryStore) Seed(documentID string, payload []byte) {
	s.mu.Lock()
	s.docs[documentID] = bytes.Clone(payload)
	s.mu.Unlock()
}

// Document returns the stored payload.
func (s *MemoryStore) Document(documentID string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.docs[documentID])
}

// FailReads makes reads of documentID return err until Recover is called.
func (s *MemoryStore) FailReads(documentID string, err error) {
	s.mu.Lock()
	s.readErrs[documentID] = err
	s.mu.Unlock()
}

// FailWrites makes writes of documentID return err until Recover is called.
func (s *MemoryStore) FailWrites(documentID string, err error) {
	s.mu.Lock()
	s.writeErrs[documentID] = err
	s.mu.Unlock()
}

// Recover clears all injected failures.
func (s *MemoryStore) Recover() {
	s.mu.Lock()
	s.readErrs = make(map[string]error)
	s.writeErrs = make(map[string]error)
	s.mu.Unlock()
}

// BeforeRead installs a hook that runs ahead of every read, outside the store lock.
func (s *MemoryStore) BeforeRead(hook func(documentID string)) {
	s.mu.Lock()
	s.beforeRead = hook
	s.mu.Unlock()
}

// Reads returns how many reads reached documentID.
func (s *MemoryStore) Reads(documentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[documentID]
}

// Writes returns how many writes documentID accepted.
func (s *MemoryStore) Writes(documentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[documentID]
}

// MemoryCache is a map-backed local cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	err     error
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]byte)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	value, ok := c.entries[key]
	return bytes.Clone(value), ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.entries[key] = bytes.Clone(value)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	delete(c.entries, key)
	return nil
}

// Fail makes every call return err; nil restores normal behaviour.
func (c *MemoryCache) Fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// Len returns the number of entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the stored keys in order.
func (c *MemoryCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
