package remote

import (
	"context"
	"sort"

	"github.com/example/sanshin-calendar/internal/persistence"
)

// FetchSessions returns the sessions collection, from the local cache when the store is unreachable.
func (s *Storage) FetchSessions(ctx context.Context) ([]persistence.Session, error) {
	payload, err := s.mirror.ReadLatest(ctx, s.docs.Sessions)
	if err != nil {
		return nil, mapStoreError("fetch sessions", err)
	}
	return persistence.DecodeSessions(payload)
}

// FreshSessions reads the sessions collection from the store with no cache fallback.
func (s *Storage) FreshSessions(ctx context.Context) ([]persistence.Session, error) {
	payload, err := s.mirror.ReadFresh(ctx, s.docs.Sessions)
	if err != nil {
		return nil, mapStoreError("read sessions", err)
	}
	return persistence.DecodeSessions(payload)
}

// CachedSessions returns the locally cached sessions without touching the network.
func (s *Storage) CachedSessions(ctx context.Context) ([]persistence.Session, error) {
	payload, _, err := s.mirror.ReadCached(ctx, s.docs.Sessions)
	if err != nil {
		return nil, err
	}
	return persistence.DecodeSessions(payload)
}

// ReplaceSessions overwrites the whole collection.
func (s *Storage) ReplaceSessions(ctx context.Context, sessions []persistence.Session) error {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	return s.writeSessions(detach(ctx), sessions)
}

// AppendSession adds the session and keeps the collection ordered by date string.
func (s *Storage) AppendSession(ctx context.Context, session persistence.Session) error {
	_, _, err := s.MutateSessions(ctx, func(current []persistence.Session) ([]persistence.Session, error) {
		next := append(current, cloneSession(session))
		sortSessions(next)
		return next, nil
	})
	return err
}

// RemoveSession deletes the session with id and returns it together with the
// collection that was written, so callers can prune registrations without
// another fetch.
func (s *Storage) RemoveSession(ctx context.Context, id string) (persistence.Session, []persistence.Session, error) {
	var removed persistence.Session
	_, after, err := s.MutateSessions(ctx, func(current []persistence.Session) ([]persistence.Session, error) {
		next := make([]persistence.Session, 0, len(current))
		found := false
		for _, session := range current {
			if session.ID == id && !found {
				removed = session
				found = true
				continue
			}
			next = append(next, session)
		}
		if !found {
			return nil, persistence.ErrNotFound
		}
		return next, nil
	})
	if err != nil {
		return persistence.Session{}, nil, err
	}
	return removed, after, nil
}

// MutateSessions reads the collection fresh from the store, hands a copy to
// mutate and writes the result. The cached copy is never used as the base.
func (s *Storage) MutateSessions(ctx context.Context, mutate func([]persistence.Session) ([]persistence.Session, error)) ([]persistence.Session, []persistence.Session, error) {
	ctx = detach(ctx)
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	payload, err := s.mirror.ReadFresh(ctx, s.docs.Sessions)
	if err != nil {
		return nil, nil, mapStoreError("read sessions", err)
	}
	before, err := persistence.DecodeSessions(payload)
	if err != nil {
		return nil, nil, err
	}

	after, err := mutate(cloneSessions(before))
	if err != nil {
		return nil, nil, err
	}
	if err := s.writeSessions(ctx, after); err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

func (s *Storage) writeSessions(ctx context.Context, sessions []persistence.Session) error {
	payload, err := persistence.EncodeSessions(sessions)
	if err != nil {
		return err
	}
	if err := s.mirror.Replace(ctx, s.docs.Sessions, payload); err != nil {
		return mapStoreError("replace sessions", err)
	}
	s.log(ctx, "replace_sessions").Info("sessions replaced", "count", len(sessions))
	return nil
}

// sortSessions orders by the YYYY-MM-DD string; equal dates keep their order.
func sortSessions(sessions []persistence.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Date < sessions[j].Date
	})
}

func cloneSessions(sessions []persistence.Session) []persistence.Session {
	out := make([]persistence.Session, len(sessions))
	for i, session := range sessions {
		out[i] = cloneSession(session)
	}
	return out
}

func cloneSession(session persistence.Session) persistence.Session {
	if session.Classes != nil {
		session.Classes = append([]persistence.Class(nil), session.Classes...)
	}
	return session
}
