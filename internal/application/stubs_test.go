package application

import (
	"context"
	"sync"
	"time"

	"github.com/example/sanshin-calendar/internal/calendar"
	"github.com/example/sanshin-calendar/internal/persistence"
)

// collectionStub keeps both collections in memory with the same
// read-modify-write semantics as the remote storage.
type collectionStub struct {
	mu sync.Mutex

	sessions      []calendar.Session
	registrations []calendar.Registration

	cachedSessions      []calendar.Session
	cachedRegistrations []calendar.Registration

	fetchErr error
	writeErr error

	sessionWrites      int
	registrationWrites int

	// beforeAppend runs inside AppendRegistration before check sees the collection.
	beforeAppend func()
}

func newCollectionStub(sessions ...calendar.Session) *collectionStub {
	return &collectionStub{sessions: sessions}
}

func (c *collectionStub) FetchSessions(ctx context.Context) ([]calendar.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	return cloneSessionList(c.sessions), nil
}

func (c *collectionStub) FreshSessions(ctx context.Context) ([]calendar.Session, error) {
	return c.FetchSessions(ctx)
}

func (c *collectionStub) CachedSessions(ctx context.Context) ([]calendar.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneSessionList(c.cachedSessions), nil
}

func (c *collectionStub) ReplaceSessions(ctx context.Context, sessions []calendar.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeSessionsLocked(sessions)
}

func (c *collectionStub) AppendSession(ctx context.Context, session calendar.Session) error {
	_, _, err := c.MutateSessions(ctx, func(current []calendar.Session) ([]calendar.Session, error) {
		next := append(current, session)
		calendar.SortByDate(next)
		return next, nil
	})
	return err
}

func (c *collectionStub) RemoveSession(ctx context.Context, id string) (calendar.Session, []calendar.Session, error) {
	var removed calendar.Session
	_, after, err := c.MutateSessions(ctx, func(current []calendar.Session) ([]calendar.Session, error) {
		for i, session := range current {
			if session.ID == id {
				removed = session
				return append(current[:i], current[i+1:]...), nil
			}
		}
		return nil, persistence.ErrNotFound
	})
	if err != nil {
		return calendar.Session{}, nil, err
	}
	return removed, after, nil
}

func (c *collectionStub) MutateSessions(ctx context.Context, mutate func([]calendar.Session) ([]calendar.Session, error)) ([]calendar.Session, []calendar.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchErr != nil {
		return nil, nil, c.fetchErr
	}
	before := cloneSessionList(c.sessions)
	after, err := mutate(cloneSessionList(c.sessions))
	if err != nil {
		return nil, nil, err
	}
	if err := c.writeSessionsLocked(after); err != nil {
		return nil, nil, err
	}
	return before, cloneSessionList(after), nil
}

func (c *collectionStub) writeSessionsLocked(sessions []calendar.Session) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.sessions = cloneSessionList(sessions)
	c.cachedSessions = cloneSessionList(sessions)
	c.sessionWrites++
	return nil
}

func (c *collectionStub) FetchRegistrations(ctx context.Context) ([]calendar.Registration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	return append([]calendar.Registration{}, c.registrations...), nil
}

func (c *collectionStub) CachedRegistrations(ctx context.Context) ([]calendar.Registration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]calendar.Registration{}, c.cachedRegistrations...), nil
}

func (c *collectionStub) ReplaceRegistrations(ctx context.Context, registrations []calendar.Registration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeRegistrationsLocked(registrations)
}

func (c *collectionStub) AppendRegistration(ctx context.Context, registration calendar.Registration, check func([]calendar.Registration) error) error {
	if c.beforeAppend != nil {
		c.beforeAppend()
	}
	_, err := c.MutateRegistrations(ctx, func(current []calendar.Registration) ([]calendar.Registration, bool, error) {
		if check != nil {
			if err := check(current); err != nil {
				return nil, false, err
			}
		}
		return append(current, registration), true, nil
	})
	return err
}

func (c *collectionStub) RemoveRegistration(ctx context.Context, id string, check func(calendar.Registration) error) (calendar.Registration, error) {
	var removed calendar.Registration
	_, err := c.MutateRegistrations(ctx, func(current []calendar.Registration) ([]calendar.Registration, bool, error) {
		for i, reg := range current {
			if reg.ID != id {
				continue
			}
			if check != nil {
				if err := check(reg); err != nil {
					return nil, false, err
				}
			}
			removed = reg
			return append(current[:i], current[i+1:]...), true, nil
		}
		return nil, false, persistence.ErrNotFound
	})
	return removed, err
}

func (c *collectionStub) MutateRegistrations(ctx context.Context, mutate func([]calendar.Registration) ([]calendar.Registration, bool, error)) ([]calendar.Registration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	next, changed, err := mutate(append([]calendar.Registration{}, c.registrations...))
	if err != nil {
		return nil, err
	}
	if !changed {
		return append([]calendar.Registration{}, c.registrations...), nil
	}
	if err := c.writeRegistrationsLocked(next); err != nil {
		return nil, err
	}
	return next, nil
}

func (c *collectionStub) writeRegistrationsLocked(registrations []calendar.Registration) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.registrations = append([]calendar.Registration{}, registrations...)
	c.cachedRegistrations = append([]calendar.Registration{}, registrations...)
	c.registrationWrites++
	return nil
}

func (c *collectionStub) registrationList() []calendar.Registration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]calendar.Registration{}, c.registrations...)
}

func (c *collectionStub) sessionList() []calendar.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneSessionList(c.sessions)
}

func cloneSessionList(sessions []calendar.Session) []calendar.Session {
	out := make([]calendar.Session, len(sessions))
	for i, session := range sessions {
		session.Classes = append([]calendar.ClassSlot{}, session.Classes...)
		out[i] = session
	}
	return out
}

type identityStub struct {
	mu         sync.Mutex
	identities map[string]Identity
	saveErr    error
}

func newIdentityStub() *identityStub {
	return &identityStub{identities: make(map[string]Identity)}
}

func (s *identityStub) LoadIdentity(ctx context.Context, clientID string) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[clientID]
	if !ok {
		return Identity{}, persistence.ErrNotFound
	}
	return identity, nil
}

func (s *identityStub) SaveIdentity(ctx context.Context, clientID string, identity Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.identities[clientID] = identity
	return nil
}

func (s *identityStub) DeleteIdentity(ctx context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.identities, clientID)
	return nil
}

type adminConfigStub struct {
	mu         sync.Mutex
	cfg        AdminConfig
	fetchErr   error
	replaceErr error
	fetches    int
}

func (s *adminConfigStub) FetchAdminConfig(ctx context.Context) (AdminConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.fetchErr != nil {
		return AdminConfig{}, s.fetchErr
	}
	return s.cfg, nil
}

func (s *adminConfigStub) ReplaceAdminConfig(ctx context.Context, cfg AdminConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.cfg = cfg
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func regularSession(id, date string, classes ...calendar.ClassSlot) calendar.Session {
	for i := range classes {
		classes[i].Date = date
	}
	return calendar.Session{ID: id, Date: date, Location: "Community hall", Classes: classes}
}

func classSlot(id string, capacity int) calendar.ClassSlot {
	return calendar.ClassSlot{
		ID:              id,
		Type:            calendar.ClassTypeBeginner,
		StartTime:       "10:00",
		Duration:        60,
		MaxParticipants: capacity,
	}
}

func eventSession(id, date string, capacity int) calendar.Session {
	return calendar.Session{
		ID:                   id,
		Date:                 date,
		Location:             "Shrine grounds",
		IsSpecialEvent:       true,
		Classes:              []calendar.ClassSlot{},
		EventTitle:           "Summer festival",
		EventMaxParticipants: capacity,
	}
}
