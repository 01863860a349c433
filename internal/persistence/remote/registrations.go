package remote

import (
	"context"

	"github.com/example/sanshin-calendar/internal/persistence"
)

// FetchRegistrations returns the registrations collection, from the local cache when the store is unreachable.
func (s *Storage) FetchRegistrations(ctx context.Context) ([]persistence.Registration, error) {
	payload, err := s.mirror.ReadLatest(ctx, s.docs.Registrations)
	if err != nil {
		return nil, mapStoreError("fetch registrations", err)
	}
	return persistence.DecodeRegistrations(payload)
}

// CachedRegistrations returns the locally cached registrations without touching the network.
func (s *Storage) CachedRegistrations(ctx context.Context) ([]persistence.Registration, error) {
	payload, _, err := s.mirror.ReadCached(ctx, s.docs.Registrations)
	if err != nil {
		return nil, err
	}
	return persistence.DecodeRegistrations(payload)
}

// ReplaceRegistrations overwrites the whole collection.
func (s *Storage) ReplaceRegistrations(ctx context.Context, registrations []persistence.Registration) error {
	s.registrationsMu.Lock()
	defer s.registrationsMu.Unlock()
	return s.writeRegistrations(detach(ctx), registrations)
}

// AppendRegistration re-reads the collection immediately before appending and
// runs check against that fresh copy.
func (s *Storage) AppendRegistration(ctx context.Context, registration persistence.Registration, check func([]persistence.Registration) error) error {
	_, err := s.MutateRegistrations(ctx, func(current []persistence.Registration) ([]persistence.Registration, bool, error) {
		if check != nil {
			if err := check(current); err != nil {
				return nil, false, err
			}
		}
		return append(current, registration), true, nil
	})
	return err
}

// RemoveRegistration deletes the registration with id after check accepts the stored record.
func (s *Storage) RemoveRegistration(ctx context.Context, id string, check func(persistence.Registration) error) (persistence.Registration, error) {
	var removed persistence.Registration
	_, err := s.MutateRegistrations(ctx, func(current []persistence.Registration) ([]persistence.Registration, bool, error) {
		index := -1
		for i, reg := range current {
			if reg.ID == id {
				index = i
				break
			}
		}
		if index < 0 {
			return nil, false, persistence.ErrNotFound
		}
		if check != nil {
			if err := check(current[index]); err != nil {
				return nil, false, err
			}
		}
		removed = current[index]
		return append(current[:index], current[index+1:]...), true, nil
	})
	if err != nil {
		return persistence.Registration{}, err
	}
	return removed, nil
}

// MutateRegistrations reads the collection fresh from the store and writes the
// result of mutate when it reports a change.
func (s *Storage) MutateRegistrations(ctx context.Context, mutate func([]persistence.Registration) ([]persistence.Registration, bool, error)) ([]persistence.Registration, error) {
	ctx = detach(ctx)
	s.registrationsMu.Lock()
	defer s.registrationsMu.Unlock()

	payload, err := s.mirror.ReadFresh(ctx, s.docs.Registrations)
	if err != nil {
		return nil, mapStoreError("read registrations", err)
	}
	current, err := persistence.DecodeRegistrations(payload)
	if err != nil {
		return nil, err
	}

	next, changed, err := mutate(append([]persistence.Registration(nil), current...))
	if err != nil {
		return nil, err
	}
	if !changed {
		return current, nil
	}
	if err := s.writeRegistrations(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Storage) writeRegistrations(ctx context.Context, registrations []persistence.Registration) error {
	payload, err := persistence.EncodeRegistrations(registrations)
	if err != nil {
		return err
	}
	if err := s.mirror.Replace(ctx, s.docs.Registrations, payload); err != nil {
		return mapStoreError("replace registrations", err)
	}
	s.log(ctx, "replace_registrations").Info("registrations replaced", "count", len(registrations))
	return nil
}
