package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PlaceholderID marks the sentinel record written in place of an empty collection.
const PlaceholderID = "placeholder"

// SessionPlaceholder is written when the sessions collection is empty.
func SessionPlaceholder() Session {
	return Session{ID: PlaceholderID, Classes: []Class{}}
}

// RegistrationPlaceholder is written when the registrations collection is empty.
func RegistrationPlaceholder() Registration {
	return Registration{ID: PlaceholderID, SessionID: PlaceholderID}
}

// EncodeSessions serializes the collection, substituting the placeholder for an empty list.
func EncodeSessions(sessions []Session) ([]byte, error) {
	if len(sessions) == 0 {
		sessions = []Session{SessionPlaceholder()}
	}
	normalized := make([]Session, len(sessions))
	for i, s := range sessions {
		if s.Classes == nil {
			s.Classes = []Class{}
		}
		normalized[i] = s
	}
	return json.Marshal(normalized)
}

// DecodeSessions parses the sessions document and strips placeholders.
func DecodeSessions(payload []byte) ([]Session, error) {
	var sessions []Session
	if err := decodeList(payload, &sessions); err != nil {
		return nil, err
	}
	return stripPlaceholders(sessions, func(s Session) string { return s.ID }), nil
}

// EncodeRegistrations serializes the collection, substituting the placeholder for an empty list.
func EncodeRegistrations(registrations []Registration) ([]byte, error) {
	if len(registrations) == 0 {
		registrations = []Registration{RegistrationPlaceholder()}
	}
	return json.Marshal(registrations)
}

// DecodeRegistrations parses the registrations document and strips placeholders.
func DecodeRegistrations(payload []byte) ([]Registration, error) {
	var registrations []Registration
	if err := decodeList(payload, &registrations); err != nil {
		return nil, err
	}
	return stripPlaceholders(registrations, func(r Registration) string { return r.ID }), nil
}

// DecodeAdminConfig parses the admin-config document. An empty document yields a zero config.
func DecodeAdminConfig(payload []byte) (AdminConfig, error) {
	var cfg AdminConfig
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return cfg, nil
	}
	if err := json.Unmarshal(trimmed, &cfg); err != nil {
		return AdminConfig{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return cfg, nil
}

func decodeList(payload []byte, target any) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, target); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

func stripPlaceholders[T any](items []T, id func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if id(item) == PlaceholderID {
			continue
		}
		out = append(out, item)
	}
	return out
}
