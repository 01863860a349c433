package application

import (
	"strings"
	"testing"
	"time"
)

func TestIsLegacyID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   string
		want bool
	}{
		{"session-2024-01-06", true},
		{"class-2024-01-06-14:00", true},
		{"reg-1704565200000", true},
		{"session-2024-01-06-a1b2c3d4", false},
		{"class-2024-01-06-14:00-a1b2c3d4", false},
		{"reg-01JH0000000000000000000000", false},
		{"placeholder", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsLegacyID(tt.id); got != tt.want {
			t.Errorf("IsLegacyID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestMigrateIDIsDeterministic(t *testing.T) {
	t.Parallel()

	first := MigrateID("class-2024-01-06-14:00")
	second := MigrateID("class-2024-01-06-14:00")
	if first != second {
		t.Fatalf("expected stable migration, got %q and %q", first, second)
	}
	if !strings.HasPrefix(first, "class-2024-01-06-14:00-") || len(first) != len("class-2024-01-06-14:00-")+8 {
		t.Fatalf("unexpected migrated id %q", first)
	}
	if IsLegacyID(first) {
		t.Fatalf("migrated id must not look legacy")
	}
	if MigrateID(first) != first {
		t.Fatalf("current ids must be returned unchanged")
	}
	if MigrateID("session-2024-01-06") == MigrateID("session-2024-01-13") {
		t.Fatalf("different legacy ids must get different suffixes")
	}
}

func TestGeneratedIDs(t *testing.T) {
	t.Parallel()

	if id := NewSessionID("2025-01-06"); !strings.HasPrefix(id, "session-2025-01-06-") || len(ShortID()) != 8 {
		t.Fatalf("unexpected session id %q", id)
	}
	if id := NewClassID("2025-01-06", "14:00"); !strings.HasPrefix(id, "class-2025-01-06-14:00-") {
		t.Fatalf("unexpected class id %q", id)
	}

	now := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)
	next := RegistrationIDGenerator(func() time.Time { return now })
	a, b := next(), next()
	if !strings.HasPrefix(a, "reg-") || a == b || a > b {
		t.Fatalf("expected increasing registration ids, got %q then %q", a, b)
	}
}
