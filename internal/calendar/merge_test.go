package calendar

import (
	"sort"
	"testing"

	"github.com/go-playground/assert/v2"
)

func sampleSessions() []Session {
	return []Session{
		{
			ID:       "session-2025-01-15-aaaa0001",
			Date:     "2025-01-15",
			Location: "Community hall",
			Classes: []ClassSlot{
				{ID: "class-a", Date: "2025-01-15", Type: ClassTypeBeginner, StartTime: "10:00", Duration: 60, MaxParticipants: 1},
				{ID: "class-b", Date: "2025-01-15", Type: ClassTypeIntermediate, StartTime: "11:00", Duration: 90, MaxParticipants: 8},
			},
		},
		{
			ID:             "event-1",
			Date:           "2025-02-01",
			IsSpecialEvent: true,
			EventTitle:     "New year concert",
		},
		{
			ID:   "session-2024-12-20-aaaa0002",
			Date: "2024-12-20",
			Classes: []ClassSlot{
				{ID: "class-c", Date: "2024-12-20", Type: ClassTypeExperience, StartTime: "14:00", Duration: 45, MaxParticipants: 4},
			},
		},
	}
}

func TestMergeAttachesRegistrationsToTargets(t *testing.T) {
	regs := []Registration{
		{ID: "r1", SessionID: "class-a", Email: "alice@x.com"},
		{ID: "r2", SessionID: "event-1", Email: "bob@x.com"},
		{ID: "r3", SessionID: "class-b", Email: "carol@x.com"},
		{ID: "r4", SessionID: "class-b", Email: "dave@x.com"},
		{ID: "r5", SessionID: "gone", Email: "erin@x.com"},
	}

	merged := Merge(sampleSessions(), regs)

	assert.Equal(t, len(merged), 3)
	assert.Equal(t, len(merged[0].Slots), 2)
	assert.Equal(t, merged[0].Slots[0].Registrations, []Registration{regs[0]})
	assert.Equal(t, merged[0].Slots[1].Registrations, []Registration{regs[2], regs[3]})
	assert.Equal(t, merged[1].EventRegistrations, []Registration{regs[1]})
	assert.Equal(t, len(merged[1].Slots), 0)
	assert.Equal(t, merged[2].Slots[0].Registrations, []Registration{})
}

func TestFilterMonthSortsAndFilters(t *testing.T) {
	merged := Merge(sampleSessions(), nil)

	january := FilterMonth(merged, 2025, 1)
	assert.Equal(t, len(january), 1)
	assert.Equal(t, january[0].ID, "session-2025-01-15-aaaa0001")

	assert.Equal(t, len(FilterMonth(merged, 2025, 3)), 0)

	all := append([]SessionWithRegistrations(nil), merged...)
	SortViews(all)
	dates := []string{all[0].Date, all[1].Date, all[2].Date}
	assert.Equal(t, dates, []string{"2024-12-20", "2025-01-15", "2025-02-01"})
}

func TestFindTarget(t *testing.T) {
	sessions := sampleSessions()

	class, ok := FindTarget(sessions, "class-b")
	assert.Equal(t, ok, true)
	assert.Equal(t, class.Capacity, 8)
	assert.Equal(t, class.IsEvent(), false)
	assert.Equal(t, class.Session.ID, "session-2025-01-15-aaaa0001")

	event, ok := FindTarget(sessions, "event-1")
	assert.Equal(t, ok, true)
	assert.Equal(t, event.IsEvent(), true)
	assert.Equal(t, event.Capacity, DefaultEventMaxParticipants)

	_, ok = FindTarget(sessions, "session-2025-01-15-aaaa0001")
	assert.Equal(t, ok, false)
}

func TestCountForNormalizesEmail(t *testing.T) {
	regs := []Registration{
		{SessionID: "class-a", Email: "Alice@X.com "},
		{SessionID: "class-a", Email: "bob@x.com"},
		{SessionID: "class-b", Email: "carol@x.com"},
	}

	count, registered := CountFor(regs, "class-a", " alice@x.com")
	assert.Equal(t, count, 2)
	assert.Equal(t, registered, true)

	count, registered = CountFor(regs, "class-b", "alice@x.com")
	assert.Equal(t, count, 1)
	assert.Equal(t, registered, false)
}

func TestRemovedIDsAndKeepReferenced(t *testing.T) {
	before := sampleSessions()
	after := []Session{before[0], before[2]}
	after[0].Classes = after[0].Classes[:1]

	removed := RemovedIDs(before, after)
	sort.Strings(removed)
	assert.Equal(t, removed, []string{"class-b", "event-1"})

	regs := []Registration{
		{ID: "r1", SessionID: "class-a"},
		{ID: "r2", SessionID: "class-b"},
		{ID: "r3", SessionID: "event-1"},
		{ID: "r4", SessionID: "class-c"},
	}
	kept, dropped := KeepReferenced(regs, ValidTargetIDs(after))
	assert.Equal(t, kept, []Registration{regs[0], regs[3]})
	assert.Equal(t, dropped, []Registration{regs[1], regs[2]})
}

func TestOwnedIDs(t *testing.T) {
	sessions := sampleSessions()
	assert.Equal(t, sessions[0].OwnedIDs(), []string{"class-a", "class-b"})
	assert.Equal(t, sessions[1].OwnedIDs(), []string{"event-1"})
}

func BenchmarkMerge(b *testing.B) {
	sessions := make([]Session, 0, 120)
	regs := make([]Registration, 0, 1200)
	for i := 0; i < 120; i++ {
		s := sampleSessions()[0]
		s.ID = s.ID + string(rune('a'+i%26))
		sessions = append(sessions, s)
		for j := 0; j < 10; j++ {
			regs = append(regs, Registration{SessionID: s.Classes[j%2].ID})
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if merged := Merge(sessions, regs); len(merged) != len(sessions) {
			b.Fatal("unexpected merge size")
		}
	}
}
