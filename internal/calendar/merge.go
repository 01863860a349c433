package calendar

import (
	"sort"
	"strings"
)

// Merge attaches registrations to the class slots and event sessions they
// reference. Registrations pointing at unknown targets are left out.
func Merge(sessions []Session, registrations []Registration) []SessionWithRegistrations {
	byTarget := make(map[string][]Registration, len(registrations))
	for _, reg := range registrations {
		byTarget[reg.SessionID] = append(byTarget[reg.SessionID], reg)
	}

	merged := make([]SessionWithRegistrations, 0, len(sessions))
	for _, session := range sessions {
		view := SessionWithRegistrations{Session: session}
		if session.IsSpecialEvent {
			view.EventRegistrations = cloneRegistrations(byTarget[session.ID])
		} else {
			view.Slots = make([]ClassWithRegistrations, 0, len(session.Classes))
			for _, class := range session.Classes {
				view.Slots = append(view.Slots, ClassWithRegistrations{
					ClassSlot:     class,
					Registrations: cloneRegistrations(byTarget[class.ID]),
				})
			}
		}
		merged = append(merged, view)
	}
	return merged
}

// FilterMonth keeps merged sessions whose date falls in the given month, sorted by date.
func FilterMonth(views []SessionWithRegistrations, year, month int) []SessionWithRegistrations {
	filtered := make([]SessionWithRegistrations, 0, len(views))
	for _, view := range views {
		if InMonth(view.Date, year, month) {
			filtered = append(filtered, view)
		}
	}
	SortViews(filtered)
	return filtered
}

// SortViews orders merged sessions by date string, keeping ties stable.
func SortViews(views []SessionWithRegistrations) {
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Date < views[j].Date
	})
}

// ValidTargetIDs returns every id a registration may reference: all class ids
// plus the ids of special-event sessions.
func ValidTargetIDs(sessions []Session) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, session := range sessions {
		for _, id := range session.OwnedIDs() {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// FindTarget resolves a class id or event session id to its capacity.
func FindTarget(sessions []Session, id string) (Target, bool) {
	for _, session := range sessions {
		if session.IsSpecialEvent {
			if session.ID == id {
				return Target{ID: id, Session: session, Capacity: session.EventCapacity()}, true
			}
			continue
		}
		for i := range session.Classes {
			if session.Classes[i].ID == id {
				class := session.Classes[i]
				return Target{ID: id, Session: session, Class: &class, Capacity: class.MaxParticipants}, true
			}
		}
	}
	return Target{}, false
}

// NormalizeEmail is the identity key used for duplicate and ownership checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CountFor returns the registrations for targetID and whether email is among them.
func CountFor(registrations []Registration, targetID, email string) (count int, registered bool) {
	key := NormalizeEmail(email)
	for _, reg := range registrations {
		if reg.SessionID != targetID {
			continue
		}
		count++
		if key != "" && NormalizeEmail(reg.Email) == key {
			registered = true
		}
	}
	return count, registered
}

// RemovedIDs returns ids owned by before that no longer exist in after.
func RemovedIDs(before, after []Session) []string {
	remaining := ValidTargetIDs(after)
	var removed []string
	for _, session := range before {
		for _, id := range session.OwnedIDs() {
			if _, ok := remaining[id]; !ok {
				removed = append(removed, id)
			}
		}
	}
	return removed
}

func cloneRegistrations(regs []Registration) []Registration {
	if len(regs) == 0 {
		return []Registration{}
	}
	out := make([]Registration, len(regs))
	copy(out, regs)
	return out
}

// KeepReferenced splits registrations into those that reference a valid target and the orphans.
func KeepReferenced(registrations []Registration, valid map[string]struct{}) (kept, dropped []Registration) {
	kept = make([]Registration, 0, len(registrations))
	for _, reg := range registrations {
		if _, ok := valid[reg.SessionID]; ok {
			kept = append(kept, reg)
			continue
		}
		dropped = append(dropped, reg)
	}
	return kept, dropped
}
