package testfixtures

import (
	"fmt"
	"sync"
)

// IDs hands out predictable ids in the calendar's formats. Registration ids
// count up as reg-1, reg-2, ... so assertions can name them.
//
// The legacy helpers produce the date-only and timestamp-only shapes written
// before ids carried a unique suffix, for driving id migration.
type IDs struct {
	mu            sync.Mutex
	registrations int
	legacyRegs    int
}

func NewIDs() *IDs {
	return &IDs{}
}

// NextRegistration returns the next reg-<n> id.
func (g *IDs) NextRegistration() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.registrations++
	return fmt.Sprintf("reg-%d", g.registrations)
}

// RegistrationFunc plugs the sequence into RegistrationService. A nil
// generator yields empty ids, which the store rejects.
func (g *IDs) RegistrationFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.NextRegistration
}

// Issued reports how many registration ids were handed out.
func (g *IDs) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registrations
}

// LegacySessionID is the old session-<date> form.
func (g *IDs) LegacySessionID(date string) string {
	return "session-" + date
}

// LegacyClassID is the old class-<date>-<HH:MM> form.
func (g *IDs) LegacyClassID(date, startTime string) string {
	return "class-" + date + "-" + startTime
}

// LegacyRegistrationID is the old reg-<epoch ms> form, one millisecond apart
// per call starting at ReferenceTime.
func (g *IDs) LegacyRegistrationID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.legacyRegs++
	return fmt.Sprintf("reg-%d", referenceTime.UnixMilli()+int64(g.legacyRegs))
}
