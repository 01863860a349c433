package calendar

// DefaultEventMaxParticipants is the capacity applied to special events that do not specify one.
const DefaultEventMaxParticipants = 50

// ClassType enumerates the kinds of class offered within a regular session.
type ClassType string

const (
	// ClassTypeBeginner is the introductory class.
	ClassTypeBeginner ClassType = "beginner"
	// ClassTypeIntermediate is the class for returning players.
	ClassTypeIntermediate ClassType = "intermediate"
	// ClassTypeExperience is the one-off trial class for newcomers.
	ClassTypeExperience ClassType = "experience"
)

// Valid reports whether the class type is one of the known variants.
func (t ClassType) Valid() bool {
	switch t {
	case ClassTypeBeginner, ClassTypeIntermediate, ClassTypeExperience:
		return true
	default:
		return false
	}
}

// ClassSlot is one time-boxed class within a regular session. Date always mirrors the parent session.
type ClassSlot struct {
	ID              string
	Date            string
	Type            ClassType
	StartTime       string
	Duration        int
	MaxParticipants int
	Instructor      string
}

// Session is one calendar day of activity, either a set of classes or a single special event.
type Session struct {
	ID                   string
	Date                 string
	Location             string
	IsSpecialEvent       bool
	Classes              []ClassSlot
	EventTitle           string
	EventDescription     string
	EventStartTime       string
	EventEndTime         string
	EventMaxParticipants int
}

// EventCapacity returns the event capacity, applying the default when unset.
func (s Session) EventCapacity() int {
	if s.EventMaxParticipants > 0 {
		return s.EventMaxParticipants
	}
	return DefaultEventMaxParticipants
}

// OwnedIDs lists the registration targets owned by the session: its own id for
// special events, otherwise the ids of its classes.
func (s Session) OwnedIDs() []string {
	if s.IsSpecialEvent {
		return []string{s.ID}
	}
	ids := make([]string, 0, len(s.Classes))
	for _, class := range s.Classes {
		ids = append(ids, class.ID)
	}
	return ids
}

// Registration is one person's signup for a class slot or a special event.
type Registration struct {
	ID        string
	SessionID string
	Name      string
	Email     string
	Color     string
	Timestamp int64
}

// ClassWithRegistrations pairs a class slot with the registrations that reference it.
type ClassWithRegistrations struct {
	ClassSlot
	Registrations []Registration
}

// SessionWithRegistrations is the display model produced by Merge.
type SessionWithRegistrations struct {
	Session
	Slots              []ClassWithRegistrations
	EventRegistrations []Registration
}

// Target is the registration target resolved from a class or event id.
type Target struct {
	ID       string
	Session  Session
	Class    *ClassSlot
	Capacity int
}

// IsEvent reports whether the target is a special-event session.
func (t Target) IsEvent() bool {
	return t.Class == nil
}
