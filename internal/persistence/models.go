package persistence

// Session is the stored form of one calendar day in the sessions document.
type Session struct {
	ID                   string  `json:"id"`
	Date                 string  `json:"date"`
	Location             string  `json:"location"`
	IsSpecialEvent       bool    `json:"isSpecialEvent"`
	Classes              []Class `json:"classes"`
	EventTitle           string  `json:"eventTitle,omitempty"`
	EventDescription     string  `json:"eventDescription,omitempty"`
	EventStartTime       string  `json:"eventStartTime,omitempty"`
	EventEndTime         string  `json:"eventEndTime,omitempty"`
	EventMaxParticipants int     `json:"eventMaxParticipants,omitempty"`
}

// Class is the stored form of a class slot nested in a session.
type Class struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	Type            string `json:"type"`
	StartTime       string `json:"startTime"`
	Duration        int    `json:"duration"`
	MaxParticipants int    `json:"maxParticipants"`
	Instructor      string `json:"instructor,omitempty"`
}

// Registration is the stored form of one signup in the registrations document.
type Registration struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Color     string `json:"color"`
	Timestamp int64  `json:"timestamp"`
}

// AdminConfig is the admin-config document.
type AdminConfig struct {
	PasswordHash string `json:"passwordHash"`
	LastUpdated  string `json:"lastUpdated"`
}

// Identity is the last registrant details remembered for one client.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Color string `json:"color"`
}
