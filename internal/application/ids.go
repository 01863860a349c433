package application

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	legacySessionID      = regexp.MustCompile(`^session-\d{4}-\d{2}-\d{2}$`)
	legacyClassID        = regexp.MustCompile(`^class-\d{4}-\d{2}-\d{2}-\d{2}:\d{2}$`)
	legacyRegistrationID = regexp.MustCompile(`^reg-\d+$`)

	// legacyNamespace seeds the deterministic suffixes given to legacy ids.
	legacyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("sanshin-calendar:legacy-id"))
)

// ShortID returns eight random hex characters.
func ShortID() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// NewSessionID returns session-<date>-<short id>.
func NewSessionID(date string) string {
	return "session-" + date + "-" + ShortID()
}

// NewClassID returns class-<date>-<start>-<short id>.
func NewClassID(date, startTime string) string {
	return "class-" + date + "-" + startTime + "-" + ShortID()
}

// RegistrationIDGenerator returns a generator of reg-<ULID> ids stamped with now.
// ULIDs from one process are strictly increasing.
func RegistrationIDGenerator(now func() time.Time) func() string {
	if now == nil {
		now = time.Now
	}
	entropy := ulid.DefaultEntropy()
	return func() string {
		return "reg-" + ulid.MustNew(ulid.Timestamp(now()), entropy).String()
	}
}

// IsLegacyID reports whether id uses one of the date-only or timestamp-only formats
// written before ids carried a unique suffix.
func IsLegacyID(id string) bool {
	return legacySessionID.MatchString(id) ||
		legacyClassID.MatchString(id) ||
		legacyRegistrationID.MatchString(id)
}

// MigrateID appends a suffix derived from the legacy id itself, so repeated
// migrations of the same document agree. Current ids are returned unchanged.
func MigrateID(id string) string {
	if !IsLegacyID(id) {
		return id
	}
	suffix := strings.SplitN(uuid.NewSHA1(legacyNamespace, []byte(id)).String(), "-", 2)[0]
	return id + "-" + suffix
}
