package application

import (
	"errors"
	"fmt"

	"github.com/example/sanshin-calendar/internal/persistence"
)

var (
	// ErrUnauthorized is returned when an admin token is missing, invalid, or revoked.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrForbidden is returned when a requester may not act on another person's registration.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested session, class, or registration does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrFull is returned when a class or event has reached its capacity.
	ErrFull = errors.New("application: target is full")
	// ErrAlreadyRegistered is returned when the email already holds a registration for the target.
	ErrAlreadyRegistered = errors.New("application: already registered")
	// ErrInvalidCredentials is returned when a submitted admin password does not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAdminNotConfigured is returned when no admin password has been stored yet.
	ErrAdminNotConfigured = errors.New("application: admin password not configured")
	// ErrStoreUnavailable is returned when the document store could not complete a read or write.
	ErrStoreUnavailable = errors.New("application: store unavailable")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// mapRepoError translates persistence errors into service errors. Errors
// returned by check callbacks already belong to this package and pass through.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	default:
		return err
	}
}
