package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrUnavailable is returned when the remote store cannot serve the request.
	ErrUnavailable = errors.New("persistence: store unavailable")
	// ErrCorrupt is returned when a stored document cannot be decoded.
	ErrCorrupt = errors.New("persistence: corrupt document")
)
