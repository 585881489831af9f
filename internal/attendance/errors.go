package attendance

import "errors"

// Sentinel errors returned by the attendance service. The HTTP boundary
// maps these onto status codes; the service never returns transport
// concepts.
var (
	// ErrNotFound means a referenced course, teacher, student or
	// session id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidToken means no active session carries the presented
	// QR token.
	ErrInvalidToken = errors.New("invalid or inactive QR token")

	// ErrExpired means the session exists but its expiry has passed.
	ErrExpired = errors.New("QR token has expired")

	// ErrDuplicate means an attendance entry already exists for the
	// (student, course, date, section) key.
	ErrDuplicate = errors.New("attendance already marked")
)
