// Package repository implements the MySQL persistence layer: session and
// attendee rows, users, refresh tokens and training records, plus the
// locking store that backs the booking engine.  Sentinel errors defined
// here let handlers distinguish failure scenarios without inspecting
// driver errors.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by a different company or home.  Handlers translate
// this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrSessionNotFound is returned when a session id does not exist.
var ErrSessionNotFound = errors.New("session not found")

// ErrConflict is returned when a delete or update cannot proceed due to
// conflicting state.  Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// isMySQLErr reports whether err carries the given MySQL error number.
// The driver exposes numbers in the message; matching on them keeps the
// repositories free of driver-specific error types.
func isMySQLErr(err error, number string) bool {
	return err != nil && strings.Contains(err.Error(), number)
}
