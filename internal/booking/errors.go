// Package booking implements the session attendance reservation core:
// the attendee state machine, the two-tier capacity allocator, the
// priority ranker and the orchestrating engine.  All attendee rows are
// mutated exclusively through this package.
package booking

import "errors"

// Sentinel errors returned by the engine.  Handlers compare with
// errors.Is and translate each into a distinct HTTP response, since the
// corrective action differs for capacity, deadline and permission
// failures.
var (
	// ErrSessionFull is returned when capacity authorization fails for an
	// invite or forced placement.  Self-claims never return it; they
	// degrade to the waitlist instead.
	ErrSessionFull = errors.New("session is full")

	// ErrConfirmDeadlinePassed is returned when a self-confirmation
	// arrives after the session's confirm deadline.
	ErrConfirmDeadlinePassed = errors.New("confirm deadline has passed")

	// ErrInvalidTransition is returned when the requested status change
	// is not legal from the row's current status.
	ErrInvalidTransition = errors.New("invalid attendance transition")

	// ErrNotPermitted is returned when the actor lacks the role or scope
	// for the operation, or the session is not open for booking.
	ErrNotPermitted = errors.New("operation not permitted")

	// ErrNotFound is returned when the session or attendee row is absent
	// where one is required.
	ErrNotFound = errors.New("not found")

	// ErrConflict is surfaced after the engine exhausts its internal
	// retries on concurrent updates to the same session.
	ErrConflict = errors.New("conflict, please retry")

	// ErrTxConflict is reported by Store implementations when a unit of
	// work loses a race (deadlock, lock timeout).  The engine retries a
	// bounded number of times before converting it to ErrConflict.
	ErrTxConflict = errors.New("transaction conflict")
)
