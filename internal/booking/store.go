package booking

import (
	"context"

	"github.com/caretrain/session-booking/internal/model"
)

// Snapshot is a session together with its full attendee row set, read as
// one consistent unit.  The allocator and state machine only ever
// operate on snapshots handed to them by a Store.
type Snapshot struct {
	Session   model.Session
	Attendees []model.Attendee
}

// Attendee returns a pointer to the row for the given user, or nil when
// the person has never been attached to the session.
func (s *Snapshot) Attendee(userID uint64) *model.Attendee {
	for i := range s.Attendees {
		if s.Attendees[i].UserID == userID {
			return &s.Attendees[i]
		}
	}
	return nil
}

// Store owns the attendee rows of every session and provides the
// serialized unit of work the engine requires.  Implementations must
// guarantee that, per session, Update executes fn against a fresh
// snapshot and persists the returned rows atomically with respect to
// every other Update on the same session; a database transaction with a
// row lock on the session, or an equivalent mutual exclusion.  Updates on
// different sessions are independent and may run in parallel.
//
// Update reports ErrTxConflict when the unit of work loses a race and
// should be retried; the engine owns the retry budget.
type Store interface {
	// View reads a snapshot without mutating anything.  Returns
	// ErrNotFound when the session does not exist.
	View(ctx context.Context, sessionID uint64) (*Snapshot, error)

	// Update runs fn inside the session's critical section.  fn returns
	// the attendee rows to upsert, keyed by (session_id, user_id); an
	// error from fn aborts the unit of work with no partial effect.
	Update(ctx context.Context, sessionID uint64, fn func(snap *Snapshot) ([]model.Attendee, error)) error
}
