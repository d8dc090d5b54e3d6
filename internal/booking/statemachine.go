package booking

import (
	"time"

	"github.com/caretrain/session-booking/internal/model"
)

// legalTransitions enumerates every status change a live attendee row may
// undergo.  Entry states ((none) -> X) are handled by NewAttendee and
// Rebook, not by this table.  CANCELLED, ATTENDED and NO_SHOW are
// terminal: no edge leaves them; re-entry after CANCELLED is a brand-new
// logical booking overwriting the row.
var legalTransitions = map[model.AttendeeStatus][]model.AttendeeStatus{
	model.StatusInvited: {
		model.StatusConfirmed,  // self-confirmation or forced placement
		model.StatusWaitlisted, // claim degraded: no seat available
		model.StatusCancelled,  // decline or removal
	},
	model.StatusBooked: {
		model.StatusInvited, // re-invite resets the row
		model.StatusConfirmed,
		model.StatusWaitlisted,
		model.StatusCancelled,
	},
	model.StatusWaitlisted: {
		model.StatusInvited, // re-invite resets the row
		model.StatusConfirmed,
		model.StatusCancelled,
	},
	model.StatusConfirmed: {
		model.StatusCancelled, // self cancel-attendance or removal
		model.StatusAttended,  // post-session marking
		model.StatusNoShow,    // post-session marking
	},
}

// CanTransition reports whether a live row may move from one status to
// another.
func CanTransition(from, to model.AttendeeStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves an attendee row to a new status, stamping the
// timestamp that corresponds to the new status.  Each timestamp is set
// exactly once per logical booking and never cleared; a transition whose
// timestamp already exists (a row cycling back through INVITED) leaves
// the earlier value in place.  Returns ErrInvalidTransition when the
// change is not in the transition table.
func Transition(a *model.Attendee, to model.AttendeeStatus, now time.Time) error {
	if !CanTransition(a.Status, to) {
		return ErrInvalidTransition
	}
	a.Status = to
	stamp(a, to, now)
	a.UpdatedAt = now
	return nil
}

// NewAttendee creates a row for a (session, person) pair that has none:
// (none) -> INVITED by bulk invite, (none) -> CONFIRMED by claim or
// forced placement, (none) -> WAITLISTED by a claim with no seat.
func NewAttendee(sessionID, userID uint64, status model.AttendeeStatus, source model.AttendeeSource, now time.Time) model.Attendee {
	a := model.Attendee{
		SessionID: sessionID,
		UserID:    userID,
		Status:    status,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	stamp(&a, status, now)
	return a
}

// Rebook overwrites a CANCELLED row with a brand-new logical booking.
// All lifecycle timestamps are reset; monotonicity is guaranteed within
// a logical booking, not across rebookings.
func Rebook(a *model.Attendee, status model.AttendeeStatus, source model.AttendeeSource, now time.Time) {
	a.Status = status
	a.Source = source
	a.InvitedAt = nil
	a.BookedAt = nil
	a.ConfirmedAt = nil
	a.CancelledAt = nil
	a.AttendedAt = nil
	stamp(a, status, now)
	a.UpdatedAt = now
}

// stamp sets the timestamp field matching the new status, first time
// only.  WAITLISTED and NO_SHOW have no timestamp of their own.
func stamp(a *model.Attendee, status model.AttendeeStatus, now time.Time) {
	switch status {
	case model.StatusInvited:
		if a.InvitedAt == nil {
			t := now
			a.InvitedAt = &t
		}
	case model.StatusBooked:
		if a.BookedAt == nil {
			t := now
			a.BookedAt = &t
		}
	case model.StatusConfirmed:
		if a.ConfirmedAt == nil {
			t := now
			a.ConfirmedAt = &t
		}
	case model.StatusCancelled:
		if a.CancelledAt == nil {
			t := now
			a.CancelledAt = &t
		}
	case model.StatusAttended:
		if a.AttendedAt == nil {
			t := now
			a.AttendedAt = &t
		}
	}
}
