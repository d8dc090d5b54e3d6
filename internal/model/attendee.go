package model

import "time"

// AttendeeStatus is the closed set of states an attendee row may be in.
// Status values are stored verbatim in the attendees.status column and
// must only ever be changed through the booking state machine.
type AttendeeStatus string

const (
	StatusInvited    AttendeeStatus = "INVITED"    // created by bulk invite, person has not acted yet
	StatusBooked     AttendeeStatus = "BOOKED"     // imported/legacy booking awaiting confirmation
	StatusConfirmed  AttendeeStatus = "CONFIRMED"  // occupies a seat
	StatusWaitlisted AttendeeStatus = "WAITLISTED" // claim arrived with no seat available
	StatusCancelled  AttendeeStatus = "CANCELLED"  // declined, cancelled or removed
	StatusAttended   AttendeeStatus = "ATTENDED"   // post-session marking: showed up
	StatusNoShow     AttendeeStatus = "NO_SHOW"    // post-session marking: did not show up
)

// AttendeeSource classifies why an attendee row exists.  PRIORITY is the
// only source that reserves a protected seat; the others compete for
// general capacity.
type AttendeeSource string

const (
	SourceSelf     AttendeeSource = "SELF"     // person claimed the spot themselves
	SourceCompany  AttendeeSource = "COMPANY"  // placed by a company-level actor
	SourceManager  AttendeeSource = "MANAGER"  // placed by a home manager
	SourcePriority AttendeeSource = "PRIORITY" // invited from the priority suggestion list
)

// Attendee is one row per (session, user) pair in the `attendees` table.
// The pair is the composite key; re-inviting an existing pair updates the
// row in place rather than duplicating it, and removal is modeled as a
// transition to CANCELLED, never a physical delete.
//
// Timestamps record transitions that actually happened.  Each one is set
// exactly once per logical booking and is never cleared, except when a
// CANCELLED row is overwritten by a brand-new logical booking.
type Attendee struct {
	SessionID   uint64         // attendees.session_id (composite key)
	UserID      uint64         // attendees.user_id (composite key)
	Status      AttendeeStatus // attendees.status
	Source      AttendeeSource // attendees.source
	InvitedAt   *time.Time     // attendees.invited_at (nullable)
	BookedAt    *time.Time     // attendees.booked_at (nullable)
	ConfirmedAt *time.Time     // attendees.confirmed_at (nullable)
	CancelledAt *time.Time     // attendees.cancelled_at (nullable)
	AttendedAt  *time.Time     // attendees.attended_at (nullable)
	CreatedAt   time.Time      // attendees.created_at
	UpdatedAt   time.Time      // attendees.updated_at
}

// Active reports whether the row currently counts as attached to the
// session for ranking purposes, i.e. any status other than CANCELLED.
func (a *Attendee) Active() bool {
	return a.Status != StatusCancelled
}
