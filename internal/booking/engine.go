package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/caretrain/session-booking/internal/model"
)

// maxUpdateRetries bounds the internal retry loop on store conflicts
// before the engine surfaces ErrConflict to the caller.
const maxUpdateRetries = 3

// Engine is the single entry point for every operation that touches
// attendee rows.  Each mutating operation loads a fresh snapshot inside
// the store's per-session critical section, authorizes the requested
// transition against the allocator, applies it through the state machine
// and persists the result as one atomic unit, no partial effects.
type Engine struct {
	store Store
	due   DueStatusSource
	now   func() time.Time
}

// NewEngine wires the engine to its store and due-status source.
func NewEngine(store Store, due DueStatusSource) *Engine {
	return &Engine{
		store: store,
		due:   due,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the engine clock.  Tests use it to pin "now".
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// update wraps Store.Update with the bounded conflict retry of the
// optimistic discipline.  Authorization failures pass through untouched;
// only transaction-level conflicts are retried.
func (e *Engine) update(ctx context.Context, sessionID uint64, fn func(snap *Snapshot) ([]model.Attendee, error)) error {
	var err error
	for attempt := 0; attempt <= maxUpdateRetries; attempt++ {
		err = e.store.Update(ctx, sessionID, fn)
		if !errors.Is(err, ErrTxConflict) {
			return err
		}
	}
	return ErrConflict
}

// requireOpen rejects operations that consume seats on sessions the
// engine does not act on (DRAFT or CANCELLED).
func requireOpen(sess *model.Session) error {
	if sess.Status != model.SessionPublished {
		return ErrNotPermitted
	}
	return nil
}

// confirmWindowOpen reports whether a self-confirmation is still inside
// the session's confirm deadline, if one is set.  The check runs inside
// the same critical section as the capacity authorization, so a confirm
// racing the deadline is decided consistently.
func confirmWindowOpen(sess *model.Session, now time.Time) bool {
	return sess.ConfirmDeadline == nil || !now.After(*sess.ConfirmDeadline)
}

// Claim handles a person claiming a spot for themselves.  A holder of a
// priority-reserved seat always lands CONFIRMED; everyone else gets a
// general seat when one remains and is WAITLISTED otherwise; a claim is
// never rejected for capacity.  Returns the resulting status.
func (e *Engine) Claim(ctx context.Context, sessionID, userID uint64) (model.AttendeeStatus, error) {
	var result model.AttendeeStatus
	err := e.update(ctx, sessionID, func(snap *Snapshot) ([]model.Attendee, error) {
		if err := requireOpen(&snap.Session); err != nil {
			return nil, err
		}
		now := e.now()
		usage := ComputeUsage(&snap.Session, snap.Attendees)
		row := snap.Attendee(userID)

		// Fresh claim, or re-entry over a cancelled row.
		if row == nil || row.Status == model.StatusCancelled {
			status := model.StatusWaitlisted
			if usage.GeneralRemaining > 0 {
				status = model.StatusConfirmed
			}
			result = status
			if row == nil {
				a := NewAttendee(sessionID, userID, status, model.SourceSelf, now)
				return []model.Attendee{a}, nil
			}
			Rebook(row, status, model.SourceSelf, now)
			return []model.Attendee{*row}, nil
		}

		switch row.Status {
		case model.StatusInvited, model.StatusBooked, model.StatusWaitlisted:
			// Consuming a reserved seat never depends on general capacity.
			if row.Source == model.SourcePriority || usage.GeneralRemaining > 0 {
				if !confirmWindowOpen(&snap.Session, now) {
					return nil, ErrConfirmDeadlinePassed
				}
				if err := Transition(row, model.StatusConfirmed, now); err != nil {
					return nil, err
				}
				result = model.StatusConfirmed
				return []model.Attendee{*row}, nil
			}
			// No seat of any kind: degrade to the waitlist, never reject.
			if row.Status == model.StatusWaitlisted {
				result = model.StatusWaitlisted
				return nil, nil
			}
			if err := Transition(row, model.StatusWaitlisted, now); err != nil {
				return nil, err
			}
			result = model.StatusWaitlisted
			return []model.Attendee{*row}, nil
		default:
			// Already CONFIRMED, ATTENDED or NO_SHOW.
			return nil, ErrInvalidTransition
		}
	})
	return result, err
}

// Confirm handles explicit self-confirmation of an existing row.  It is
// authorized exactly like a self-claim (a priority row always passes,
// otherwise a general seat is required, otherwise the row degrades to
// WAITLISTED) and additionally rejects once the confirm deadline has
// passed, leaving the row unchanged.
func (e *Engine) Confirm(ctx context.Context, sessionID, userID uint64) (model.AttendeeStatus, error) {
	var result model.AttendeeStatus
	err := e.update(ctx, sessionID, func(snap *Snapshot) ([]model.Attendee, error) {
		if err := requireOpen(&snap.Session); err != nil {
			return nil, err
		}
		row := snap.Attendee(userID)
		if row == nil {
			return nil, ErrNotFound
		}
		now := e.now()
		switch row.Status {
		case model.StatusInvited, model.StatusBooked, model.StatusWaitlisted:
		default:
			return nil, ErrInvalidTransition
		}
		if !confirmWindowOpen(&snap.Session, now) {
			return nil, ErrConfirmDeadlinePassed
		}
		usage := ComputeUsage(&snap.Session, snap.Attendees)
		if row.Source != model.SourcePriority && usage.GeneralRemaining == 0 {
			if row.Status == model.StatusWaitlisted {
				result = model.StatusWaitlisted
				return nil, nil
			}
			if err := Transition(row, model.StatusWaitlisted, now); err != nil {
				return nil, err
			}
			result = model.StatusWaitlisted
			return []model.Attendee{*row}, nil
		}
		if err := Transition(row, model.StatusConfirmed, now); err != nil {
			return nil, err
		}
		result = model.StatusConfirmed
		return []model.Attendee{*row}, nil
	})
	return result, err
}

// InviteResult reports how a bulk invite landed.
type InviteResult struct {
	Inserted  int `json:"inserted"`
	Reinvited int `json:"reinvited"`
}

// Invite creates or updates INVITED rows for every selected person as a
// single batch.  The whole batch is rejected with ErrSessionFull when
// the session is already full, or when tagging the requested priority
// invitees would push usage past capacity; the aggregate is re-checked
// against the batch as a whole, not seat by seat.  Invitees present in
// priorityIDs get source PRIORITY, which reserves a protected seat from
// that point on.  source is the inviting actor's classification for
// non-priority rows (COMPANY or MANAGER).
func (e *Engine) Invite(ctx context.Context, sessionID uint64, userIDs, priorityIDs []uint64, source model.AttendeeSource) (InviteResult, error) {
	var result InviteResult
	prioritySet := make(map[uint64]bool, len(priorityIDs))
	for _, id := range priorityIDs {
		prioritySet[id] = true
	}
	err := e.update(ctx, sessionID, func(snap *Snapshot) ([]model.Attendee, error) {
		result = InviteResult{}
		if err := requireOpen(&snap.Session); err != nil {
			return nil, err
		}
		now := e.now()
		usage := ComputeUsage(&snap.Session, snap.Attendees)
		if usage.IsFull {
			return nil, ErrSessionFull
		}
		used := usage.Used
		changed := make([]model.Attendee, 0, len(userIDs))
		seen := make(map[uint64]bool, len(userIDs))
		for _, uid := range userIDs {
			if uid == 0 || seen[uid] {
				continue
			}
			seen[uid] = true
			rowSource := source
			if prioritySet[uid] {
				rowSource = model.SourcePriority
			}
			row := snap.Attendee(uid)
			switch {
			case row == nil:
				if rowSource == model.SourcePriority {
					used++
					if used > snap.Session.Capacity {
						return nil, ErrSessionFull
					}
				}
				changed = append(changed, NewAttendee(sessionID, uid, model.StatusInvited, rowSource, now))
				result.Inserted++
			case row.Status == model.StatusCancelled:
				if rowSource == model.SourcePriority {
					used++
					if used > snap.Session.Capacity {
						return nil, ErrSessionFull
					}
				}
				Rebook(row, model.StatusInvited, rowSource, now)
				changed = append(changed, *row)
				result.Reinvited++
			case row.Status == model.StatusConfirmed,
				row.Status == model.StatusAttended,
				row.Status == model.StatusNoShow:
				// Idempotent: a seated or settled row keeps its status.  An
				// upgrade to PRIORITY moves a confirmed seat between tiers
				// without changing the total.
				if prioritySet[uid] && row.Source != model.SourcePriority {
					row.Source = model.SourcePriority
					row.UpdatedAt = now
					changed = append(changed, *row)
				}
				result.Reinvited++
			default: // INVITED, BOOKED, WAITLISTED: re-set to INVITED in place
				wasHolding := holdsPrioritySeat(row)
				row.Source = rowSource
				if row.Status != model.StatusInvited {
					if err := Transition(row, model.StatusInvited, now); err != nil {
						return nil, err
					}
				} else {
					row.UpdatedAt = now
				}
				if holdsPrioritySeat(row) && !wasHolding {
					used++
					if used > snap.Session.Capacity {
						return nil, ErrSessionFull
					}
				}
				changed = append(changed, *row)
				result.Reinvited++
			}
		}
		return changed, nil
	})
	if err != nil {
		return InviteResult{}, err
	}
	return result, nil
}

// ForcePlace directly confirms a person without self-claim.  A priority
// row is always honorable regardless of general capacity; anyone else
// needs a free general seat.  source classifies a freshly created row
// (COMPANY or MANAGER).  No confirm-deadline check applies: forced
// placement is a privileged override.
func (e *Engine) ForcePlace(ctx context.Context, sessionID, userID uint64, source model.AttendeeSource) (model.AttendeeStatus, error) {
	err := e.update(ctx, sessionID, func(snap *Snapshot) ([]model.Attendee, error) {
		if err := requireOpen(&snap.Session); err != nil {
			return nil, err
		}
		now := e.now()
		usage := ComputeUsage(&snap.Session, snap.Attendees)
		row := snap.Attendee(userID)

		if row == nil || row.Status == model.StatusCancelled {
			if usage.GeneralRemaining == 0 {
				return nil, ErrSessionFull
			}
			if row == nil {
				a := NewAttendee(sessionID, userID, model.StatusConfirmed, source, now)
				return []model.Attendee{a}, nil
			}
			Rebook(row, model.StatusConfirmed, source, now)
			return []model.Attendee{*row}, nil
		}

		switch row.Status {
		case model.StatusInvited, model.StatusBooked, model.StatusWaitlisted:
			if row.Source != model.SourcePriority && usage.GeneralRemaining == 0 {
				return nil, ErrSessionFull
			}
			if err := Transition(row, model.StatusConfirmed, now); err != nil {
				return nil, err
			}
			return []model.Attendee{*row}, nil
		default:
			return nil, ErrInvalidTransition
		}
	})
	if err != nil {
		return "", err
	}
	return model.StatusConfirmed, nil
}

// Decline is a person turning down their invite or waitlist spot.
func (e *Engine) Decline(ctx context.Context, sessionID, userID uint64) (model.AttendeeStatus, error) {
	return e.cancelRow(ctx, sessionID, userID)
}

// CancelAttendance is a person giving up a confirmed seat.
func (e *Engine) CancelAttendance(ctx context.Context, sessionID, userID uint64) (model.AttendeeStatus, error) {
	return e.cancelRow(ctx, sessionID, userID)
}

// Remove is a privileged actor taking a person off the session.  It is
// always allowed regardless of capacity and frees whatever seat the row
// held.  The row is never physically deleted.
func (e *Engine) Remove(ctx context.Context, sessionID, userID uint64) (model.AttendeeStatus, error) {
	return e.cancelRow(ctx, sessionID, userID)
}

// cancelRow transitions a row to CANCELLED.  Capacity and session status
// are never checked: cancellation only frees seats, and people must be
// able to withdraw from a session even after it is cancelled.  Promotion of a waitlisted row into the
// freed seat is deliberately not done here; that belongs to an
// asynchronous reconciliation process, not the synchronous path.
func (e *Engine) cancelRow(ctx context.Context, sessionID, userID uint64) (model.AttendeeStatus, error) {
	err := e.update(ctx, sessionID, func(snap *Snapshot) ([]model.Attendee, error) {
		row := snap.Attendee(userID)
		if row == nil {
			return nil, ErrNotFound
		}
		if err := Transition(row, model.StatusCancelled, e.now()); err != nil {
			return nil, err
		}
		return []model.Attendee{*row}, nil
	})
	if err != nil {
		return "", err
	}
	return model.StatusCancelled, nil
}

// MarkOutcome records the post-session outcome of a confirmed attendee:
// ATTENDED or NO_SHOW.  Marking is only accepted on a PUBLISHED session
// once it has started; a DRAFT or CANCELLED session never took place, so
// there is no outcome to record.
func (e *Engine) MarkOutcome(ctx context.Context, sessionID, userID uint64, outcome model.AttendeeStatus) (model.AttendeeStatus, error) {
	if outcome != model.StatusAttended && outcome != model.StatusNoShow {
		return "", ErrInvalidTransition
	}
	err := e.update(ctx, sessionID, func(snap *Snapshot) ([]model.Attendee, error) {
		if err := requireOpen(&snap.Session); err != nil {
			return nil, err
		}
		now := e.now()
		if now.Before(snap.Session.StartsAt) {
			return nil, ErrNotPermitted
		}
		row := snap.Attendee(userID)
		if row == nil {
			return nil, ErrNotFound
		}
		if err := Transition(row, outcome, now); err != nil {
			return nil, err
		}
		return []model.Attendee{*row}, nil
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// Stats returns the capacity arithmetic for a session as of a consistent
// snapshot.
func (e *Engine) Stats(ctx context.Context, sessionID uint64) (Usage, error) {
	snap, err := e.store.View(ctx, sessionID)
	if err != nil {
		return Usage{}, err
	}
	return ComputeUsage(&snap.Session, snap.Attendees), nil
}

// SuggestCandidates runs the priority ranker for a session.  visible
// limits suggestions to the user ids the invoking actor may act on; nil
// means unrestricted.  A due-status source failure degrades to an empty
// list rather than blocking reservation work.
func (e *Engine) SuggestCandidates(ctx context.Context, companyID, courseID, sessionID uint64, visible []uint64) ([]model.PriorityCandidate, error) {
	snap, err := e.store.View(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rows, err := e.due.DueStatuses(ctx, companyID, courseID)
	if err != nil {
		log.Printf("booking: due-status source failed for company=%d course=%d: %v", companyID, courseID, err)
		return []model.PriorityCandidate{}, nil
	}
	attached := make(map[uint64]bool, len(snap.Attendees))
	for i := range snap.Attendees {
		if snap.Attendees[i].Active() {
			attached[snap.Attendees[i].UserID] = true
		}
	}
	var visibleSet map[uint64]bool
	if visible != nil {
		visibleSet = make(map[uint64]bool, len(visible))
		for _, id := range visible {
			visibleSet[id] = true
		}
	}
	return Rank(rows, attached, visibleSet, e.now()), nil
}
