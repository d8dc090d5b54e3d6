package booking

import "github.com/caretrain/session-booking/internal/model"

// Usage is the authoritative capacity arithmetic for one session,
// computed from its full attendee row set.  A priority invite reserves a
// seat the moment the row exists, before the person acts; everyone else
// only consumes capacity once CONFIRMED.
type Usage struct {
	Capacity             int  `json:"capacity"`
	PriorityHolds        int  `json:"priority_holds"`
	ConfirmedNonPriority int  `json:"confirmed_non_priority"`
	Used                 int  `json:"used"`
	GeneralRemaining     int  `json:"general_remaining"`
	IsFull               bool `json:"is_full"`
}

// ComputeUsage derives Usage from a session and its attendee rows.  It is
// the single place capacity is counted; callers must never recompute
// these numbers ad hoc.
func ComputeUsage(sess *model.Session, rows []model.Attendee) Usage {
	u := Usage{Capacity: sess.Capacity}
	for i := range rows {
		r := &rows[i]
		if holdsPrioritySeat(r) {
			u.PriorityHolds++
		} else if r.Status == model.StatusConfirmed {
			u.ConfirmedNonPriority++
		}
	}
	u.Used = u.PriorityHolds + u.ConfirmedNonPriority
	u.GeneralRemaining = sess.Capacity - u.Used
	if u.GeneralRemaining < 0 {
		u.GeneralRemaining = 0
	}
	u.IsFull = u.Used >= sess.Capacity
	return u
}

// holdsPrioritySeat reports whether a row occupies a protected seat: a
// PRIORITY-sourced row that is INVITED, BOOKED or CONFIRMED.  A cancelled
// or waitlisted priority row holds nothing.
func holdsPrioritySeat(a *model.Attendee) bool {
	if a.Source != model.SourcePriority {
		return false
	}
	switch a.Status {
	case model.StatusInvited, model.StatusBooked, model.StatusConfirmed:
		return true
	}
	return false
}
