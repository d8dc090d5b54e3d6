package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/caretrain/session-booking/internal/model"
)

// AttendeeRepo provides read-only roster queries over attendee rows.
// Display names come from the users table purely for presentation; they
// never feed an authorization or capacity decision.  Writes go through
// the ReservationStore exclusively.
type AttendeeRepo struct {
	db *sql.DB
}

// NewAttendeeRepo returns a new AttendeeRepo bound to the given database.
func NewAttendeeRepo(db *sql.DB) *AttendeeRepo { return &AttendeeRepo{db: db} }

// RosterEntry is one attendee row joined with directory info, as shown
// on the session roster.
type RosterEntry struct {
	UserID      uint64                `json:"user_id"`
	DisplayName string                `json:"display_name"`
	Email       string                `json:"email"`
	Status      model.AttendeeStatus  `json:"status"`
	Source      model.AttendeeSource  `json:"source"`
	InvitedAt   *time.Time            `json:"invited_at,omitempty"`
	ConfirmedAt *time.Time            `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time            `json:"cancelled_at,omitempty"`
	AttendedAt  *time.Time            `json:"attended_at,omitempty"`
}

// ListRoster returns the full roster of a session ordered by status then
// display name for deterministic output.
func (r *AttendeeRepo) ListRoster(ctx context.Context, sessionID uint64) ([]RosterEntry, error) {
	const q = `SELECT a.user_id, u.display_name, u.email, a.status, a.source,
                      a.invited_at, a.confirmed_at, a.cancelled_at, a.attended_at
               FROM attendees a
               JOIN users u ON u.id = a.user_id
               WHERE a.session_id = ?
               ORDER BY a.status, u.display_name, a.user_id`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]RosterEntry, 0)
	for rows.Next() {
		var (
			e         RosterEntry
			invited   sql.NullTime
			confirmed sql.NullTime
			cancelled sql.NullTime
			attended  sql.NullTime
		)
		if err := rows.Scan(&e.UserID, &e.DisplayName, &e.Email, &e.Status, &e.Source,
			&invited, &confirmed, &cancelled, &attended); err != nil {
			return nil, err
		}
		e.InvitedAt = nullTime(invited)
		e.ConfirmedAt = nullTime(confirmed)
		e.CancelledAt = nullTime(cancelled)
		e.AttendedAt = nullTime(attended)
		out = append(out, e)
	}
	return out, rows.Err()
}

// VisibleUserIDs returns the ids of active users the acting manager may
// invite or place: staff of the given homes within the company.  An
// empty homeIDs slice yields an empty set; company-wide actors skip this
// query entirely.
func (r *AttendeeRepo) VisibleUserIDs(ctx context.Context, companyID uint64, homeIDs []uint64) ([]uint64, error) {
	if len(homeIDs) == 0 {
		return []uint64{}, nil
	}
	placeholders := make([]string, len(homeIDs))
	args := make([]interface{}, 0, len(homeIDs)+1)
	args = append(args, companyID)
	for i, id := range homeIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	q := `SELECT id FROM users
          WHERE company_id = ? AND is_active = 1 AND home_id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
