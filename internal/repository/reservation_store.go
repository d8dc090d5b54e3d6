package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/caretrain/session-booking/internal/booking"
	"github.com/caretrain/session-booking/internal/model"
)

// ReservationStore is the MySQL implementation of booking.Store.  The
// per-session critical section is a transaction that locks the
// session row with SELECT ... FOR UPDATE: every Update on the same
// session serializes on that lock, while different sessions proceed in
// parallel.  Read-then-write without this lock is exactly the race the
// engine exists to close, so no code outside this type touches attendee
// rows.
type ReservationStore struct {
	db *sql.DB
}

// NewReservationStore returns a store bound to the given database.
func NewReservationStore(db *sql.DB) *ReservationStore { return &ReservationStore{db: db} }

const sessionCols = `id, company_id, course_id, capacity, starts_at, ends_at,
       confirm_deadline, status, location, notes, created_at, updated_at`

const attendeeCols = `session_id, user_id, status, source, invited_at, booked_at,
       confirmed_at, cancelled_at, attended_at, created_at, updated_at`

// View implements booking.Store.  It reads the session and its attendee
// rows without locking; callers needing write consistency go through
// Update.
func (s *ReservationStore) View(ctx context.Context, sessionID uint64) (*booking.Snapshot, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	rows, err := s.loadAttendees(ctx, s.db, sessionID)
	if err != nil {
		return nil, err
	}
	return &booking.Snapshot{Session: *sess, Attendees: rows}, nil
}

// Update implements booking.Store.  Deadlocks (1213) and lock wait
// timeouts (1205) are reported as booking.ErrTxConflict so the engine
// can retry the whole unit of work.
func (s *ReservationStore) Update(ctx context.Context, sessionID uint64, fn func(snap *booking.Snapshot) ([]model.Attendee, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	sess, err := scanSession(tx.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE id = ? FOR UPDATE`, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.ErrNotFound
		}
		return txErr(err)
	}
	attendees, err := s.loadAttendees(ctx, tx, sessionID)
	if err != nil {
		return txErr(err)
	}

	changed, err := fn(&booking.Snapshot{Session: *sess, Attendees: attendees})
	if err != nil {
		return err
	}
	for i := range changed {
		if err := upsertAttendee(ctx, tx, &changed[i]); err != nil {
			return txErr(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return txErr(err)
	}
	committed = true
	return nil
}

// txErr maps retryable MySQL failures onto the engine's conflict
// sentinel and passes everything else through.
func txErr(err error) error {
	if isMySQLErr(err, "1213") || isMySQLErr(err, "1205") {
		return booking.ErrTxConflict
	}
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*model.Session, error) {
	var (
		sess     model.Session
		endsAt   sql.NullTime
		deadline sql.NullTime
		location sql.NullString
		notes    sql.NullString
	)
	err := row.Scan(
		&sess.ID, &sess.CompanyID, &sess.CourseID, &sess.Capacity,
		&sess.StartsAt, &endsAt, &deadline, &sess.Status,
		&location, &notes, &sess.CreatedAt, &sess.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endsAt.Valid {
		t := endsAt.Time
		sess.EndsAt = &t
	}
	if deadline.Valid {
		t := deadline.Time
		sess.ConfirmDeadline = &t
	}
	if location.Valid {
		v := location.String
		sess.Location = &v
	}
	if notes.Valid {
		v := notes.String
		sess.Notes = &v
	}
	return &sess, nil
}

// loadAttendees reads every attendee row of a session.  It accepts either
// *sql.DB or *sql.Tx through the querier interface so View and Update
// share the scan code.
func (s *ReservationStore) loadAttendees(ctx context.Context, q querier, sessionID uint64) ([]model.Attendee, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+attendeeCols+` FROM attendees WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Attendee
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func scanAttendee(row rowScanner) (*model.Attendee, error) {
	var (
		a         model.Attendee
		invited   sql.NullTime
		booked    sql.NullTime
		confirmed sql.NullTime
		cancelled sql.NullTime
		attended  sql.NullTime
	)
	err := row.Scan(
		&a.SessionID, &a.UserID, &a.Status, &a.Source,
		&invited, &booked, &confirmed, &cancelled, &attended,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.InvitedAt = nullTime(invited)
	a.BookedAt = nullTime(booked)
	a.ConfirmedAt = nullTime(confirmed)
	a.CancelledAt = nullTime(cancelled)
	a.AttendedAt = nullTime(attended)
	return &a, nil
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// upsertAttendee writes one row keyed by (session_id, user_id).  The
// composite unique key guarantees at most one row per pair; re-invites
// update in place rather than duplicating.
func upsertAttendee(ctx context.Context, tx *sql.Tx, a *model.Attendee) error {
	const q = `INSERT INTO attendees
        (session_id, user_id, status, source, invited_at, booked_at,
         confirmed_at, cancelled_at, attended_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE
         status = VALUES(status), source = VALUES(source),
         invited_at = VALUES(invited_at), booked_at = VALUES(booked_at),
         confirmed_at = VALUES(confirmed_at), cancelled_at = VALUES(cancelled_at),
         attended_at = VALUES(attended_at)`
	_, err := tx.ExecContext(ctx, q,
		a.SessionID, a.UserID, a.Status, a.Source,
		a.InvitedAt, a.BookedAt, a.ConfirmedAt, a.CancelledAt, a.AttendedAt)
	return err
}
