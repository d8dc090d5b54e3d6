package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/caretrain/session-booking/internal/model"
)

// SessionRepo provides CRUD for training sessions outside the reservation
// critical section.  Attendee rows are never written here; that is the
// ReservationStore's job.  All timestamps are stored in UTC.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a new SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// DB exposes the underlying handle for callers that need to start their
// own transactions.
func (r *SessionRepo) DB() *sql.DB { return r.db }

// Create inserts a session and populates its generated ID and the
// DB-defaulted timestamps.  Capacity and course are fixed at creation
// for reservation purposes.
func (r *SessionRepo) Create(ctx context.Context, sess *model.Session) error {
	if sess.Capacity < 1 {
		return errors.New("capacity must be at least 1")
	}
	const q = `INSERT INTO sessions
        (company_id, course_id, capacity, starts_at, ends_at, confirm_deadline, status, location, notes)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		sess.CompanyID, sess.CourseID, sess.Capacity, sess.StartsAt,
		sess.EndsAt, sess.ConfirmDeadline, sess.Status, sess.Location, sess.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sess.ID = uint64(id)
	created, err := r.GetByID(ctx, sess.ID)
	if err != nil {
		return err
	}
	*sess = *created
	return nil
}

// GetByID fetches one session.  Returns ErrSessionNotFound when absent.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (*model.Session, error) {
	sess, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

// ListByCompany returns a company's sessions ordered by start time
// ascending, soonest first.
func (r *SessionRepo) ListByCompany(ctx context.Context, companyID uint64) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE company_id = ? ORDER BY starts_at ASC, id ASC`,
		companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sess)
	}
	return out, rows.Err()
}

// Delete hard-deletes a session after verifying company ownership.  The
// attendees foreign key cascades, removing the attendee rows with it.
// Returns ErrSessionNotFound when absent and ErrForbidden when owned by
// another company.
func (r *SessionRepo) Delete(ctx context.Context, id, companyID uint64) error {
	var owner uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT company_id FROM sessions WHERE id = ?`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		return err
	}
	if owner != companyID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}
