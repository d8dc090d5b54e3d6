package repository

import (
	"context"
	"database/sql"

	"github.com/caretrain/session-booking/internal/model"
)

// TrainingRepo is the production due-status source consumed by the
// priority ranker.  It reads the training_records table, which an
// external compliance process keeps current; how due dates are computed
// is not this service's concern.
type TrainingRepo struct {
	db *sql.DB
}

// NewTrainingRepo returns a new TrainingRepo bound to the given database.
func NewTrainingRepo(db *sql.DB) *TrainingRepo { return &TrainingRepo{db: db} }

// DueStatuses implements booking.DueStatusSource.  Only OVERDUE and
// DUE_SOON rows are returned; UP_TO_DATE people are never candidates.
func (r *TrainingRepo) DueStatuses(ctx context.Context, companyID, courseID uint64) ([]model.DueStatus, error) {
	const q = `SELECT user_id, course_id, company_id, status, next_due_date
               FROM training_records
               WHERE company_id = ? AND course_id = ? AND status IN ('OVERDUE', 'DUE_SOON')`
	rows, err := r.db.QueryContext(ctx, q, companyID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.DueStatus
	for rows.Next() {
		var (
			ds  model.DueStatus
			due sql.NullTime
		)
		if err := rows.Scan(&ds.UserID, &ds.CourseID, &ds.CompanyID, &ds.Status, &due); err != nil {
			return nil, err
		}
		ds.NextDueDate = nullTime(due)
		out = append(out, ds)
	}
	return out, rows.Err()
}
