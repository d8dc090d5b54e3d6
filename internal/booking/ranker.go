package booking

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/caretrain/session-booking/internal/model"
)

// DueStatusSource supplies training due-status rows for a course within
// a company.  The production implementation reads the training_records
// table; tests substitute fixtures.  Failures from the source degrade
// the ranker to an empty suggestion list; ranking is advisory,
// reservation is not.
type DueStatusSource interface {
	DueStatuses(ctx context.Context, companyID, courseID uint64) ([]model.DueStatus, error)
}

// Scoring bases.  Any OVERDUE candidate outranks any DUE_SOON candidate:
// the deepest DUE_SOON score is 1000 (due today) while the mildest
// OVERDUE score is 2000.
const (
	overdueBase = 2000
	dueSoonBase = 1000
)

// Rank turns due-status rows into an ordered list of reservation
// candidates for one session.  Rows that are UP_TO_DATE, already
// attached to the session with a non-CANCELLED row, or outside the
// caller's visible user set are dropped.  The result is ordered by score
// descending with user id breaking ties for determinism.  Rank never
// mutates state; callers choose which candidates to actually invite.
func Rank(rows []model.DueStatus, attached map[uint64]bool, visible map[uint64]bool, now time.Time) []model.PriorityCandidate {
	out := make([]model.PriorityCandidate, 0, len(rows))
	for _, row := range rows {
		if row.Status != model.TrainingOverdue && row.Status != model.TrainingDueSoon {
			continue
		}
		if attached[row.UserID] {
			continue
		}
		if visible != nil && !visible[row.UserID] {
			continue
		}
		out = append(out, scoreCandidate(row, now))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// scoreCandidate computes the score and display reason for one row.
// days is the rounded whole-day distance to the due date; negative means
// the date is in the past.  A row without a due date scores at its base.
func scoreCandidate(row model.DueStatus, now time.Time) model.PriorityCandidate {
	c := model.PriorityCandidate{
		UserID:      row.UserID,
		Status:      row.Status,
		NextDueDate: row.NextDueDate,
	}
	days := 0
	if row.NextDueDate != nil {
		days = int(math.Round(row.NextDueDate.Sub(now).Hours() / 24))
	}
	if row.Status == model.TrainingOverdue {
		overdueDays := 0
		if days < 0 {
			overdueDays = -days
		}
		c.Score = overdueBase + overdueDays
		if row.NextDueDate == nil {
			c.Reason = "Overdue"
		} else {
			c.Reason = fmt.Sprintf("Overdue by %d days", overdueDays)
		}
		return c
	}
	c.Score = dueSoonBase - days
	if row.NextDueDate == nil {
		c.Reason = "Due soon"
	} else {
		c.Reason = fmt.Sprintf("Due in %d days", days)
	}
	return c
}
