package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/caretrain/session-booking/internal/model"
)

func row(userID uint64, status model.AttendeeStatus, source model.AttendeeSource) model.Attendee {
	return model.Attendee{SessionID: 1, UserID: userID, Status: status, Source: source}
}

func TestComputeUsage(t *testing.T) {
	sess := &model.Session{ID: 1, Capacity: 3, Status: model.SessionPublished}

	t.Run("empty session", func(t *testing.T) {
		u := ComputeUsage(sess, nil)
		assert.Equal(t, 3, u.Capacity)
		assert.Equal(t, 0, u.Used)
		assert.Equal(t, 3, u.GeneralRemaining)
		assert.False(t, u.IsFull)
	})

	t.Run("priority invite reserves a seat before the person acts", func(t *testing.T) {
		u := ComputeUsage(sess, []model.Attendee{
			row(1, model.StatusInvited, model.SourcePriority),
		})
		assert.Equal(t, 1, u.PriorityHolds)
		assert.Equal(t, 0, u.ConfirmedNonPriority)
		assert.Equal(t, 1, u.Used)
		assert.Equal(t, 2, u.GeneralRemaining)
	})

	t.Run("non-priority invite holds nothing", func(t *testing.T) {
		u := ComputeUsage(sess, []model.Attendee{
			row(1, model.StatusInvited, model.SourceCompany),
			row(2, model.StatusInvited, model.SourceManager),
		})
		assert.Equal(t, 0, u.Used)
		assert.Equal(t, 3, u.GeneralRemaining)
	})

	t.Run("cancelled and waitlisted priority rows hold nothing", func(t *testing.T) {
		u := ComputeUsage(sess, []model.Attendee{
			row(1, model.StatusCancelled, model.SourcePriority),
			row(2, model.StatusWaitlisted, model.SourcePriority),
		})
		assert.Equal(t, 0, u.PriorityHolds)
		assert.Equal(t, 3, u.GeneralRemaining)
	})

	t.Run("mixed tiers fill independently", func(t *testing.T) {
		// Capacity 3: one priority hold plus two general confirmations.
		u := ComputeUsage(sess, []model.Attendee{
			row(1, model.StatusInvited, model.SourcePriority),
			row(2, model.StatusConfirmed, model.SourceSelf),
			row(3, model.StatusConfirmed, model.SourceCompany),
		})
		assert.Equal(t, 1, u.PriorityHolds)
		assert.Equal(t, 2, u.ConfirmedNonPriority)
		assert.Equal(t, 3, u.Used)
		assert.Equal(t, 0, u.GeneralRemaining)
		assert.True(t, u.IsFull)
	})

	t.Run("confirmed priority row counts in the priority tier", func(t *testing.T) {
		u := ComputeUsage(sess, []model.Attendee{
			row(1, model.StatusConfirmed, model.SourcePriority),
		})
		assert.Equal(t, 1, u.PriorityHolds)
		assert.Equal(t, 0, u.ConfirmedNonPriority)
	})

	t.Run("attended and no-show keep counting against nothing", func(t *testing.T) {
		// Outcome marking happens after the session; capacity arithmetic
		// for a past session is irrelevant, but the numbers stay sane.
		u := ComputeUsage(sess, []model.Attendee{
			row(1, model.StatusAttended, model.SourceSelf),
			row(2, model.StatusNoShow, model.SourcePriority),
		})
		assert.Equal(t, 0, u.Used)
	})

	t.Run("general remaining never goes negative", func(t *testing.T) {
		small := &model.Session{ID: 2, Capacity: 1, Status: model.SessionPublished}
		u := ComputeUsage(small, []model.Attendee{
			row(1, model.StatusInvited, model.SourcePriority),
			row(2, model.StatusInvited, model.SourcePriority),
		})
		assert.Equal(t, 2, u.Used)
		assert.Equal(t, 0, u.GeneralRemaining)
		assert.True(t, u.IsFull)
	})
}
