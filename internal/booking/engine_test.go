package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caretrain/session-booking/internal/model"
)

type fakeDueSource struct {
	rows []model.DueStatus
	err  error
}

func (f *fakeDueSource) DueStatuses(ctx context.Context, companyID, courseID uint64) ([]model.DueStatus, error) {
	return f.rows, f.err
}

var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, sess model.Session, due *fakeDueSource) (*Engine, *MemStore) {
	t.Helper()
	if due == nil {
		due = &fakeDueSource{}
	}
	store := NewMemStore()
	store.PutSession(sess)
	eng := NewEngine(store, due).WithClock(func() time.Time { return testNow })
	return eng, store
}

func publishedSession(capacity int) model.Session {
	return model.Session{
		ID:        1,
		CompanyID: 1,
		CourseID:  7,
		Capacity:  capacity,
		StartsAt:  testNow.Add(48 * time.Hour),
		Status:    model.SessionPublished,
	}
}

func statusOf(t *testing.T, store *MemStore, sessionID, userID uint64) model.Attendee {
	t.Helper()
	snap, err := store.View(context.Background(), sessionID)
	require.NoError(t, err)
	row := snap.Attendee(userID)
	require.NotNil(t, row, "expected a row for user %d", userID)
	return *row
}

func TestClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh claim confirms while seats remain then waitlists", func(t *testing.T) {
		eng, store := newTestEngine(t, publishedSession(2), nil)

		for _, uid := range []uint64{10, 11} {
			got, err := eng.Claim(ctx, 1, uid)
			require.NoError(t, err)
			assert.Equal(t, model.StatusConfirmed, got)
		}
		got, err := eng.Claim(ctx, 1, 12)
		require.NoError(t, err, "a claim is never rejected for capacity")
		assert.Equal(t, model.StatusWaitlisted, got)

		row := statusOf(t, store, 1, 12)
		assert.Equal(t, model.SourceSelf, row.Source)
		assert.Nil(t, row.ConfirmedAt)
	})

	t.Run("priority invitee confirms even with no general seat", func(t *testing.T) {
		eng, store := newTestEngine(t, publishedSession(2), nil)
		store.PutAttendee(NewAttendee(1, 20, model.StatusInvited, model.SourcePriority, testNow))
		// Fill the one general seat that is left.
		_, err := eng.Claim(ctx, 1, 30)
		require.NoError(t, err)

		got, err := eng.Claim(ctx, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, got)

		usage, err := eng.Stats(ctx, 1)
		require.NoError(t, err)
		assert.True(t, usage.IsFull)
		assert.Equal(t, 1, usage.PriorityHolds)
	})

	t.Run("invited non-priority degrades to waitlist when full", func(t *testing.T) {
		eng, store := newTestEngine(t, publishedSession(1), nil)
		store.PutAttendee(NewAttendee(1, 20, model.StatusInvited, model.SourceCompany, testNow))
		_, err := eng.Claim(ctx, 1, 30)
		require.NoError(t, err)

		got, err := eng.Claim(ctx, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, model.StatusWaitlisted, got)
		assert.Equal(t, model.StatusWaitlisted, statusOf(t, store, 1, 20).Status)
	})

	t.Run("claim over a cancelled row starts a fresh booking", func(t *testing.T) {
		eng, store := newTestEngine(t, publishedSession(2), nil)
		_, err := eng.Claim(ctx, 1, 10)
		require.NoError(t, err)
		_, err = eng.CancelAttendance(ctx, 1, 10)
		require.NoError(t, err)

		got, err := eng.Claim(ctx, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, got)
		row := statusOf(t, store, 1, 10)
		assert.Nil(t, row.CancelledAt, "rebooking resets the old lifecycle")
	})

	t.Run("claim on a confirmed row is rejected", func(t *testing.T) {
		eng, _ := newTestEngine(t, publishedSession(2), nil)
		_, err := eng.Claim(ctx, 1, 10)
		require.NoError(t, err)
		_, err = eng.Claim(ctx, 1, 10)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("draft and cancelled sessions reject claims", func(t *testing.T) {
		for _, st := range []model.SessionStatus{model.SessionDraft, model.SessionCancelled} {
			sess := publishedSession(2)
			sess.Status = st
			eng, _ := newTestEngine(t, sess, nil)
			_, err := eng.Claim(ctx, 1, 10)
			assert.ErrorIs(t, err, ErrNotPermitted, "status %s", st)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		eng, _ := newTestEngine(t, publishedSession(2), nil)
		_, err := eng.Claim(ctx, 99, 10)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("confirms an invite inside the deadline", func(t *testing.T) {
		sess := publishedSession(2)
		deadline := testNow.Add(time.Hour)
		sess.ConfirmDeadline = &deadline
		eng, store := newTestEngine(t, sess, nil)
		store.PutAttendee(NewAttendee(1, 10, model.StatusInvited, model.SourceCompany, testNow))

		got, err := eng.Confirm(ctx, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, got)
	})

	t.Run("past the deadline the row is left unchanged", func(t *testing.T) {
		sess := publishedSession(2)
		deadline := testNow.Add(-time.Minute)
		sess.ConfirmDeadline = &deadline
		eng, store := newTestEngine(t, sess, nil)
		store.PutAttendee(NewAttendee(1, 10, model.StatusInvited, model.SourceCompany, testNow))

		_, err := eng.Confirm(ctx, 1, 10)
		require.ErrorIs(t, err, ErrConfirmDeadlinePassed)
		row := statusOf(t, store, 1, 10)
		assert.Equal(t, model.StatusInvited, row.Status)
		assert.Nil(t, row.ConfirmedAt)
	})

	t.Run("no row to confirm", func(t *testing.T) {
		eng, _ := newTestEngine(t, publishedSession(2), nil)
		_, err := eng.Confirm(ctx, 1, 10)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("degrades to waitlist when the general tier is full", func(t *testing.T) {
		eng, store := newTestEngine(t, publishedSession(1), nil)
		store.PutAttendee(NewAttendee(1, 20, model.StatusInvited, model.SourceManager, testNow))
		_, err := eng.Claim(ctx, 1, 30)
		require.NoError(t, err)

		got, err := eng.Confirm(ctx, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, model.StatusWaitlisted, got)
	})

	t.Run("already confirmed", func(t *testing.T) {
		eng, _ := newTestEngine(t, publishedSession(2), nil)
		_, err := eng.Claim(ctx, 1, 10)
		require.NoError(t, err)
		_, err = eng.Confirm(ctx, 1, 10)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestInvite(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts new rows and reports counts", func(t *testing.T) {
		eng, store := newTestEngine(t, publishedSession(5), nil)
		res, err := eng.Invite(ctx, 1, []uint64{10, 11, 12}, nil, model.SourceCompany)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Inserted)
		assert.Equal(t, 0, res.Reinvited)
		assert.Equal(t, model.StatusInvited, statusOf(t, store, 1, 10).Status)
	})

	t.Run("duplicate and zero ids are skipped", func(t *testing.T) {
		eng, _ := newTestEngine(t, publishedSession(5), nil)
		res, err := eng.Invite(ctx, 1, []uint64{10, 10, 0, 11}, nil, model.SourceCompany)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Inserted)
	})

	t.Run("re-inviting a live row keeps one row per person", func(t *testing.T) {
		eng, store := newTestEngine(t, publishedSession(5), nil)
		_, err := eng.Invite(ctx, 1, []uint64{10}, nil, model.SourceCompany)
		require.NoError(t, err)
		res, err := eng.Invite(ctx, 1, []uint64{10}, nil, model.SourceManager)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Inserted)
		assert.Equal(t, 1, res.Reinvited)

		snap, err := store.View(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, snap.Attendees, 1)
		assert.Equal(t, model.SourceManager, snap.Attendees[0].Source)
	})

	t.Run("a full session rejects the whole batch", func(t *testing.T) {
		eng, _ := newTestEngine(t, publishedSession(1), nil)
		_, err := eng.Claim(ctx, 1, 30)
		require.NoError(t, err)
		_, err = eng.Invite(ctx, 1, []uint64{10, 11}, nil, model.SourceCompany)
		assert.ErrorIs(t, err, ErrSessionFull)
	})

	t.Run("priority holds count against capacity as a batch", func(t *testing.T) {
		eng, store := newTestEngine(t, publishedSession(2), nil)
		// Two priority invites fit exactly; a third in the same batch
		// would overflow and must reject everything.
		res, err := eng.Invite(ctx, 1, []uint64{10, 11}, []uint64{10, 11}, model.SourceCompany)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Inserted)

		usage, err := eng.Stats(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, usage.PriorityHolds)
		assert.True(t, usage.IsFull)

		_, err = eng.Invite(ctx, 1, []uint64{12}, []uint64{12}, model.SourceCompany)
		assert.ErrorIs(t, err, ErrSessionFull)
		snap, err := store.View(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, snap.Attendee(12), "rejected batch leaves no rows behind")
	})

	t.Run("overflowing priority batch leaves earlier invitees unwritten", func(t *testing.T) {
		eng, store := newTestEngine(t, publishedSession(2), nil)
		_, err := eng.Invite(ctx, 1, []uint64{10, 11, 12}, []uint64{10, 11, 12}, model.SourceCompany)
		require.ErrorIs(t, err, ErrSessionFull)
		snap, err := store.View(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, snap.Attendees)
	})

	t.Run("non-priority invites never consume capacity", func(t *testing.T) {
		eng, _ := newTestEngine(t, publishedSession(1), nil)
		res, err := eng.Invite(ctx, 1, []uint64{10, 11, 12}, nil, model.SourceCompany)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Inserted)

		usage, err := eng.Stats(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, usage.Used)
	})

	t.Run("priority upgrade of a confirmed row moves tiers without changing totals", func(t *testing.T) {
		eng, store := newTestEngine(t, publishedSession(2), nil)
		_, err := eng.Claim(ctx, 1, 10)
		require.NoError(t, err)

		before, err := eng.Stats(ctx, 1)
		require.NoError(t, err)

		res, err := eng.Invite(ctx, 1, []uint64{10}, []uint64{10}, model.SourceCompany)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Reinvited)

		row := statusOf(t, store, 1, 10)
		assert.Equal(t, model.StatusConfirmed, row.Status, "a seated row keeps its status")
		assert.Equal(t, model.SourcePriority, row.Source)

		after, err := eng.Stats(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, before.Used, after.Used)
		assert.Equal(t, before.PriorityHolds+1, after.PriorityHolds)
	})

	t.Run("re-invite over a cancelled row", func(t *testing.T) {
		eng, store := newTestEngine(t, publishedSession(2), nil)
		_, err := eng.Invite(ctx, 1, []uint64{10}, nil, model.SourceCompany)
		require.NoError(t, err)
		_, err = eng.Decline(ctx, 1, 10)
		require.NoError(t, err)

		res, err := eng.Invite(ctx, 1, []uint64{10}, nil, model.SourceCompany)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Reinvited)
		row := statusOf(t, store, 1, 10)
		assert.Equal(t, model.StatusInvited, row.Status)
		assert.Nil(t, row.CancelledAt)
	})
}

func TestForcePlace(t *testing.T) {
	ctx := context.Background()

	t.Run("places a fresh person into a general seat", func(t *testing.T) {
		eng, store := newTestEngine(t, publishedSession(1), nil)
		got, err := eng.ForcePlace(ctx, 1, 10, model.SourceManager)
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, got)
		assert.Equal(t, model.SourceManager, statusOf(t, store, 1, 10).Source)
	})

	t.Run("rejects a fresh person when full", func(t *testing.T) {
		eng, _ := newTestEngine(t, publishedSession(1), nil)
		_, err := eng.ForcePlace(ctx, 1, 10, model.SourceCompany)
		require.NoError(t, err)
		_, err = eng.ForcePlace(ctx, 1, 11, model.SourceCompany)
		assert.ErrorIs(t, err, ErrSessionFull)
	})

	t.Run("a priority row is always honorable", func(t *testing.T) {
		eng, store := newTestEngine(t, publishedSession(1), nil)
		store.PutAttendee(NewAttendee(1, 20, model.StatusInvited, model.SourcePriority, testNow))

		got, err := eng.ForcePlace(ctx, 1, 20, model.SourceCompany)
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, got)
	})

	t.Run("ignores the confirm deadline", func(t *testing.T) {
		sess := publishedSession(2)
		deadline := testNow.Add(-time.Hour)
		sess.ConfirmDeadline = &deadline
		eng, store := newTestEngine(t, sess, nil)
		store.PutAttendee(NewAttendee(1, 10, model.StatusInvited, model.SourceCompany, testNow))

		got, err := eng.ForcePlace(ctx, 1, 10, model.SourceCompany)
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, got)
	})

	t.Run("settled rows are rejected", func(t *testing.T) {
		eng, store := newTestEngine(t, publishedSession(2), nil)
		a := NewAttendee(1, 10, model.StatusConfirmed, model.SourceSelf, testNow)
		store.PutAttendee(a)
		_, err := eng.ForcePlace(ctx, 1, 10, model.SourceCompany)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestCancelPaths(t *testing.T) {
	ctx := context.Background()

	t.Run("cancelling a confirmed seat frees it", func(t *testing.T) {
		eng, _ := newTestEngine(t, publishedSession(1), nil)
		_, err := eng.Claim(ctx, 1, 10)
		require.NoError(t, err)
		usage, err := eng.Stats(ctx, 1)
		require.NoError(t, err)
		require.True(t, usage.IsFull)

		got, err := eng.CancelAttendance(ctx, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, got)

		// The freed seat is immediately claimable.
		got, err = eng.Claim(ctx, 1, 11)
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, got)
	})

	t.Run("removal works regardless of status and capacity", func(t *testing.T) {
		eng, store := newTestEngine(t, publishedSession(1), nil)
		store.PutAttendee(NewAttendee(1, 20, model.StatusInvited, model.SourcePriority, testNow))

		got, err := eng.Remove(ctx, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, got)

		usage, err := eng.Stats(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, usage.PriorityHolds, "a cancelled priority row holds nothing")
	})

	t.Run("withdrawing from a cancelled session is allowed", func(t *testing.T) {
		sess := publishedSession(2)
		eng, store := newTestEngine(t, sess, nil)
		store.PutAttendee(NewAttendee(1, 10, model.StatusConfirmed, model.SourceSelf, testNow))
		sess.Status = model.SessionCancelled
		store.PutSession(sess)

		got, err := eng.CancelAttendance(ctx, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, got)
	})

	t.Run("declining without a row", func(t *testing.T) {
		eng, _ := newTestEngine(t, publishedSession(1), nil)
		_, err := eng.Decline(ctx, 1, 10)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cancelling twice", func(t *testing.T) {
		eng, _ := newTestEngine(t, publishedSession(1), nil)
		_, err := eng.Claim(ctx, 1, 10)
		require.NoError(t, err)
		_, err = eng.CancelAttendance(ctx, 1, 10)
		require.NoError(t, err)
		_, err = eng.CancelAttendance(ctx, 1, 10)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestMarkOutcome(t *testing.T) {
	ctx := context.Background()

	t.Run("marks attended after the session starts", func(t *testing.T) {
		sess := publishedSession(2)
		sess.StartsAt = testNow.Add(-time.Hour)
		eng, store := newTestEngine(t, sess, nil)
		store.PutAttendee(NewAttendee(1, 10, model.StatusConfirmed, model.SourceSelf, testNow.Add(-2*time.Hour)))

		got, err := eng.MarkOutcome(ctx, 1, 10, model.StatusAttended)
		require.NoError(t, err)
		assert.Equal(t, model.StatusAttended, got)
		require.NotNil(t, statusOf(t, store, 1, 10).AttendedAt)
	})

	t.Run("rejects marking before the session starts", func(t *testing.T) {
		eng, store := newTestEngine(t, publishedSession(2), nil)
		store.PutAttendee(NewAttendee(1, 10, model.StatusConfirmed, model.SourceSelf, testNow))
		_, err := eng.MarkOutcome(ctx, 1, 10, model.StatusNoShow)
		assert.ErrorIs(t, err, ErrNotPermitted)
	})

	t.Run("only confirmed rows can be marked", func(t *testing.T) {
		sess := publishedSession(2)
		sess.StartsAt = testNow.Add(-time.Hour)
		eng, store := newTestEngine(t, sess, nil)
		store.PutAttendee(NewAttendee(1, 10, model.StatusInvited, model.SourceCompany, testNow.Add(-2*time.Hour)))
		_, err := eng.MarkOutcome(ctx, 1, 10, model.StatusAttended)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("rejects anything but attended or no-show", func(t *testing.T) {
		eng, _ := newTestEngine(t, publishedSession(2), nil)
		_, err := eng.MarkOutcome(ctx, 1, 10, model.StatusCancelled)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("draft and cancelled sessions have no outcome to record", func(t *testing.T) {
		for _, st := range []model.SessionStatus{model.SessionDraft, model.SessionCancelled} {
			sess := publishedSession(2)
			sess.Status = st
			sess.StartsAt = testNow.Add(-time.Hour)
			eng, store := newTestEngine(t, sess, nil)
			store.PutAttendee(NewAttendee(1, 10, model.StatusConfirmed, model.SourceSelf, testNow.Add(-2*time.Hour)))
			_, err := eng.MarkOutcome(ctx, 1, 10, model.StatusAttended)
			assert.ErrorIs(t, err, ErrNotPermitted, "status %s", st)
			assert.Equal(t, model.StatusConfirmed, statusOf(t, store, 1, 10).Status)
		}
	})
}

func TestSuggestCandidates(t *testing.T) {
	ctx := context.Background()
	overdueDate := testNow.Add(-5 * 24 * time.Hour)

	t.Run("attached users are excluded, cancelled ones come back", func(t *testing.T) {
		due := &fakeDueSource{rows: []model.DueStatus{
			{UserID: 10, CourseID: 7, CompanyID: 1, Status: model.TrainingOverdue, NextDueDate: &overdueDate},
			{UserID: 11, CourseID: 7, CompanyID: 1, Status: model.TrainingOverdue, NextDueDate: &overdueDate},
		}}
		eng, store := newTestEngine(t, publishedSession(3), due)
		store.PutAttendee(NewAttendee(1, 10, model.StatusInvited, model.SourceCompany, testNow))
		cancelled := NewAttendee(1, 11, model.StatusInvited, model.SourceCompany, testNow)
		require.NoError(t, Transition(&cancelled, model.StatusCancelled, testNow))
		store.PutAttendee(cancelled)

		got, err := eng.SuggestCandidates(ctx, 1, 7, 1, nil)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, uint64(11), got[0].UserID)
		assert.Equal(t, 2005, got[0].Score)
	})

	t.Run("visible set restricts suggestions", func(t *testing.T) {
		due := &fakeDueSource{rows: []model.DueStatus{
			{UserID: 10, CourseID: 7, CompanyID: 1, Status: model.TrainingOverdue},
			{UserID: 11, CourseID: 7, CompanyID: 1, Status: model.TrainingOverdue},
		}}
		eng, _ := newTestEngine(t, publishedSession(3), due)
		got, err := eng.SuggestCandidates(ctx, 1, 7, 1, []uint64{11})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, uint64(11), got[0].UserID)
	})

	t.Run("a due source failure degrades to an empty list", func(t *testing.T) {
		due := &fakeDueSource{err: errors.New("records service down")}
		eng, _ := newTestEngine(t, publishedSession(3), due)
		got, err := eng.SuggestCandidates(ctx, 1, 7, 1, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NotNil(t, got)
	})
}

func TestConcurrentClaims(t *testing.T) {
	ctx := context.Background()

	t.Run("two claims race for one seat", func(t *testing.T) {
		eng, _ := newTestEngine(t, publishedSession(1), nil)

		results := make([]model.AttendeeStatus, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				got, err := eng.Claim(ctx, 1, uint64(100+i))
				assert.NoError(t, err)
				results[i] = got
			}(i)
		}
		wg.Wait()

		confirmed, waitlisted := 0, 0
		for _, r := range results {
			switch r {
			case model.StatusConfirmed:
				confirmed++
			case model.StatusWaitlisted:
				waitlisted++
			}
		}
		assert.Equal(t, 1, confirmed, "exactly one claim wins the seat")
		assert.Equal(t, 1, waitlisted)
	})

	t.Run("many claims never oversell", func(t *testing.T) {
		const capacity, claimers = 3, 16
		eng, _ := newTestEngine(t, publishedSession(capacity), nil)

		var wg sync.WaitGroup
		for i := 0; i < claimers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := eng.Claim(ctx, 1, uint64(200+i))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		usage, err := eng.Stats(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, capacity, usage.ConfirmedNonPriority)
		assert.Equal(t, 0, usage.GeneralRemaining)
		assert.True(t, usage.IsFull)
	})

	t.Run("claims racing cancellations keep the books consistent", func(t *testing.T) {
		const capacity = 2
		eng, _ := newTestEngine(t, publishedSession(capacity), nil)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(uid uint64) {
				defer wg.Done()
				got, err := eng.Claim(ctx, 1, uid)
				if err != nil {
					return
				}
				if got == model.StatusConfirmed && uid%2 == 0 {
					_, _ = eng.CancelAttendance(ctx, 1, uid)
				}
			}(uint64(300 + i))
		}
		wg.Wait()

		usage, err := eng.Stats(ctx, 1)
		require.NoError(t, err)
		assert.LessOrEqual(t, usage.Used, capacity)
		assert.GreaterOrEqual(t, usage.GeneralRemaining, 0)
	})
}
