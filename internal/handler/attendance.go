package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/caretrain/session-booking/internal/booking"
	"github.com/caretrain/session-booking/internal/model"
	"github.com/caretrain/session-booking/internal/queue"
	queue_publisher "github.com/caretrain/session-booking/internal/service"
)

// AttendanceHandler serves the self-service endpoints: a person acting
// on their own attendance row.  Every mutation goes through the engine;
// the handler only translates HTTP to engine calls and publishes the
// confirmation event after a seat is committed.
type AttendanceHandler struct {
	Engine *booking.Engine
	Store  booking.Store
}

func NewAttendanceHandler(engine *booking.Engine, store booking.Store) *AttendanceHandler {
	return &AttendanceHandler{Engine: engine, Store: store}
}

// Claim lets the actor claim a spot on a session.  Priority invitees
// always land CONFIRMED; everyone else is CONFIRMED while general seats
// remain and WAITLISTED after, never rejected for capacity.
func (h *AttendanceHandler) Claim(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	status, err := h.Engine.Claim(c.Request().Context(), sessionID, actor.UserID)
	if err != nil {
		return bookingError(c, err)
	}
	if status == model.StatusConfirmed {
		h.publishConfirmed(sessionID, actor.UserID)
	}
	return c.JSON(http.StatusOK, echo.Map{"session_id": sessionID, "status": status})
}

// Confirm lets the actor confirm an existing invite or waitlist spot.
func (h *AttendanceHandler) Confirm(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	status, err := h.Engine.Confirm(c.Request().Context(), sessionID, actor.UserID)
	if err != nil {
		return bookingError(c, err)
	}
	if status == model.StatusConfirmed {
		h.publishConfirmed(sessionID, actor.UserID)
	}
	return c.JSON(http.StatusOK, echo.Map{"session_id": sessionID, "status": status})
}

// Decline lets the actor turn down an invite or waitlist spot.
func (h *AttendanceHandler) Decline(c echo.Context) error {
	return h.cancel(c, func(ctx context.Context, sessionID, userID uint64) (model.AttendeeStatus, error) {
		return h.Engine.Decline(ctx, sessionID, userID)
	})
}

// Cancel lets the actor give up a confirmed seat.
func (h *AttendanceHandler) Cancel(c echo.Context) error {
	return h.cancel(c, func(ctx context.Context, sessionID, userID uint64) (model.AttendeeStatus, error) {
		return h.Engine.CancelAttendance(ctx, sessionID, userID)
	})
}

func (h *AttendanceHandler) cancel(c echo.Context, op func(ctx context.Context, sessionID, userID uint64) (model.AttendeeStatus, error)) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	status, err := op(c.Request().Context(), sessionID, actor.UserID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"session_id": sessionID, "status": status})
}

// publishConfirmed emits the attendance.confirmed event off the request
// path.  The seat is already committed; a broker outage only costs the
// notification.
func (h *AttendanceHandler) publishConfirmed(sessionID, userID uint64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		snap, err := h.Store.View(ctx, sessionID)
		if err != nil {
			return
		}
		source := string(model.SourceSelf)
		confirmedAt := time.Now().UTC()
		if row := snap.Attendee(userID); row != nil {
			source = string(row.Source)
			if row.ConfirmedAt != nil {
				confirmedAt = *row.ConfirmedAt
			}
		}
		_ = queue_publisher.PublishAttendanceConfirmed(ctx, queue.AttendanceConfirmedEvent{
			SessionID:   sessionID,
			CourseID:    snap.Session.CourseID,
			CompanyID:   snap.Session.CompanyID,
			UserID:      userID,
			Source:      source,
			StartsAt:    snap.Session.StartsAt.UTC().Format(time.RFC3339),
			ConfirmedAt: confirmedAt.Format(time.RFC3339),
		})
	}()
}
