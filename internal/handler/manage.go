package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/caretrain/session-booking/internal/booking"
	"github.com/caretrain/session-booking/internal/model"
	"github.com/caretrain/session-booking/internal/repository"
)

// ManageHandler serves the privileged endpoints: inviting, placing and
// removing attendees, marking outcomes, and the roster/stats/suggestion
// reads.  Company-level actors act on any user of their company;
// managers only on users of their homes.
type ManageHandler struct {
	Engine    *booking.Engine
	Sessions  *repository.SessionRepo
	Attendees *repository.AttendeeRepo
}

func NewManageHandler(engine *booking.Engine, sessions *repository.SessionRepo, attendees *repository.AttendeeRepo) *ManageHandler {
	return &ManageHandler{Engine: engine, Sessions: sessions, Attendees: attendees}
}

type inviteRequest struct {
	UserIDs     []uint64 `json:"user_ids"`
	PriorityIDs []uint64 `json:"priority_ids"`
}

type placeRequest struct {
	UserID uint64 `json:"user_id"`
}

type outcomeRequest struct {
	UserID  uint64 `json:"user_id"`
	Outcome string `json:"outcome"`
}

// ownedSession loads a session and verifies the actor's company owns it.
// Returns nil after writing the error response.
func (h *ManageHandler) ownedSession(c echo.Context, actor Actor) *model.Session {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		return nil
	}
	sess, err := h.Sessions.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load session"})
		}
		return nil
	}
	if sess.CompanyID != actor.CompanyID {
		_ = c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		return nil
	}
	return sess
}

// scopeCheck verifies a manager only acts on users of their homes.
// Company-level actors pass through.  Returns false after writing the
// error response.
func (h *ManageHandler) scopeCheck(c echo.Context, actor Actor, userIDs []uint64) bool {
	if actor.Role != model.RoleManager {
		return true
	}
	visible, err := h.Attendees.VisibleUserIDs(c.Request().Context(), actor.CompanyID, actor.HomeIDs)
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not resolve home scope"})
		return false
	}
	set := make(map[uint64]bool, len(visible))
	for _, id := range visible {
		set[id] = true
	}
	for _, id := range userIDs {
		if !set[id] {
			_ = c.JSON(http.StatusForbidden, echo.Map{"error": "user outside your home scope"})
			return false
		}
	}
	return true
}

// actorSource classifies rows created by this actor.
func actorSource(actor Actor) model.AttendeeSource {
	if actor.Role == model.RoleManager {
		return model.SourceManager
	}
	return model.SourceCompany
}

// Invite creates INVITED rows in bulk.  priority_ids must be a subset of
// user_ids; those rows get source PRIORITY and reserve protected seats.
// The whole batch is rejected when the session is full or the new
// priority holds would exceed capacity.
func (h *ManageHandler) Invite(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sess := h.ownedSession(c, actor)
	if sess == nil {
		return nil
	}
	var req inviteRequest
	if err := c.Bind(&req); err != nil || len(req.UserIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_ids is required"})
	}
	ids := make(map[uint64]bool, len(req.UserIDs))
	for _, id := range req.UserIDs {
		ids[id] = true
	}
	for _, id := range req.PriorityIDs {
		if !ids[id] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "priority_ids must be a subset of user_ids"})
		}
	}
	if !h.scopeCheck(c, actor, req.UserIDs) {
		return nil
	}

	result, err := h.Engine.Invite(c.Request().Context(), sess.ID, req.UserIDs, req.PriorityIDs, actorSource(actor))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ForcePlace confirms a person directly.  Priority rows are always
// honorable; anyone else needs a free general seat.
func (h *ManageHandler) ForcePlace(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sess := h.ownedSession(c, actor)
	if sess == nil {
		return nil
	}
	var req placeRequest
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}
	if !h.scopeCheck(c, actor, []uint64{req.UserID}) {
		return nil
	}

	status, err := h.Engine.ForcePlace(c.Request().Context(), sess.ID, req.UserID, actorSource(actor))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"session_id": sess.ID, "user_id": req.UserID, "status": status})
}

// Remove takes a person off the session regardless of their status.
func (h *ManageHandler) Remove(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sess := h.ownedSession(c, actor)
	if sess == nil {
		return nil
	}
	userID, err := pathID(c, "user_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if !h.scopeCheck(c, actor, []uint64{userID}) {
		return nil
	}

	status, err := h.Engine.Remove(c.Request().Context(), sess.ID, userID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"session_id": sess.ID, "user_id": userID, "status": status})
}

// Outcome records ATTENDED or NO_SHOW for a confirmed attendee once the
// session has started.
func (h *ManageHandler) Outcome(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sess := h.ownedSession(c, actor)
	if sess == nil {
		return nil
	}
	var req outcomeRequest
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and outcome are required"})
	}
	outcome := model.AttendeeStatus(strings.ToUpper(strings.TrimSpace(req.Outcome)))
	if outcome != model.StatusAttended && outcome != model.StatusNoShow {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "outcome must be ATTENDED or NO_SHOW"})
	}
	if !h.scopeCheck(c, actor, []uint64{req.UserID}) {
		return nil
	}

	status, err := h.Engine.MarkOutcome(c.Request().Context(), sess.ID, req.UserID, outcome)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"session_id": sess.ID, "user_id": req.UserID, "status": status})
}

// Suggestions returns the ranked priority candidates for a session's
// course.  Managers only see users of their homes.
func (h *ManageHandler) Suggestions(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sess := h.ownedSession(c, actor)
	if sess == nil {
		return nil
	}
	var visible []uint64
	if actor.Role == model.RoleManager {
		visible, err = h.Attendees.VisibleUserIDs(c.Request().Context(), actor.CompanyID, actor.HomeIDs)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not resolve home scope"})
		}
	}
	candidates, err := h.Engine.SuggestCandidates(c.Request().Context(), sess.CompanyID, sess.CourseID, sess.ID, visible)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"session_id": sess.ID, "candidates": candidates})
}

// Stats returns the capacity arithmetic of a session.
func (h *ManageHandler) Stats(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sess := h.ownedSession(c, actor)
	if sess == nil {
		return nil
	}
	usage, err := h.Engine.Stats(c.Request().Context(), sess.ID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, usage)
}

// Roster returns every attendee row of a session with directory info.
func (h *ManageHandler) Roster(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sess := h.ownedSession(c, actor)
	if sess == nil {
		return nil
	}
	roster, err := h.Attendees.ListRoster(c.Request().Context(), sess.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load roster"})
	}
	return c.JSON(http.StatusOK, echo.Map{"session_id": sess.ID, "attendees": roster})
}
