package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/caretrain/session-booking/internal/model"
	"github.com/caretrain/session-booking/internal/repository"
)

// SessionHandler serves session CRUD for company-level actors plus the
// read endpoints everyone uses to browse upcoming sessions.
type SessionHandler struct {
	Sessions *repository.SessionRepo
}

func NewSessionHandler(sessions *repository.SessionRepo) *SessionHandler {
	return &SessionHandler{Sessions: sessions}
}

type createSessionRequest struct {
	CourseID        uint64     `json:"course_id"`
	Capacity        int        `json:"capacity"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
	ConfirmDeadline *time.Time `json:"confirm_deadline"`
	Status          string     `json:"status"`
	Location        *string    `json:"location"`
	Notes           *string    `json:"notes"`
}

type sessionResponse struct {
	ID              uint64     `json:"id"`
	CompanyID       uint64     `json:"company_id"`
	CourseID        uint64     `json:"course_id"`
	Capacity        int        `json:"capacity"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	ConfirmDeadline *time.Time `json:"confirm_deadline,omitempty"`
	Status          string     `json:"status"`
	Location        *string    `json:"location,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toSessionResponse(s *model.Session) sessionResponse {
	return sessionResponse{
		ID:              s.ID,
		CompanyID:       s.CompanyID,
		CourseID:        s.CourseID,
		Capacity:        s.Capacity,
		StartsAt:        s.StartsAt,
		EndsAt:          s.EndsAt,
		ConfirmDeadline: s.ConfirmDeadline,
		Status:          string(s.Status),
		Location:        s.Location,
		Notes:           s.Notes,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// Create inserts a session for the actor's company.
func (h *SessionHandler) Create(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.CourseID == 0 || req.StartsAt.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "course_id and starts_at are required"})
	}
	if req.Capacity < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be at least 1"})
	}
	status := model.SessionStatus(req.Status)
	switch status {
	case "":
		status = model.SessionPublished
	case model.SessionDraft, model.SessionPublished:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be DRAFT or PUBLISHED"})
	}

	sess := model.Session{
		CompanyID:       actor.CompanyID,
		CourseID:        req.CourseID,
		Capacity:        req.Capacity,
		StartsAt:        req.StartsAt.UTC(),
		EndsAt:          req.EndsAt,
		ConfirmDeadline: req.ConfirmDeadline,
		Status:          status,
		Location:        req.Location,
		Notes:           req.Notes,
	}
	if err := h.Sessions.Create(c.Request().Context(), &sess); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create session"})
	}
	return c.JSON(http.StatusCreated, toSessionResponse(&sess))
}

// List returns the actor's company sessions, soonest first.
func (h *SessionHandler) List(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessions, err := h.Sessions.ListByCompany(c.Request().Context(), actor.CompanyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list sessions"})
	}
	out := make([]sessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, toSessionResponse(&sessions[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"sessions": out})
}

// Get returns one session owned by the actor's company.
func (h *SessionHandler) Get(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	sess, err := h.Sessions.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load session"})
	}
	if sess.CompanyID != actor.CompanyID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
	}
	return c.JSON(http.StatusOK, toSessionResponse(sess))
}

// Delete hard-deletes a session and, via the foreign key, its attendee
// rows.
func (h *SessionHandler) Delete(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	err = h.Sessions.Delete(c.Request().Context(), id, actor.CompanyID)
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "session belongs to another company"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete session"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "session deleted"})
}
