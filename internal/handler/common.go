package handler // HTTP handlers for the session booking service

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/caretrain/session-booking/internal/booking"
	"github.com/caretrain/session-booking/internal/middleware"
	"github.com/caretrain/session-booking/internal/model"
)

// Actor is the authenticated identity acting on a request, rebuilt from
// the claims JWTAuth stored in the echo context.  HomeIDs is nil for
// company-level actors; for managers it lists the homes they may act
// on.
type Actor struct {
	UserID    uint64
	Role      model.Role
	CompanyID uint64
	HomeIDs   []uint64
}

// ActorFrom reads the identity claims back out of the request context.
// JWT numeric claims round-trip through JSON so they arrive as float64;
// handle the raw types too so tests can set values directly.
func ActorFrom(c echo.Context) (Actor, error) {
	uid, ok := asUint64(c.Get(middleware.CtxUserID))
	if !ok {
		return Actor{}, errors.New("missing user id claim")
	}
	role, _ := c.Get(middleware.CtxRole).(string)
	if role == "" {
		return Actor{}, errors.New("missing role claim")
	}
	cid, ok := asUint64(c.Get(middleware.CtxCompanyID))
	if !ok {
		return Actor{}, errors.New("missing company id claim")
	}
	a := Actor{UserID: uid, Role: model.Role(role), CompanyID: cid}
	switch homes := c.Get(middleware.CtxHomeIDs).(type) {
	case []interface{}:
		for _, h := range homes {
			if v, ok := asUint64(h); ok {
				a.HomeIDs = append(a.HomeIDs, v)
			}
		}
	case []uint64:
		a.HomeIDs = homes
	}
	return a, nil
}

// asUint64 converts whatever numeric type a claim arrives as.
func asUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case uint64:
		return n, true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case string:
		parsed, err := strconv.ParseUint(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// bookingError translates the engine's sentinel errors into HTTP
// responses.  Callers return the result directly; a nil error falls
// through to a 500 so unexpected failures are never mapped to a client
// fault.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrSessionFull):
		return c.JSON(http.StatusConflict, echo.Map{"error": "session is full"})
	case errors.Is(err, booking.ErrConfirmDeadlinePassed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "confirmation deadline has passed"})
	case errors.Is(err, booking.ErrInvalidTransition):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "attendance state does not allow this action"})
	case errors.Is(err, booking.ErrNotPermitted):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "operation not permitted"})
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, booking.ErrConflict):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "could not complete due to concurrent updates, retry"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
