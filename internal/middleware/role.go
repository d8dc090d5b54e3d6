package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caretrain/session-booking/internal/model"
)

// RequireRole enforces that the authenticated user holds one of the
// given roles, as extracted from the JWT's "role" claim by JWTAuth.
// Requests with a missing or disallowed role are rejected with 403,
// distinguishable from capacity failures so the caller knows to contact
// an admin rather than pick another session.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[string(r)] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
