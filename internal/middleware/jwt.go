package middleware // reusable HTTP middleware for authentication and authorization

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys populated by JWTAuth.  Handlers read the acting identity
// back through handler.ActorFrom; the booking engine never sees a token.
const (
	CtxUserID    = "user_id"
	CtxRole      = "role"
	CtxCompanyID = "company_id"
	CtxHomeIDs   = "home_ids"
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the subject, role, company and home-scope claims
// into the request context.  The secret must match the one used when
// issuing tokens.  Protected routes wrap this so handlers can build the
// acting identity without touching the token themselves.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				// Only HS256 tokens are issued; reject anything else.
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			c.Set(CtxUserID, claims["sub"])
			c.Set(CtxRole, claims["role"])
			c.Set(CtxCompanyID, claims["company_id"])
			if homes, ok := claims["home_ids"]; ok {
				c.Set(CtxHomeIDs, homes)
			}
			return next(c)
		}
	}
}
