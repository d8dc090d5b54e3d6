package middleware

// identity.go holds small helpers shared across middleware files.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID renders the authenticated user id as a string for rate
// limit keys.  Unauthenticated requests share the "anon" bucket.
func currentUserID(c echo.Context) string {
	return claimString(c, CtxUserID, "anon")
}

// currentCompanyID renders the authenticated company id as a string for
// tenant-scoped cache keys.
func currentCompanyID(c echo.Context) string {
	return claimString(c, CtxCompanyID, "anon")
}

// claimString renders a numeric-or-string context claim, falling back to
// def when the claim is absent.  JWT numbers arrive as float64; tests
// and internal callers may set raw integer types.
func claimString(c echo.Context, key, def string) string {
	v := c.Get(key)
	if v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		return fmt.Sprintf("%.0f", t)
	case uint64:
		return fmt.Sprintf("%d", t)
	case int:
		return fmt.Sprintf("%d", t)
	}
	return def
}
