package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/caretrain/session-booking/internal/config"
)

func cacheCtx(t *testing.T, target string, companyID interface{}) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/sessions")
	if companyID != nil {
		c.Set(CtxCompanyID, companyID)
	}
	return c
}

func TestCacheKeyIsTenantScoped(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}

	t.Run("different companies never share a key", func(t *testing.T) {
		a := cacheKeyFrom(cfg, cacheCtx(t, "/v1/sessions", float64(1)))
		b := cacheKeyFrom(cfg, cacheCtx(t, "/v1/sessions", float64(2)))
		assert.NotEqual(t, a, b)
	})

	t.Run("same company and request hit the same key", func(t *testing.T) {
		a := cacheKeyFrom(cfg, cacheCtx(t, "/v1/sessions", float64(1)))
		b := cacheKeyFrom(cfg, cacheCtx(t, "/v1/sessions", float64(1)))
		assert.Equal(t, a, b)
	})

	t.Run("claim type does not change the key", func(t *testing.T) {
		// JWT claims decode as float64; fixtures may set uint64 directly.
		a := cacheKeyFrom(cfg, cacheCtx(t, "/v1/sessions", float64(7)))
		b := cacheKeyFrom(cfg, cacheCtx(t, "/v1/sessions", uint64(7)))
		assert.Equal(t, a, b)
	})

	t.Run("query string still differentiates entries", func(t *testing.T) {
		a := cacheKeyFrom(cfg, cacheCtx(t, "/v1/sessions?page=1", float64(1)))
		b := cacheKeyFrom(cfg, cacheCtx(t, "/v1/sessions?page=2", float64(1)))
		assert.NotEqual(t, a, b)
	})

	t.Run("missing claim falls into its own bucket", func(t *testing.T) {
		anon := cacheKeyFrom(cfg, cacheCtx(t, "/v1/sessions", nil))
		one := cacheKeyFrom(cfg, cacheCtx(t, "/v1/sessions", float64(1)))
		assert.NotEqual(t, anon, one)
	})

	t.Run("tenant scope applies to every strategy", func(t *testing.T) {
		for _, strategy := range []string{"route", "method_route", "method_route_query", "route_query"} {
			c := config.CacheConfig{Prefix: "cache", KeyStrategy: strategy}
			a := cacheKeyFrom(c, cacheCtx(t, "/v1/sessions", float64(1)))
			b := cacheKeyFrom(c, cacheCtx(t, "/v1/sessions", float64(2)))
			assert.NotEqual(t, a, b, "strategy %s", strategy)
		}
	})
}
