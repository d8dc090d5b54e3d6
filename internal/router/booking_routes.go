package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/caretrain/session-booking/internal/config"
	"github.com/caretrain/session-booking/internal/handler"
	"github.com/caretrain/session-booking/internal/middleware"
	"github.com/caretrain/session-booking/internal/model"
)

// BookingDeps bundles everything the protected route tree needs.
type BookingDeps struct {
	Sessions   *handler.SessionHandler
	Attendance *handler.AttendanceHandler
	Manage     *handler.ManageHandler
	JWTSecret  string
	Redis      *redis.Client
}

// RegisterBooking registers the session and attendance routes under /v1.
// Everything requires a valid access token.  Session CRUD is limited to
// company-level roles; invite/place/remove/outcome additionally admit
// managers, whose targets are home-scoped inside the handlers.  Claim
// and confirm are rate limited per user, and the browse reads sit behind
// the Redis response cache.
func RegisterBooking(e *echo.Echo, d BookingDeps) {
	companyOnly := middleware.RequireRole(model.RoleAdmin, model.RoleCompany)
	managers := middleware.RequireRole(model.RoleAdmin, model.RoleCompany, model.RoleManager)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Redis)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), d.Redis)

	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(d.JWTSecret))

	// Session lifecycle.  Managers may create sessions for their homes;
	// only company-level roles may delete.
	g.POST("/sessions", d.Sessions.Create, managers)
	g.GET("/sessions", d.Sessions.List, cache)
	g.GET("/sessions/:id", d.Sessions.Get, cache)
	g.DELETE("/sessions/:id", d.Sessions.Delete, companyOnly)

	// Self-service attendance.
	g.POST("/sessions/:id/claim", d.Attendance.Claim, limiter)
	g.POST("/sessions/:id/confirm", d.Attendance.Confirm, limiter)
	g.POST("/sessions/:id/decline", d.Attendance.Decline)
	g.POST("/sessions/:id/cancel", d.Attendance.Cancel)

	// Privileged management.
	g.POST("/sessions/:id/invite", d.Manage.Invite, managers)
	g.POST("/sessions/:id/force-place", d.Manage.ForcePlace, managers)
	g.DELETE("/sessions/:id/attendees/:user_id", d.Manage.Remove, managers)
	g.POST("/sessions/:id/outcome", d.Manage.Outcome, managers)
	g.GET("/sessions/:id/suggestions", d.Manage.Suggestions, managers)
	g.GET("/sessions/:id/stats", d.Manage.Stats, managers)
	g.GET("/sessions/:id/attendees", d.Manage.Roster, managers)
}
