// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/travel-journal/internal/config"
	"github.com/iliyamo/travel-journal/internal/handler"
	"github.com/iliyamo/travel-journal/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication: the
// health check and static serving of stored attachments.
func RegisterRoutes(e *echo.Echo, uploadDir string) {
	e.GET("/healthz", handler.Health)
	// Attachment references returned by the engine are paths under
	// /uploads; serve them from the upload directory.
	e.Static("/uploads", uploadDir)
}

// RegisterAuth registers the auth endpoints. The unauthenticated ones
// (register, login, refresh, logout) sit behind the Redis rate limiter;
// /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rdb *redis.Client, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "USER"))
	auth.GET("/me", a.Me)
}

// RegisterTickets registers the ticket CRUD surface (authenticated) and
// the anonymous public listing (cached).
func RegisterTickets(e *echo.Echo, t *handler.TicketHandler, rdb *redis.Client, jwtSecret string) {
	auth := e.Group("/v1/tickets")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "USER"))
	auth.GET("", t.List)
	auth.POST("", t.Create)
	auth.GET("/:id", t.Get)
	auth.PUT("/:id", t.Update)
	auth.DELETE("/:id", t.Delete)

	// Public metadata browse for anonymous visitors; same payload for
	// everyone, so it sits behind the response cache.
	e.GET("/v1/public/tickets", t.ListPublic,
		middleware.ResponseCache(config.LoadCacheConfig(), rdb))
}

// RegisterJournal registers the journal page endpoints. All of them
// require authentication; per-ticket access is decided by the engine.
func RegisterJournal(e *echo.Echo, j *handler.JournalHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN", "USER"))
	g.GET("/tickets/:id/journal/:page", j.GetPage)
	g.POST("/journal/pages/:id", j.SavePage)
	g.POST("/journal/images", j.UploadImage)
}
