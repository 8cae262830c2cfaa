package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up authentication routes. authLimit rate-limits the
// public endpoints; requireAuth guards logout.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth, authLimit echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/login", h.Login, authLimit)
	g.POST("/refresh-token", h.Refresh, authLimit)
	g.POST("/logout", h.Logout, requireAuth)
}
