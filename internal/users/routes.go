package users

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up user account routes. requireAuth guards the
// profile routes; registerLimit rate-limits public registration.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth, registerLimit echo.MiddlewareFunc) {
	e.POST("/api/users/register", h.Register, registerLimit)

	g := e.Group("/api/users", requireAuth)
	g.GET("/me", h.Me)
	g.PUT("/me/preferences", h.UpdatePreferences)
	g.DELETE("/me", h.DeleteMe)
}
