package notifications

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up notification routes, all authenticated.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	g := e.Group("/api/notifications", requireAuth)
	g.GET("", h.List)
	g.DELETE("/:id", h.Dismiss)
	g.DELETE("", h.Clear)
}
