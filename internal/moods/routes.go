package moods

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up mood routes, all authenticated.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	g := e.Group("/api/moods", requireAuth)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/history", h.History)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
