package habits

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up habit routes, all authenticated.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	g := e.Group("/api/habits", requireAuth)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/completions", h.Complete)
	g.GET("/:id/completions", h.ListCompletions)
	g.DELETE("/:id/completions/:date", h.Uncomplete)
}
