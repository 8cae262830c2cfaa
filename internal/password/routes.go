package password

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up password workflow routes. resetLimit rate-limits
// the public endpoints; requireAuth guards change-password.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth, resetLimit echo.MiddlewareFunc) {
	g := e.Group("/api/password")
	g.POST("/forgot-password", h.ForgotPassword, resetLimit)
	g.POST("/reset-password", h.ResetPassword, resetLimit)
	g.POST("/change-password", h.ChangePassword, requireAuth)
}
