package password

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/middleware"
)

// Handler handles password workflow HTTP requests.
type Handler struct {
	service PasswordService
}

// NewHandler creates a new password handler.
func NewHandler(service PasswordService) *Handler {
	return &Handler{service: service}
}

// ForgotPassword handles POST /api/password/forgot-password. Always answers
// 200 with the same body whether or not the account exists.
func (h *Handler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	if _, err := h.service.RequestReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "If an account exists for this email, a reset link has been sent.",
	})
}

// ResetPassword handles POST /api/password/reset-password.
func (h *Handler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	if err := h.service.ResetPassword(c.Request().Context(),
		req.Email, req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Password has been reset.",
	})
}

// ChangePassword handles POST /api/password/change-password.
func (h *Handler) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	if err := h.service.ChangePassword(c.Request().Context(),
		middleware.UserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Password has been changed.",
	})
}
