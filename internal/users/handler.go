package users

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/middleware"
)

// Handler handles user account HTTP requests.
type Handler struct {
	service UserService
}

// NewHandler creates a new user handler.
func NewHandler(service UserService) *Handler {
	return &Handler{service: service}
}

// Register handles POST /api/users/register.
func (h *Handler) Register(c echo.Context) error {
	var input RegisterInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	result, err := h.service.Register(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// Me handles GET /api/users/me.
func (h *Handler) Me(c echo.Context) error {
	user, err := h.service.GetByID(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdatePreferences handles PUT /api/users/me/preferences. The body is the
// preferences document itself, stored opaquely.
func (h *Handler) UpdatePreferences(c echo.Context) error {
	var prefs json.RawMessage
	if err := c.Bind(&prefs); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	if err := h.service.UpdatePreferences(c.Request().Context(), middleware.UserID(c), prefs); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteMe handles DELETE /api/users/me.
func (h *Handler) DeleteMe(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), middleware.UserID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
