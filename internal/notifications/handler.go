package notifications

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/middleware"
)

// Handler handles notification HTTP requests.
type Handler struct {
	store Store
}

// NewHandler creates a new notification handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// List handles GET /api/notifications.
func (h *Handler) List(c echo.Context) error {
	list, err := h.store.List(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	if list == nil {
		list = []Notification{}
	}
	return c.JSON(http.StatusOK, list)
}

// Dismiss handles DELETE /api/notifications/:id.
func (h *Handler) Dismiss(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperror.NewBadRequest("invalid notification id")
	}

	if err := h.store.Remove(c.Request().Context(), middleware.UserID(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Clear handles DELETE /api/notifications.
func (h *Handler) Clear(c echo.Context) error {
	if err := h.store.Clear(c.Request().Context(), middleware.UserID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
