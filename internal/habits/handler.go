package habits

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/middleware"
)

// Handler handles habit HTTP requests.
type Handler struct {
	service HabitService
}

// NewHandler creates a new habit handler.
func NewHandler(service HabitService) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/habits.
func (h *Handler) Create(c echo.Context) error {
	var input HabitInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	habit, err := h.service.Create(c.Request().Context(), middleware.UserID(c), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, habit)
}

// List handles GET /api/habits.
func (h *Handler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Get handles GET /api/habits/:id.
func (h *Handler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	habit, err := h.service.Get(c.Request().Context(), middleware.UserID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, habit)
}

// Update handles PUT /api/habits/:id.
func (h *Handler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var input HabitInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	habit, err := h.service.Update(c.Request().Context(), middleware.UserID(c), id, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, habit)
}

// Delete handles DELETE /api/habits/:id.
func (h *Handler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), middleware.UserID(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Complete handles POST /api/habits/:id/completions.
func (h *Handler) Complete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var input CompletionInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	completion, err := h.service.Complete(c.Request().Context(), middleware.UserID(c), id, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, completion)
}

// Uncomplete handles DELETE /api/habits/:id/completions/:date.
func (h *Handler) Uncomplete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.service.Uncomplete(c.Request().Context(),
		middleware.UserID(c), id, c.Param("date")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListCompletions handles GET /api/habits/:id/completions?from=...&to=...
func (h *Handler) ListCompletions(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	list, err := h.service.ListCompletions(c.Request().Context(),
		middleware.UserID(c), id, c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewBadRequest("invalid id")
	}
	return id, nil
}
