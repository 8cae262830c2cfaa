package notes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/middleware"
)

// Handler handles quick note HTTP requests.
type Handler struct {
	service NoteService
}

// NewHandler creates a new quick note handler.
func NewHandler(service NoteService) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/notes.
func (h *Handler) Create(c echo.Context) error {
	var input NoteInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	note, err := h.service.Create(c.Request().Context(), middleware.UserID(c), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, note)
}

// List handles GET /api/notes.
func (h *Handler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Get handles GET /api/notes/:id.
func (h *Handler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	note, err := h.service.Get(c.Request().Context(), middleware.UserID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, note)
}

// Update handles PUT /api/notes/:id.
func (h *Handler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var input NoteInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	note, err := h.service.Update(c.Request().Context(), middleware.UserID(c), id, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, note)
}

// Delete handles DELETE /api/notes/:id.
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

// pathID parses the :id path parameter.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewBadRequest("invalid id")
	}
	return id, nil
}
