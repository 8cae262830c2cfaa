package moods

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/middleware"
)

// Handler handles mood HTTP requests.
type Handler struct {
	service MoodService
}

// NewHandler creates a new mood handler.
func NewHandler(service MoodService) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/moods.
func (h *Handler) Create(c echo.Context) error {
	var input MoodInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	mood, err := h.service.Create(c.Request().Context(), middleware.UserID(c), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, mood)
}

// List handles GET /api/moods.
func (h *Handler) List(c echo.Context) error {
	list, err := h.service.History(c.Request().Context(), middleware.UserID(c), HistoryFilter{})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// History handles GET /api/moods/history?from=...&to=... with RFC 3339 or
// YYYY-MM-DD date bounds.
func (h *Handler) History(c echo.Context) error {
	filter, err := parseHistoryFilter(c)
	if err != nil {
		return err
	}

	list, err := h.service.History(c.Request().Context(), middleware.UserID(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Get handles GET /api/moods/:id.
func (h *Handler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	mood, err := h.service.Get(c.Request().Context(), middleware.UserID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mood)
}

// Update handles PUT /api/moods/:id.
func (h *Handler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var input MoodInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	mood, err := h.service.Update(c.Request().Context(), middleware.UserID(c), id, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mood)
}

// Delete handles DELETE /api/moods/:id.
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

// parseHistoryFilter reads the from/to query parameters.
func parseHistoryFilter(c echo.Context) (HistoryFilter, error) {
	var filter HistoryFilter

	if from := c.QueryParam("from"); from != "" {
		t, err := parseDate(from)
		if err != nil {
			return filter, apperror.NewBadRequest("invalid 'from' date")
		}
		filter.From = &t
	}
	if to := c.QueryParam("to"); to != "" {
		t, err := parseDate(to)
		if err != nil {
			return filter, apperror.NewBadRequest("invalid 'to' date")
		}
		filter.To = &t
	}
	return filter, nil
}

// parseDate accepts RFC 3339 timestamps or plain dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
