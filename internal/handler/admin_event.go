package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evertix/ticketing/internal/model"
	"github.com/evertix/ticketing/internal/repository"
)

// AdminEventHandler owns the admin CRUD for catalog events.
type AdminEventHandler struct {
	Events *repository.EventRepo
	Venues *repository.VenueRepo
}

func NewAdminEventHandler(e *repository.EventRepo, v *repository.VenueRepo) *AdminEventHandler {
	return &AdminEventHandler{Events: e, Venues: v}
}

type eventReq struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	StartsAt    string  `json:"starts_at"` // RFC3339
	Organizer   string  `json:"organizer"`
	ImageURL    *string `json:"image_url"`
	VenueID     *uint64 `json:"venue_id"`
}

// bindEvent validates the request body into a model. The venue, when
// given, must exist. On failure the response has already been written
// and the handler must return nil.
func (h *AdminEventHandler) bindEvent(ctx context.Context, c echo.Context, e *model.Event) bool {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		return false
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.Category == "" || req.StartsAt == "" {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "title, category and starts_at required"})
		return false
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
		return false
	}
	if req.VenueID != nil {
		if _, err := h.Venues.GetByID(ctx, *req.VenueID); err != nil {
			if errors.Is(err, repository.ErrVenueNotFound) {
				_ = c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
			} else {
				_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
			}
			return false
		}
	}
	e.Title = req.Title
	e.Description = strings.TrimSpace(req.Description)
	e.Category = strings.TrimSpace(req.Category)
	e.StartsAt = startsAt.UTC()
	e.Organizer = strings.TrimSpace(req.Organizer)
	e.ImageURL = req.ImageURL
	e.VenueID = req.VenueID
	return true
}

// CreateEvent handles POST /v1/admin/events.
func (h *AdminEventHandler) CreateEvent(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var e model.Event
	if !h.bindEvent(ctx, c, &e) {
		return nil
	}
	if err := h.Events.Create(ctx, &e); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, e)
}

// UpdateEvent handles PUT /v1/admin/events/:id.
func (h *AdminEventHandler) UpdateEvent(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Events.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	e := model.Event{ID: id}
	if !h.bindEvent(ctx, c, &e) {
		return nil
	}
	if err := h.Events.Update(ctx, &e); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update event failed"})
	}
	return c.JSON(http.StatusOK, e)
}

// DeleteEvent handles DELETE /v1/admin/events/:id. Events with tickets
// or pricing refuse with 409.
func (h *AdminEventHandler) DeleteEvent(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Events.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "event has tickets or pricing"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete event failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
