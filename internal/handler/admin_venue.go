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

// AdminVenueHandler owns the admin CRUD for venues and their sectors.
type AdminVenueHandler struct {
	Venues  *repository.VenueRepo
	Sectors *repository.SectorRepo
}

func NewAdminVenueHandler(v *repository.VenueRepo, s *repository.SectorRepo) *AdminVenueHandler {
	return &AdminVenueHandler{Venues: v, Sectors: s}
}

type venueReq struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity uint32 `json:"capacity"`
}

type sectorReq struct {
	Name     string `json:"name"`
	Capacity uint32 `json:"capacity"`
}

// CreateVenue handles POST /v1/admin/venues.
func (h *AdminVenueHandler) CreateVenue(c echo.Context) error {
	var req venueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and capacity required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v := &model.Venue{Name: req.Name, Location: strings.TrimSpace(req.Location), Capacity: req.Capacity}
	if err := h.Venues.Create(ctx, v); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create venue failed"})
	}
	return c.JSON(http.StatusCreated, v)
}

// UpdateVenue handles PUT /v1/admin/venues/:id.
func (h *AdminVenueHandler) UpdateVenue(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}
	var req venueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and capacity required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v := &model.Venue{ID: id, Name: req.Name, Location: strings.TrimSpace(req.Location), Capacity: req.Capacity}
	if err := h.Venues.Update(ctx, v); err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update venue failed"})
	}
	return c.JSON(http.StatusOK, v)
}

// DeleteVenue handles DELETE /v1/admin/venues/:id. Venues with sectors
// or events are protected and refuse with 409.
func (h *AdminVenueHandler) DeleteVenue(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Venues.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrVenueNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "venue has sectors or events"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete venue failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateSector handles POST /v1/admin/venues/:id/sectors.
func (h *AdminVenueHandler) CreateSector(c echo.Context) error {
	venueID, ok := pathID(c, "id")
	if !ok {
		return nil
	}
	var req sectorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and capacity required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Venues.GetByID(ctx, venueID); err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	s := &model.Sector{VenueID: venueID, Name: req.Name, Capacity: req.Capacity}
	if err := h.Sectors.Create(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create sector failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// UpdateSector handles PUT /v1/admin/sectors/:id.
func (h *AdminVenueHandler) UpdateSector(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}
	var req sectorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and capacity required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Sectors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSectorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sector not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	s.Name = req.Name
	s.Capacity = req.Capacity
	if err := h.Sectors.Update(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update sector failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// DeleteSector handles DELETE /v1/admin/sectors/:id. Sectors with
// pricing rows refuse with 409.
func (h *AdminVenueHandler) DeleteSector(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sectors.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrSectorNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sector not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "sector has pricing"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete sector failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
