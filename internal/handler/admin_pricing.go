package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evertix/ticketing/internal/model"
	"github.com/evertix/ticketing/internal/repository"
	"github.com/evertix/ticketing/internal/utils"
)

// AdminPricingHandler owns pricing and inventory administration. Stock
// changes only grow through Restock here; every decrement goes through
// the reservation engine.
type AdminPricingHandler struct {
	Pricings *repository.PricingRepo
	Events   *repository.EventRepo
	Sectors  *repository.SectorRepo
}

func NewAdminPricingHandler(p *repository.PricingRepo, e *repository.EventRepo, s *repository.SectorRepo) *AdminPricingHandler {
	return &AdminPricingHandler{Pricings: p, Events: e, Sectors: s}
}

type pricingReq struct {
	EventID          uint64 `json:"event_id"`
	SectorID         uint64 `json:"sector_id"`
	UnitPrice        string `json:"unit_price"` // decimal string, e.g. "59.90"
	AvailableTickets uint32 `json:"available_tickets"`
}

type priceReq struct {
	UnitPrice string `json:"unit_price"`
}

type restockReq struct {
	Delta uint32 `json:"delta"`
}

// CreatePricing handles POST /v1/admin/pricings. The initial stock plus
// what other pricing rows already allocate must fit in the sector's
// physical capacity.
func (h *AdminPricingHandler) CreatePricing(c echo.Context) error {
	var req pricingReq
	if err := c.Bind(&req); err != nil || req.EventID == 0 || req.SectorID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id, sector_id and unit_price required"})
	}
	priceCents, err := utils.ParsePriceToCents(req.UnitPrice)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid unit_price"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Events.GetByID(ctx, req.EventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !h.checkCapacity(ctx, c, req.SectorID, 0, uint64(req.AvailableTickets)) {
		return nil
	}

	p := &model.Pricing{
		EventID:          req.EventID,
		SectorID:         req.SectorID,
		UnitPriceCents:   priceCents,
		AvailableTickets: req.AvailableTickets,
	}
	if err := h.Pricings.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "pricing already exists for event/sector"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create pricing failed"})
	}
	return c.JSON(http.StatusCreated, p)
}

// UpdatePrice handles PUT /v1/admin/pricings/:id/price. Price changes
// never affect tickets already reserved or owned.
func (h *AdminPricingHandler) UpdatePrice(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}
	var req priceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	priceCents, err := utils.ParsePriceToCents(req.UnitPrice)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid unit_price"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Pricings.UpdatePrice(ctx, id, priceCents); err != nil {
		if errors.Is(err, repository.ErrPricingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pricing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update price failed"})
	}
	p, err := h.Pricings.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// Restock handles POST /v1/admin/pricings/:id/restock and adds delta
// tickets to the pool, bounded by the sector capacity.
func (h *AdminPricingHandler) Restock(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}
	var req restockReq
	if err := c.Bind(&req); err != nil || req.Delta == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "delta must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Pricings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPricingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pricing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !h.checkCapacity(ctx, c, p.SectorID, p.ID, uint64(p.AvailableTickets)+uint64(req.Delta)) {
		return nil
	}

	p, err = h.Pricings.Restock(ctx, id, req.Delta)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "restock failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// DeletePricing handles DELETE /v1/admin/pricings/:id. Pricing rows
// with sold tickets refuse with 409.
func (h *AdminPricingHandler) DeletePricing(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Pricings.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrPricingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pricing not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "pricing has tickets"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete pricing failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// checkCapacity verifies that want tickets for this pricing row, added
// to what the sector's other rows hold, stays within the physical
// capacity. On failure the response has already been written and the
// handler must return nil.
func (h *AdminPricingHandler) checkCapacity(ctx context.Context, c echo.Context, sectorID, excludePricingID, want uint64) bool {
	capacity, allocated, err := h.Pricings.SectorStock(ctx, sectorID, excludePricingID)
	if err != nil {
		if errors.Is(err, repository.ErrSectorNotFound) {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "sector not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		return false
	}
	if allocated+want > uint64(capacity) {
		_ = c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "stock exceeds sector capacity"})
		return false
	}
	return true
}
