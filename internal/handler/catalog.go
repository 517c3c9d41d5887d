package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evertix/ticketing/internal/repository"
	"github.com/evertix/ticketing/internal/utils"
)

// CatalogHandler serves the public, read-only catalog: event search,
// event detail with per-sector pricing, and venue browsing. All reads
// are snapshot reads; availability shown here is advisory and only the
// reservation engine's row lock decides who gets a ticket.
type CatalogHandler struct {
	Events   *repository.EventRepo
	Venues   *repository.VenueRepo
	Sectors  *repository.SectorRepo
	Pricings *repository.PricingRepo
}

func NewCatalogHandler(e *repository.EventRepo, v *repository.VenueRepo, s *repository.SectorRepo, p *repository.PricingRepo) *CatalogHandler {
	return &CatalogHandler{Events: e, Venues: v, Sectors: s, Pricings: p}
}

// parseEventFilter maps query parameters onto a repository filter.
// Timestamps accept RFC3339 or plain dates.
func parseEventFilter(c echo.Context) (repository.EventFilter, error) {
	var f repository.EventFilter
	if v := strings.TrimSpace(c.QueryParam("from")); v != "" {
		t, err := parseWhen(v)
		if err != nil {
			return f, err
		}
		f.From = &t
	}
	if v := strings.TrimSpace(c.QueryParam("to")); v != "" {
		t, err := parseWhen(v)
		if err != nil {
			return f, err
		}
		f.To = &t
	}
	f.Category = strings.TrimSpace(c.QueryParam("category"))
	f.Query = strings.TrimSpace(c.QueryParam("q"))
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Offset = n
		}
	}
	return f, nil
}

func parseWhen(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// SearchEvents handles GET /v1/events with optional from/to/category/q
// filters and limit/offset pagination.
func (h *CatalogHandler) SearchEvents(c echo.Context) error {
	f, err := parseEventFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date filter"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, total, err := h.Events.Search(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"events": events,
		"total":  total,
		"limit":  f.Limit,
		"offset": f.Offset,
	})
}

// pricingView decorates a pricing row with a formatted decimal price
// for display. All stored amounts stay in cents.
type pricingView struct {
	repository.PricingRow
	UnitPrice string `json:"unit_price"`
}

// GetEvent handles GET /v1/events/:id and returns the event together
// with its per-sector pricing and availability.
func (h *CatalogHandler) GetEvent(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	rows, err := h.Pricings.ListByEvent(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	pricing := make([]pricingView, 0, len(rows))
	for _, p := range rows {
		pricing = append(pricing, pricingView{PricingRow: p, UnitPrice: utils.FormatCents(uint64(p.UnitPriceCents))})
	}
	return c.JSON(http.StatusOK, echo.Map{"event": e, "pricing": pricing})
}

// ListVenues handles GET /v1/venues.
func (h *CatalogHandler) ListVenues(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	venues, err := h.Venues.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"venues": venues})
}

// GetVenue handles GET /v1/venues/:id with the venue's sectors.
func (h *CatalogHandler) GetVenue(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v, err := h.Venues.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrVenueNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	sectors, err := h.Sectors.ListByVenue(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"venue": v, "sectors": sectors})
}
