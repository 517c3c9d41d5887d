package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/evertix/ticketing/internal/repository"
	"github.com/evertix/ticketing/internal/service"
	"github.com/evertix/ticketing/internal/utils"
)

// ResaleHandler exposes the secondary market: list an owned ticket,
// cancel a listing, browse an event's listings and buy one.
type ResaleHandler struct {
	Resales  *service.ResaleService
	Listings *repository.ResaleRepo
}

func NewResaleHandler(r *service.ResaleService, l *repository.ResaleRepo) *ResaleHandler {
	return &ResaleHandler{Resales: r, Listings: l}
}

type listReq struct {
	TicketID uint64 `json:"ticket_id"`
	Price    string `json:"price"` // decimal string, e.g. "42.50"
}

type buyReq struct {
	Card service.CardDetails `json:"card"`
}

// Create handles POST /v1/resale/listings. The asking price is capped
// at the ticket's face value.
func (h *ResaleHandler) Create(c echo.Context) error {
	accountID, ok := getAccountID(c)
	if !ok {
		return nil
	}
	var req listReq
	if err := c.Bind(&req); err != nil || req.TicketID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_id and price required"})
	}
	priceCents, err := utils.ParsePriceToCents(req.Price)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid price"})
	}

	listing, err := h.Resales.List(c.Request().Context(), req.TicketID, accountID, priceCents)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTicketNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		case errors.Is(err, service.ErrNotOwner):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your ticket"})
		case errors.Is(err, service.ErrPriceExceedsFaceValue):
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "price exceeds face value"})
		case errors.Is(err, service.ErrAlreadyListed):
			return c.JSON(http.StatusConflict, echo.Map{"error": "ticket already listed"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "ticket is not owned"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "listing failed"})
	}
	return c.JSON(http.StatusCreated, listing)
}

// Cancel handles DELETE /v1/resale/listings/:id.
func (h *ResaleHandler) Cancel(c echo.Context) error {
	accountID, ok := getAccountID(c)
	if !ok {
		return nil
	}
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}

	if err := h.Resales.Cancel(c.Request().Context(), id, accountID); err != nil {
		switch {
		case errors.Is(err, repository.ErrListingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your listing"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "listing is not active"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Buy handles POST /v1/resale/listings/:id/buy with simulated card
// details. The whole settlement is atomic; a decline writes nothing.
func (h *ResaleHandler) Buy(c echo.Context) error {
	accountID, ok := getAccountID(c)
	if !ok {
		return nil
	}
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}
	var req buyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	receipt, err := h.Resales.Buy(c.Request().Context(), id, accountID, req.Card)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCard):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid card details"})
		case errors.Is(err, service.ErrPaymentDeclined):
			return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment declined"})
		case errors.Is(err, repository.ErrListingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "listing cannot be bought"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "purchase failed"})
	}
	return c.JSON(http.StatusOK, receipt)
}

// BrowseByEvent handles GET /v1/events/:id/resale (public).
func (h *ResaleHandler) BrowseByEvent(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}
	listings, err := h.Listings.ListActiveByEvent(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"listings": listings})
}

// MyListings handles GET /v1/me/resale/listings.
func (h *ResaleHandler) MyListings(c echo.Context) error {
	accountID, ok := getAccountID(c)
	if !ok {
		return nil
	}
	listings, err := h.Listings.ListByLister(c.Request().Context(), accountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"listings": listings})
}
