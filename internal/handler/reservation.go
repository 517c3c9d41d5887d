package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/evertix/ticketing/internal/repository"
	"github.com/evertix/ticketing/internal/service"
)

// ReservationHandler exposes the purchase flow: reserve tickets, pay
// for a pending reservation, and list the caller's tickets and
// transactions.
type ReservationHandler struct {
	Reservations *service.ReservationService
	Payments     *service.PaymentService
	Tickets      *repository.TicketRepo
	Transactions *repository.TransactionRepo
}

func NewReservationHandler(r *service.ReservationService, p *service.PaymentService, t *repository.TicketRepo, tr *repository.TransactionRepo) *ReservationHandler {
	return &ReservationHandler{Reservations: r, Payments: p, Tickets: t, Transactions: tr}
}

type reserveReq struct {
	EventID  uint64 `json:"event_id"`
	SectorID uint64 `json:"sector_id"`
	Quantity uint32 `json:"quantity"`
}

type confirmReq struct {
	Card service.CardDetails `json:"card"`
}

// Reserve handles POST /v1/reservations. The Idempotency-Key header is
// mandatory: retrying with the same key and body returns the original
// reservation with HTTP 200 instead of 201.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	accountID, ok := getAccountID(c)
	if !ok {
		return nil
	}
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	key := strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))
	if key == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Idempotency-Key header required"})
	}

	res, err := h.Reservations.Reserve(c.Request().Context(), service.ReserveInput{
		EventID:        req.EventID,
		SectorID:       req.SectorID,
		Quantity:       req.Quantity,
		BuyerAccountID: accountID,
		IdempotencyKey: key,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuantity):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be between 1 and 10"})
		case errors.Is(err, service.ErrInvalidIdempotencyKey):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Idempotency-Key must be a UUID"})
		case errors.Is(err, repository.ErrPricingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no pricing for event/sector"})
		case errors.Is(err, service.ErrInsufficientInventory):
			return c.JSON(http.StatusConflict, echo.Map{"error": "not enough tickets available"})
		case errors.Is(err, service.ErrIdempotencyConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "Idempotency-Key already used with different parameters"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation failed"})
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	return c.JSON(status, res)
}

// Confirm handles POST /v1/transactions/:id/confirm with the simulated
// card details. A decline releases the reservation and is reported as
// 402 so clients can distinguish it from validation failures.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	accountID, ok := getAccountID(c)
	if !ok {
		return nil
	}
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}
	var req confirmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	receipt, err := h.Payments.Confirm(c.Request().Context(), id, accountID, req.Card)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCard):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid card details"})
		case errors.Is(err, repository.ErrTransactionNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your transaction"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "transaction is not pending"})
		case errors.Is(err, service.ErrPaymentDeclined):
			return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment declined"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment failed"})
	}
	return c.JSON(http.StatusOK, receipt)
}

// MyTickets handles GET /v1/me/tickets.
func (h *ReservationHandler) MyTickets(c echo.Context) error {
	accountID, ok := getAccountID(c)
	if !ok {
		return nil
	}
	tickets, err := h.Tickets.ListByOwner(c.Request().Context(), accountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}

// MyTransactions handles GET /v1/me/transactions.
func (h *ReservationHandler) MyTransactions(c echo.Context) error {
	accountID, ok := getAccountID(c)
	if !ok {
		return nil
	}
	txns, err := h.Transactions.ListByBuyer(c.Request().Context(), accountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": txns})
}
