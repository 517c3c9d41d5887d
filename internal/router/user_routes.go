package router

import (
	"github.com/labstack/echo/v4"

	"github.com/evertix/ticketing/internal/handler"
)

// RegisterUser registers the purchase and resale endpoints under /v1.
// All routes require a valid JWT and a resolved account; both regular
// users and admins may buy tickets.
func RegisterUser(e *echo.Echo, r *handler.ReservationHandler, res *handler.ResaleHandler, auth *AuthChain) {
	g := e.Group("/v1", auth.User...)

	// Reservation and payment. Reserve requires an Idempotency-Key
	// header; Confirm carries the simulated card details.
	g.POST("/reservations", r.Reserve)
	g.POST("/transactions/:id/confirm", r.Confirm)
	g.GET("/me/tickets", r.MyTickets)
	g.GET("/me/transactions", r.MyTransactions)

	// Secondary market.
	g.POST("/resale/listings", res.Create)
	g.DELETE("/resale/listings/:id", res.Cancel)
	g.POST("/resale/listings/:id/buy", res.Buy)
	g.GET("/me/resale/listings", res.MyListings)
}
