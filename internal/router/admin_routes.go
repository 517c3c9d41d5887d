package router

import (
	"github.com/labstack/echo/v4"

	"github.com/evertix/ticketing/internal/handler"
)

// RegisterAdmin registers the catalog administration endpoints under
// /v1/admin. All routes require a valid JWT with the admin role.
func RegisterAdmin(e *echo.Echo, v *handler.AdminVenueHandler, ev *handler.AdminEventHandler, p *handler.AdminPricingHandler, auth *AuthChain) {
	g := e.Group("/v1/admin", auth.Admin...)

	// Venues and sectors.
	g.POST("/venues", v.CreateVenue)
	g.PUT("/venues/:id", v.UpdateVenue)
	g.DELETE("/venues/:id", v.DeleteVenue)
	g.POST("/venues/:id/sectors", v.CreateSector)
	g.PUT("/sectors/:id", v.UpdateSector)
	g.DELETE("/sectors/:id", v.DeleteSector)

	// Events.
	g.POST("/events", ev.CreateEvent)
	g.PUT("/events/:id", ev.UpdateEvent)
	g.DELETE("/events/:id", ev.DeleteEvent)

	// Pricing and inventory.
	g.POST("/pricings", p.CreatePricing)
	g.PUT("/pricings/:id/price", p.UpdatePrice)
	g.POST("/pricings/:id/restock", p.Restock)
	g.DELETE("/pricings/:id", p.DeletePricing)
}
