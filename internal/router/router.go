package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evertix/ticketing/internal/handler"    // import the handlers that implement business logic
	"github.com/evertix/ticketing/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance: the health check and the Prometheus
// metrics endpoint.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems probe this to verify that
	// the service is up and running.
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers all authentication‑related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, auth *AuthChain) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token and returns a new pair.
	g.POST("/refresh", a.Refresh)
	// Logout requires a session: with a refresh_token in the body only
	// that session ends, otherwise all of the account's sessions do.
	g.POST("/logout", a.Logout, auth.User...)

	me := e.Group("/v1", auth.User...)
	me.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated browse endpoints: event
// search and detail, venue browsing and the resale listings of an
// event. These routes apply no JWT or role middleware and are intended
// for guests deciding what to buy.
func RegisterPublic(e *echo.Echo, cat *handler.CatalogHandler, res *handler.ResaleHandler) {
	e.GET("/v1/events", cat.SearchEvents)
	e.GET("/v1/events/:id", cat.GetEvent)
	e.GET("/v1/events/:id/resale", res.BrowseByEvent)
	e.GET("/v1/venues", cat.ListVenues)
	e.GET("/v1/venues/:id", cat.GetVenue)
}

// AuthChain bundles the middleware stacks shared by the route groups:
// User authenticates, resolves the account and admits both roles; Admin
// additionally requires the admin role.
type AuthChain struct {
	User  []echo.MiddlewareFunc
	Admin []echo.MiddlewareFunc
}

// NewAuthChain builds the shared middleware stacks from the JWT secret
// and the identity resolver middleware.
func NewAuthChain(jwtSecret string, resolve echo.MiddlewareFunc) *AuthChain {
	return &AuthChain{
		User: []echo.MiddlewareFunc{
			middleware.JWTAuth(jwtSecret),
			middleware.RequireRole("user", "admin"),
			resolve,
		},
		Admin: []echo.MiddlewareFunc{
			middleware.JWTAuth(jwtSecret),
			middleware.RequireRole("admin"),
			resolve,
		},
	}
}
