package middleware

// identity.go resolves the authenticated external identity to an
// internal account ID, and provides the shared identity extraction
// helper used by the cache and rate-limit key builders.

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/evertix/ticketing/internal/service"
)

// ResolveAccount returns a middleware that maps the subject/email pair
// set by JWTAuth onto the internal account ID and stores it under
// "account_id" as a uint64.  Resolution failure is a hard 401: no
// handler may run against an unresolved identity.
func ResolveAccount(identities *service.IdentityService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sub, _ := c.Get("subject").(string)
			email, _ := c.Get("email").(string)
			if sub == "" || email == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing identity"})
			}
			accountID, err := identities.Resolve(c.Request().Context(), sub, email)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "identity resolution failed"})
			}
			c.Set("account_id", accountID)
			return next(c)
		}
	}
}

// identityKey extracts a stable identifier for the current requester,
// used to scope cache and rate-limit keys. It returns "guest" when no
// user is authenticated.
func identityKey(c echo.Context) string {
	if sub, ok := c.Get("subject").(string); ok && sub != "" {
		return sub
	}
	return "guest"
}
