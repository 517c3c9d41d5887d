package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getAccountID pulls the resolved account ID from the context. The
// identity middleware stores it as a uint64; a missing value means the
// route was registered without the middleware and is treated as
// unauthorized rather than a panic. On failure the 401 response has
// already been written and the handler must return nil.
func getAccountID(c echo.Context) (uint64, bool) {
	id, ok := c.Get("account_id").(uint64)
	if !ok || id == 0 {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		return 0, false
	}
	return id, true
}

// pathID parses a numeric path parameter. On failure the 400 response
// has already been written and the handler must return nil.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
