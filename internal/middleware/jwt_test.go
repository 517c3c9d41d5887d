package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evertix/ticketing/internal/utils"
)

const jwtTestSecret = "test-secret"

func jwtProtectedEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.GET("/v1/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"subject": c.Get("subject"),
			"email":   c.Get("email"),
			"role":    c.Get("role"),
		})
	}, JWTAuth(jwtTestSecret))
	return e
}

func TestJWTAuthInjectsClaims(t *testing.T) {
	e := jwtProtectedEcho(t)

	token, err := utils.NewAccessToken(jwtTestSecret, "local|abc", "jane@example.com", "user", 15)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"subject":"local|abc"`)
	assert.Contains(t, rec.Body.String(), `"email":"jane@example.com"`)
	assert.Contains(t, rec.Body.String(), `"role":"user"`)
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	e := jwtProtectedEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	e := jwtProtectedEcho(t)

	token, err := utils.NewAccessToken("other-secret", "local|abc", "jane@example.com", "user", 15)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
