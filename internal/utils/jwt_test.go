package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthSubjectFitsColumn(t *testing.T) {
	s := NewAuthSubject()
	// Stored in accounts.auth_subject CHAR(36).
	assert.Len(t, s, 36)
	_, err := uuid.Parse(s)
	assert.NoError(t, err)
	assert.NotEqual(t, s, NewAuthSubject())
}

func TestNewAccessTokenCarriesIdentityClaims(t *testing.T) {
	subject := NewAuthSubject()
	at, err := NewAccessToken("secret", subject, "jane@example.com", "user", 15)
	require.NoError(t, err)

	tok, err := jwt.Parse(at.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, subject, claims["sub"])
	assert.Equal(t, "jane@example.com", claims["email"])
	assert.Equal(t, "user", claims["role"])
}

func TestHashRefreshRaw(t *testing.T) {
	h := HashRefreshRaw("raw-token")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashRefreshRaw("raw-token"))
	assert.NotEqual(t, h, HashRefreshRaw("other"))
}
