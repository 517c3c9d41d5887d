package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLuhnValid(t *testing.T) {
	assert.True(t, luhnValid("4242424242424242"))
	assert.True(t, luhnValid("4000000000000002"))
	assert.False(t, luhnValid("4242424242424241"))
}

func TestValidateCard(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	base := CardDetails{Number: "4242 4242 4242 4242", HolderName: "Jane Roe", ExpiryMonth: 9, ExpiryYear: 2027, CVV: "123"}

	assert.NoError(t, validateCard(base, now))

	c := base
	c.Number = "1234"
	assert.ErrorIs(t, validateCard(c, now), ErrInvalidCard)

	c = base
	c.Number = "42424242424242ab"
	assert.ErrorIs(t, validateCard(c, now), ErrInvalidCard)

	c = base
	c.CVV = "12"
	assert.ErrorIs(t, validateCard(c, now), ErrInvalidCard)

	c = base
	c.ExpiryMonth = 13
	assert.ErrorIs(t, validateCard(c, now), ErrInvalidCard)

	// Expired last month.
	c = base
	c.ExpiryMonth = 7
	c.ExpiryYear = 2026
	assert.ErrorIs(t, validateCard(c, now), ErrInvalidCard)

	// Expiring this month is still valid until month end.
	c = base
	c.ExpiryMonth = 8
	c.ExpiryYear = 2026
	assert.NoError(t, validateCard(c, now))
}

func TestAuthorizeCard(t *testing.T) {
	assert.True(t, authorizeCard(CardDetails{Number: "4242424242424242"}))
	assert.False(t, authorizeCard(CardDetails{Number: "4000000000000002"}))
	assert.False(t, authorizeCard(CardDetails{Number: "4242424242424241"}))
	// Separators are stripped before the decline check.
	assert.False(t, authorizeCard(CardDetails{Number: "4000 0000 0000 0002"}))
}
