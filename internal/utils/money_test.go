package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceToCents(t *testing.T) {
	cases := map[string]uint32{
		"0":      0,
		"0.00":   0,
		"12.50":  1250,
		"12.5":   1250,
		"100":    10000,
		"99.99":  9999,
		"0.01":   1,
		"1250":   125000,
		"007.30": 730,
	}
	for in, want := range cases {
		got, err := ParsePriceToCents(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "abc", "-1", "-0.01", "12.505", "1e-3", "12,50", "50000000.00"} {
		_, err := ParsePriceToCents(in)
		assert.ErrorIs(t, err, ErrBadPrice, in)
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.00", FormatCents(0))
	assert.Equal(t, "12.50", FormatCents(1250))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "10000.00", FormatCents(1000000))
}
