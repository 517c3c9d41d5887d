package utils

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrBadPrice is returned for prices that cannot be represented as a
// non-negative whole number of cents.
var ErrBadPrice = errors.New("price must be a non-negative amount with at most two decimal places")

var centsPerUnit = decimal.NewFromInt(100)

// ParsePriceToCents converts a decimal price string ("12.50") into
// integer cents. Negative amounts and sub-cent precision are rejected;
// all arithmetic and storage downstream use cents only.
func ParsePriceToCents(s string) (uint32, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrBadPrice
	}
	if d.IsNegative() || d.Exponent() < -2 {
		return 0, ErrBadPrice
	}
	cents := d.Mul(centsPerUnit)
	if !cents.IsInteger() {
		return 0, ErrBadPrice
	}
	v := cents.IntPart()
	if v < 0 || v > int64(^uint32(0)) {
		return 0, ErrBadPrice
	}
	return uint32(v), nil
}

// FormatCents renders integer cents as a decimal price string with two
// decimal places.
func FormatCents(cents uint64) string {
	return decimal.New(int64(cents), -2).StringFixed(2)
}
