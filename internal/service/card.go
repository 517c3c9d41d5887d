package service

import (
    "strings"
    "time"
    "unicode"
)

// CardDetails are the simulated payment inputs. No real processor is
// involved: the number is luhn-checked, the expiry must be in the
// future and the CVV must be 3 or 4 digits.
type CardDetails struct {
    Number      string `json:"number"`
    HolderName  string `json:"holder_name"`
    ExpiryMonth int    `json:"expiry_month"`
    ExpiryYear  int    `json:"expiry_year"`
    CVV         string `json:"cvv"`
}

// declineNumber always declines, so clients can exercise the failure
// path deterministically. It is luhn-valid on purpose.
const declineNumber = "4000000000000002"

// validateCard checks the shape of the card details. A malformed card
// is a validation error, not a decline: the transaction is left
// untouched so the user can correct the form and retry.
func validateCard(c CardDetails, now time.Time) error {
    digits := strings.ReplaceAll(strings.ReplaceAll(c.Number, " ", ""), "-", "")
    if len(digits) < 12 || len(digits) > 19 {
        return ErrInvalidCard
    }
    for _, r := range digits {
        if !unicode.IsDigit(r) {
            return ErrInvalidCard
        }
    }
    if len(c.CVV) < 3 || len(c.CVV) > 4 {
        return ErrInvalidCard
    }
    for _, r := range c.CVV {
        if !unicode.IsDigit(r) {
            return ErrInvalidCard
        }
    }
    if c.ExpiryMonth < 1 || c.ExpiryMonth > 12 {
        return ErrInvalidCard
    }
    // A card expires at the end of its expiry month.
    expiry := time.Date(c.ExpiryYear, time.Month(c.ExpiryMonth), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
    if !expiry.After(now.UTC()) {
        return ErrInvalidCard
    }
    return nil
}

// authorizeCard simulates the processor decision for a well-formed
// card: the designated decline number and any luhn failure decline,
// everything else is approved.
func authorizeCard(c CardDetails) bool {
    digits := strings.ReplaceAll(strings.ReplaceAll(c.Number, " ", ""), "-", "")
    if digits == declineNumber {
        return false
    }
    return luhnValid(digits)
}

// luhnValid implements the standard Luhn checksum over a digit string.
func luhnValid(digits string) bool {
    sum := 0
    double := false
    for i := len(digits) - 1; i >= 0; i-- {
        d := int(digits[i] - '0')
        if double {
            d *= 2
            if d > 9 {
                d -= 9
            }
        }
        sum += d
        double = !double
    }
    return sum%10 == 0
}
