// Package service implements the transactional workflows of the
// ticketing system: identity resolution, inventory reservation, payment
// confirmation, resale listing and the expiry sweep. Each service owns
// its database transactions and leans on the repository layer's ...Tx
// methods for the individual statements.
package service

import "errors"

// ErrInvalidQuantity is returned when a reservation asks for fewer than
// one or more than ten tickets.
var ErrInvalidQuantity = errors.New("quantity must be between 1 and 10")

// ErrInvalidIdempotencyKey is returned when the supplied idempotency
// key is not a UUID.
var ErrInvalidIdempotencyKey = errors.New("idempotency key must be a valid UUID")

// ErrInsufficientInventory is returned when the pricing row holds fewer
// tickets than requested. Terminal: callers must not retry.
var ErrInsufficientInventory = errors.New("insufficient inventory")

// ErrIdempotencyConflict is returned when a reservation reuses an
// idempotency key with different inputs.
var ErrIdempotencyConflict = errors.New("idempotency key reused with different inputs")

// ErrIdentityResolutionFailed is returned when the resolver cannot
// produce an account after bounded retries.
var ErrIdentityResolutionFailed = errors.New("identity resolution failed")

// ErrInvalidCard is returned for malformed card details; nothing is
// written and the transaction stays PENDING.
var ErrInvalidCard = errors.New("invalid card details")

// ErrPaymentDeclined is returned when the (simulated) processor
// declines the card. The transaction is marked FAILED and its reserved
// inventory released before this error is surfaced.
var ErrPaymentDeclined = errors.New("payment declined")

// ErrNotOwner is returned when a resale listing is attempted by someone
// other than the ticket's owner.
var ErrNotOwner = errors.New("not the ticket owner")

// ErrPriceExceedsFaceValue is returned when a resale price is above the
// ticket's original face price.
var ErrPriceExceedsFaceValue = errors.New("resale price exceeds face value")

// ErrAlreadyListed is returned when the ticket already has an active
// resale listing.
var ErrAlreadyListed = errors.New("ticket already listed")
