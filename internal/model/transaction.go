package model

import "time"

// Transaction payment states. PENDING is the only non-terminal state:
// confirmation moves it to PAID, a declined card to FAILED, and the
// expiry sweep to EXPIRED. There is no transition out of PAID.
const (
    TxPending = "PENDING"
    TxPaid    = "PAID"
    TxFailed  = "FAILED"
    TxExpired = "EXPIRED"
)

// Transaction is one payment record produced by a reservation. The
// idempotency key is supplied by the client and guarded by a unique
// index, so a retried reservation with the same key returns the
// original transaction instead of creating a duplicate. EventID,
// SectorID, PricingID and Quantity echo the reservation inputs: they
// let a retry be checked for input equality and let the release paths
// restore the right amount of inventory.
//
// Fields:
//  ID               – primary key identifier.
//  BuyerID          – purchasing account.
//  IdempotencyKey   – client-generated UUID, unique.
//  EventID          – event reserved.
//  SectorID         – sector reserved.
//  PricingID        – pricing row debited.
//  Quantity         – number of tickets reserved.
//  TotalAmountCents – quantity x unit price at reservation time.
//  PaymentMethod    – e.g. "card".
//  Status           – PENDING, PAID, FAILED or EXPIRED.
//  PaymentRef       – receipt reference set when paid.
//  CreatedAt        – creation timestamp (drives the expiry sweep).
//  UpdatedAt        – last update timestamp.
type Transaction struct {
    ID               uint64    // transactions.id
    BuyerID          uint64    // transactions.buyer_id
    IdempotencyKey   string    // transactions.idempotency_key
    EventID          uint64    // transactions.event_id
    SectorID         uint64    // transactions.sector_id
    PricingID        uint64    // transactions.pricing_id
    Quantity         uint32    // transactions.quantity
    TotalAmountCents uint64    // transactions.total_amount_cents
    PaymentMethod    string    // transactions.payment_method
    Status           string    // transactions.status
    PaymentRef       *string   // transactions.payment_ref (nullable)
    CreatedAt        time.Time // transactions.created_at
    UpdatedAt        time.Time // transactions.updated_at
}
