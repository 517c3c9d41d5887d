package model

import "time"

// Ticket lifecycle states. A ticket is created RESERVED by the
// reservation engine, becomes OWNED when its transaction is paid, or
// RELEASED when the transaction fails or expires (which also restores
// the pricing counter). There is no transition out of OWNED other than
// resale transfer; listing a ticket does not change its status, the
// resale_listings table enforces at most one active listing per ticket.
const (
    TicketReserved = "RESERVED"
    TicketOwned    = "OWNED"
    TicketReleased = "RELEASED"
)

// Ticket is one admission unit. PriceCents captures the face price at
// the time of purchase; resale listings may not exceed it.
//
// Fields:
//  ID            – primary key identifier.
//  EventID       – event this ticket admits to.
//  SectorID      – sector within the event's venue.
//  PricingID     – pricing row the ticket was sold from.
//  OwnerID       – current owner account.
//  TransactionID – financial transaction that produced the ticket.
//  TicketType    – label such as "standard".
//  PriceCents    – face price paid, in cents.
//  Status        – RESERVED, OWNED or RELEASED.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Ticket struct {
    ID            uint64    // tickets.id
    EventID       uint64    // tickets.event_id
    SectorID      uint64    // tickets.sector_id
    PricingID     uint64    // tickets.pricing_id
    OwnerID       uint64    // tickets.owner_id
    TransactionID uint64    // tickets.transaction_id
    TicketType    string    // tickets.ticket_type
    PriceCents    uint32    // tickets.price_cents
    Status        string    // tickets.status
    CreatedAt     time.Time // tickets.created_at
    UpdatedAt     time.Time // tickets.updated_at
}
