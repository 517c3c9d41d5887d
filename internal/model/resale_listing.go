package model

import "time"

// Resale listing states.
const (
    ListingActive    = "ACTIVE"
    ListingCancelled = "CANCELLED"
    ListingSold      = "SOLD"
    ListingExpired   = "EXPIRED"
)

// ResaleListing is an offer to transfer an owned ticket at or below its
// face price. The listed ticket keeps its OWNED status; the database
// guarantees at most one ACTIVE listing per ticket.
type ResaleListing struct {
    ID         uint64    // resale_listings.id
    TicketID   uint64    // resale_listings.ticket_id
    ListerID   uint64    // resale_listings.lister_id
    PriceCents uint32    // resale_listings.price_cents
    Status     string    // resale_listings.status
    ExpiresAt  time.Time // resale_listings.expires_at
    CreatedAt  time.Time // resale_listings.created_at
    UpdatedAt  time.Time // resale_listings.updated_at
}
