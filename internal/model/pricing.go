package model

import "time"

// Pricing is the price and remaining inventory for one (event, sector)
// pair. AvailableTickets is the sole inventory counter for the pair: it
// is decremented in the same database transaction that creates tickets
// and only ever increases through an admin restock or a release of
// reserved tickets (failed or expired payment).
type Pricing struct {
    ID               uint64    // pricings.id
    EventID          uint64    // pricings.event_id
    SectorID         uint64    // pricings.sector_id
    UnitPriceCents   uint32    // pricings.unit_price_cents
    AvailableTickets uint32    // pricings.available_tickets
    CreatedAt        time.Time // pricings.created_at
    UpdatedAt        time.Time // pricings.updated_at
}
