package model

import "time"

// Venue is a physical location that hosts events. A venue owns zero or
// more sectors whose capacities partition the venue.
type Venue struct {
    ID        uint64    // venues.id
    Name      string    // venues.name (unique)
    Location  string    // venues.location
    Capacity  uint32    // venues.capacity
    CreatedAt time.Time // venues.created_at
    UpdatedAt time.Time // venues.updated_at
}

// Sector is a subdivision of a venue (a stand or block) with its own
// capacity. Pricing rows attach prices and inventory to (event, sector)
// pairs.
type Sector struct {
    ID        uint64    // sectors.id
    VenueID   uint64    // sectors.venue_id
    Name      string    // sectors.name (unique per venue)
    Capacity  uint32    // sectors.capacity
    CreatedAt time.Time // sectors.created_at
    UpdatedAt time.Time // sectors.updated_at
}
