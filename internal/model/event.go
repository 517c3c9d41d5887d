package model

import "time"

// Event represents a scheduled occurrence as stored in the `events`
// table. The venue reference is optional: events may be announced
// before a venue is assigned, but pricing rows (and therefore sales)
// require one.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – event title.
//  Description – free-form description.
//  Category    – coarse classification used for catalog filtering.
//  StartsAt    – when the event begins (UTC).
//  Organizer   – display name of the organizing party.
//  ImageURL    – optional reference to a hosted image.
//  VenueID     – optional venue reference.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
    ID          uint64    // events.id
    Title       string    // events.title
    Description string    // events.description
    Category    string    // events.category
    StartsAt    time.Time // events.starts_at
    Organizer   string    // events.organizer
    ImageURL    *string   // events.image_url (nullable)
    VenueID     *uint64   // events.venue_id (nullable)
    CreatedAt   time.Time // events.created_at
    UpdatedAt   time.Time // events.updated_at
}
