// This file defines repository methods for venues. A venue represents a
// physical location that hosts events and owns a set of sectors. Venue
// writes are admin-only; reads feed the public catalog.
package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/evertix/ticketing/internal/model"
)

// ErrVenueNotFound is returned when a venue cannot be found in the DB.
var ErrVenueNotFound = errors.New("venue not found")

// VenueRepo encapsulates all database queries related to venues.
type VenueRepo struct {
    db *sql.DB
}

// NewVenueRepo constructs a VenueRepo with the provided DB handle.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

// Create inserts a new venue. On success the venue's ID, CreatedAt and
// UpdatedAt fields are populated from the stored row.
func (r *VenueRepo) Create(ctx context.Context, v *model.Venue) error {
    const qInsert = "INSERT INTO venues (name, location, capacity) VALUES (?, ?, ?)"
    res, err := r.db.ExecContext(ctx, qInsert, v.Name, v.Location, v.Capacity)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    v.ID = uint64(id)
    const qSelect = "SELECT created_at, updated_at FROM venues WHERE id = ?"
    return r.db.QueryRowContext(ctx, qSelect, v.ID).Scan(&v.CreatedAt, &v.UpdatedAt)
}

// GetByID fetches a venue by its ID. It returns ErrVenueNotFound if no
// row is found.
func (r *VenueRepo) GetByID(ctx context.Context, id uint64) (*model.Venue, error) {
    const q = "SELECT id, name, location, capacity, created_at, updated_at FROM venues WHERE id = ?"
    var v model.Venue
    if err := r.db.QueryRowContext(ctx, q, id).Scan(&v.ID, &v.Name, &v.Location, &v.Capacity, &v.CreatedAt, &v.UpdatedAt); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrVenueNotFound
        }
        return nil, err
    }
    return &v, nil
}

// List returns all venues ordered by name.
func (r *VenueRepo) List(ctx context.Context) ([]model.Venue, error) {
    const q = "SELECT id, name, location, capacity, created_at, updated_at FROM venues ORDER BY name"
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Venue, 0)
    for rows.Next() {
        var v model.Venue
        if err := rows.Scan(&v.ID, &v.Name, &v.Location, &v.Capacity, &v.CreatedAt, &v.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, v)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// Update rewrites the mutable venue columns. It returns
// ErrVenueNotFound when no row was matched.
func (r *VenueRepo) Update(ctx context.Context, v *model.Venue) error {
    const q = "UPDATE venues SET name = ?, location = ?, capacity = ? WHERE id = ?"
    res, err := r.db.ExecContext(ctx, q, v.Name, v.Location, v.Capacity, v.ID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // The update may also be a no-op on identical values; verify existence.
        if _, err := r.GetByID(ctx, v.ID); err != nil {
            return err
        }
    }
    return nil
}

// Delete removes a venue. Venues with sectors or events are protected:
// the method refuses with ErrConflict before touching the row, and the
// foreign keys back that check up at the storage level.
func (r *VenueRepo) Delete(ctx context.Context, id uint64) error {
    var n int
    const qDeps = `SELECT (SELECT COUNT(*) FROM sectors WHERE venue_id = ?) +
                          (SELECT COUNT(*) FROM events WHERE venue_id = ?)`
    if err := r.db.QueryRowContext(ctx, qDeps, id, id).Scan(&n); err != nil {
        return err
    }
    if n > 0 {
        return ErrConflict
    }
    res, err := r.db.ExecContext(ctx, "DELETE FROM venues WHERE id = ?", id)
    if err != nil {
        return err
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 0 {
        return ErrVenueNotFound
    }
    return nil
}
