package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/evertix/ticketing/internal/model"
)

// ErrSectorNotFound is returned when a sector cannot be found in the DB.
var ErrSectorNotFound = errors.New("sector not found")

// SectorRepo encapsulates all database queries related to sectors.
type SectorRepo struct {
    db *sql.DB
}

// NewSectorRepo constructs a SectorRepo with the provided DB handle.
func NewSectorRepo(db *sql.DB) *SectorRepo { return &SectorRepo{db: db} }

// Create inserts a new sector under a venue. The caller is expected to
// have verified the venue exists; a missing venue surfaces as a foreign
// key error from the database.
func (r *SectorRepo) Create(ctx context.Context, s *model.Sector) error {
    const qInsert = "INSERT INTO sectors (venue_id, name, capacity) VALUES (?, ?, ?)"
    res, err := r.db.ExecContext(ctx, qInsert, s.VenueID, s.Name, s.Capacity)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    const qSelect = "SELECT created_at, updated_at FROM sectors WHERE id = ?"
    return r.db.QueryRowContext(ctx, qSelect, s.ID).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// GetByID fetches a sector by its ID, returning ErrSectorNotFound when absent.
func (r *SectorRepo) GetByID(ctx context.Context, id uint64) (*model.Sector, error) {
    const q = "SELECT id, venue_id, name, capacity, created_at, updated_at FROM sectors WHERE id = ?"
    var s model.Sector
    if err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.VenueID, &s.Name, &s.Capacity, &s.CreatedAt, &s.UpdatedAt); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrSectorNotFound
        }
        return nil, err
    }
    return &s, nil
}

// ListByVenue returns all sectors of a venue ordered by name.
func (r *SectorRepo) ListByVenue(ctx context.Context, venueID uint64) ([]model.Sector, error) {
    const q = `SELECT id, venue_id, name, capacity, created_at, updated_at
               FROM sectors WHERE venue_id = ? ORDER BY name`
    rows, err := r.db.QueryContext(ctx, q, venueID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Sector, 0)
    for rows.Next() {
        var s model.Sector
        if err := rows.Scan(&s.ID, &s.VenueID, &s.Name, &s.Capacity, &s.CreatedAt, &s.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// Update rewrites a sector's name and capacity.
func (r *SectorRepo) Update(ctx context.Context, s *model.Sector) error {
    const q = "UPDATE sectors SET name = ?, capacity = ? WHERE id = ?"
    if _, err := r.db.ExecContext(ctx, q, s.Name, s.Capacity, s.ID); err != nil {
        return err
    }
    if _, err := r.GetByID(ctx, s.ID); err != nil {
        return err
    }
    return nil
}

// Delete removes a sector unless pricing rows depend on it, in which
// case ErrConflict is returned.
func (r *SectorRepo) Delete(ctx context.Context, id uint64) error {
    var n int
    if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pricings WHERE sector_id = ?", id).Scan(&n); err != nil {
        return err
    }
    if n > 0 {
        return ErrConflict
    }
    res, err := r.db.ExecContext(ctx, "DELETE FROM sectors WHERE id = ?", id)
    if err != nil {
        return err
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 0 {
        return ErrSectorNotFound
    }
    return nil
}
