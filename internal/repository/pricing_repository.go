package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/evertix/ticketing/internal/model"
)

// ErrPricingNotFound is returned when a pricing row cannot be found.
var ErrPricingNotFound = errors.New("pricing not found")

// PricingRepo provides access to the pricings table. The available
// ticket counter on each row is the single source of truth for
// inventory: the reservation engine decrements it with a conditional
// UPDATE under a row lock, and the release paths (failed payment,
// expiry sweep) and admin restock are the only writers that increase it.
type PricingRepo struct {
    db *sql.DB
}

// NewPricingRepo constructs a PricingRepo bound to the given database.
func NewPricingRepo(db *sql.DB) *PricingRepo { return &PricingRepo{db: db} }

const pricingCols = "id, event_id, sector_id, unit_price_cents, available_tickets, created_at, updated_at"

// Create inserts a new pricing row for an (event, sector) pair. A
// duplicate pair is reported as ErrConflict.
func (r *PricingRepo) Create(ctx context.Context, p *model.Pricing) error {
    const qInsert = `INSERT INTO pricings (event_id, sector_id, unit_price_cents, available_tickets)
                     VALUES (?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, qInsert, p.EventID, p.SectorID, p.UnitPriceCents, p.AvailableTickets)
    if err != nil {
        if IsDuplicateKey(err) {
            return ErrConflict
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    const qSelect = "SELECT created_at, updated_at FROM pricings WHERE id = ?"
    return r.db.QueryRowContext(ctx, qSelect, p.ID).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByID fetches a pricing row by primary key.
func (r *PricingRepo) GetByID(ctx context.Context, id uint64) (*model.Pricing, error) {
    var p model.Pricing
    err := r.db.QueryRowContext(ctx, "SELECT "+pricingCols+" FROM pricings WHERE id = ?", id).
        Scan(&p.ID, &p.EventID, &p.SectorID, &p.UnitPriceCents, &p.AvailableTickets, &p.CreatedAt, &p.UpdatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrPricingNotFound
    }
    if err != nil {
        return nil, err
    }
    return &p, nil
}

// GetForUpdateTx locks and returns the pricing row for an (event,
// sector) pair. The row lock serializes concurrent reservations against
// the same inventory counter. Returns sql.ErrNoRows when the pair has
// no pricing, which also covers sectors that do not belong to the
// event's venue.
func (r *PricingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, eventID, sectorID uint64) (*model.Pricing, error) {
    const q = "SELECT " + pricingCols + " FROM pricings WHERE event_id = ? AND sector_id = ? FOR UPDATE"
    var p model.Pricing
    err := tx.QueryRowContext(ctx, q, eventID, sectorID).
        Scan(&p.ID, &p.EventID, &p.SectorID, &p.UnitPriceCents, &p.AvailableTickets, &p.CreatedAt, &p.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return &p, nil
}

// DecrementTx conditionally subtracts quantity from the available
// counter. It reports false when the row holds fewer than quantity
// tickets, leaving the row untouched; the caller decides between
// not-found and insufficient-inventory.
func (r *PricingRepo) DecrementTx(ctx context.Context, tx *sql.Tx, pricingID uint64, quantity uint32) (bool, error) {
    const q = `UPDATE pricings SET available_tickets = available_tickets - ?
               WHERE id = ? AND available_tickets >= ?`
    res, err := tx.ExecContext(ctx, q, quantity, pricingID, quantity)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// RestoreTx adds quantity back to the available counter. Used by the
// payment failure path and the expiry sweep when reserved tickets are
// released.
func (r *PricingRepo) RestoreTx(ctx context.Context, tx *sql.Tx, pricingID uint64, quantity uint32) error {
    const q = "UPDATE pricings SET available_tickets = available_tickets + ? WHERE id = ?"
    _, err := tx.ExecContext(ctx, q, quantity, pricingID)
    return err
}

// Restock increases the counter by delta outside any reservation flow.
// This is the only admin-facing path that grows inventory.
func (r *PricingRepo) Restock(ctx context.Context, pricingID uint64, delta uint32) (*model.Pricing, error) {
    res, err := r.db.ExecContext(ctx,
        "UPDATE pricings SET available_tickets = available_tickets + ? WHERE id = ?", delta, pricingID)
    if err != nil {
        return nil, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return nil, err
    }
    if n == 0 {
        return nil, ErrPricingNotFound
    }
    return r.GetByID(ctx, pricingID)
}

// UpdatePrice rewrites the unit price of a pricing row.
func (r *PricingRepo) UpdatePrice(ctx context.Context, pricingID uint64, unitPriceCents uint32) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE pricings SET unit_price_cents = ? WHERE id = ?", unitPriceCents, pricingID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        if _, err := r.GetByID(ctx, pricingID); err != nil {
            return err
        }
    }
    return nil
}

// Delete removes a pricing row unless tickets were sold from it.
func (r *PricingRepo) Delete(ctx context.Context, id uint64) error {
    var n int
    if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tickets WHERE pricing_id = ?", id).Scan(&n); err != nil {
        return err
    }
    if n > 0 {
        return ErrConflict
    }
    res, err := r.db.ExecContext(ctx, "DELETE FROM pricings WHERE id = ?", id)
    if err != nil {
        return err
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 0 {
        return ErrPricingNotFound
    }
    return nil
}

// PricingRow is the catalog view of a pricing record: the pricing
// columns joined with the sector name for display.
type PricingRow struct {
    ID               uint64 `json:"id"`
    EventID          uint64 `json:"event_id"`
    SectorID         uint64 `json:"sector_id"`
    SectorName       string `json:"sector_name"`
    UnitPriceCents   uint32 `json:"unit_price_cents"`
    AvailableTickets uint32 `json:"available_tickets"`
}

// ListByEvent returns the pricing rows of an event joined with sector
// names, ordered by sector name. A snapshot read for catalog display.
func (r *PricingRepo) ListByEvent(ctx context.Context, eventID uint64) ([]PricingRow, error) {
    const q = `SELECT p.id, p.event_id, p.sector_id, s.name, p.unit_price_cents, p.available_tickets
               FROM pricings p
               JOIN sectors s ON s.id = p.sector_id
               WHERE p.event_id = ?
               ORDER BY s.name`
    rows, err := r.db.QueryContext(ctx, q, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]PricingRow, 0)
    for rows.Next() {
        var p PricingRow
        if err := rows.Scan(&p.ID, &p.EventID, &p.SectorID, &p.SectorName, &p.UnitPriceCents, &p.AvailableTickets); err != nil {
            return nil, err
        }
        out = append(out, p)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// SectorStock returns the sector capacity and the total stock already
// allocated to that sector across all pricing rows (optionally
// excluding one row). Admin creation and restock use it to keep stock
// within the physical capacity.
func (r *PricingRepo) SectorStock(ctx context.Context, sectorID, excludePricingID uint64) (capacity uint32, allocated uint64, err error) {
    const q = `SELECT s.capacity,
                      COALESCE((SELECT SUM(p.available_tickets) FROM pricings p
                                WHERE p.sector_id = s.id AND p.id <> ?), 0)
               FROM sectors s WHERE s.id = ?`
    err = r.db.QueryRowContext(ctx, q, excludePricingID, sectorID).Scan(&capacity, &allocated)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, 0, ErrSectorNotFound
    }
    return capacity, allocated, err
}
