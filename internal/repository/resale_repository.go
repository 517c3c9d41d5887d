package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/evertix/ticketing/internal/model"
)

// ErrListingNotFound is returned when a resale listing cannot be found.
var ErrListingNotFound = errors.New("listing not found")

// ResaleRepo provides access to the resale_listings table. The
// uq_resale_active_ticket index guarantees at most one ACTIVE listing
// per ticket regardless of how many clients race the insert.
type ResaleRepo struct {
    db *sql.DB
}

// NewResaleRepo constructs a ResaleRepo bound to the given database.
func NewResaleRepo(db *sql.DB) *ResaleRepo { return &ResaleRepo{db: db} }

const listingCols = "id, ticket_id, lister_id, price_cents, status, expires_at, created_at, updated_at"

func scanListing(scan func(dest ...any) error) (*model.ResaleListing, error) {
    var l model.ResaleListing
    err := scan(&l.ID, &l.TicketID, &l.ListerID, &l.PriceCents, &l.Status, &l.ExpiresAt, &l.CreatedAt, &l.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return &l, nil
}

// CreateTx inserts an ACTIVE listing within an existing database
// transaction. A duplicate-key error means another ACTIVE listing
// exists for the ticket; the caller translates that via IsDuplicateKey.
func (r *ResaleRepo) CreateTx(ctx context.Context, tx *sql.Tx, l *model.ResaleListing) error {
    const q = `INSERT INTO resale_listings (ticket_id, lister_id, price_cents, status, expires_at)
               VALUES (?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, l.TicketID, l.ListerID, l.PriceCents, l.Status,
        l.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    l.ID = uint64(id)
    const sel = "SELECT created_at, updated_at FROM resale_listings WHERE id = ?"
    return tx.QueryRowContext(ctx, sel, l.ID).Scan(&l.CreatedAt, &l.UpdatedAt)
}

// GetForUpdateTx locks and returns a listing row by ID. Returns
// sql.ErrNoRows when absent.
func (r *ResaleRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.ResaleListing, error) {
    row := tx.QueryRowContext(ctx,
        "SELECT "+listingCols+" FROM resale_listings WHERE id = ? FOR UPDATE", id)
    return scanListing(row.Scan)
}

// UpdateStatusTx moves a listing from one status to another, returning
// false when the from-status did not match.
func (r *ResaleRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string) (bool, error) {
    res, err := tx.ExecContext(ctx,
        "UPDATE resale_listings SET status = ? WHERE id = ? AND status = ?", to, id, from)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// ExpireActiveTx marks every ACTIVE listing past its expiry as EXPIRED
// and returns the number of listings closed. Run by the sweep.
func (r *ResaleRepo) ExpireActiveTx(ctx context.Context, tx *sql.Tx, now time.Time) (int64, error) {
    res, err := tx.ExecContext(ctx,
        "UPDATE resale_listings SET status = 'EXPIRED' WHERE status = 'ACTIVE' AND expires_at <= ?",
        now.UTC().Format("2006-01-02 15:04:05"))
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// ListingDetail is the public browse view of an active listing joined
// with ticket and event context, including the original face price so
// buyers can see the discount.
type ListingDetail struct {
    ID             uint64 `json:"id"`
    TicketID       uint64 `json:"ticket_id"`
    EventID        uint64 `json:"event_id"`
    EventTitle     string `json:"event_title"`
    SectorName     string `json:"sector_name"`
    TicketType     string `json:"ticket_type"`
    PriceCents     uint32 `json:"price_cents"`
    FacePriceCents uint32 `json:"face_price_cents"`
    ExpiresAt      string `json:"expires_at"`
}

// ListActiveByEvent returns the active, unexpired listings for an
// event, cheapest first.
func (r *ResaleRepo) ListActiveByEvent(ctx context.Context, eventID uint64) ([]ListingDetail, error) {
    const q = `SELECT l.id, l.ticket_id, t.event_id, e.title, s.name, t.ticket_type,
                      l.price_cents, t.price_cents, l.expires_at
               FROM resale_listings l
               JOIN tickets t ON t.id = l.ticket_id
               JOIN events e ON e.id = t.event_id
               JOIN sectors s ON s.id = t.sector_id
               WHERE t.event_id = ? AND l.status = 'ACTIVE' AND l.expires_at > UTC_TIMESTAMP()
               ORDER BY l.price_cents ASC`
    rows, err := r.db.QueryContext(ctx, q, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]ListingDetail, 0)
    for rows.Next() {
        var d ListingDetail
        var exp time.Time
        if err := rows.Scan(&d.ID, &d.TicketID, &d.EventID, &d.EventTitle, &d.SectorName,
            &d.TicketType, &d.PriceCents, &d.FacePriceCents, &exp); err != nil {
            return nil, err
        }
        d.ExpiresAt = exp.UTC().Format(time.RFC3339)
        out = append(out, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// ListByLister returns all listings created by an account, newest first.
func (r *ResaleRepo) ListByLister(ctx context.Context, listerID uint64) ([]model.ResaleListing, error) {
    const q = "SELECT " + listingCols + " FROM resale_listings WHERE lister_id = ? ORDER BY created_at DESC"
    rows, err := r.db.QueryContext(ctx, q, listerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.ResaleListing, 0)
    for rows.Next() {
        l, err := scanListing(rows.Scan)
        if err != nil {
            return nil, err
        }
        out = append(out, *l)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
