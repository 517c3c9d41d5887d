package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/evertix/ticketing/internal/model"
)

// ErrTicketNotFound is returned when a ticket cannot be found.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketRepo provides access to the tickets table. Tickets are created
// only by the reservation engine, always inside the same transaction
// that debits the pricing counter and creates the payment record.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo constructs a TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// CreateBulkTx inserts quantity ticket rows for a transaction in a
// single statement and returns the generated IDs. MySQL allocates
// consecutive IDs for a multi-row insert under innodb_autoinc_lock_mode
// <= 1, so the IDs are derived from LastInsertId.
func (r *TicketRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, tpl model.Ticket, quantity uint32) ([]uint64, error) {
    if quantity == 0 {
        return []uint64{}, nil
    }
    query := `INSERT INTO tickets (event_id, sector_id, pricing_id, owner_id, transaction_id, ticket_type, price_cents, status) VALUES `
    args := make([]interface{}, 0, int(quantity)*8)
    for i := uint32(0); i < quantity; i++ {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?, ?, ?)"
        args = append(args, tpl.EventID, tpl.SectorID, tpl.PricingID, tpl.OwnerID,
            tpl.TransactionID, tpl.TicketType, tpl.PriceCents, tpl.Status)
    }
    res, err := tx.ExecContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    first, err := res.LastInsertId()
    if err != nil {
        return nil, err
    }
    ids := make([]uint64, 0, quantity)
    for i := uint32(0); i < quantity; i++ {
        ids = append(ids, uint64(first)+uint64(i))
    }
    return ids, nil
}

// IDsByTransactionTx returns the ticket IDs belonging to a transaction,
// ordered by ID. Used to rebuild the reservation result on an
// idempotent retry and by the status flips below.
func (r *TicketRepo) IDsByTransactionTx(ctx context.Context, tx *sql.Tx, transactionID uint64) ([]uint64, error) {
    rows, err := tx.QueryContext(ctx,
        "SELECT id FROM tickets WHERE transaction_id = ? ORDER BY id", transactionID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return ids, nil
}

// UpdateStatusByTransactionTx flips every ticket of a transaction from
// one status to another and returns the number of rows changed. The
// from-status guard keeps the flip idempotent.
func (r *TicketRepo) UpdateStatusByTransactionTx(ctx context.Context, tx *sql.Tx, transactionID uint64, from, to string) (int64, error) {
    res, err := tx.ExecContext(ctx,
        "UPDATE tickets SET status = ? WHERE transaction_id = ? AND status = ?",
        to, transactionID, from)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// GetForUpdateTx locks and returns a ticket row. The resale manager
// uses the lock so that owner and status checks cannot race a
// concurrent transfer.
func (r *TicketRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Ticket, error) {
    const q = `SELECT id, event_id, sector_id, pricing_id, owner_id, transaction_id,
                      ticket_type, price_cents, status, created_at, updated_at
               FROM tickets WHERE id = ? FOR UPDATE`
    var t model.Ticket
    err := tx.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.EventID, &t.SectorID, &t.PricingID,
        &t.OwnerID, &t.TransactionID, &t.TicketType, &t.PriceCents, &t.Status, &t.CreatedAt, &t.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return &t, nil
}

// OwnedTicketDetail is the customer-facing view of a ticket joined with
// event and sector names.
type OwnedTicketDetail struct {
    ID         uint64 `json:"id"`
    EventID    uint64 `json:"event_id"`
    EventTitle string `json:"event_title"`
    SectorID   uint64 `json:"sector_id"`
    SectorName string `json:"sector_name"`
    TicketType string `json:"ticket_type"`
    PriceCents uint32 `json:"price_cents"`
    Status     string `json:"status"`
}

// ListByOwner returns all tickets of an account with event and sector
// details, newest first.
func (r *TicketRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]OwnedTicketDetail, error) {
    const q = `SELECT t.id, t.event_id, e.title, t.sector_id, s.name, t.ticket_type, t.price_cents, t.status
               FROM tickets t
               JOIN events e ON e.id = t.event_id
               JOIN sectors s ON s.id = t.sector_id
               WHERE t.owner_id = ?
               ORDER BY t.id DESC`
    rows, err := r.db.QueryContext(ctx, q, ownerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]OwnedTicketDetail, 0)
    for rows.Next() {
        var d OwnedTicketDetail
        if err := rows.Scan(&d.ID, &d.EventID, &d.EventTitle, &d.SectorID, &d.SectorName,
            &d.TicketType, &d.PriceCents, &d.Status); err != nil {
            return nil, err
        }
        out = append(out, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// TransferOwnerTx moves a ticket to a new owner. Part of a resale
// settlement; the caller holds the row lock from GetForUpdateTx.
func (r *TicketRepo) TransferOwnerTx(ctx context.Context, tx *sql.Tx, ticketID, newOwnerID uint64) error {
    _, err := tx.ExecContext(ctx,
        "UPDATE tickets SET owner_id = ? WHERE id = ?", newOwnerID, ticketID)
    return err
}
