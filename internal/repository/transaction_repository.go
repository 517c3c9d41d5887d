package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/evertix/ticketing/internal/model"
)

// ErrTransactionNotFound is returned when a transaction cannot be found.
var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionRepo provides access to the transactions table. A
// transaction is the financial record of one reservation (or one resale
// settlement); its idempotency key carries the at-most-once guarantee
// for client retries.
type TransactionRepo struct {
    db *sql.DB
}

// NewTransactionRepo constructs a TransactionRepo bound to the given database.
func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const txCols = `id, buyer_id, idempotency_key, event_id, sector_id, pricing_id, quantity,
                total_amount_cents, payment_method, status, payment_ref, created_at, updated_at`

func scanTransaction(scan func(dest ...any) error) (*model.Transaction, error) {
    var t model.Transaction
    var ref sql.NullString
    err := scan(&t.ID, &t.BuyerID, &t.IdempotencyKey, &t.EventID, &t.SectorID, &t.PricingID,
        &t.Quantity, &t.TotalAmountCents, &t.PaymentMethod, &t.Status, &ref, &t.CreatedAt, &t.UpdatedAt)
    if err != nil {
        return nil, err
    }
    if ref.Valid {
        s := ref.String
        t.PaymentRef = &s
    }
    return &t, nil
}

// CreateTx inserts a transaction within an existing database
// transaction and populates the generated ID and timestamps. A
// duplicate idempotency key surfaces as a 1062 error; the reservation
// engine checks the key first under lock, so hitting the constraint
// here means a concurrent writer won the race and the caller should
// retry its lookup.
func (r *TransactionRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
    const q = `INSERT INTO transactions
               (buyer_id, idempotency_key, event_id, sector_id, pricing_id, quantity, total_amount_cents, payment_method, status)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, t.BuyerID, t.IdempotencyKey, t.EventID, t.SectorID,
        t.PricingID, t.Quantity, t.TotalAmountCents, t.PaymentMethod, t.Status)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    t.ID = uint64(id)
    const sel = "SELECT created_at, updated_at FROM transactions WHERE id = ?"
    return tx.QueryRowContext(ctx, sel, t.ID).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetByIdempotencyKeyTx returns the transaction recorded under a key,
// locked for the duration of the surrounding database transaction.
// Returns sql.ErrNoRows when the key is unused.
func (r *TransactionRepo) GetByIdempotencyKeyTx(ctx context.Context, tx *sql.Tx, key string) (*model.Transaction, error) {
    row := tx.QueryRowContext(ctx,
        "SELECT "+txCols+" FROM transactions WHERE idempotency_key = ? FOR UPDATE", key)
    return scanTransaction(row.Scan)
}

// GetForUpdateTx locks and returns a transaction row by ID.
func (r *TransactionRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Transaction, error) {
    row := tx.QueryRowContext(ctx,
        "SELECT "+txCols+" FROM transactions WHERE id = ? FOR UPDATE", id)
    return scanTransaction(row.Scan)
}

// UpdateStatusTx moves a transaction from one status to another,
// optionally recording a payment reference. It returns false when the
// row was not in the expected from-status, which keeps the state
// machine monotonic: nothing ever leaves PAID.
func (r *TransactionRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string, paymentRef *string) (bool, error) {
    res, err := tx.ExecContext(ctx,
        "UPDATE transactions SET status = ?, payment_ref = COALESCE(?, payment_ref) WHERE id = ? AND status = ?",
        to, paymentRef, id, from)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// ListExpiredPendingTx returns transactions still PENDING whose age
// exceeds the cutoff, locked for the sweep. The limit bounds the work
// done per sweep pass.
func (r *TransactionRepo) ListExpiredPendingTx(ctx context.Context, tx *sql.Tx, cutoff time.Time, limit int) ([]model.Transaction, error) {
    const q = "SELECT " + txCols + ` FROM transactions
               WHERE status = 'PENDING' AND created_at <= ?
               ORDER BY created_at ASC LIMIT ? FOR UPDATE`
    rows, err := tx.QueryContext(ctx, q, cutoff.UTC().Format("2006-01-02 15:04:05"), limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Transaction
    for rows.Next() {
        t, err := scanTransaction(rows.Scan)
        if err != nil {
            return nil, err
        }
        out = append(out, *t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// ListByBuyer returns all transactions of an account, newest first.
func (r *TransactionRepo) ListByBuyer(ctx context.Context, buyerID uint64) ([]model.Transaction, error) {
    const q = "SELECT " + txCols + " FROM transactions WHERE buyer_id = ? ORDER BY created_at DESC"
    rows, err := r.db.QueryContext(ctx, q, buyerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Transaction, 0)
    for rows.Next() {
        t, err := scanTransaction(rows.Scan)
        if err != nil {
            return nil, err
        }
        out = append(out, *t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
