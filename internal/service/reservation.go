package service

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/google/uuid"

    "github.com/evertix/ticketing/internal/model"
    "github.com/evertix/ticketing/internal/monitoring"
    "github.com/evertix/ticketing/internal/repository"
)

// ReserveInput carries the parameters of one reservation request. The
// idempotency key is generated by the client; retrying with the same
// key and inputs returns the original transaction.
type ReserveInput struct {
    EventID        uint64
    SectorID       uint64
    Quantity       uint32
    BuyerAccountID uint64
    IdempotencyKey string
}

// ReserveResult is the outcome of a successful (or replayed) reservation.
type ReserveResult struct {
    TransactionID    uint64   `json:"transaction_id"`
    TicketIDs        []uint64 `json:"ticket_ids"`
    TotalAmountCents uint64   `json:"total_amount_cents"`
    Replayed         bool     `json:"replayed"`
}

// ReservationService is the reservation engine: it atomically debits a
// pricing row's inventory and creates the ticket and transaction
// records for a purchase. All writes happen in one database
// transaction; the pricing row lock serializes concurrent reservations
// so the available counter can never go negative.
type ReservationService struct {
    db           *sql.DB
    pricings     *repository.PricingRepo
    tickets      *repository.TicketRepo
    transactions *repository.TransactionRepo
}

// NewReservationService constructs a ReservationService. All
// dependencies must be non-nil.
func NewReservationService(db *sql.DB, pricings *repository.PricingRepo, tickets *repository.TicketRepo, transactions *repository.TransactionRepo) *ReservationService {
    if db == nil || pricings == nil || tickets == nil || transactions == nil {
        panic("nil dependency passed to NewReservationService")
    }
    return &ReservationService{db: db, pricings: pricings, tickets: tickets, transactions: transactions}
}

// MaxTicketsPerReservation bounds a single reservation.
const MaxTicketsPerReservation = 10

// Reserve validates the input, then in one database transaction:
// checks the idempotency key, locks the pricing row, conditionally
// decrements the available counter, inserts `quantity` RESERVED tickets
// and one PENDING transaction. On any failure nothing is written.
//
// A replayed key with equal inputs returns the original transaction and
// ticket IDs with Replayed set; a replayed key with different inputs
// fails with ErrIdempotencyConflict.
func (s *ReservationService) Reserve(ctx context.Context, in ReserveInput) (*ReserveResult, error) {
    start := time.Now()
    res, err := s.reserve(ctx, in)
    monitoring.ObserveReserve(reserveOutcome(res, err), time.Since(start))
    return res, err
}

func reserveOutcome(res *ReserveResult, err error) string {
    switch {
    case err == nil && res != nil && res.Replayed:
        return "replayed"
    case err == nil:
        return "created"
    case errors.Is(err, ErrInsufficientInventory):
        return "insufficient"
    case errors.Is(err, ErrIdempotencyConflict):
        return "conflict"
    case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidIdempotencyKey):
        return "invalid"
    case errors.Is(err, repository.ErrPricingNotFound):
        return "not_found"
    default:
        return "error"
    }
}

// reserveAttempts bounds the reruns after a lost commit race.
const reserveAttempts = 3

func (s *ReservationService) reserve(ctx context.Context, in ReserveInput) (*ReserveResult, error) {
    if in.Quantity < 1 || in.Quantity > MaxTicketsPerReservation {
        return nil, ErrInvalidQuantity
    }
    if _, err := uuid.Parse(in.IdempotencyKey); err != nil {
        return nil, ErrInvalidIdempotencyKey
    }

    // A concurrent call with the same key can commit between our replay
    // lookup and the transaction insert, surfacing as a duplicate-key
    // error on the unique idempotency_key index. Rerunning finds the
    // winner's row through the replay path. Deadlocks are rerun for the
    // same reason: InnoDB already rolled our work back.
    var lastErr error
    for attempt := 0; attempt < reserveAttempts; attempt++ {
        res, err := s.reserveOnce(ctx, in)
        if err == nil {
            return res, nil
        }
        if !repository.IsDuplicateKey(err) && !repository.IsDeadlock(err) {
            return nil, err
        }
        lastErr = err
    }
    return nil, lastErr
}

func (s *ReservationService) reserveOnce(ctx context.Context, in ReserveInput) (*ReserveResult, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Replay check first: the unique key row lock makes a concurrent
    // retry with the same key wait here until the first call commits.
    existing, err := s.transactions.GetByIdempotencyKeyTx(ctx, tx, in.IdempotencyKey)
    if err != nil && !errors.Is(err, sql.ErrNoRows) {
        return nil, err
    }
    if existing != nil {
        if existing.BuyerID != in.BuyerAccountID || existing.EventID != in.EventID ||
            existing.SectorID != in.SectorID || existing.Quantity != in.Quantity {
            return nil, ErrIdempotencyConflict
        }
        ids, err := s.tickets.IDsByTransactionTx(ctx, tx, existing.ID)
        if err != nil {
            return nil, err
        }
        if err := tx.Commit(); err != nil {
            return nil, err
        }
        committed = true
        return &ReserveResult{
            TransactionID:    existing.ID,
            TicketIDs:        ids,
            TotalAmountCents: existing.TotalAmountCents,
            Replayed:         true,
        }, nil
    }

    pricing, err := s.pricings.GetForUpdateTx(ctx, tx, in.EventID, in.SectorID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, repository.ErrPricingNotFound
        }
        return nil, err
    }
    ok, err := s.pricings.DecrementTx(ctx, tx, pricing.ID, in.Quantity)
    if err != nil {
        return nil, err
    }
    if !ok {
        return nil, ErrInsufficientInventory
    }

    total := uint64(pricing.UnitPriceCents) * uint64(in.Quantity)
    txn := &model.Transaction{
        BuyerID:          in.BuyerAccountID,
        IdempotencyKey:   in.IdempotencyKey,
        EventID:          in.EventID,
        SectorID:         in.SectorID,
        PricingID:        pricing.ID,
        Quantity:         in.Quantity,
        TotalAmountCents: total,
        PaymentMethod:    "card",
        Status:           model.TxPending,
    }
    if err := s.transactions.CreateTx(ctx, tx, txn); err != nil {
        return nil, err
    }

    ticketIDs, err := s.tickets.CreateBulkTx(ctx, tx, model.Ticket{
        EventID:       in.EventID,
        SectorID:      in.SectorID,
        PricingID:     pricing.ID,
        OwnerID:       in.BuyerAccountID,
        TransactionID: txn.ID,
        TicketType:    "standard",
        PriceCents:    pricing.UnitPriceCents,
        Status:        model.TicketReserved,
    }, in.Quantity)
    if err != nil {
        return nil, err
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return &ReserveResult{
        TransactionID:    txn.ID,
        TicketIDs:        ticketIDs,
        TotalAmountCents: total,
    }, nil
}
