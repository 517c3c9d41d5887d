package service

import (
    "context"
    "database/sql"
    "errors"
    "log"
    "time"

    "github.com/google/uuid"

    "github.com/evertix/ticketing/internal/model"
    "github.com/evertix/ticketing/internal/monitoring"
    "github.com/evertix/ticketing/internal/queue"
    "github.com/evertix/ticketing/internal/repository"
)

// Receipt is returned on a successful payment confirmation.
type Receipt struct {
    TransactionID    uint64   `json:"transaction_id"`
    PaymentRef       string   `json:"payment_ref"`
    TotalAmountCents uint64   `json:"total_amount_cents"`
    TicketIDs        []uint64 `json:"ticket_ids"`
}

// Publisher emits domain events after a state change commits. A nil
// publisher disables event emission; failures are logged and ignored
// because the committed database state is authoritative.
type Publisher interface {
    PublishTicketPurchased(ctx context.Context, ev queue.TicketPurchasedEvent) error
}

// PaymentService finalizes or fails pending transactions. Approval
// flips the transaction to PAID and its tickets to OWNED; a decline
// flips the transaction to FAILED, releases the tickets and restores
// the pricing counter. Each path is one database transaction, so a
// crash mid-confirmation leaves the PENDING/RESERVED state for the
// expiry sweep to recover.
type PaymentService struct {
    db           *sql.DB
    transactions *repository.TransactionRepo
    tickets      *repository.TicketRepo
    pricings     *repository.PricingRepo
    publisher    Publisher
    now          func() time.Time
}

// NewPaymentService constructs a PaymentService. publisher may be nil.
func NewPaymentService(db *sql.DB, transactions *repository.TransactionRepo, tickets *repository.TicketRepo, pricings *repository.PricingRepo, publisher Publisher) *PaymentService {
    if db == nil || transactions == nil || tickets == nil || pricings == nil {
        panic("nil dependency passed to NewPaymentService")
    }
    return &PaymentService{
        db:           db,
        transactions: transactions,
        tickets:      tickets,
        pricings:     pricings,
        publisher:    publisher,
        now:          time.Now,
    }
}

// Confirm settles a PENDING transaction with the simulated processor.
// Only the buyer may confirm; a transaction in any other state fails
// with repository.ErrConflict. Malformed cards return ErrInvalidCard
// without touching state; declines persist the FAILED/released state
// and then return ErrPaymentDeclined.
func (s *PaymentService) Confirm(ctx context.Context, transactionID, buyerAccountID uint64, card CardDetails) (*Receipt, error) {
    if err := validateCard(card, s.now()); err != nil {
        monitoring.IncPayment("invalid")
        return nil, err
    }

    approved := authorizeCard(card)

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

    txn, err := s.transactions.GetForUpdateTx(ctx, tx, transactionID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, repository.ErrTransactionNotFound
        }
        return nil, err
    }
    if txn.BuyerID != buyerAccountID {
        return nil, repository.ErrForbidden
    }
    if txn.Status != model.TxPending {
        return nil, repository.ErrConflict
    }

    if !approved {
        if _, err := s.transactions.UpdateStatusTx(ctx, tx, txn.ID, model.TxPending, model.TxFailed, nil); err != nil {
            return nil, err
        }
        released, err := s.tickets.UpdateStatusByTransactionTx(ctx, tx, txn.ID, model.TicketReserved, model.TicketReleased)
        if err != nil {
            return nil, err
        }
        if released > 0 {
            if err := s.pricings.RestoreTx(ctx, tx, txn.PricingID, uint32(released)); err != nil {
                return nil, err
            }
        }
        if err := tx.Commit(); err != nil {
            return nil, err
        }
        committed = true
        monitoring.IncPayment("declined")
        return nil, ErrPaymentDeclined
    }

    ref := uuid.NewString()
    ok, err := s.transactions.UpdateStatusTx(ctx, tx, txn.ID, model.TxPending, model.TxPaid, &ref)
    if err != nil {
        return nil, err
    }
    if !ok {
        return nil, repository.ErrConflict
    }
    if _, err := s.tickets.UpdateStatusByTransactionTx(ctx, tx, txn.ID, model.TicketReserved, model.TicketOwned); err != nil {
        return nil, err
    }
    ticketIDs, err := s.tickets.IDsByTransactionTx(ctx, tx, txn.ID)
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    monitoring.IncPayment("paid")

    if s.publisher != nil {
        ev := queue.TicketPurchasedEvent{
            TransactionID:    txn.ID,
            BuyerID:          txn.BuyerID,
            EventID:          txn.EventID,
            SectorID:         txn.SectorID,
            Quantity:         txn.Quantity,
            TotalAmountCents: txn.TotalAmountCents,
            PaymentRef:       ref,
            PaidAt:           s.now().UTC().Format(time.RFC3339),
        }
        if err := s.publisher.PublishTicketPurchased(ctx, ev); err != nil {
            log.Printf("payment: publish ticket.purchased failed: %v", err)
        }
    }

    return &Receipt{
        TransactionID:    txn.ID,
        PaymentRef:       ref,
        TotalAmountCents: txn.TotalAmountCents,
        TicketIDs:        ticketIDs,
    }, nil
}
