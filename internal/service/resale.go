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

// DefaultListingTTL is how long a resale listing stays active before
// the sweep expires it.
const DefaultListingTTL = 30 * 24 * time.Hour

// ResaleService lets ticket owners list owned tickets at or below face
// value, cancel their listings and settle resale purchases. The listed
// ticket keeps its OWNED status; double-listing is prevented by the
// unique active-listing index rather than a status change.
type ResaleService struct {
    db           *sql.DB
    tickets      *repository.TicketRepo
    listings     *repository.ResaleRepo
    transactions *repository.TransactionRepo
    listingTTL   time.Duration
    now          func() time.Time
}

// NewResaleService constructs a ResaleService.
func NewResaleService(db *sql.DB, tickets *repository.TicketRepo, listings *repository.ResaleRepo, transactions *repository.TransactionRepo) *ResaleService {
    if db == nil || tickets == nil || listings == nil || transactions == nil {
        panic("nil dependency passed to NewResaleService")
    }
    return &ResaleService{
        db:           db,
        tickets:      tickets,
        listings:     listings,
        transactions: transactions,
        listingTTL:   DefaultListingTTL,
        now:          time.Now,
    }
}

// List creates an ACTIVE listing for an OWNED ticket. The ticket row is
// locked so the owner and status checks cannot race a transfer. Fails
// with ErrNotOwner, ErrPriceExceedsFaceValue, ErrAlreadyListed or
// repository.ErrConflict (ticket not in OWNED state).
func (s *ResaleService) List(ctx context.Context, ticketID, listerAccountID uint64, priceCents uint32) (*model.ResaleListing, error) {
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

    t, err := s.tickets.GetForUpdateTx(ctx, tx, ticketID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, repository.ErrTicketNotFound
        }
        return nil, err
    }
    if t.OwnerID != listerAccountID {
        monitoring.IncResale("not_owner")
        return nil, ErrNotOwner
    }
    if t.Status != model.TicketOwned {
        return nil, repository.ErrConflict
    }
    if priceCents > t.PriceCents {
        monitoring.IncResale("over_face")
        return nil, ErrPriceExceedsFaceValue
    }

    listing := &model.ResaleListing{
        TicketID:   ticketID,
        ListerID:   listerAccountID,
        PriceCents: priceCents,
        Status:     model.ListingActive,
        ExpiresAt:  s.now().UTC().Add(s.listingTTL),
    }
    if err := s.listings.CreateTx(ctx, tx, listing); err != nil {
        if repository.IsDuplicateKey(err) {
            monitoring.IncResale("already_listed")
            return nil, ErrAlreadyListed
        }
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    monitoring.IncResale("listed")
    return listing, nil
}

// Cancel withdraws an ACTIVE listing. Only the lister may cancel; a
// listing in any other state fails with repository.ErrConflict.
func (s *ResaleService) Cancel(ctx context.Context, listingID, listerAccountID uint64) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    l, err := s.listings.GetForUpdateTx(ctx, tx, listingID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return repository.ErrListingNotFound
        }
        return err
    }
    if l.ListerID != listerAccountID {
        return repository.ErrForbidden
    }
    ok, err := s.listings.UpdateStatusTx(ctx, tx, listingID, model.ListingActive, model.ListingCancelled)
    if err != nil {
        return err
    }
    if !ok {
        return repository.ErrConflict
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    monitoring.IncResale("cancelled")
    return nil
}

// Buy settles a resale purchase in one atomic step: the card is
// authorized by the simulated processor, the ticket changes owner, the
// listing closes as SOLD and a PAID transaction records the payment at
// the listing price. There is no PENDING phase because no inventory
// counter is involved; a decline writes nothing.
func (s *ResaleService) Buy(ctx context.Context, listingID, buyerAccountID uint64, card CardDetails) (*Receipt, error) {
    if err := validateCard(card, s.now()); err != nil {
        return nil, err
    }
    if !authorizeCard(card) {
        monitoring.IncPayment("declined")
        return nil, ErrPaymentDeclined
    }

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

    l, err := s.listings.GetForUpdateTx(ctx, tx, listingID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, repository.ErrListingNotFound
        }
        return nil, err
    }
    if l.Status != model.ListingActive || !l.ExpiresAt.After(s.now().UTC()) {
        return nil, repository.ErrConflict
    }
    if l.ListerID == buyerAccountID {
        return nil, repository.ErrConflict
    }

    t, err := s.tickets.GetForUpdateTx(ctx, tx, l.TicketID)
    if err != nil {
        return nil, err
    }
    if err := s.tickets.TransferOwnerTx(ctx, tx, t.ID, buyerAccountID); err != nil {
        return nil, err
    }
    ok, err := s.listings.UpdateStatusTx(ctx, tx, l.ID, model.ListingActive, model.ListingSold)
    if err != nil {
        return nil, err
    }
    if !ok {
        return nil, repository.ErrConflict
    }

    ref := uuid.NewString()
    txn := &model.Transaction{
        BuyerID:          buyerAccountID,
        IdempotencyKey:   uuid.NewString(), // server-side: the settlement is already atomic
        EventID:          t.EventID,
        SectorID:         t.SectorID,
        PricingID:        t.PricingID,
        Quantity:         1,
        TotalAmountCents: uint64(l.PriceCents),
        PaymentMethod:    "card",
        Status:           model.TxPaid,
    }
    if err := s.transactions.CreateTx(ctx, tx, txn); err != nil {
        return nil, err
    }
    if _, err := tx.ExecContext(ctx,
        "UPDATE transactions SET payment_ref = ? WHERE id = ?", ref, txn.ID); err != nil {
        return nil, err
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    monitoring.IncPayment("paid")
    monitoring.IncResale("sold")
    return &Receipt{
        TransactionID:    txn.ID,
        PaymentRef:       ref,
        TotalAmountCents: uint64(l.PriceCents),
        TicketIDs:        []uint64{t.ID},
    }, nil
}
