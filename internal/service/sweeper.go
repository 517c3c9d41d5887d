package service

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/evertix/ticketing/internal/model"
	"github.com/evertix/ticketing/internal/monitoring"
	"github.com/evertix/ticketing/internal/repository"
)

// Sweeper defaults. The TTL is how long a PENDING transaction may sit
// unconfirmed before its inventory is reclaimed.
const (
	DefaultReservationTTL = 15 * time.Minute
	DefaultSweepInterval  = time.Minute
	defaultSweepBatch     = 100
)

// Sweeper is the background recovery loop: it expires PENDING
// transactions past their TTL (releasing their tickets and restoring
// the pricing counters) and closes resale listings past their expiry.
// Each expired transaction is processed in its own database
// transaction so one poisoned row cannot stall the whole sweep.
type Sweeper struct {
	db           *sql.DB
	transactions *repository.TransactionRepo
	tickets      *repository.TicketRepo
	pricings     *repository.PricingRepo
	listings     *repository.ResaleRepo
	ttl          time.Duration
	interval     time.Duration
	batch        int
	now          func() time.Time
}

// NewSweeper constructs a Sweeper. Zero ttl or interval fall back to
// the defaults.
func NewSweeper(db *sql.DB, transactions *repository.TransactionRepo, tickets *repository.TicketRepo, pricings *repository.PricingRepo, listings *repository.ResaleRepo, ttl, interval time.Duration) *Sweeper {
	if db == nil || transactions == nil || tickets == nil || pricings == nil || listings == nil {
		panic("nil dependency passed to NewSweeper")
	}
	if ttl <= 0 {
		ttl = DefaultReservationTTL
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		db:           db,
		transactions: transactions,
		tickets:      tickets,
		pricings:     pricings,
		listings:     listings,
		ttl:          ttl,
		interval:     interval,
		batch:        defaultSweepBatch,
		now:          time.Now,
	}
}

// Run sweeps on a fixed interval until the context is cancelled. Sweep
// errors are logged and the loop continues; the next tick retries.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				log.Printf("sweeper: sweep failed: %v", err)
			}
		}
	}
}

// SweepOnce runs a single sweep pass: expire overdue PENDING
// transactions in batches, then close overdue resale listings.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	now := s.now().UTC()
	cutoff := now.Add(-s.ttl)

	expired, err := s.expirePending(ctx, cutoff)
	if err != nil {
		return err
	}
	if expired > 0 {
		monitoring.AddExpired(expired)
		log.Printf("sweeper: expired %d pending transactions", expired)
	}

	closed, err := s.expireListings(ctx, now)
	if err != nil {
		return err
	}
	if closed > 0 {
		log.Printf("sweeper: expired %d resale listings", closed)
	}
	return nil
}

// expirePending collects overdue PENDING transactions, then expires
// them one at a time. The collection runs in its own short transaction
// so the row locks are not held across the per-transaction work.
func (s *Sweeper) expirePending(ctx context.Context, cutoff time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	overdue, err := s.transactions.ListExpiredPendingTx(ctx, tx, cutoff, s.batch)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	expired := 0
	for _, txn := range overdue {
		if err := s.expireOne(ctx, txn.ID); err != nil {
			log.Printf("sweeper: expire transaction %d failed: %v", txn.ID, err)
			continue
		}
		expired++
	}
	return expired, nil
}

// expireOne flips one transaction PENDING to EXPIRED, releases its
// reserved tickets and restores the pricing counter. The guarded
// status update makes this safe to race against a concurrent payment
// confirmation: whoever moves the row off PENDING first wins and the
// loser writes nothing.
func (s *Sweeper) expireOne(ctx context.Context, transactionID uint64) error {
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

	txn, err := s.transactions.GetForUpdateTx(ctx, tx, transactionID)
	if err != nil {
		return err
	}
	ok, err := s.transactions.UpdateStatusTx(ctx, tx, txn.ID, model.TxPending, model.TxExpired, nil)
	if err != nil {
		return err
	}
	if !ok {
		// Paid or failed between the scan and now; nothing to reclaim.
		if err := tx.Commit(); err != nil {
			return err
		}
		committed = true
		return nil
	}
	released, err := s.tickets.UpdateStatusByTransactionTx(ctx, tx, txn.ID, model.TicketReserved, model.TicketReleased)
	if err != nil {
		return err
	}
	if released > 0 {
		if err := s.pricings.RestoreTx(ctx, tx, txn.PricingID, uint32(released)); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Sweeper) expireListings(ctx context.Context, now time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	n, err := s.listings.ExpireActiveTx(ctx, tx, now)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return n, nil
}
