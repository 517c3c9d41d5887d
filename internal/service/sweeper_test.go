package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evertix/ticketing/internal/repository"
)

func newSweeper(t *testing.T) (*Sweeper, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s := NewSweeper(db,
		repository.NewTransactionRepo(db),
		repository.NewTicketRepo(db),
		repository.NewPricingRepo(db),
		repository.NewResaleRepo(db),
		15*time.Minute, time.Minute)
	return s, mock
}

func TestSweepOnceExpiresOverduePending(t *testing.T) {
	s, mock := newSweeper(t)
	now := time.Now()

	// Scan pass: one overdue PENDING transaction.
	mock.ExpectBegin()
	mock.ExpectQuery("status = 'PENDING' AND created_at <= ").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "buyer_id", "idempotency_key", "event_id", "sector_id", "pricing_id", "quantity",
			"total_amount_cents", "payment_method", "status", "payment_ref", "created_at", "updated_at",
		}).AddRow(77, 5, testKey, 1, 2, 9, 2, 10000, "card", "PENDING", nil, now.Add(-time.Hour), now))
	mock.ExpectCommit()

	// Per-transaction expiry: flip status, release tickets, restore stock.
	mock.ExpectBegin()
	mock.ExpectQuery("FROM transactions WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(77)).WillReturnRows(pendingTransactionRow(5))
	mock.ExpectExec("UPDATE transactions SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tickets SET status").
		WithArgs("RELEASED", uint64(77), "RESERVED").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE pricings SET available_tickets = available_tickets \\+ ").
		WithArgs(uint32(2), uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Listing expiry pass.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE resale_listings SET status = 'EXPIRED'").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.SweepOnce(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepOnceSkipsTransactionPaidMeanwhile(t *testing.T) {
	s, mock := newSweeper(t)
	now := time.Now()
	ref := "ref"

	mock.ExpectBegin()
	mock.ExpectQuery("status = 'PENDING' AND created_at <= ").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "buyer_id", "idempotency_key", "event_id", "sector_id", "pricing_id", "quantity",
			"total_amount_cents", "payment_method", "status", "payment_ref", "created_at", "updated_at",
		}).AddRow(77, 5, testKey, 1, 2, 9, 2, 10000, "card", "PENDING", nil, now.Add(-time.Hour), now))
	mock.ExpectCommit()

	// Paid between the scan and the per-transaction lock: the guarded
	// status update matches no row and nothing is reclaimed.
	mock.ExpectBegin()
	mock.ExpectQuery("FROM transactions WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "buyer_id", "idempotency_key", "event_id", "sector_id", "pricing_id", "quantity",
			"total_amount_cents", "payment_method", "status", "payment_ref", "created_at", "updated_at",
		}).AddRow(77, 5, testKey, 1, 2, 9, 2, 10000, "card", "PAID", ref, now.Add(-time.Hour), now))
	mock.ExpectExec("UPDATE transactions SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE resale_listings SET status = 'EXPIRED'").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.SweepOnce(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepOnceNothingToDo(t *testing.T) {
	s, mock := newSweeper(t)

	mock.ExpectBegin()
	mock.ExpectQuery("status = 'PENDING' AND created_at <= ").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "buyer_id", "idempotency_key", "event_id", "sector_id", "pricing_id", "quantity",
			"total_amount_cents", "payment_method", "status", "payment_ref", "created_at", "updated_at",
		}))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE resale_listings SET status = 'EXPIRED'").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.SweepOnce(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
