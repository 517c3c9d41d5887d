package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evertix/ticketing/internal/repository"
)

func newReservationService(t *testing.T) (*ReservationService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewReservationService(db,
		repository.NewPricingRepo(db),
		repository.NewTicketRepo(db),
		repository.NewTransactionRepo(db))
	return svc, mock
}

const testKey = "3f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0"

func pricingRows(available uint32) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "event_id", "sector_id", "unit_price_cents", "available_tickets", "created_at", "updated_at",
	}).AddRow(9, 1, 2, 5000, available, now, now)
}

func transactionRow(quantity uint32, buyerID uint64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "buyer_id", "idempotency_key", "event_id", "sector_id", "pricing_id", "quantity",
		"total_amount_cents", "payment_method", "status", "payment_ref", "created_at", "updated_at",
	}).AddRow(77, buyerID, testKey, 1, 2, 9, quantity, uint64(quantity)*5000, "card", "PENDING", nil, now, now)
}

func TestReserveCreatesTicketsAndDebitsInventory(t *testing.T) {
	svc, mock := newReservationService(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM transactions WHERE idempotency_key").
		WithArgs(testKey).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM pricings WHERE event_id = \\? AND sector_id = \\? FOR UPDATE").
		WithArgs(uint64(1), uint64(2)).WillReturnRows(pricingRows(10))
	mock.ExpectExec("UPDATE pricings SET available_tickets = available_tickets - ").
		WithArgs(uint32(2), uint64(9), uint32(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transactions").
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectQuery("SELECT created_at, updated_at FROM transactions").
		WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("INSERT INTO tickets").
		WillReturnResult(sqlmock.NewResult(100, 2))
	mock.ExpectCommit()

	res, err := svc.Reserve(context.Background(), ReserveInput{
		EventID: 1, SectorID: 2, Quantity: 2, BuyerAccountID: 5, IdempotencyKey: testKey,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(77), res.TransactionID)
	assert.Equal(t, []uint64{100, 101}, res.TicketIDs)
	assert.Equal(t, uint64(10000), res.TotalAmountCents)
	assert.False(t, res.Replayed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveReplaysSameKeyAndInputs(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM transactions WHERE idempotency_key").
		WithArgs(testKey).WillReturnRows(transactionRow(2, 5))
	mock.ExpectQuery("SELECT id FROM tickets WHERE transaction_id").
		WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100).AddRow(101))
	mock.ExpectCommit()

	res, err := svc.Reserve(context.Background(), ReserveInput{
		EventID: 1, SectorID: 2, Quantity: 2, BuyerAccountID: 5, IdempotencyKey: testKey,
	})
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, uint64(77), res.TransactionID)
	assert.Equal(t, []uint64{100, 101}, res.TicketIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveRerunsAfterLosingKeyRace(t *testing.T) {
	svc, mock := newReservationService(t)

	// First run: the replay lookup sees nothing, but a concurrent call
	// with the same key commits first and our insert hits the unique
	// idempotency_key index.
	mock.ExpectBegin()
	mock.ExpectQuery("FROM transactions WHERE idempotency_key").
		WithArgs(testKey).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM pricings WHERE event_id = \\? AND sector_id = \\? FOR UPDATE").
		WithArgs(uint64(1), uint64(2)).WillReturnRows(pricingRows(10))
	mock.ExpectExec("UPDATE pricings SET available_tickets = available_tickets - ").
		WithArgs(uint32(2), uint64(9), uint32(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transactions").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'uq_transactions_idempotency_key'"})
	mock.ExpectRollback()

	// Second run: the winner's row is found and replayed.
	mock.ExpectBegin()
	mock.ExpectQuery("FROM transactions WHERE idempotency_key").
		WithArgs(testKey).WillReturnRows(transactionRow(2, 5))
	mock.ExpectQuery("SELECT id FROM tickets WHERE transaction_id").
		WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100).AddRow(101))
	mock.ExpectCommit()

	res, err := svc.Reserve(context.Background(), ReserveInput{
		EventID: 1, SectorID: 2, Quantity: 2, BuyerAccountID: 5, IdempotencyKey: testKey,
	})
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, uint64(77), res.TransactionID)
	assert.Equal(t, []uint64{100, 101}, res.TicketIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveRejectsSameKeyDifferentInputs(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM transactions WHERE idempotency_key").
		WithArgs(testKey).WillReturnRows(transactionRow(2, 5))
	mock.ExpectRollback()

	_, err := svc.Reserve(context.Background(), ReserveInput{
		EventID: 1, SectorID: 2, Quantity: 3, BuyerAccountID: 5, IdempotencyKey: testKey,
	})
	assert.ErrorIs(t, err, ErrIdempotencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveInsufficientInventoryWritesNothing(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM transactions WHERE idempotency_key").
		WithArgs(testKey).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM pricings WHERE event_id = \\? AND sector_id = \\? FOR UPDATE").
		WithArgs(uint64(1), uint64(2)).WillReturnRows(pricingRows(1))
	mock.ExpectExec("UPDATE pricings SET available_tickets = available_tickets - ").
		WithArgs(uint32(2), uint64(9), uint32(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.Reserve(context.Background(), ReserveInput{
		EventID: 1, SectorID: 2, Quantity: 2, BuyerAccountID: 5, IdempotencyKey: testKey,
	})
	assert.ErrorIs(t, err, ErrInsufficientInventory)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveUnknownPricing(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM transactions WHERE idempotency_key").
		WithArgs(testKey).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM pricings WHERE event_id = \\? AND sector_id = \\? FOR UPDATE").
		WithArgs(uint64(1), uint64(99)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Reserve(context.Background(), ReserveInput{
		EventID: 1, SectorID: 99, Quantity: 1, BuyerAccountID: 5, IdempotencyKey: testKey,
	})
	assert.ErrorIs(t, err, repository.ErrPricingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveValidatesInput(t *testing.T) {
	svc, _ := newReservationService(t)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, ReserveInput{EventID: 1, SectorID: 2, Quantity: 0, BuyerAccountID: 5, IdempotencyKey: testKey})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Reserve(ctx, ReserveInput{EventID: 1, SectorID: 2, Quantity: 11, BuyerAccountID: 5, IdempotencyKey: testKey})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Reserve(ctx, ReserveInput{EventID: 1, SectorID: 2, Quantity: 1, BuyerAccountID: 5, IdempotencyKey: "not-a-uuid"})
	assert.ErrorIs(t, err, ErrInvalidIdempotencyKey)
}
