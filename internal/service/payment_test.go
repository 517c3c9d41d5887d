package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evertix/ticketing/internal/queue"
	"github.com/evertix/ticketing/internal/repository"
)

type recordingPublisher struct {
	calls atomic.Int32
	last  queue.TicketPurchasedEvent
}

func (p *recordingPublisher) PublishTicketPurchased(_ context.Context, ev queue.TicketPurchasedEvent) error {
	p.calls.Add(1)
	p.last = ev
	return nil
}

func newPaymentService(t *testing.T, pub Publisher) (*PaymentService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewPaymentService(db,
		repository.NewTransactionRepo(db),
		repository.NewTicketRepo(db),
		repository.NewPricingRepo(db),
		pub)
	return svc, mock
}

func validTestCard() CardDetails {
	return CardDetails{
		Number:      "4242424242424242",
		HolderName:  "Jane Roe",
		ExpiryMonth: 12,
		ExpiryYear:  time.Now().Year() + 1,
		CVV:         "123",
	}
}

func pendingTransactionRow(buyerID uint64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "buyer_id", "idempotency_key", "event_id", "sector_id", "pricing_id", "quantity",
		"total_amount_cents", "payment_method", "status", "payment_ref", "created_at", "updated_at",
	}).AddRow(77, buyerID, testKey, 1, 2, 9, 2, 10000, "card", "PENDING", nil, now, now)
}

func TestConfirmApprovesAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc, mock := newPaymentService(t, pub)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM transactions WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(77)).WillReturnRows(pendingTransactionRow(5))
	mock.ExpectExec("UPDATE transactions SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tickets SET status").
		WithArgs("OWNED", uint64(77), "RESERVED").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("SELECT id FROM tickets WHERE transaction_id").
		WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100).AddRow(101))
	mock.ExpectCommit()

	receipt, err := svc.Confirm(context.Background(), 77, 5, validTestCard())
	require.NoError(t, err)
	assert.Equal(t, uint64(77), receipt.TransactionID)
	assert.NotEmpty(t, receipt.PaymentRef)
	assert.Equal(t, uint64(10000), receipt.TotalAmountCents)
	assert.Equal(t, []uint64{100, 101}, receipt.TicketIDs)

	assert.Equal(t, int32(1), pub.calls.Load())
	assert.Equal(t, uint64(77), pub.last.TransactionID)
	assert.Equal(t, receipt.PaymentRef, pub.last.PaymentRef)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmDeclineReleasesInventory(t *testing.T) {
	svc, mock := newPaymentService(t, nil)

	card := validTestCard()
	card.Number = "4000000000000002" // always declined

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

	_, err := svc.Confirm(context.Background(), 77, 5, card)
	assert.ErrorIs(t, err, ErrPaymentDeclined)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmRejectsWrongBuyer(t *testing.T) {
	svc, mock := newPaymentService(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM transactions WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(77)).WillReturnRows(pendingTransactionRow(5))
	mock.ExpectRollback()

	_, err := svc.Confirm(context.Background(), 77, 6, validTestCard())
	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmRejectsNonPending(t *testing.T) {
	svc, mock := newPaymentService(t, nil)
	now := time.Now()
	ref := "paid-ref"

	rows := sqlmock.NewRows([]string{
		"id", "buyer_id", "idempotency_key", "event_id", "sector_id", "pricing_id", "quantity",
		"total_amount_cents", "payment_method", "status", "payment_ref", "created_at", "updated_at",
	}).AddRow(77, 5, testKey, 1, 2, 9, 2, 10000, "card", "PAID", ref, now, now)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM transactions WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(77)).WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := svc.Confirm(context.Background(), 77, 5, validTestCard())
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmRejectsMalformedCardWithoutTouchingState(t *testing.T) {
	svc, mock := newPaymentService(t, nil)

	card := validTestCard()
	card.CVV = "xx"

	_, err := svc.Confirm(context.Background(), 77, 5, card)
	assert.ErrorIs(t, err, ErrInvalidCard)
	assert.NoError(t, mock.ExpectationsWereMet())
}
