package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evertix/ticketing/internal/model"
	"github.com/evertix/ticketing/internal/repository"
)

func newResaleService(t *testing.T) (*ResaleService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewResaleService(db,
		repository.NewTicketRepo(db),
		repository.NewResaleRepo(db),
		repository.NewTransactionRepo(db))
	return svc, mock
}

func ticketRows(ownerID uint64, priceCents uint32, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "event_id", "sector_id", "pricing_id", "owner_id", "transaction_id",
		"ticket_type", "price_cents", "status", "created_at", "updated_at",
	}).AddRow(100, 1, 2, 9, ownerID, 77, "standard", priceCents, status, now, now)
}

func TestListCreatesActiveListing(t *testing.T) {
	svc, mock := newResaleService(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM tickets WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(100)).WillReturnRows(ticketRows(5, 5000, model.TicketOwned))
	mock.ExpectExec("INSERT INTO resale_listings").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT created_at, updated_at FROM resale_listings").
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	listing, err := svc.List(context.Background(), 100, 5, 4500)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), listing.ID)
	assert.Equal(t, model.ListingActive, listing.Status)
	assert.Equal(t, uint32(4500), listing.PriceCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRejectsPriceAboveFaceValue(t *testing.T) {
	svc, mock := newResaleService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM tickets WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(100)).WillReturnRows(ticketRows(5, 5000, model.TicketOwned))
	mock.ExpectRollback()

	_, err := svc.List(context.Background(), 100, 5, 5001)
	assert.ErrorIs(t, err, ErrPriceExceedsFaceValue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRejectsNonOwner(t *testing.T) {
	svc, mock := newResaleService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM tickets WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(100)).WillReturnRows(ticketRows(5, 5000, model.TicketOwned))
	mock.ExpectRollback()

	_, err := svc.List(context.Background(), 100, 6, 4500)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRejectsReservedTicket(t *testing.T) {
	svc, mock := newResaleService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM tickets WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(100)).WillReturnRows(ticketRows(5, 5000, model.TicketReserved))
	mock.ExpectRollback()

	_, err := svc.List(context.Background(), 100, 5, 4500)
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func listingRows(listerID uint64, status string, expiresAt time.Time) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "ticket_id", "lister_id", "price_cents", "status", "expires_at", "created_at", "updated_at",
	}).AddRow(11, 100, listerID, 4500, status, expiresAt, now, now)
}

func TestCancelWithdrawsActiveListing(t *testing.T) {
	svc, mock := newResaleService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM resale_listings WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(11)).
		WillReturnRows(listingRows(5, model.ListingActive, time.Now().Add(time.Hour)))
	mock.ExpectExec("UPDATE resale_listings SET status").
		WithArgs(model.ListingCancelled, uint64(11), model.ListingActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.Cancel(context.Background(), 11, 5)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelRejectsForeignListing(t *testing.T) {
	svc, mock := newResaleService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM resale_listings WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(11)).
		WillReturnRows(listingRows(5, model.ListingActive, time.Now().Add(time.Hour)))
	mock.ExpectRollback()

	err := svc.Cancel(context.Background(), 11, 6)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuyTransfersOwnershipAtomically(t *testing.T) {
	svc, mock := newResaleService(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM resale_listings WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(11)).
		WillReturnRows(listingRows(5, model.ListingActive, now.Add(time.Hour)))
	mock.ExpectQuery("FROM tickets WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(100)).WillReturnRows(ticketRows(5, 5000, model.TicketOwned))
	mock.ExpectExec("UPDATE tickets SET owner_id").
		WithArgs(uint64(6), uint64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE resale_listings SET status").
		WithArgs(model.ListingSold, uint64(11), model.ListingActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transactions").
		WillReturnResult(sqlmock.NewResult(78, 1))
	mock.ExpectQuery("SELECT created_at, updated_at FROM transactions").
		WithArgs(uint64(78)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("UPDATE transactions SET payment_ref").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	receipt, err := svc.Buy(context.Background(), 11, 6, validTestCard())
	require.NoError(t, err)
	assert.Equal(t, uint64(78), receipt.TransactionID)
	assert.Equal(t, uint64(4500), receipt.TotalAmountCents)
	assert.Equal(t, []uint64{100}, receipt.TicketIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuyRejectsOwnListing(t *testing.T) {
	svc, mock := newResaleService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM resale_listings WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(11)).
		WillReturnRows(listingRows(5, model.ListingActive, time.Now().Add(time.Hour)))
	mock.ExpectRollback()

	_, err := svc.Buy(context.Background(), 11, 5, validTestCard())
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuyRejectsExpiredListing(t *testing.T) {
	svc, mock := newResaleService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM resale_listings WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(11)).
		WillReturnRows(listingRows(5, model.ListingActive, time.Now().Add(-time.Hour)))
	mock.ExpectRollback()

	_, err := svc.Buy(context.Background(), 11, 6, validTestCard())
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuyDeclineWritesNothing(t *testing.T) {
	svc, mock := newResaleService(t)

	card := validTestCard()
	card.Number = "4000000000000002"

	_, err := svc.Buy(context.Background(), 11, 6, card)
	assert.ErrorIs(t, err, ErrPaymentDeclined)
	assert.NoError(t, mock.ExpectationsWereMet())
}
