package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evertix/ticketing/internal/repository"
	"github.com/evertix/ticketing/internal/service"
)

const testIdemKey = "3f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0"

func newReservationHandler(t *testing.T) (*ReservationHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := service.NewReservationService(db,
		repository.NewPricingRepo(db),
		repository.NewTicketRepo(db),
		repository.NewTransactionRepo(db))
	return NewReservationHandler(svc, nil, repository.NewTicketRepo(db), repository.NewTransactionRepo(db)), mock
}

func reserveContext(body, idemKey string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("account_id", uint64(5))
	return c, rec
}

func TestReserveIdempotencyConflictReturns409(t *testing.T) {
	h, mock := newReservationHandler(t)
	now := time.Now()

	// The key was already used for quantity 2; retrying it with
	// quantity 3 must be refused as a conflict, not a validation error.
	mock.ExpectBegin()
	mock.ExpectQuery("FROM transactions WHERE idempotency_key").
		WithArgs(testIdemKey).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "buyer_id", "idempotency_key", "event_id", "sector_id", "pricing_id", "quantity",
			"total_amount_cents", "payment_method", "status", "payment_ref", "created_at", "updated_at",
		}).AddRow(77, 5, testIdemKey, 1, 2, 9, 2, 10000, "card", "PENDING", nil, now, now))
	mock.ExpectRollback()

	c, rec := reserveContext(`{"event_id":1,"sector_id":2,"quantity":3}`, testIdemKey)
	require.NoError(t, h.Reserve(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Idempotency-Key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveRequiresIdempotencyKey(t *testing.T) {
	h, mock := newReservationHandler(t)

	c, rec := reserveContext(`{"event_id":1,"sector_id":2,"quantity":2}`, "")
	require.NoError(t, h.Reserve(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
