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

func newIdentityService(t *testing.T) (*IdentityService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewIdentityService(db, repository.NewAccountRepo(db)), mock
}

func accountRows(id uint64, subject, email string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "auth_subject", "email", "username", "password_hash", "role", "is_active", "created_at", "updated_at",
	}).AddRow(id, subject, email, "jane", "!", "user", true, now, now)
}

func TestResolveKnownSubject(t *testing.T) {
	svc, mock := newIdentityService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM accounts WHERE auth_subject").
		WithArgs("sub-1").WillReturnRows(accountRows(42, "sub-1", "jane@example.com"))
	mock.ExpectCommit()

	id, err := svc.Resolve(context.Background(), "sub-1", "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveRelinksByEmail(t *testing.T) {
	svc, mock := newIdentityService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM accounts WHERE auth_subject").
		WithArgs("sub-new").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM accounts WHERE email=\\? LIMIT 1 FOR UPDATE").
		WithArgs("jane@example.com").WillReturnRows(accountRows(42, "sub-old", "jane@example.com"))
	mock.ExpectExec("UPDATE accounts SET auth_subject").
		WithArgs("sub-new", uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := svc.Resolve(context.Background(), "sub-new", "Jane@Example.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveCreatesOnFirstContact(t *testing.T) {
	svc, mock := newIdentityService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM accounts WHERE auth_subject").
		WithArgs("sub-1").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM accounts WHERE email=\\? LIMIT 1 FOR UPDATE").
		WithArgs("jane@example.com").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs("sub-1", "jane@example.com", "jane", "user").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	id, err := svc.Resolve(context.Background(), "sub-1", "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveRetriesAfterDuplicateKeyRace(t *testing.T) {
	svc, mock := newIdentityService(t)

	// Two resolvers race the first contact: ours loses the insert on the
	// unique subject index, rolls back and retries; the winner's row is
	// then found by the subject lookup.
	mock.ExpectBegin()
	mock.ExpectQuery("FROM accounts WHERE auth_subject").
		WithArgs("sub-1").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM accounts WHERE email=\\? LIMIT 1 FOR UPDATE").
		WithArgs("jane@example.com").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs("sub-1", "jane@example.com", "jane", "user").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'uq_accounts_auth_subject'"})
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM accounts WHERE auth_subject").
		WithArgs("sub-1").WillReturnRows(accountRows(42, "sub-1", "jane@example.com"))
	mock.ExpectCommit()

	id, err := svc.Resolve(context.Background(), "sub-1", "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveFailsAfterRetryExhaustion(t *testing.T) {
	svc, mock := newIdentityService(t)

	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery("FROM accounts WHERE auth_subject").
			WithArgs("sub-1").WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("FROM accounts WHERE email=\\? LIMIT 1 FOR UPDATE").
			WithArgs("jane@example.com").WillReturnError(sql.ErrNoRows)
		mock.ExpectExec("INSERT INTO accounts").
			WithArgs("sub-1", "jane@example.com", "jane", "user").
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
		mock.ExpectRollback()
	}

	_, err := svc.Resolve(context.Background(), "sub-1", "jane@example.com")
	assert.ErrorIs(t, err, ErrIdentityResolutionFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveRejectsEmptyIdentity(t *testing.T) {
	svc, _ := newIdentityService(t)

	_, err := svc.Resolve(context.Background(), "", "jane@example.com")
	assert.ErrorIs(t, err, ErrIdentityResolutionFailed)

	_, err = svc.Resolve(context.Background(), "sub-1", "  ")
	assert.ErrorIs(t, err, ErrIdentityResolutionFailed)
}
