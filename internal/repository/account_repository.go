package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/evertix/ticketing/internal/model"
    "github.com/evertix/ticketing/internal/utils"
)

// ErrAccountNotFound is returned when an account cannot be found.
var ErrAccountNotFound = errors.New("account not found")

// AccountRepo encapsulates all database queries related to accounts.
// Identity resolution runs through the ...Tx variants so that the
// lookup-repair-create sequence executes inside one transaction.
type AccountRepo struct {
    db *sql.DB
}

// NewAccountRepo constructs an AccountRepo bound to the given database.
func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

// DB exposes the underlying handle so services can begin transactions.
func (r *AccountRepo) DB() *sql.DB { return r.db }

const accountCols = "id, auth_subject, email, username, password_hash, role, is_active, created_at, updated_at"

func scanAccount(row *sql.Row) (*model.Account, error) {
    var a model.Account
    err := row.Scan(&a.ID, &a.AuthSubject, &a.Email, &a.Username, &a.PasswordHash,
        &a.Role, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return &a, nil
}

// Create inserts an account and returns its ID. The email is
// normalized to lower case and the password hashed with bcrypt. A
// duplicate email is reported as ErrEmailExists.
func (r *AccountRepo) Create(ctx context.Context, subject, email, username, password, role string, cost int) (uint64, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    res, err := r.db.ExecContext(ctx,
        "INSERT INTO accounts (auth_subject, email, username, password_hash, role) VALUES (?,?,?,?,?)",
        subject, email, username, hash, role)
    if err != nil {
        if IsDuplicateKey(err) {
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    return scanAccount(r.db.QueryRowContext(ctx,
        "SELECT "+accountCols+" FROM accounts WHERE email=? LIMIT 1", email))
}

// GetByID fetches an account by primary key. Returns ErrAccountNotFound
// when no row exists.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (*model.Account, error) {
    a, err := scanAccount(r.db.QueryRowContext(ctx,
        "SELECT "+accountCols+" FROM accounts WHERE id=? LIMIT 1", id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrAccountNotFound
    }
    return a, err
}

// GetBySubjectTx looks up an account by its external auth subject
// within a transaction. Returns sql.ErrNoRows when absent.
func (r *AccountRepo) GetBySubjectTx(ctx context.Context, tx *sql.Tx, subject string) (*model.Account, error) {
    var a model.Account
    err := tx.QueryRowContext(ctx,
        "SELECT "+accountCols+" FROM accounts WHERE auth_subject=? LIMIT 1", subject).
        Scan(&a.ID, &a.AuthSubject, &a.Email, &a.Username, &a.PasswordHash,
            &a.Role, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return &a, nil
}

// GetByEmailForUpdateTx looks up an account by email with a row lock so
// that a concurrent resolver for the same identity serializes on the
// repair step. Returns sql.ErrNoRows when absent.
func (r *AccountRepo) GetByEmailForUpdateTx(ctx context.Context, tx *sql.Tx, email string) (*model.Account, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    var a model.Account
    err := tx.QueryRowContext(ctx,
        "SELECT "+accountCols+" FROM accounts WHERE email=? LIMIT 1 FOR UPDATE", email).
        Scan(&a.ID, &a.AuthSubject, &a.Email, &a.Username, &a.PasswordHash,
            &a.Role, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return &a, nil
}

// RelinkSubjectTx repairs identity drift by pointing an existing
// account at a new external auth subject.
func (r *AccountRepo) RelinkSubjectTx(ctx context.Context, tx *sql.Tx, accountID uint64, subject string) error {
    _, err := tx.ExecContext(ctx,
        "UPDATE accounts SET auth_subject=? WHERE id=?", subject, accountID)
    return err
}

// CreateTx inserts a minimal account row (no usable password) for an
// identity seen for the first time. The password hash is set to a
// sentinel that can never verify, so such accounts authenticate only
// through the external collaborator until they set a password.
func (r *AccountRepo) CreateTx(ctx context.Context, tx *sql.Tx, subject, email, username, role string) (uint64, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    res, err := tx.ExecContext(ctx,
        "INSERT INTO accounts (auth_subject, email, username, password_hash, role) VALUES (?,?,?,'!',?)",
        subject, email, username, role)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}
