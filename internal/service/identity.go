package service

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/evertix/ticketing/internal/model"
    "github.com/evertix/ticketing/internal/repository"
)

// IdentityService maps an external auth identity (opaque subject plus
// email) onto the internal numeric account ID that every other table
// references. Resolution repairs identity drift: when the subject is
// unknown but the email matches an existing account, the subject is
// re-linked to that account instead of creating a duplicate.
type IdentityService struct {
    db       *sql.DB
    accounts *repository.AccountRepo
    retries  int
}

// NewIdentityService constructs an IdentityService with the default
// retry budget.
func NewIdentityService(db *sql.DB, accounts *repository.AccountRepo) *IdentityService {
    if db == nil || accounts == nil {
        panic("nil dependency passed to NewIdentityService")
    }
    return &IdentityService{db: db, accounts: accounts, retries: 3}
}

// Resolve returns the account ID for an external identity, creating the
// account on first contact. The lookup-repair-create sequence runs in
// one database transaction per attempt; a duplicate-key race (two
// resolvers creating the same identity at once) rolls back and retries,
// at which point the winner's row is found by the subject lookup. After
// the retry budget is exhausted, ErrIdentityResolutionFailed is
// returned and callers must not proceed with an unresolved identity.
func (s *IdentityService) Resolve(ctx context.Context, subject, email string) (uint64, error) {
    subject = strings.TrimSpace(subject)
    email = strings.ToLower(strings.TrimSpace(email))
    if subject == "" || email == "" {
        return 0, ErrIdentityResolutionFailed
    }
    var lastErr error
    for attempt := 0; attempt < s.retries; attempt++ {
        id, err := s.resolveOnce(ctx, subject, email)
        if err == nil {
            return id, nil
        }
        if !repository.IsDuplicateKey(err) {
            return 0, err
        }
        lastErr = err
    }
    if lastErr != nil {
        return 0, ErrIdentityResolutionFailed
    }
    return 0, ErrIdentityResolutionFailed
}

func (s *IdentityService) resolveOnce(ctx context.Context, subject, email string) (uint64, error) {
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

    a, err := s.accounts.GetBySubjectTx(ctx, tx, subject)
    if err != nil && !errors.Is(err, sql.ErrNoRows) {
        return 0, err
    }
    if a != nil {
        if err := tx.Commit(); err != nil {
            return 0, err
        }
        committed = true
        return a.ID, nil
    }

    a, err = s.accounts.GetByEmailForUpdateTx(ctx, tx, email)
    if err != nil && !errors.Is(err, sql.ErrNoRows) {
        return 0, err
    }
    if a != nil {
        if err := s.accounts.RelinkSubjectTx(ctx, tx, a.ID, subject); err != nil {
            return 0, err
        }
        if err := tx.Commit(); err != nil {
            return 0, err
        }
        committed = true
        return a.ID, nil
    }

    id, err := s.accounts.CreateTx(ctx, tx, subject, email, usernameFromEmail(email), model.RoleUser)
    if err != nil {
        return 0, err
    }
    if err := tx.Commit(); err != nil {
        return 0, err
    }
    committed = true
    return id, nil
}

// usernameFromEmail derives a display name from the local part of an
// email address.
func usernameFromEmail(email string) string {
    if i := strings.IndexByte(email, '@'); i > 0 {
        return email[:i]
    }
    return email
}
