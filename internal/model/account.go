package model

import "time"

// Roles assigned to accounts. Admins may manage the catalog; regular
// users may browse, reserve and resell.
const (
    RoleUser  = "user"
    RoleAdmin = "admin"
)

// Account represents a row in the `accounts` table. The AuthSubject is
// the opaque identifier issued by the authentication collaborator; all
// other tables reference accounts by the numeric ID. At most one
// account exists per auth subject and per email (both are unique
// columns), which is what makes identity resolution idempotent.
//
// Fields:
//  ID           – primary key identifier.
//  AuthSubject  – external auth subject (UUID string).
//  Email        – unique, normalized (lower-case) email address.
//  Username     – display name, derived from the email on lazy creation.
//  PasswordHash – bcrypt hashed password.
//  Role         – "user" or "admin".
//  IsActive     – whether the account may authenticate.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Account struct {
    ID           uint64    // accounts.id
    AuthSubject  string    // accounts.auth_subject
    Email        string    // accounts.email
    Username     string    // accounts.username
    PasswordHash string    // accounts.password_hash
    Role         string    // accounts.role
    IsActive     bool      // accounts.is_active
    CreatedAt    time.Time // accounts.created_at
    UpdatedAt    time.Time // accounts.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. The plain
// token is never stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  AccountID – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    AccountID uint64     // refresh_tokens.account_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
