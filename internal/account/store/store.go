package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/accountd/internal/account/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this and expose sub-repositories so that a Tx-scoped Store hands
// out the same repositories bound to the transaction.
type Store interface {
	Accounts() Accounts
	SessionTokens() SessionTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail and GetAccountByMobile resolve a login identifier.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)
	GetAccountByMobile(ctx context.Context, mobile string) (domain.Account, error)

	// CreateAccount inserts a new account. Returns ErrAlreadyExists when the
	// email or mobile is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	UpdateStatus(ctx context.Context, id string, status domain.Status) error

	// UpdateActiveToken overwrites the single activation secret slot.
	UpdateActiveToken(ctx context.Context, id string, token string) error

	// TouchLastLogin stamps last_login_at.
	TouchLastLogin(ctx context.Context, id string, at time.Time) error

	// DeleteAccount cascades to session_tokens (per schema).
	DeleteAccount(ctx context.Context, id string) error
}

type SessionTokens interface {
	// UpsertSessionToken inserts t, or when a token already exists for
	// (t.AccountID, t.DeviceClass) moves only its refreshed_at/expires_at.
	// The live row is returned, so an existing ID and Secret win over the
	// candidate values in t.
	UpsertSessionToken(ctx context.Context, t domain.SessionToken) (domain.SessionToken, error)

	// GetSessionToken looks a token up by id, scoped to its account.
	GetSessionToken(ctx context.Context, id, accountID string) (domain.SessionToken, error)

	// DeleteSessionToken removes one token. Deleting a missing token is not an error.
	DeleteSessionToken(ctx context.Context, id, accountID string) error
}
