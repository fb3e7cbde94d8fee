package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/accountd/internal/account/domain"
	"github.com/aussiebroadwan/accountd/internal/account/mail"
	"github.com/aussiebroadwan/accountd/internal/account/store/drivers/sqlite"
	"github.com/aussiebroadwan/accountd/pkg/cryptox"
	"github.com/aussiebroadwan/accountd/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

// recordingSender keeps every message and fails when err is set.
type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) messages() []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mail.Message(nil), r.sent...)
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	store      *sqlite.Store
	clock      *clock
	mail       *recordingSender
	sessions   *SessionService
	activation *ActivationService
	accounts   *AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store: newTestStore(t),
		clock: newClock(),
		mail:  &recordingSender{},
	}
	f.sessions = &SessionService{Store: f.store, Now: f.clock.Now}
	f.activation = &ActivationService{Store: f.store, Mail: f.mail, Now: f.clock.Now}
	f.accounts = &AccountService{
		Store:      f.store,
		Sessions:   f.sessions,
		Activation: f.activation,
		Now:        f.clock.Now,
	}
	return f
}

// seedAccount inserts an account directly, bypassing registration.
func (f *fixture) seedAccount(t *testing.T, email, password string, status domain.Status) domain.Account {
	t.Helper()

	a := domain.Account{
		ID:             idx.NewID(),
		Email:          email,
		PasswordDigest: cryptox.DigestPassword(password),
		Status:         status,
	}
	require.NoError(t, f.store.Accounts().CreateAccount(context.Background(), a))
	return a
}
