package postgres

import (
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/accountd/internal/account/domain"
	"github.com/aussiebroadwan/accountd/internal/account/store"
	"github.com/aussiebroadwan/accountd/pkg/idx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres runs a throwaway postgres and returns a migrated store.
func startPostgres(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := t.Context()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "accountd",
			"POSTGRES_PASSWORD": "accountd",
			"POSTGRES_DB":       "accountd",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://accountd:accountd@%s:%s/accountd?sslmode=disable", host, port.Port())
	s, err := NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestPostgresRoundTrip(t *testing.T) {
	s := startPostgres(t)
	ctx := t.Context()

	a := domain.Account{
		ID:             idx.NewID(),
		Email:          "alice@example.com",
		Mobile:         "13800138000",
		PasswordDigest: "e10adc3949ba59abbe56e057f20f883e",
	}
	require.NoError(t, s.Accounts().CreateAccount(ctx, a))

	err := s.Accounts().CreateAccount(ctx, domain.Account{ID: idx.NewID(), Email: a.Email, PasswordDigest: "x"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	got, err := s.Accounts().GetAccountByMobile(ctx, a.Mobile)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)

	now := time.Now().UTC().Truncate(time.Microsecond)
	first, err := s.SessionTokens().UpsertSessionToken(ctx, domain.SessionToken{
		ID: idx.NewID(), AccountID: a.ID, Secret: "0123456789", DeviceClass: "web",
		RefreshedAt: now, ExpiresAt: now.Add(2 * time.Hour),
	})
	require.NoError(t, err)

	later := now.Add(time.Minute)
	second, err := s.SessionTokens().UpsertSessionToken(ctx, domain.SessionToken{
		ID: idx.NewID(), AccountID: a.ID, Secret: "zzzzzzzzzz", DeviceClass: "web",
		RefreshedAt: later, ExpiresAt: later.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.Secret, second.Secret)
	require.True(t, later.Add(2*time.Hour).Equal(second.ExpiresAt))

	require.NoError(t, s.Accounts().DeleteAccount(ctx, a.ID))
	_, err = s.SessionTokens().GetSessionToken(ctx, first.ID, a.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
