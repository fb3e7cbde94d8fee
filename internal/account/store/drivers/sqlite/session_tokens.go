package sqlite

import (
	"context"

	"github.com/aussiebroadwan/accountd/internal/account/domain"
)

const sessionTokenColumns = `id, account_id, secret, device_class, refreshed_at, expires_at, created_at`

type sessionTokensRepo struct {
	db dbtx
}

func scanSessionToken(row interface{ Scan(...any) error }) (domain.SessionToken, error) {
	var (
		t                               domain.SessionToken
		refreshedAt, expiresAt, created timeValue
	)
	err := row.Scan(&t.ID, &t.AccountID, &t.Secret, &t.DeviceClass, &refreshedAt, &expiresAt, &created)
	if err != nil {
		return domain.SessionToken{}, mapNotFound(err)
	}
	t.RefreshedAt = refreshedAt.Time
	t.ExpiresAt = expiresAt.Time
	t.CreatedAt = created.Time
	return t, nil
}

func (r *sessionTokensRepo) UpsertSessionToken(
	ctx context.Context,
	t domain.SessionToken,
) (domain.SessionToken, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO session_tokens (id, account_id, secret, device_class, refreshed_at, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (account_id, device_class) DO UPDATE
		 SET refreshed_at = excluded.refreshed_at,
		     expires_at   = excluded.expires_at
		 RETURNING `+sessionTokenColumns,
		t.ID,
		t.AccountID,
		t.Secret,
		t.DeviceClass,
		t.RefreshedAt.UTC(),
		t.ExpiresAt.UTC(),
		t.RefreshedAt.UTC(),
	)
	return scanSessionToken(row)
}

func (r *sessionTokensRepo) GetSessionToken(
	ctx context.Context,
	id, accountID string,
) (domain.SessionToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionTokenColumns+` FROM session_tokens WHERE id = ? AND account_id = ?`,
		id, accountID)
	return scanSessionToken(row)
}

func (r *sessionTokensRepo) DeleteSessionToken(ctx context.Context, id, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM session_tokens WHERE id = ? AND account_id = ?`, id, accountID)
	return err
}
