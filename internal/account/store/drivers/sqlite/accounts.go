package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/accountd/internal/account/domain"
	"github.com/aussiebroadwan/accountd/internal/account/store"
)

const accountColumns = `id, email, mobile, pwd, status, active_token, login_fail_times,
	last_login_at, forbidden_expire_at, created_at, updated_at`

type accountsRepo struct {
	db dbtx
}

func scanAccount(row interface{ Scan(...any) error }) (domain.Account, error) {
	var (
		a                         domain.Account
		mobile, activeToken       sql.NullString
		status                    int
		lastLogin, forbiddenUntil timeValue
		createdAt, updatedAt      timeValue
	)
	err := row.Scan(
		&a.ID,
		&a.Email,
		&mobile,
		&a.PasswordDigest,
		&status,
		&activeToken,
		&a.LoginFailTimes,
		&lastLogin,
		&forbiddenUntil,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	a.Mobile = mapNullString(mobile)
	a.ActiveToken = mapNullString(activeToken)
	a.Status = domain.Status(status)
	a.LastLoginAt = lastLogin.ptr()
	a.ForbiddenExpireAt = forbiddenUntil.ptr()
	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time
	return a, nil
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByMobile(ctx context.Context, mobile string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE mobile = ?`, mobile)
	return scanAccount(row)
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, mobile, pwd, status, active_token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Email,
		mapStringNull(a.Mobile),
		a.PasswordDigest,
		int(a.Status),
		mapStringNull(a.ActiveToken),
		now,
		now,
	)
	return mapConstraint(err)
}

func (r *accountsRepo) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	return r.exec(ctx, `UPDATE accounts SET status = ?, updated_at = ? WHERE id = ?`,
		int(status), time.Now().UTC(), id)
}

func (r *accountsRepo) UpdateActiveToken(ctx context.Context, id string, token string) error {
	return r.exec(ctx, `UPDATE accounts SET active_token = ?, updated_at = ? WHERE id = ?`,
		mapStringNull(token), time.Now().UTC(), id)
}

func (r *accountsRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE accounts SET last_login_at = ?, updated_at = ? WHERE id = ?`,
		mapOptionalTime(&at), time.Now().UTC(), id)
}

func (r *accountsRepo) DeleteAccount(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM accounts WHERE id = ?`, id)
}

// exec runs a single-row mutation and reports ErrNotFound when nothing matched.
func (r *accountsRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
