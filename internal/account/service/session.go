package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/accountd/internal/account/domain"
	"github.com/aussiebroadwan/accountd/internal/account/store"
	"github.com/aussiebroadwan/accountd/pkg/cryptox"
	"github.com/aussiebroadwan/accountd/pkg/idx"
	"github.com/aussiebroadwan/accountd/pkg/metricsx"
	"github.com/aussiebroadwan/accountd/pkg/signx"
	"github.com/aussiebroadwan/accountd/pkg/slogx"
)

// SessionLifetime is how far ahead of a login the credential timestamp is set.
const SessionLifetime = 2 * time.Hour

// SessionOptions tunes a single Issue call.
type SessionOptions struct {
	// DeviceClass picks the session slot. Empty means domain.DefaultDeviceClass.
	DeviceClass string
}

type SessionService struct {
	Store   store.Store
	Metrics *metricsx.Metrics

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Issue creates or refreshes the session slot for (accountID, device class)
// and returns a signed credential for it. A refreshed slot keeps its id and
// secret, so credentials issued earlier for the same slot keep verifying.
func (s *SessionService) Issue(ctx context.Context, accountID string, opts SessionOptions) (domain.Credential, error) {
	log := slogx.FromContext(ctx)

	deviceClass := strings.TrimSpace(opts.DeviceClass)
	if deviceClass == "" {
		deviceClass = domain.DefaultDeviceClass
	}

	secret, err := cryptox.RandomString(cryptox.SessionSecretLength)
	if err != nil {
		return domain.Credential{}, err
	}

	now := s.now()
	token, err := s.Store.SessionTokens().UpsertSessionToken(ctx, domain.SessionToken{
		ID:          idx.NewID(),
		AccountID:   accountID,
		Secret:      secret,
		DeviceClass: deviceClass,
		RefreshedAt: now,
		ExpiresAt:   now.Add(SessionLifetime),
	})
	if err != nil {
		return domain.Credential{}, fmt.Errorf("upsert session token: %w", err)
	}

	timestamp := token.ExpiresAt.UnixMilli()
	s.Metrics.SessionIssued(deviceClass)
	log.Debug("session issued",
		slog.String("account_id", accountID),
		slog.String("token_id", token.ID),
		slog.String("device_class", deviceClass),
	)

	return domain.Credential{
		AccountID: accountID,
		TokenID:   token.ID,
		Signature: signx.Session(accountID, token.ID, token.Secret, timestamp),
		Timestamp: timestamp,
	}, nil
}

// Authenticate checks a presented credential against its session slot. It
// returns nil when the signature matches and ErrTokenExpired for any missing
// field, unknown token or mismatch. The stored expiry is not consulted: the
// signed timestamp is what binds the credential.
func (s *SessionService) Authenticate(ctx context.Context, cred domain.Credential) error {
	if !cred.Complete() {
		s.Metrics.Authentication(false)
		return ErrTokenExpired
	}

	token, err := s.Store.SessionTokens().GetSessionToken(ctx, cred.TokenID, cred.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Metrics.Authentication(false)
			return ErrTokenExpired
		}
		return fmt.Errorf("get session token: %w", err)
	}

	want := signx.Session(cred.AccountID, token.ID, token.Secret, cred.Timestamp)
	if !signx.Equal(want, cred.Signature) {
		s.Metrics.Authentication(false)
		slogx.FromContext(ctx).Debug("credential signature mismatch",
			slog.String("account_id", cred.AccountID),
			slog.String("token_id", cred.TokenID),
		)
		return ErrTokenExpired
	}

	s.Metrics.Authentication(true)
	return nil
}

// Logout drops one session slot. Missing ids make it a no-op, as does a
// token that is already gone.
func (s *SessionService) Logout(ctx context.Context, accountID, tokenID string) error {
	if accountID == "" || tokenID == "" {
		return nil
	}
	if err := s.Store.SessionTokens().DeleteSessionToken(ctx, tokenID, accountID); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	slogx.FromContext(ctx).Info("session closed",
		slog.String("account_id", accountID),
		slog.String("token_id", tokenID),
	)
	return nil
}
