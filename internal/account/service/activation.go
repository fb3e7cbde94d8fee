package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/accountd/internal/account/domain"
	"github.com/aussiebroadwan/accountd/internal/account/mail"
	"github.com/aussiebroadwan/accountd/internal/account/store"
	"github.com/aussiebroadwan/accountd/pkg/cryptox"
	"github.com/aussiebroadwan/accountd/pkg/metricsx"
	"github.com/aussiebroadwan/accountd/pkg/signx"
	"github.com/aussiebroadwan/accountd/pkg/slogx"
)

// ActivationLifetime is how long an emailed activation link stays usable.
const ActivationLifetime = 24 * time.Hour

// DefaultActivationLinkBase is the page that consumes activation links.
const DefaultActivationLinkBase = "http://localhost:8080/auth.html#/auth/active"

type ActivationService struct {
	Store   store.Store
	Mail    mail.Sender
	Metrics *metricsx.Metrics

	// LinkBase is the URL the accountId, sign and timestamp parameters are
	// appended to. Defaults to DefaultActivationLinkBase.
	LinkBase string

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *ActivationService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Issue replaces the account's activation secret and mails a fresh link.
//
// The secret is stored before the email goes out, so the stored secret always
// belongs to the newest link the user could have received. When dispatch
// fails the link is still returned together with the error, and a later
// resend overwrites the secret again.
func (s *ActivationService) Issue(ctx context.Context, accountID string) (domain.ActivationLink, error) {
	log := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ActivationLink{}, ErrAccountNotFound
		}
		return domain.ActivationLink{}, fmt.Errorf("get account: %w", err)
	}

	activeToken, err := cryptox.RandomString(cryptox.ActivationTokenLength)
	if err != nil {
		return domain.ActivationLink{}, err
	}

	expiresAt := s.now().Add(ActivationLifetime).UnixMilli()
	link := domain.ActivationLink{
		AccountID: account.ID,
		Signature: signx.Activation(activeToken, account.ID, expiresAt),
		ExpiresAt: expiresAt,
	}
	link.URL = s.buildURL(link)

	if err := s.Store.Accounts().UpdateActiveToken(ctx, account.ID, activeToken); err != nil {
		return domain.ActivationLink{}, fmt.Errorf("store activation token: %w", err)
	}

	msg, err := mail.ActivationMessage(account.Email, link.URL, ActivationLifetime)
	if err != nil {
		return link, err
	}
	if err := s.Mail.Send(ctx, msg); err != nil {
		s.Metrics.Activation("dispatch_failed")
		log.Error("failed to send activation email",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
		return link, fmt.Errorf("send activation email: %w", err)
	}

	s.Metrics.Activation("sent")
	log.Info("activation email sent", slog.String("account_id", account.ID))
	return link, nil
}

// Verify consumes an activation link. Checks run in a fixed order: expiry,
// account existence, current status, signature.
func (s *ActivationService) Verify(ctx context.Context, accountID, sign string, timestamp int64) error {
	log := slogx.FromContext(ctx)

	if timestamp == 0 || s.now().UnixMilli() >= timestamp {
		s.Metrics.Activation("rejected")
		return ErrLinkExpired
	}

	if accountID == "" {
		s.Metrics.Activation("rejected")
		return ErrLinkInvalid
	}
	account, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Metrics.Activation("rejected")
			return ErrLinkInvalid
		}
		return fmt.Errorf("get account: %w", err)
	}

	// Re-opening a consumed link is fine.
	if account.IsActive() {
		return nil
	}

	// An account that was never sent a link has nothing to verify against.
	if account.ActiveToken == "" {
		s.Metrics.Activation("rejected")
		return ErrLinkInvalid
	}

	want := signx.Activation(account.ActiveToken, account.ID, timestamp)
	if !signx.Equal(want, sign) {
		s.Metrics.Activation("rejected")
		log.Warn("activation signature mismatch", slog.String("account_id", account.ID))
		return ErrLinkInvalid
	}

	if err := s.Store.Accounts().UpdateStatus(ctx, account.ID, domain.StatusActive); err != nil {
		return fmt.Errorf("activate account: %w", err)
	}

	s.Metrics.Activation("verified")
	log.Info("account activated", slog.String("account_id", account.ID))
	return nil
}

// Resend issues a new link for the account registered under email.
func (s *ActivationService) Resend(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrEmailEmpty
	}
	if !isEmail(email) {
		return ErrEmailFormat
	}

	account, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrEmailNotRegistered
		}
		return fmt.Errorf("get account: %w", err)
	}

	_, err = s.Issue(ctx, account.ID)
	return err
}

func (s *ActivationService) buildURL(link domain.ActivationLink) string {
	base := s.LinkBase
	if base == "" {
		base = DefaultActivationLinkBase
	}

	q := url.Values{}
	q.Set("accountId", link.AccountID)
	q.Set("sign", link.Signature)
	q.Set("timestamp", strconv.FormatInt(link.ExpiresAt, 10))

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}
