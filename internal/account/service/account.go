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
	"github.com/aussiebroadwan/accountd/pkg/slogx"
)

type AccountService struct {
	Store      store.Store
	Sessions   *SessionService
	Activation *ActivationService

	// MobileRegion is the default region for numbers without a country
	// prefix. Defaults to DefaultMobileRegion.
	MobileRegion string

	// Now defaults to time.Now.
	Now func() time.Time
}

type NewAccountRequest struct {
	Email    string
	Password string
	Mobile   string
}

type LoginRequest struct {
	// Email wins over Mobile when both are set.
	Email       string
	Mobile      string
	Password    string
	DeviceClass string
}

// RemoveRequest selects the account to delete by id or, failing that, email.
type RemoveRequest struct {
	AccountID string
	Email     string
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *AccountService) region() string {
	if s.MobileRegion == "" {
		return DefaultMobileRegion
	}
	return s.MobileRegion
}

// NewAccount registers an unactivated account and mails its activation link.
// A failed dispatch is logged but does not fail the registration; the user
// can ask for a resend.
func (s *AccountService) NewAccount(ctx context.Context, req *NewAccountRequest) (domain.AccountSummary, error) {
	log := slogx.FromContext(ctx)

	if req == nil {
		return domain.AccountSummary{}, ErrDataMissing
	}

	email := normalizeEmail(req.Email)
	mobile := strings.TrimSpace(req.Mobile)
	switch {
	case email == "", !isEmail(email):
		return domain.AccountSummary{}, ErrEmailEmpty
	case req.Password == "":
		return domain.AccountSummary{}, ErrPasswordEmpty
	case mobile != "" && !isMobile(mobile, s.region()):
		return domain.AccountSummary{}, ErrMobileFormat
	}

	if err := s.checkTaken(ctx, email, mobile); err != nil {
		return domain.AccountSummary{}, err
	}

	account := domain.Account{
		ID:             idx.NewID(),
		Email:          email,
		Mobile:         mobile,
		PasswordDigest: cryptox.DigestPassword(req.Password),
		Status:         domain.StatusUnactivated,
	}
	if err := s.Store.Accounts().CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a race with a concurrent registration.
			if taken := s.checkTaken(ctx, email, mobile); taken != nil {
				return domain.AccountSummary{}, taken
			}
			return domain.AccountSummary{}, ErrEmailRegistered
		}
		return domain.AccountSummary{}, fmt.Errorf("create account: %w", err)
	}

	log.Info("account created",
		slog.String("account_id", account.ID),
		slog.String("email", account.Email),
	)

	if account.Status == domain.StatusUnactivated && s.Activation != nil {
		if _, err := s.Activation.Issue(ctx, account.ID); err != nil {
			log.Warn("activation link not delivered",
				slog.String("account_id", account.ID),
				slog.Any("error", err),
			)
		}
	}

	return account.Summary(), nil
}

func (s *AccountService) checkTaken(ctx context.Context, email, mobile string) error {
	_, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrEmailRegistered
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("get account by email: %w", err)
	}

	if mobile == "" {
		return nil
	}
	_, err = s.Store.Accounts().GetAccountByMobile(ctx, mobile)
	switch {
	case err == nil:
		return ErrMobileRegistered
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("get account by mobile: %w", err)
	}
	return nil
}

// Login checks a password and issues a session credential for the requested
// device class.
func (s *AccountService) Login(ctx context.Context, req *LoginRequest) (domain.Credential, error) {
	log := slogx.FromContext(ctx)

	if req == nil {
		return domain.Credential{}, ErrDataMissing
	}

	email := normalizeEmail(req.Email)
	mobile := strings.TrimSpace(req.Mobile)
	if email == "" && mobile == "" {
		return domain.Credential{}, ErrEmailEmpty
	}
	if email != "" && !isEmail(email) {
		return domain.Credential{}, ErrEmailEmpty
	}
	if email == "" && !isMobile(mobile, s.region()) {
		return domain.Credential{}, ErrMobileFormat
	}
	if req.Password == "" {
		return domain.Credential{}, ErrPasswordEmpty
	}

	var (
		account domain.Account
		err     error
	)
	if email != "" {
		account, err = s.Store.Accounts().GetAccountByEmail(ctx, email)
	} else {
		account, err = s.Store.Accounts().GetAccountByMobile(ctx, mobile)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Credential{}, ErrAccountNotFound
		}
		return domain.Credential{}, fmt.Errorf("get account: %w", err)
	}

	if err := cryptox.VerifyPassword(req.Password, account.PasswordDigest); err != nil {
		log.Info("login rejected: password mismatch", slog.String("account_id", account.ID))
		return domain.Credential{}, ErrPasswordMismatch
	}

	switch account.Status {
	case domain.StatusActive:
	case domain.StatusUnactivated:
		return domain.Credential{}, ErrAccountNotActive
	default:
		return domain.Credential{}, ErrAccountForbidden
	}

	cred, err := s.Sessions.Issue(ctx, account.ID, SessionOptions{DeviceClass: req.DeviceClass})
	if err != nil {
		return domain.Credential{}, err
	}

	if err := s.Store.Accounts().TouchLastLogin(ctx, account.ID, s.now()); err != nil {
		log.Warn("failed to record last login",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
	}

	log.Info("login succeeded", slog.String("account_id", account.ID))
	return cred, nil
}

// Get returns the public view of an account.
func (s *AccountService) Get(ctx context.Context, accountID string) (domain.AccountSummary, error) {
	if accountID == "" {
		return domain.AccountSummary{}, ErrDataMissing
	}
	account, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AccountSummary{}, ErrAccountNotFound
		}
		return domain.AccountSummary{}, fmt.Errorf("get account: %w", err)
	}
	return account.Summary(), nil
}

// Activate marks an account active without an activation link.
func (s *AccountService) Activate(ctx context.Context, accountID string) (domain.AccountSummary, error) {
	if accountID == "" {
		return domain.AccountSummary{}, ErrDataMissing
	}

	var account domain.Account
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().UpdateStatus(ctx, accountID, domain.StatusActive); err != nil {
			return err
		}
		var err error
		account, err = tx.Accounts().GetAccountByID(ctx, accountID)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AccountSummary{}, ErrAccountNotFound
		}
		return domain.AccountSummary{}, fmt.Errorf("activate account: %w", err)
	}

	slogx.FromContext(ctx).Info("account activated by administrator", slog.String("account_id", accountID))
	return account.Summary(), nil
}

// Remove deletes an account together with its sessions. Removing an account
// that does not exist succeeds.
func (s *AccountService) Remove(ctx context.Context, req RemoveRequest) error {
	accountID := strings.TrimSpace(req.AccountID)
	email := normalizeEmail(req.Email)
	if accountID == "" && email == "" {
		return ErrDataMissing
	}

	if accountID == "" {
		account, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("get account: %w", err)
		}
		accountID = account.ID
	}

	if err := s.Store.Accounts().DeleteAccount(ctx, accountID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete account: %w", err)
	}

	slogx.FromContext(ctx).Info("account removed", slog.String("account_id", accountID))
	return nil
}
