package service

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/accountd/internal/account/domain"
	"github.com/aussiebroadwan/accountd/pkg/signx"
	"github.com/stretchr/testify/require"
)

func TestActivationIssueAndVerify(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.seedAccount(t, "alice@example.com", "secret", domain.StatusUnactivated)

	link, err := f.activation.Issue(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, a.ID, link.AccountID)
	require.Equal(t, f.clock.Now().Add(ActivationLifetime).UnixMilli(), link.ExpiresAt)

	stored, err := f.store.Accounts().GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, stored.ActiveToken, 6)
	require.Equal(t, signx.Activation(stored.ActiveToken, a.ID, link.ExpiresAt), link.Signature)

	sent := f.mail.messages()
	require.Len(t, sent, 1)
	require.Equal(t, "alice@example.com", sent[0].To)
	require.Contains(t, sent[0].Body, link.URL)

	require.NoError(t, f.activation.Verify(ctx, a.ID, link.Signature, link.ExpiresAt))

	got, err := f.store.Accounts().GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, got.Status)

	// A consumed link keeps working and the signature is no longer checked.
	require.NoError(t, f.activation.Verify(ctx, a.ID, link.Signature, link.ExpiresAt))
	require.NoError(t, f.activation.Verify(ctx, a.ID, "garbage", link.ExpiresAt))
}

func TestActivationLinkURL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.seedAccount(t, "bob@example.com", "secret", domain.StatusUnactivated)

	link, err := f.activation.Issue(ctx, a.ID)
	require.NoError(t, err)

	prefix := DefaultActivationLinkBase + "?"
	require.True(t, strings.HasPrefix(link.URL, prefix), link.URL)

	q, err := url.ParseQuery(strings.TrimPrefix(link.URL, prefix))
	require.NoError(t, err)
	require.Equal(t, a.ID, q.Get("accountId"))
	require.Equal(t, link.Signature, q.Get("sign"))
	require.Equal(t, strconv.FormatInt(link.ExpiresAt, 10), q.Get("timestamp"))

	f.activation.LinkBase = "https://accounts.example.com/activate?lang=en"
	link, err = f.activation.Issue(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link.URL, "https://accounts.example.com/activate?lang=en&accountId="), link.URL)
}

func TestActivationExpiry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.seedAccount(t, "carol@example.com", "secret", domain.StatusUnactivated)

	link, err := f.activation.Issue(ctx, a.ID)
	require.NoError(t, err)

	t.Run("missing timestamp", func(t *testing.T) {
		require.ErrorIs(t, f.activation.Verify(ctx, a.ID, link.Signature, 0), ErrLinkExpired)
	})

	t.Run("exactly at expiry", func(t *testing.T) {
		f.clock.Set(time.UnixMilli(link.ExpiresAt).UTC())
		require.ErrorIs(t, f.activation.Verify(ctx, a.ID, link.Signature, link.ExpiresAt), ErrLinkExpired)
	})

	t.Run("after expiry with a valid signature", func(t *testing.T) {
		f.clock.Set(time.UnixMilli(link.ExpiresAt).Add(time.Minute).UTC())
		require.ErrorIs(t, f.activation.Verify(ctx, a.ID, link.Signature, link.ExpiresAt), ErrLinkExpired)
	})

	t.Run("one millisecond before expiry", func(t *testing.T) {
		f.clock.Set(time.UnixMilli(link.ExpiresAt - 1).UTC())
		require.NoError(t, f.activation.Verify(ctx, a.ID, link.Signature, link.ExpiresAt))
	})
}

func TestActivationKnownVector(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.seedAccount(t, "dave@example.com", "secret", domain.StatusUnactivated)
	require.NoError(t, f.store.Accounts().UpdateActiveToken(ctx, a.ID, "abcdef"))

	expiresAt := f.clock.Now().Add(time.Hour).UnixMilli()
	sign := signx.Sign("abcdef", a.ID, expiresAt)

	// A forged timestamp breaks the signature.
	require.ErrorIs(t, f.activation.Verify(ctx, a.ID, sign, expiresAt+1), ErrLinkInvalid)
	require.NoError(t, f.activation.Verify(ctx, a.ID, strings.ToUpper(sign), expiresAt))
}

func TestActivationInvalidLinks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.seedAccount(t, "erin@example.com", "secret", domain.StatusUnactivated)
	never := f.seedAccount(t, "never@example.com", "secret", domain.StatusUnactivated)

	link, err := f.activation.Issue(ctx, a.ID)
	require.NoError(t, err)

	require.ErrorIs(t, f.activation.Verify(ctx, "", link.Signature, link.ExpiresAt), ErrLinkInvalid)
	require.ErrorIs(t, f.activation.Verify(ctx, "00000000-0000-0000-0000-000000000000", link.Signature, link.ExpiresAt), ErrLinkInvalid)
	require.ErrorIs(t, f.activation.Verify(ctx, a.ID, strings.Repeat("a", 32), link.ExpiresAt), ErrLinkInvalid)

	// No link was ever sent, so nothing can match.
	forged := signx.Activation("", never.ID, link.ExpiresAt)
	require.ErrorIs(t, f.activation.Verify(ctx, never.ID, forged, link.ExpiresAt), ErrLinkInvalid)

	got, err := f.store.Accounts().GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusUnactivated, got.Status)
}

func TestActivationReissueInvalidatesPreviousLink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.seedAccount(t, "frank@example.com", "secret", domain.StatusUnactivated)

	old, err := f.activation.Issue(ctx, a.ID)
	require.NoError(t, err)
	fresh, err := f.activation.Issue(ctx, a.ID)
	require.NoError(t, err)

	require.ErrorIs(t, f.activation.Verify(ctx, a.ID, old.Signature, old.ExpiresAt), ErrLinkInvalid)
	require.NoError(t, f.activation.Verify(ctx, a.ID, fresh.Signature, fresh.ExpiresAt))
}

func TestActivationDispatchFailureKeepsSecret(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.seedAccount(t, "gina@example.com", "secret", domain.StatusUnactivated)

	f.mail.err = errors.New("relay down")
	link, err := f.activation.Issue(ctx, a.ID)
	require.Error(t, err)
	require.Same(t, ErrSystem, AsFault(ctx, err))

	// The link that would have been sent is backed by the stored secret.
	require.NoError(t, f.activation.Verify(ctx, a.ID, link.Signature, link.ExpiresAt))
}

func TestActivationIssueUnknownAccount(t *testing.T) {
	f := newFixture(t)
	_, err := f.activation.Issue(context.Background(), "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestResend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedAccount(t, "hank@example.com", "secret", domain.StatusUnactivated)

	require.ErrorIs(t, f.activation.Resend(ctx, ""), ErrEmailEmpty)
	require.ErrorIs(t, f.activation.Resend(ctx, "not-an-email"), ErrEmailFormat)
	require.ErrorIs(t, f.activation.Resend(ctx, "nobody@example.com"), ErrEmailNotRegistered)

	require.NoError(t, f.activation.Resend(ctx, " Hank@Example.com "))
	require.Len(t, f.mail.messages(), 1)
}
