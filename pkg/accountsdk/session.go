package accountsdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Credential headers understood by the service.
const (
	HeaderUserID    = "X-Auth-User-Id"
	HeaderTokenID   = "X-Auth-Token-Id"
	HeaderTimestamp = "X-Auth-Timestamp"
	HeaderTokenSign = "X-Auth-Token-Sign"
)

// Session performs calls on behalf of a logged-in account.
type Session struct {
	client *SDKClient
	cred   Credential
}

// Credential returns the credential the session presents.
func (s *Session) Credential() Credential {
	return s.cred
}

func (s *Session) headers() map[string]string {
	return map[string]string{
		HeaderUserID:    s.cred.UserID,
		HeaderTokenID:   s.cred.TokenID,
		HeaderTimestamp: strconv.FormatInt(s.cred.Timestamp, 10),
		HeaderTokenSign: s.cred.TokenSign,
	}
}

// Check reports whether the service still accepts the credential.
func (s *Session) Check(ctx context.Context) error {
	return s.client.Authentication(ctx, s.cred)
}

// Me returns the logged-in account.
func (s *Session) Me(ctx context.Context) (*Account, error) {
	resp, err := s.client.doRequest(ctx, http.MethodGet, "/v1/accounts/me", nil, s.headers())
	if err != nil {
		return nil, err
	}

	var account Account
	if err := decodeEnvelope(resp, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Logout drops this session's slot on the server.
func (s *Session) Logout(ctx context.Context) error {
	return s.client.Logout(ctx, LogoutRequest{AccountID: s.cred.UserID, TokenID: s.cred.TokenID})
}

// ActivateAccount marks another account active. Requires the account:admin power.
func (s *Session) ActivateAccount(ctx context.Context, accountID string) (*Account, error) {
	resp, err := s.client.doRequest(ctx, http.MethodPost,
		"/v1/admin/accounts/"+url.PathEscape(accountID)+"/activate", nil, s.headers())
	if err != nil {
		return nil, err
	}

	var account Account
	if err := decodeEnvelope(resp, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// RemoveAccount deletes an account and its sessions. Requires the
// account:admin power.
func (s *Session) RemoveAccount(ctx context.Context, accountID string) error {
	resp, err := s.client.doRequest(ctx, http.MethodDelete,
		"/v1/admin/accounts/"+url.PathEscape(accountID), nil, s.headers())
	if err != nil {
		return err
	}
	return decodeEnvelope[struct{}](resp, nil)
}
