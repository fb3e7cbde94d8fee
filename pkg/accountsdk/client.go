package accountsdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SDKClient is a client for the accountd service. It performs the public
// operations and creates authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client for the service at baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewAccount registers an account. The service mails an activation link.
func (c *SDKClient) NewAccount(ctx context.Context, req NewAccountRequest) (*Account, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/accounts", req, nil)
	if err != nil {
		return nil, err
	}

	var account Account
	if err := decodeEnvelope(resp, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Login exchanges a password for a credential and wraps it in a Session.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/login", req, nil)
	if err != nil {
		return nil, err
	}

	var cred Credential
	if err := decodeEnvelope(resp, &cred); err != nil {
		return nil, err
	}
	return c.NewSession(cred), nil
}

// NewSession wraps a credential obtained earlier.
func (c *SDKClient) NewSession(cred Credential) *Session {
	return &Session{client: c, cred: cred}
}

// Authentication asks the service whether cred is still accepted. A rejected
// credential yields an *Error with CodeTokenExpired.
func (c *SDKClient) Authentication(ctx context.Context, cred Credential) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/authentication", cred, nil)
	if err != nil {
		return err
	}
	return decodeEnvelope[struct{}](resp, nil)
}

// ActiveByEmail consumes the parameters of an activation link.
func (c *SDKClient) ActiveByEmail(ctx context.Context, req ActivationRequest) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/activation", req, nil)
	if err != nil {
		return err
	}
	return decodeEnvelope[struct{}](resp, nil)
}

// OpenActivationLink performs the GET a mail client would, using the query
// parameters of link.
func (c *SDKClient) OpenActivationLink(ctx context.Context, req ActivationRequest) error {
	q := url.Values{}
	q.Set("accountId", req.AccountID)
	q.Set("sign", req.Sign)
	q.Set("timestamp", strconv.FormatInt(req.Timestamp, 10))

	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/auth/activation?"+q.Encode(), nil, nil)
	if err != nil {
		return err
	}
	return decodeEnvelope[struct{}](resp, nil)
}

// SendActiveEmail asks for a new activation link for email.
func (c *SDKClient) SendActiveEmail(ctx context.Context, email string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/activation/resend",
		ResendActivationRequest{Email: email}, nil)
	if err != nil {
		return err
	}
	return decodeEnvelope[struct{}](resp, nil)
}

// Logout drops the session slot identified by req. Missing ids are a no-op.
func (c *SDKClient) Logout(ctx context.Context, req LogoutRequest) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/logout", req, nil)
	if err != nil {
		return err
	}
	return decodeEnvelope[struct{}](resp, nil)
}
