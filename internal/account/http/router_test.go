package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aussiebroadwan/accountd/internal/account/domain"
	"github.com/aussiebroadwan/accountd/internal/account/mail"
	"github.com/aussiebroadwan/accountd/internal/account/service"
	"github.com/aussiebroadwan/accountd/internal/account/store/drivers/sqlite"
	"github.com/aussiebroadwan/accountd/pkg/accountsdk"
	"github.com/aussiebroadwan/accountd/pkg/httpx"
	"github.com/aussiebroadwan/accountd/pkg/metricsx"
	"github.com/aussiebroadwan/accountd/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type outbox struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (o *outbox) Send(_ context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

type testServer struct {
	router *Router
	store  *sqlite.Store
	outbox *outbox
}

func newTestServer(t *testing.T, admins ...string) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	m := metricsx.New()
	box := &outbox{}

	sessions := &service.SessionService{Store: st, Metrics: m}
	activation := &service.ActivationService{Store: st, Mail: box, Metrics: m}

	r := NewRouter("test", st, m, slogx.Discard())
	r.SessionService = sessions
	r.ActivationService = activation
	r.AccountService = &service.AccountService{
		Store:      st,
		Sessions:   sessions,
		Activation: activation,
	}

	perms := httpx.StaticPermissions{}
	for _, id := range admins {
		perms[id] = []string{PowerAccountAdmin}
	}
	r.Permissions = perms
	r.ApplyRoutes()

	return &testServer{router: r, store: st, outbox: box}
}

func (s *testServer) do(t *testing.T, method, target string, body any, headers map[string]string) (*httptest.ResponseRecorder, httpx.Envelope) {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, rd)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env httpx.Envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

// register creates an account through the API and activates it directly.
func (s *testServer) register(t *testing.T, email string, activate bool) string {
	t.Helper()

	_, env := s.do(t, http.MethodPost, "/v1/accounts",
		accountsdk.NewAccountRequest{Email: email, Password: "123456"}, nil)
	require.Equal(t, 0, env.Code, env.Msg)

	acc, err := s.store.Accounts().GetAccountByEmail(context.Background(), email)
	require.NoError(t, err)
	if activate {
		require.NoError(t, s.store.Accounts().UpdateStatus(context.Background(), acc.ID, domain.StatusActive))
	}
	return acc.ID
}

func (s *testServer) login(t *testing.T, email string) accountsdk.Credential {
	t.Helper()

	rec, _ := s.do(t, http.MethodPost, "/v1/auth/login",
		accountsdk.LoginRequest{Email: email, Password: "123456"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp accountsdk.Response[accountsdk.Credential]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 0, resp.Code, resp.Msg)
	return resp.Data
}

func credentialHeaders(c accountsdk.Credential) map[string]string {
	return map[string]string{
		httpx.HeaderUserID:    c.UserID,
		httpx.HeaderTokenID:   c.TokenID,
		httpx.HeaderTokenSign: c.TokenSign,
		httpx.HeaderTimestamp: strconv.FormatInt(c.Timestamp, 10),
	}
}

func TestNewAccountEndpoint(t *testing.T) {
	s := newTestServer(t)

	t.Run("created", func(t *testing.T) {
		rec, _ := s.do(t, http.MethodPost, "/v1/accounts",
			accountsdk.NewAccountRequest{Email: "Alice@Example.com", Password: "123456"}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp accountsdk.Response[accountsdk.Account]
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, 0, resp.Code)
		require.Equal(t, "alice@example.com", resp.Data.Email)
		require.Equal(t, int(domain.StatusUnactivated), resp.Data.Status)

		s.outbox.mu.Lock()
		defer s.outbox.mu.Unlock()
		require.Len(t, s.outbox.sent, 1)
	})

	t.Run("failures are 200 envelopes", func(t *testing.T) {
		tests := []struct {
			name string
			body any
			code int
		}{
			{"empty body", nil, service.ErrDataMissing.Code},
			{"malformed json", "{", service.ErrDataMissing.Code},
			{"bad email", accountsdk.NewAccountRequest{Email: "nope", Password: "x"}, service.ErrEmailEmpty.Code},
			{"no password", accountsdk.NewAccountRequest{Email: "bob@example.com"}, service.ErrPasswordEmpty.Code},
			{"email taken", accountsdk.NewAccountRequest{Email: "alice@example.com", Password: "x"}, service.ErrEmailRegistered.Code},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec, env := s.do(t, http.MethodPost, "/v1/accounts", tt.body, nil)
				require.Equal(t, http.StatusOK, rec.Code)
				require.Equal(t, tt.code, env.Code)
			})
		}
	})
}

func TestLoginEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "pending@example.com", false)
	s.register(t, "alice@example.com", true)

	_, env := s.do(t, http.MethodPost, "/v1/auth/login",
		accountsdk.LoginRequest{Email: "pending@example.com", Password: "123456"}, nil)
	require.Equal(t, service.ErrAccountNotActive.Code, env.Code)

	_, env = s.do(t, http.MethodPost, "/v1/auth/login",
		accountsdk.LoginRequest{Email: "alice@example.com", Password: "wrong"}, nil)
	require.Equal(t, service.ErrPasswordMismatch.Code, env.Code)

	_, env = s.do(t, http.MethodPost, "/v1/auth/login",
		accountsdk.LoginRequest{Email: "ghost@example.com", Password: "123456"}, nil)
	require.Equal(t, service.ErrAccountNotFound.Code, env.Code)

	first := s.login(t, "alice@example.com")
	require.NotEmpty(t, first.TokenSign)

	// Same device class keeps the token id.
	second := s.login(t, "alice@example.com")
	require.Equal(t, first.TokenID, second.TokenID)
}

func TestAuthenticationEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice@example.com", true)
	cred := s.login(t, "alice@example.com")

	rec, env := s.do(t, http.MethodPost, "/v1/auth/authentication", cred, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, env.Code)

	t.Run("camelCase keys and string timestamp", func(t *testing.T) {
		body := map[string]any{
			"userId":    cred.UserID,
			"tokenId":   cred.TokenID,
			"tokenSign": strings.ToUpper(cred.TokenSign),
			"timestamp": strconv.FormatInt(cred.Timestamp, 10),
		}
		_, env := s.do(t, http.MethodPost, "/v1/auth/authentication", body, nil)
		require.Equal(t, 0, env.Code)
	})

	t.Run("rejections", func(t *testing.T) {
		tampered := cred
		tampered.Timestamp++
		missing := cred
		missing.TokenSign = ""

		for name, body := range map[string]any{
			"tampered":  tampered,
			"missing":   missing,
			"empty":     nil,
			"malformed": "[",
		} {
			rec, env := s.do(t, http.MethodPost, "/v1/auth/authentication", body, nil)
			require.Equal(t, http.StatusOK, rec.Code, name)
			require.Equal(t, service.TokenExpiredCode, env.Code, name)
			require.Equal(t, "token expire", env.Msg, name)
		}
	})
}

func TestMeAndLogout(t *testing.T) {
	s := newTestServer(t)
	id := s.register(t, "alice@example.com", true)
	cred := s.login(t, "alice@example.com")

	rec, _ := s.do(t, http.MethodGet, "/v1/accounts/me", nil, credentialHeaders(cred))
	var resp accountsdk.Response[accountsdk.Account]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 0, resp.Code)
	require.Equal(t, id, resp.Data.ID)

	_, env := s.do(t, http.MethodGet, "/v1/accounts/me", nil, nil)
	require.Equal(t, service.TokenExpiredCode, env.Code)

	_, env = s.do(t, http.MethodPost, "/v1/auth/logout",
		accountsdk.LogoutRequest{AccountID: cred.UserID, TokenID: cred.TokenID}, nil)
	require.Equal(t, 0, env.Code)

	// Logging out twice, or with nothing at all, still succeeds.
	_, env = s.do(t, http.MethodPost, "/v1/auth/logout",
		accountsdk.LogoutRequest{AccountID: cred.UserID, TokenID: cred.TokenID}, nil)
	require.Equal(t, 0, env.Code)
	_, env = s.do(t, http.MethodPost, "/v1/auth/logout", nil, nil)
	require.Equal(t, 0, env.Code)

	_, env = s.do(t, http.MethodGet, "/v1/accounts/me", nil, credentialHeaders(cred))
	require.Equal(t, service.TokenExpiredCode, env.Code)
}

func TestActivationEndpoints(t *testing.T) {
	s := newTestServer(t)
	id := s.register(t, "alice@example.com", false)

	link, err := s.router.ActivationService.Issue(context.Background(), id)
	require.NoError(t, err)

	t.Run("tampered link", func(t *testing.T) {
		_, env := s.do(t, http.MethodPost, "/v1/auth/activation", accountsdk.ActivationRequest{
			AccountID: id, Sign: "deadbeef", Timestamp: link.ExpiresAt,
		}, nil)
		require.Equal(t, service.ErrLinkInvalid.Code, env.Code)
	})

	t.Run("expired link", func(t *testing.T) {
		q := url.Values{"accountId": {id}, "sign": {link.Signature}, "timestamp": {"1"}}
		_, env := s.do(t, http.MethodGet, "/v1/auth/activation?"+q.Encode(), nil, nil)
		require.Equal(t, service.ErrLinkExpired.Code, env.Code)
	})

	t.Run("valid link", func(t *testing.T) {
		q := url.Values{
			"accountId": {id},
			"sign":      {link.Signature},
			"timestamp": {strconv.FormatInt(link.ExpiresAt, 10)},
		}
		_, env := s.do(t, http.MethodGet, "/v1/auth/activation?"+q.Encode(), nil, nil)
		require.Equal(t, 0, env.Code, env.Msg)

		acc, err := s.store.Accounts().GetAccountByID(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, domain.StatusActive, acc.Status)
	})

	t.Run("resend", func(t *testing.T) {
		_, env := s.do(t, http.MethodPost, "/v1/auth/activation/resend",
			accountsdk.ResendActivationRequest{Email: "ghost@example.com"}, nil)
		require.Equal(t, service.ErrEmailNotRegistered.Code, env.Code)

		_, env = s.do(t, http.MethodPost, "/v1/auth/activation/resend",
			accountsdk.ResendActivationRequest{Email: "alice@example.com"}, nil)
		require.Equal(t, 0, env.Code)
	})
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	target := s.register(t, "target@example.com", false)
	s.register(t, "user@example.com", true)
	userCred := s.login(t, "user@example.com")

	rec, env := s.do(t, http.MethodPost, "/v1/admin/accounts/"+target+"/activate", nil, credentialHeaders(userCred))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, httpx.CodeInsufficientPowers, env.Code)

	// Without a credential the request never reaches the power check.
	rec, env = s.do(t, http.MethodDelete, "/v1/admin/accounts/"+target, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, service.TokenExpiredCode, env.Code)
}

func TestAdminEndpointsWithPower(t *testing.T) {
	s := newTestServer(t)
	admin := s.register(t, "admin@example.com", true)
	s.router.Permissions.(httpx.StaticPermissions)[admin] = []string{PowerAccountAdmin}
	target := s.register(t, "target@example.com", false)
	cred := s.login(t, "admin@example.com")

	rec, _ := s.do(t, http.MethodPost, "/v1/admin/accounts/"+target+"/activate", nil, credentialHeaders(cred))
	var resp accountsdk.Response[accountsdk.Account]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 0, resp.Code, resp.Msg)
	require.Equal(t, int(domain.StatusActive), resp.Data.Status)

	_, env := s.do(t, http.MethodDelete, "/v1/admin/accounts/"+target, nil, credentialHeaders(cred))
	require.Equal(t, 0, env.Code)
	_, env = s.do(t, http.MethodDelete, "/v1/admin/accounts/"+target, nil, credentialHeaders(cred))
	require.Equal(t, 0, env.Code)

	_, env = s.do(t, http.MethodPost, "/v1/admin/accounts/"+target+"/activate", nil, credentialHeaders(cred))
	require.Equal(t, service.ErrAccountNotFound.Code, env.Code)
}

func TestSystemEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/livez", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/readyz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health accountsdk.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Checks.Database)

	rec, _ = s.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "accountd_http_requests_total")

	require.NoError(t, s.store.Close())
	rec, _ = s.do(t, http.MethodGet, "/readyz", nil, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
