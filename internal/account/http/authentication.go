package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/accountd/internal/account/domain"
	"github.com/aussiebroadwan/accountd/internal/account/service"
	"github.com/aussiebroadwan/accountd/pkg/httpx"
	"github.com/aussiebroadwan/accountd/pkg/metricsx"
)

// millis decodes a JSON number or a quoted decimal string. Anything else
// leaves it at zero.
type millis int64

func (m *millis) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*m = 0
		return nil
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		*m = 0
		return nil
	}
	*m = millis(v)
	return nil
}

// authenticationBody accepts both the snake_case keys returned by login
// and the camelCase keys older clients send.
type authenticationBody struct {
	UserID       string `json:"user_id"`
	UserIDAlt    string `json:"userId"`
	TokenID      string `json:"token_id"`
	TokenIDAlt   string `json:"tokenId"`
	TokenSign    string `json:"token_sign"`
	TokenSignAlt string `json:"tokenSign"`
	Timestamp    millis `json:"timestamp"`
}

func (b authenticationBody) credential() domain.Credential {
	return domain.Credential{
		AccountID: firstNonEmpty(b.UserID, b.UserIDAlt),
		TokenID:   firstNonEmpty(b.TokenID, b.TokenIDAlt),
		Signature: firstNonEmpty(b.TokenSign, b.TokenSignAlt),
		Timestamp: int64(b.Timestamp),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

type AuthenticationHandler struct {
	SessionService *service.SessionService
	Metrics        *metricsx.Metrics
}

// ServeHTTP godoc
//
//	@Summary		Check Credential
//	@Description	Verify a session credential. Any mismatch, including a missing field, an unknown
//	@Description	token or a bad signature, is answered with code -1 "token expire".
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		accountsdk.Credential	true	"user_id, token_id, token_sign, timestamp"
//	@Success		200		{object}	accountsdk.Response[any]
//	@Failure		500		{object}	accountsdk.Response[any]
//	@Router			/v1/auth/authentication [post].
func (h *AuthenticationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body authenticationBody
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		// An unreadable credential is just an invalid one.
		writeFault(w, r, h.Metrics, "authenticate", service.ErrTokenExpired)
		return
	}

	if err := h.SessionService.Authenticate(r.Context(), body.credential()); err != nil {
		writeFault(w, r, h.Metrics, "authenticate", err)
		return
	}

	httpx.WriteOK(w, nil)
}

var _ json.Unmarshaler = (*millis)(nil)
