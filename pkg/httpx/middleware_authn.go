package httpx

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/accountd/pkg/slogx"
)

// Headers carrying a session credential on authenticated calls.
const (
	HeaderUserID    = "X-Auth-User-Id"
	HeaderTokenID   = "X-Auth-Token-Id"
	HeaderTimestamp = "X-Auth-Timestamp"
	HeaderTokenSign = "X-Auth-Token-Sign"
)

// Credential is the session credential as presented in request headers.
type Credential struct {
	AccountID string
	TokenID   string
	Signature string
	Timestamp int64
}

// CredentialFromRequest reads the credential headers. A missing or
// unparseable timestamp yields 0.
func CredentialFromRequest(r *http.Request) Credential {
	ts, _ := strconv.ParseInt(strings.TrimSpace(r.Header.Get(HeaderTimestamp)), 10, 64)
	return Credential{
		AccountID: strings.TrimSpace(r.Header.Get(HeaderUserID)),
		TokenID:   strings.TrimSpace(r.Header.Get(HeaderTokenID)),
		Signature: strings.TrimSpace(r.Header.Get(HeaderTokenSign)),
		Timestamp: ts,
	}
}

// CredentialCheck validates a presented credential; nil means accepted.
type CredentialCheck func(ctx context.Context, c Credential) error

// FailureWriter renders a rejected request.
type FailureWriter func(w http.ResponseWriter, r *http.Request, err error)

// Authenticate only lets requests through whose credential headers pass
// check. Accepted requests carry the account and token ids in their context
// and the account id on their logger.
func Authenticate(check CredentialCheck, fail FailureWriter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			cred := CredentialFromRequest(r)

			if err := check(ctx, cred); err != nil {
				slogx.FromContext(ctx).Debug("credential rejected", "err", err)
				fail(w, r, err)
				return
			}

			ctx = contextWithCredential(ctx, cred)
			ctx = slogx.WithAccount(ctx, cred.AccountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
