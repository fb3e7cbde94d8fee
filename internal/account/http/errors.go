package http

import (
	"net/http"

	"github.com/aussiebroadwan/accountd/internal/account/domain"
	"github.com/aussiebroadwan/accountd/internal/account/service"
	"github.com/aussiebroadwan/accountd/pkg/accountsdk"
	"github.com/aussiebroadwan/accountd/pkg/httpx"
	"github.com/aussiebroadwan/accountd/pkg/metricsx"
)

// writeFault renders err as a failure envelope. Expected faults are sent
// with HTTP 200; anything unexpected is logged and sent as a 500.
func writeFault(w http.ResponseWriter, r *http.Request, m *metricsx.Metrics, op string, err error) {
	f := service.AsFault(r.Context(), err)
	m.Fault(op, f.Kind.String())

	status := http.StatusOK
	if f.Kind == service.KindSystem {
		status = http.StatusInternalServerError
	}
	httpx.WriteEnvelope(w, status, f.Code, f.Msg)
}

// decodeBody decodes a JSON request body into v. An absent or malformed
// body is answered with a data-missing envelope and false is returned.
func decodeBody(w http.ResponseWriter, r *http.Request, m *metricsx.Metrics, op string, v any) bool {
	if err := httpx.DecodeJSON(w, r, v); err != nil {
		writeFault(w, r, m, op, service.ErrDataMissing)
		return false
	}
	return true
}

func toAccount(a domain.AccountSummary) accountsdk.Account {
	return accountsdk.Account{
		ID:     a.ID,
		Email:  a.Email,
		Mobile: a.Mobile,
		Status: int(a.Status),
	}
}

func toCredential(c domain.Credential) accountsdk.Credential {
	return accountsdk.Credential{
		UserID:    c.AccountID,
		TokenID:   c.TokenID,
		TokenSign: c.Signature,
		Timestamp: c.Timestamp,
	}
}
