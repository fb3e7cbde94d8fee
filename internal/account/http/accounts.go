package http

import (
	"net/http"

	"github.com/aussiebroadwan/accountd/internal/account/service"
	"github.com/aussiebroadwan/accountd/pkg/accountsdk"
	"github.com/aussiebroadwan/accountd/pkg/httpx"
	"github.com/aussiebroadwan/accountd/pkg/metricsx"
	"github.com/aussiebroadwan/accountd/pkg/slogx"
)

type NewAccountHandler struct {
	AccountService *service.AccountService
	Metrics        *metricsx.Metrics
}

// ServeHTTP godoc
//
//	@Summary		Register Account
//	@Description	Create an unactivated account and mail it an activation link.
//	@Description	Validation failures are reported with HTTP 200 and a negative code.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			body	body		accountsdk.NewAccountRequest	true	"email, pwd (md5 hex), optional mobile"
//	@Success		200		{object}	accountsdk.Response[accountsdk.Account]
//	@Failure		500		{object}	accountsdk.Response[any]
//	@Router			/v1/accounts [post].
func (h *NewAccountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body accountsdk.NewAccountRequest
	if !decodeBody(w, r, h.Metrics, "new_account", &body) {
		return
	}

	summary, err := h.AccountService.NewAccount(r.Context(), &service.NewAccountRequest{
		Email:    body.Email,
		Password: body.Password,
		Mobile:   body.Mobile,
	})
	if err != nil {
		writeFault(w, r, h.Metrics, "new_account", err)
		return
	}

	slogx.FromContext(r.Context()).Info("account registered", "account_id", summary.ID)
	httpx.WriteOK(w, toAccount(summary))
}

type MeHandler struct {
	AccountService *service.AccountService
	Metrics        *metricsx.Metrics
}

// ServeHTTP godoc
//
//	@Summary		Current Account
//	@Description	Return the account owning the presented session credential.
//	@Tags			Accounts
//	@Produce		json
//	@Security		CredentialAuth
//	@Success		200	{object}	accountsdk.Response[accountsdk.Account]
//	@Router			/v1/accounts/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	summary, err := h.AccountService.Get(r.Context(), httpx.AccountIDFromContext(r.Context()))
	if err != nil {
		writeFault(w, r, h.Metrics, "me", err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteOK(w, toAccount(summary))
}
