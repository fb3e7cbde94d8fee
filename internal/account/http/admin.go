package http

import (
	"net/http"

	"github.com/aussiebroadwan/accountd/internal/account/service"
	"github.com/aussiebroadwan/accountd/pkg/httpx"
	"github.com/aussiebroadwan/accountd/pkg/metricsx"
	"github.com/aussiebroadwan/accountd/pkg/slogx"
)

// AdminAccountsHandler serves operator actions on other accounts. Both
// routes sit behind credential authentication and the account:admin power.
type AdminAccountsHandler struct {
	AccountService *service.AccountService
	Metrics        *metricsx.Metrics
}

// HandleActivate godoc
//
//	@Summary		Force Activate Account
//	@Description	Activate an account without an activation link.
//	@Tags			Admin
//	@Produce		json
//	@Security		CredentialAuth
//	@Param			id	path		string	true	"Account id"
//	@Success		200	{object}	accountsdk.Response[accountsdk.Account]
//	@Router			/v1/admin/accounts/{id}/activate [post].
func (h *AdminAccountsHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.AccountService.Activate(ctx, r.PathValue("id"))
	if err != nil {
		writeFault(w, r, h.Metrics, "admin_activate", err)
		return
	}

	slogx.FromContext(ctx).Info("account activated by operator",
		"account_id", summary.ID,
		"operator_id", httpx.AccountIDFromContext(ctx),
	)
	httpx.WriteOK(w, toAccount(summary))
}

// HandleRemove godoc
//
//	@Summary		Remove Account
//	@Description	Delete an account and every session token it owns. Removing a missing account succeeds.
//	@Tags			Admin
//	@Produce		json
//	@Security		CredentialAuth
//	@Param			id	path		string	true	"Account id"
//	@Success		200	{object}	accountsdk.Response[any]
//	@Router			/v1/admin/accounts/{id} [delete].
func (h *AdminAccountsHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.AccountService.Remove(ctx, service.RemoveRequest{AccountID: r.PathValue("id")}); err != nil {
		writeFault(w, r, h.Metrics, "admin_remove", err)
		return
	}

	slogx.FromContext(ctx).Info("account removed by operator",
		"account_id", r.PathValue("id"),
		"operator_id", httpx.AccountIDFromContext(ctx),
	)
	httpx.WriteOK(w, nil)
}
