package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/accountd/internal/account/service"
	"github.com/aussiebroadwan/accountd/pkg/accountsdk"
	"github.com/aussiebroadwan/accountd/pkg/httpx"
	"github.com/aussiebroadwan/accountd/pkg/metricsx"
)

type LogoutHandler struct {
	SessionService *service.SessionService
	Metrics        *metricsx.Metrics
}

// ServeHTTP godoc
//
//	@Summary		Logout
//	@Description	Delete a session token. Unknown or missing tokens are ignored, so logout always succeeds.
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		accountsdk.LogoutRequest	false	"accountId, tokenId"
//	@Success		200		{object}	accountsdk.Response[any]
//	@Failure		500		{object}	accountsdk.Response[any]
//	@Router			/v1/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body accountsdk.LogoutRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		writeFault(w, r, h.Metrics, "logout", service.ErrDataMissing)
		return
	}

	if err := h.SessionService.Logout(r.Context(), body.AccountID, body.TokenID); err != nil {
		writeFault(w, r, h.Metrics, "logout", err)
		return
	}

	httpx.WriteOK(w, nil)
}
