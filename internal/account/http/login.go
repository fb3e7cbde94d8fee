package http

import (
	"net/http"

	"github.com/aussiebroadwan/accountd/internal/account/service"
	"github.com/aussiebroadwan/accountd/pkg/accountsdk"
	"github.com/aussiebroadwan/accountd/pkg/httpx"
	"github.com/aussiebroadwan/accountd/pkg/metricsx"
)

type LoginHandler struct {
	AccountService *service.AccountService
	Metrics        *metricsx.Metrics
}

// ServeHTTP godoc
//
//	@Summary		Password Login
//	@Description	Exchange an email or mobile plus password digest for a session credential.
//	@Description	Logging in again on the same device class refreshes the existing session.
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		accountsdk.LoginRequest	true	"email or mobile, pwd, optional device"
//	@Success		200		{object}	accountsdk.Response[accountsdk.Credential]
//	@Failure		500		{object}	accountsdk.Response[any]
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body accountsdk.LoginRequest
	if !decodeBody(w, r, h.Metrics, "login", &body) {
		return
	}

	cred, err := h.AccountService.Login(r.Context(), &service.LoginRequest{
		Email:       body.Email,
		Mobile:      body.Mobile,
		Password:    body.Password,
		DeviceClass: body.Device,
	})
	if err != nil {
		writeFault(w, r, h.Metrics, "login", err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteOK(w, toCredential(cred))
}
