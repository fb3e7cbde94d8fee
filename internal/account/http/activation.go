package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/accountd/internal/account/service"
	"github.com/aussiebroadwan/accountd/pkg/accountsdk"
	"github.com/aussiebroadwan/accountd/pkg/httpx"
	"github.com/aussiebroadwan/accountd/pkg/metricsx"
)

// ActivationHandler verifies activation links. The same check is reachable
// as a JSON POST and as a plain GET carrying the link's query string.
type ActivationHandler struct {
	ActivationService *service.ActivationService
	Metrics           *metricsx.Metrics
}

type activationBody struct {
	AccountID string `json:"accountId"`
	Sign      string `json:"sign"`
	Timestamp millis `json:"timestamp"`
}

// HandlePost godoc
//
//	@Summary		Activate Account
//	@Description	Verify the parameters of an emailed activation link and activate the account.
//	@Tags			Activation
//	@Accept			json
//	@Produce		json
//	@Param			body	body		accountsdk.ActivationRequest	true	"accountId, sign, timestamp"
//	@Success		200		{object}	accountsdk.Response[any]
//	@Failure		500		{object}	accountsdk.Response[any]
//	@Router			/v1/auth/activation [post].
func (h *ActivationHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	var body activationBody
	if !decodeBody(w, r, h.Metrics, "activate", &body) {
		return
	}
	h.verify(w, r, body.AccountID, body.Sign, int64(body.Timestamp))
}

// HandleGet godoc
//
//	@Summary		Activate Account (link)
//	@Description	Same as the POST form, with the parameters taken from the query string.
//	@Tags			Activation
//	@Produce		json
//	@Param			accountId	query		string	true	"Account id"
//	@Param			sign		query		string	true	"Link signature"
//	@Param			timestamp	query		int		true	"Link expiry in Unix milliseconds"
//	@Success		200			{object}	accountsdk.Response[any]
//	@Failure		500			{object}	accountsdk.Response[any]
//	@Router			/v1/auth/activation [get].
func (h *ActivationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// A timestamp that does not parse is treated like an expired link.
	ts, _ := strconv.ParseInt(q.Get("timestamp"), 10, 64)
	h.verify(w, r, q.Get("accountId"), q.Get("sign"), ts)
}

func (h *ActivationHandler) verify(w http.ResponseWriter, r *http.Request, accountID, sign string, ts int64) {
	if err := h.ActivationService.Verify(r.Context(), accountID, sign, ts); err != nil {
		writeFault(w, r, h.Metrics, "activate", err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteOK(w, nil)
}

type ResendActivationHandler struct {
	ActivationService *service.ActivationService
	Metrics           *metricsx.Metrics
}

// ServeHTTP godoc
//
//	@Summary		Resend Activation Email
//	@Description	Mail a fresh activation link to a registered address. Earlier links stop working.
//	@Tags			Activation
//	@Accept			json
//	@Produce		json
//	@Param			body	body		accountsdk.ResendActivationRequest	true	"email"
//	@Success		200		{object}	accountsdk.Response[any]
//	@Failure		500		{object}	accountsdk.Response[any]
//	@Router			/v1/auth/activation/resend [post].
func (h *ResendActivationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body accountsdk.ResendActivationRequest
	if !decodeBody(w, r, h.Metrics, "resend_activation", &body) {
		return
	}

	if err := h.ActivationService.Resend(r.Context(), body.Email); err != nil {
		writeFault(w, r, h.Metrics, "resend_activation", err)
		return
	}

	httpx.WriteOK(w, nil)
}
