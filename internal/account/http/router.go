package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/accountd/internal/account/domain"
	"github.com/aussiebroadwan/accountd/internal/account/service"
	"github.com/aussiebroadwan/accountd/internal/account/store"
	"github.com/aussiebroadwan/accountd/pkg/httpx"
	"github.com/aussiebroadwan/accountd/pkg/metricsx"
	"github.com/aussiebroadwan/accountd/pkg/slogx"

	_ "github.com/aussiebroadwan/accountd/api/account" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// PowerAccountAdmin is required for the administrative account routes.
const PowerAccountAdmin = "account:admin"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	metrics      *metricsx.Metrics

	store             store.Store
	AccountService    *service.AccountService
	SessionService    *service.SessionService
	ActivationService *service.ActivationService

	// Permissions backs the admin routes. When nil every admin call is refused.
	Permissions httpx.PermissionChecker
}

func NewRouter(
	buildVersion string,
	st store.Store,
	metrics *metricsx.Metrics,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		metrics:      metrics,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		r.metrics.Instrument,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerAuth()
	r.registerActivation()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			accountd API
//	@version		0.1.0
//	@description	Account registration, password login, activation links and session credential checks.
//	@description
//	@description	Every response is an envelope {code, msg, data}. Code 0 is success; expected failures
//	@description	are reported with a negative code and HTTP 200.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/accountd
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	CredentialAuth
//	@in							header
//	@name						X-Auth-Token-Sign
//	@description				Session credential. Send X-Auth-User-Id, X-Auth-Token-Id, X-Auth-Timestamp and X-Auth-Token-Sign together.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authenticated wraps h so that it only runs for a valid credential.
func (r *Router) authenticated(h http.Handler, mws ...httpx.Middleware) http.Handler {
	chain := append([]httpx.Middleware{httpx.Authenticate(r.checkCredential, r.rejectCredential)}, mws...)
	return httpx.Chain(h, chain...)
}

func (r *Router) checkCredential(ctx context.Context, c httpx.Credential) error {
	return r.SessionService.Authenticate(ctx, domain.Credential{
		AccountID: c.AccountID,
		TokenID:   c.TokenID,
		Signature: c.Signature,
		Timestamp: c.Timestamp,
	})
}

func (r *Router) rejectCredential(w http.ResponseWriter, req *http.Request, err error) {
	writeFault(w, req, r.metrics, "authenticate", err)
}

func (r *Router) permissions() httpx.PermissionChecker {
	if r.Permissions == nil {
		return httpx.StaticPermissions{}
	}
	return r.Permissions
}

func (r *Router) registerAccounts() {
	r.Mux.Handle("POST /v1/accounts", &NewAccountHandler{
		AccountService: r.AccountService,
		Metrics:        r.metrics,
	})

	r.Mux.Handle("GET /v1/accounts/me", r.authenticated(&MeHandler{
		AccountService: r.AccountService,
		Metrics:        r.metrics,
	}))
}

func (r *Router) registerAuth() {
	r.Mux.Handle("POST /v1/auth/login", &LoginHandler{
		AccountService: r.AccountService,
		Metrics:        r.metrics,
	})
	r.Mux.Handle("POST /v1/auth/authentication", &AuthenticationHandler{
		SessionService: r.SessionService,
		Metrics:        r.metrics,
	})
	r.Mux.Handle("POST /v1/auth/logout", &LogoutHandler{
		SessionService: r.SessionService,
		Metrics:        r.metrics,
	})
}

func (r *Router) registerActivation() {
	h := &ActivationHandler{
		ActivationService: r.ActivationService,
		Metrics:           r.metrics,
	}
	r.Mux.HandleFunc("POST /v1/auth/activation", h.HandlePost)
	r.Mux.HandleFunc("GET /v1/auth/activation", h.HandleGet)

	r.Mux.Handle("POST /v1/auth/activation/resend", &ResendActivationHandler{
		ActivationService: r.ActivationService,
		Metrics:           r.metrics,
	})
}

func (r *Router) registerAdmin() {
	h := &AdminAccountsHandler{
		AccountService: r.AccountService,
		Metrics:        r.metrics,
	}

	requireAdmin := httpx.RequirePowers(r.permissions(), PowerAccountAdmin)

	r.Mux.Handle("POST /v1/admin/accounts/{id}/activate",
		r.authenticated(http.HandlerFunc(h.HandleActivate), requireAdmin))
	r.Mux.Handle("DELETE /v1/admin/accounts/{id}",
		r.authenticated(http.HandlerFunc(h.HandleRemove), requireAdmin))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
	r.Mux.Handle("GET /metrics", r.metrics.Handler())
}
