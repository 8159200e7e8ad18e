package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/devasign/devasign/internal/api/service"
	"github.com/devasign/devasign/internal/api/store"
	"github.com/devasign/devasign/pkg/httpx"
	"github.com/devasign/devasign/pkg/jwtx"
	"github.com/devasign/devasign/pkg/slogx"

	_ "github.com/devasign/devasign/api/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Services are the use cases the routes dispatch to.
type Services struct {
	Handshake *service.HandshakeService
	Sessions  *service.SessionService
	Users     *service.UserService
	Bounties  *service.BountyService
	Messages  *service.MessageService
	Workflow  *service.WorkflowService
}

// RouterConfig carries what NewRouter needs to mount every route.
type RouterConfig struct {
	Keys     *jwtx.KeyManager
	Store    store.Store
	Logger   *slog.Logger
	Version  string
	Services Services

	// SecureCookies marks the OAuth state cookie Secure.
	SecureCookies bool
}

// Router is the API's http.Handler.
type Router struct {
	mux     *http.ServeMux
	handler http.Handler

	keys   *jwtx.KeyManager
	guards service.Guards
}

// NewRouter mounts all routes.
//
//	@title			Devasign API
//	@version		0.1.0
//	@description	Bounty marketplace API. Users log in through GitHub and receive a short-lived
//	@description	JWT access token plus an opaque refresh token that rotates on every use.
//	@description
//	@description				Access tokens are signed asymmetrically and can be verified using the JWKS endpoint.
//
//	@contact.name				Devasign Team
//	@contact.url				https://github.com/devasign/devasign
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func NewRouter(cfg RouterConfig) *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		keys:   cfg.Keys,
		guards: service.NewGuards(cfg.Store),
	}

	r.mountAuth(cfg)
	r.mountBounties(cfg.Services)
	r.mountWorkflow(cfg.Services)
	r.mountSystem(&HealthHandler{
		Version: cfg.Version,
		Started: time.Now(),
		Store:   cfg.Store,
		Keys:    cfg.Keys,
	})
	r.mux.Handle("/swagger/", httpSwagger.Handler())

	r.handler = slogx.HTTPMiddleware(cfg.Logger)(r.mux)
	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// public mounts h behind a per-address limit.
func (r *Router) public(pattern string, h http.HandlerFunc, limit httpx.RateLimitConfig) {
	r.mux.Handle(pattern, httpx.Chain(h, httpx.RateLimitByIP(limit)))
}

// private mounts h behind bearer authentication, a per-user limit and then
// guards, in that order.
func (r *Router) private(pattern string, h http.HandlerFunc, limit httpx.RateLimitConfig, guards ...httpx.Middleware) {
	chain := append([]httpx.Middleware{
		httpx.AuthnMiddleware(r.keys.Verifier),
		httpx.RateLimitByUser(limit),
	}, guards...)
	r.mux.Handle(pattern, httpx.Chain(h, chain...))
}

func (r *Router) mountAuth(cfg RouterConfig) {
	login := &ProviderHandler{Handshake: cfg.Services.Handshake, SecureCookies: cfg.SecureCookies}
	sessions := &SessionHandler{Sessions: cfg.Services.Sessions}

	// The redirect leg only hands out a nonce; the callback reaches GitHub.
	r.public("GET /auth/{provider}", login.HandleBegin, httpx.LenientLimit)
	r.public("GET /auth/{provider}/callback", login.HandleCallback, httpx.StrictLimit)

	r.public("POST /auth/refresh", sessions.HandleRefresh, httpx.ModerateLimit)
	r.public("POST /auth/logout", sessions.HandleLogout, httpx.ModerateLimit)
}

func (r *Router) mountBounties(s Services) {
	me := &MeHandler{Users: s.Users}
	bounties := &BountiesHandler{Bounties: s.Bounties}
	messages := &MessagesHandler{Messages: s.Messages}
	participant := r.guards.BountyParticipant.Require("id")

	r.private("GET /api/me", me.ServeHTTP, httpx.LenientLimit)

	r.private("GET /api/bounties", bounties.HandleList, httpx.LenientLimit)
	r.private("POST /api/bounties", bounties.HandleCreate, httpx.ModerateLimit)
	r.private("GET /api/bounties/{id}", bounties.HandleGet, httpx.LenientLimit)
	r.private("PATCH /api/bounties/{id}", bounties.HandleUpdate, httpx.ModerateLimit,
		r.guards.BountyCreator.Require("id"))
	r.private("POST /api/bounties/{id}/complete", bounties.HandleComplete, httpx.ModerateLimit,
		r.guards.BountyAssignee.Require("id"))

	r.private("GET /api/bounties/{id}/messages", messages.HandleList, httpx.LenientLimit, participant)
	r.private("POST /api/bounties/{id}/messages", messages.HandlePost, httpx.ModerateLimit, participant)
}

func (r *Router) mountWorkflow(s Services) {
	h := &WorkflowHandler{Workflow: s.Workflow}

	r.private("DELETE /api/applications/{id}", h.HandleWithdrawApplication, httpx.ModerateLimit,
		r.guards.ApplicationOwner.Require("id"))
	r.private("PATCH /api/submissions/{id}", h.HandleUpdateSubmission, httpx.ModerateLimit,
		r.guards.SubmissionOwner.Require("id"))
	r.private("DELETE /api/extension-requests/{id}", h.HandleCancelExtensionRequest, httpx.ModerateLimit,
		r.guards.ExtensionRequestOwner.Require("id"))
}

func (r *Router) mountSystem(h *HealthHandler) {
	r.public("GET /livez", h.HandleLive, httpx.PublicLimit)
	r.public("GET /readyz", h.HandleReady, httpx.PublicLimit)
	r.public("GET /.well-known/jwks.json", h.HandleJWKS, httpx.PublicLimit)
}
