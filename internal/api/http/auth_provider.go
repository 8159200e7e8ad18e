package http

import (
	"net/http"

	"github.com/devasign/devasign/internal/api/service"
	"github.com/devasign/devasign/pkg/httpx"
)

const (
	// StateCookieName carries the OAuth state nonce between the redirect to
	// the provider and the callback.
	StateCookieName = "oauth_state"

	stateCookieMaxAge = 600 // seconds
)

// ProviderHandler serves the two legs of the OAuth handshake:
// GET /auth/{provider} and GET /auth/{provider}/callback.
type ProviderHandler struct {
	Handshake *service.HandshakeService

	// SecureCookies marks the state cookie Secure. On in production.
	SecureCookies bool
}

func (h *ProviderHandler) callbackPath() string {
	return "/auth/" + h.Handshake.Provider.Name() + "/callback"
}

func (h *ProviderHandler) knownProvider(w http.ResponseWriter, r *http.Request) bool {
	if r.PathValue("provider") != h.Handshake.Provider.Name() {
		httpx.WriteError(w, errUnknownProvider)
		return false
	}
	return true
}

// HandleBegin godoc
//
//	@Summary		Start OAuth login
//	@Description	Sets a single-use state cookie and redirects the browser to the identity provider.
//	@Tags			Auth
//	@Param			provider	path	string	true	"Identity provider"	Enums(github)
//	@Success		302			"Redirect to the provider's authorize page"
//	@Header			302			{string}	Location	"Provider authorize URL"
//	@Header			302			{string}	Set-Cookie	"oauth_state nonce, HttpOnly, 10 minutes"
//	@Failure		404			{object}	httpx.ErrorResponse	"Unknown provider"
//	@Failure		500			{object}	httpx.ErrorResponse
//	@Router			/auth/{provider} [get]
func (h *ProviderHandler) HandleBegin(w http.ResponseWriter, r *http.Request) {
	if !h.knownProvider(w, r) {
		return
	}

	state, redirectURL, err := h.Handshake.Begin()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     h.callbackPath(),
		MaxAge:   stateCookieMaxAge,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.NoCache(w)
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// HandleCallback godoc
//
//	@Summary		Complete OAuth login
//	@Description	Validates the state nonce against the cookie, exchanges the code with the provider,
//	@Description	creates or refreshes the user and returns a fresh token pair. The state cookie is
//	@Description	cleared whatever the outcome.
//	@Tags			Auth
//	@Produce		json
//	@Param			provider	path		string	true	"Identity provider"	Enums(github)
//	@Param			code		query		string	true	"Authorization code"
//	@Param			state		query		string	true	"State nonce"
//	@Success		200			{object}	authsdk.LoginResponse
//	@Failure		400			{object}	httpx.ErrorResponse	"Authorization code missing, Invalid state or unverified email"
//	@Failure		404			{object}	httpx.ErrorResponse	"Unknown provider"
//	@Failure		500			{object}	httpx.ErrorResponse	"Authentication failed"
//	@Router			/auth/{provider}/callback [get]
func (h *ProviderHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if !h.knownProvider(w, r) {
		return
	}

	var cookieState string
	if c, err := r.Cookie(StateCookieName); err == nil {
		cookieState = c.Value
	}

	// The nonce is single use, so it goes before anything can fail.
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     h.callbackPath(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	q := r.URL.Query()
	session, err := h.Handshake.Complete(r.Context(), q.Get("code"), q.Get("state"), cookieState)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, session)
}
