package http

import (
	"net/http"
	"time"

	"github.com/devasign/devasign/internal/api/store"
	"github.com/devasign/devasign/pkg/authsdk"
	"github.com/devasign/devasign/pkg/httpx"
	"github.com/devasign/devasign/pkg/jwtx"
	"github.com/devasign/devasign/pkg/slogx"
)

// HealthHandler serves the probes and the key set document.
type HealthHandler struct {
	Version string
	Started time.Time
	Store   store.Store
	Keys    *jwtx.KeyManager
}

func (h *HealthHandler) uptime() string {
	return time.Since(h.Started).Round(time.Second).String()
}

// HandleLive godoc
//
//	@Summary		Liveness probe
//	@Description	Always 200 while the process serves HTTP.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Router			/livez [get]
func (h *HealthHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
		Status:  "ok",
		Uptime:  h.uptime(),
		Version: h.Version,
	})
}

// HandleReady godoc
//
//	@Summary		Readiness probe
//	@Description	Checks the database and the token keys. A key-less instance keeps serving
//	@Description	but answers 503 here so the gap is visible to orchestration.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Failure		503	{object}	authsdk.HealthResponse
//	@Router			/readyz [get]
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	checks := authsdk.HealthChecks{
		Database: "ok",
		Signer:   "ok",
		Verifier: "ok",
	}
	failed := false
	fail := func(field *string, reason string) {
		*field = "error: " + reason
		failed = true
	}

	if err := h.Store.Ping(r.Context()); err != nil {
		slogx.FromContext(r.Context()).Error("readiness: database ping failed", "error", err)
		fail(&checks.Database, "unreachable")
	}
	if !h.Keys.CanSign() {
		fail(&checks.Signer, "no signing key loaded")
	}
	if !h.Keys.IsReady() {
		fail(&checks.Verifier, "no verification key loaded")
	}

	resp := authsdk.HealthResponse{Status: "ok", Uptime: h.uptime(), Version: h.Version, Checks: &checks}
	code := http.StatusOK
	if failed {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	httpx.WriteJSON(w, code, resp)
}

// HandleJWKS godoc
//
//	@Summary		JSON Web Key Set
//	@Description	Public keys that verify access tokens, selected by the kid header.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse
//	@Router			/.well-known/jwks.json [get]
func (h *HealthHandler) HandleJWKS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(h.Keys.KeySet.PublicJWKS()))
}
