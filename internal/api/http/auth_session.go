package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/devasign/devasign/internal/api/service"
	"github.com/devasign/devasign/pkg/authsdk"
	"github.com/devasign/devasign/pkg/httpx"
	"github.com/devasign/devasign/pkg/slogx"
)

// SessionHandler serves refresh-token rotation and logout.
type SessionHandler struct {
	Sessions *service.SessionService
}

// HandleRefresh godoc
//
//	@Summary		Rotate refresh token
//	@Description	Exchanges a refresh token for a new access token and a new refresh token.
//	@Description	The presented refresh token is consumed and can never be used again.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RefreshTokenRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.TokenPair
//	@Failure		400		{object}	httpx.ErrorResponse	"Refresh token is required"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid refresh token, expired or user not found"
//	@Failure		500		{object}	httpx.ErrorResponse
//	@Router			/auth/refresh [post]
func (h *SessionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshTokenRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, httpx.ErrInvalidBody)
		return
	}

	pair, err := h.Sessions.Rotate(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// HandleLogout godoc
//
//	@Summary		Log out
//	@Description	Revokes the refresh token. Unknown or already revoked tokens still answer success.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RefreshTokenRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.SuccessResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Refresh token is required"
//	@Router			/auth/logout [post]
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshTokenRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, httpx.ErrInvalidBody)
		return
	}

	if err := h.Sessions.Revoke(r.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, service.ErrMissingRefreshToken) {
			httpx.WriteError(w, errMissingRefreshToken)
			return
		}
		slogx.FromContext(r.Context()).Warn("revoke refresh failed", slog.Any("error", err))
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{Success: true})
}
