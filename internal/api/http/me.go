package http

import (
	"net/http"

	"github.com/devasign/devasign/internal/api/service"
	"github.com/devasign/devasign/pkg/httpx"
)

type MeHandler struct {
	Users *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Current user
//	@Description	Returns the account behind the access token.
//	@Tags			Users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.User
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Router			/api/me [get]
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	u, err := h.Users.Me(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}
