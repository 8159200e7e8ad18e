package http

import (
	"net/http"

	"github.com/devasign/devasign/internal/api/service"
	"github.com/devasign/devasign/pkg/authsdk"
	"github.com/devasign/devasign/pkg/httpx"
)

// MessagesHandler serves the conversation on a bounty. Both routes sit
// behind the participant guard.
type MessagesHandler struct {
	Messages *service.MessageService
}

// HandleList godoc
//
//	@Summary	List bounty messages
//	@Tags		Messages
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string	true	"Bounty id"
//	@Param		cursor	query		string	false	"Opaque cursor from a previous page"
//	@Param		limit	query		int		false	"Page size (default 20, max 100)"
//	@Success	200		{object}	authsdk.Page[authsdk.Message]
//	@Failure	400		{object}	httpx.ErrorResponse	"Invalid cursor"
//	@Failure	403		{object}	httpx.ErrorResponse	"Forbidden: You must be a bounty participant"
//	@Router		/api/bounties/{id}/messages [get]
func (h *MessagesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.Messages.List(r.Context(), r.PathValue("id"), q.Get("cursor"), q.Get("limit"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page.Response())
}

// HandlePost godoc
//
//	@Summary	Send a message
//	@Tags		Messages
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string						true	"Bounty id"
//	@Param		body	body		authsdk.PostMessageRequest	true	"Message"
//	@Success	201		{object}	authsdk.Message
//	@Failure	400		{object}	httpx.ErrorResponse
//	@Failure	403		{object}	httpx.ErrorResponse	"Forbidden: You must be a bounty participant"
//	@Router		/api/bounties/{id}/messages [post]
func (h *MessagesHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req authsdk.PostMessageRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, httpx.ErrInvalidBody)
		return
	}

	m, err := h.Messages.Post(r.Context(), userID, r.PathValue("id"), req.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, m)
}
