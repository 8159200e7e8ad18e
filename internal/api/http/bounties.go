package http

import (
	"net/http"

	"github.com/devasign/devasign/internal/api/domain"
	"github.com/devasign/devasign/internal/api/service"
	"github.com/devasign/devasign/pkg/authsdk"
	"github.com/devasign/devasign/pkg/httpx"
)

type BountiesHandler struct {
	Bounties *service.BountyService
}

// HandleList godoc
//
//	@Summary		List bounties
//	@Description	Keyset-paginated listing, newest first. Pass meta.next_cursor back as cursor to get the next page.
//	@Tags			Bounties
//	@Produce		json
//	@Security		BearerAuth
//	@Param			cursor		query		string	false	"Opaque cursor from a previous page"
//	@Param			limit		query		int		false	"Page size (default 20, max 100)"
//	@Param			tech_stack	query		string	false	"Comma separated tags, any match"
//	@Param			difficulty	query		string	false	"Difficulty"	Enums(beginner, intermediate, advanced)
//	@Param			status		query		string	false	"Status"		Enums(open, assigned, in_review, completed, cancelled)
//	@Param			amount_min	query		number	false	"Minimum amount in USDC"
//	@Param			amount_max	query		number	false	"Maximum amount in USDC"
//	@Param			creator_id	query		string	false	"Creator user id"
//	@Param			assignee_id	query		string	false	"Assignee user id"
//	@Success		200			{object}	authsdk.Page[authsdk.Bounty]
//	@Failure		400			{object}	httpx.ErrorResponse	"Invalid cursor or filter"
//	@Failure		401			{object}	httpx.ErrorResponse
//	@Router			/api/bounties [get]
func (h *BountiesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.Bounties.List(r.Context(), service.BountyQuery{
		TechStack:  q.Get("tech_stack"),
		Difficulty: q.Get("difficulty"),
		Status:     q.Get("status"),
		AmountMin:  q.Get("amount_min"),
		AmountMax:  q.Get("amount_max"),
		CreatorID:  q.Get("creator_id"),
		AssigneeID: q.Get("assignee_id"),
		Cursor:     q.Get("cursor"),
		Limit:      q.Get("limit"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page.Response())
}

// HandleGet godoc
//
//	@Summary	Get bounty
//	@Tags		Bounties
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Bounty id"
//	@Success	200	{object}	authsdk.Bounty
//	@Failure	404	{object}	httpx.ErrorResponse	"Bounty not found"
//	@Router		/api/bounties/{id} [get]
func (h *BountiesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	b, err := h.Bounties.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

// HandleCreate godoc
//
//	@Summary	Create bounty
//	@Tags		Bounties
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		authsdk.CreateBountyRequest	true	"New bounty"
//	@Success	201		{object}	authsdk.Bounty
//	@Failure	400		{object}	httpx.ErrorResponse
//	@Failure	401		{object}	httpx.ErrorResponse
//	@Router		/api/bounties [post]
func (h *BountiesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var in service.CreateBountyInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.WriteError(w, httpx.ErrInvalidBody)
		return
	}

	b, err := h.Bounties.Create(r.Context(), userID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, b)
}

// HandleUpdate godoc
//
//	@Summary		Update bounty
//	@Description	Only the bounty creator may edit it.
//	@Tags			Bounties
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string						true	"Bounty id"
//	@Param			body	body		authsdk.UpdateBountyRequest	true	"Fields to change"
//	@Success		200		{object}	authsdk.SuccessResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		403		{object}	httpx.ErrorResponse	"Forbidden: You must be the bounty creator"
//	@Router			/api/bounties/{id} [patch]
func (h *BountiesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var u domain.BountyUpdate
	if err := httpx.DecodeJSON(w, r, &u); err != nil {
		httpx.WriteError(w, httpx.ErrInvalidBody)
		return
	}

	if err := h.Bounties.Update(r.Context(), r.PathValue("id"), u); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{Success: true, Message: "Bounty updated"})
}

// HandleComplete godoc
//
//	@Summary		Submit bounty for review
//	@Description	Only the assigned developer may mark the work as ready.
//	@Tags			Bounties
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Bounty id"
//	@Success		200	{object}	authsdk.SuccessResponse
//	@Failure		403	{object}	httpx.ErrorResponse	"Forbidden: You must be the assigned developer"
//	@Router			/api/bounties/{id}/complete [post]
func (h *BountiesHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	if err := h.Bounties.Complete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{Success: true, Message: "Bounty submitted for review"})
}
