package http

import (
	"net/http"

	"github.com/devasign/devasign/internal/api/domain"
	"github.com/devasign/devasign/internal/api/service"
	"github.com/devasign/devasign/pkg/authsdk"
	"github.com/devasign/devasign/pkg/httpx"
)

// WorkflowHandler serves the developer-owned resources hanging off a bounty.
type WorkflowHandler struct {
	Workflow *service.WorkflowService
}

// HandleWithdrawApplication godoc
//
//	@Summary	Withdraw application
//	@Tags		Workflow
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Application id"
//	@Success	200	{object}	authsdk.SuccessResponse
//	@Failure	403	{object}	httpx.ErrorResponse	"Forbidden: You must be the application owner"
//	@Router		/api/applications/{id} [delete]
func (h *WorkflowHandler) HandleWithdrawApplication(w http.ResponseWriter, r *http.Request) {
	if err := h.Workflow.WithdrawApplication(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{Success: true, Message: "Application withdrawn"})
}

// HandleUpdateSubmission godoc
//
//	@Summary	Update submission
//	@Tags		Workflow
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string							true	"Submission id"
//	@Param		body	body		authsdk.UpdateSubmissionRequest	true	"Fields to change"
//	@Success	200		{object}	authsdk.Submission
//	@Failure	400		{object}	httpx.ErrorResponse
//	@Failure	403		{object}	httpx.ErrorResponse	"Forbidden: You must be the submission owner"
//	@Router		/api/submissions/{id} [patch]
func (h *WorkflowHandler) HandleUpdateSubmission(w http.ResponseWriter, r *http.Request) {
	var u domain.SubmissionUpdate
	if err := httpx.DecodeJSON(w, r, &u); err != nil {
		httpx.WriteError(w, httpx.ErrInvalidBody)
		return
	}

	sub, err := h.Workflow.UpdateSubmission(r.Context(), r.PathValue("id"), u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sub)
}

// HandleCancelExtensionRequest godoc
//
//	@Summary	Cancel extension request
//	@Tags		Workflow
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Extension request id"
//	@Success	200	{object}	authsdk.SuccessResponse
//	@Failure	403	{object}	httpx.ErrorResponse	"Forbidden: You must be the extension request owner"
//	@Router		/api/extension-requests/{id} [delete]
func (h *WorkflowHandler) HandleCancelExtensionRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.Workflow.CancelExtensionRequest(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{Success: true, Message: "Extension request cancelled"})
}
