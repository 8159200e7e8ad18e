package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

func (s *Session) deleteResource(ctx context.Context, path string) error {
	return s.send(ctx, call{method: http.MethodDelete, path: path, want: http.StatusOK, out: &SuccessResponse{}})
}

// WithdrawApplication deletes one of the user's own applications.
func (s *Session) WithdrawApplication(ctx context.Context, id string) error {
	return s.deleteResource(ctx, "/api/applications/"+url.PathEscape(id))
}

// UpdateSubmission edits the PR link or notes of the user's own submission.
func (s *Session) UpdateSubmission(ctx context.Context, id string, req UpdateSubmissionRequest) (*Submission, error) {
	var sub Submission
	err := s.send(ctx, call{
		method: http.MethodPatch,
		path:   "/api/submissions/" + url.PathEscape(id),
		body:   req,
		want:   http.StatusOK,
		out:    &sub,
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelExtensionRequest deletes one of the user's own extension requests.
func (s *Session) CancelExtensionRequest(ctx context.Context, id string) error {
	return s.deleteResource(ctx, "/api/extension-requests/"+url.PathEscape(id))
}
