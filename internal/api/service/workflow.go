package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/devasign/devasign/internal/api/domain"
	"github.com/devasign/devasign/internal/api/store"
)

// WorkflowService covers the developer side of a bounty: applications,
// submissions and deadline extension requests. Ownership is checked by the
// router guards before any of these run.
type WorkflowService struct {
	Store store.Store
}

func (s *WorkflowService) WithdrawApplication(ctx context.Context, id string) error {
	err := s.Store.Applications().DeleteApplication(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrApplicationNotFound
	}
	return err
}

func (s *WorkflowService) CancelExtensionRequest(ctx context.Context, id string) error {
	err := s.Store.ExtensionRequests().DeleteExtensionRequest(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrExtensionRequestNotFound
	}
	return err
}

func (s *WorkflowService) UpdateSubmission(ctx context.Context, id string, u domain.SubmissionUpdate) (domain.Submission, error) {
	if u.PRURL == nil && u.Notes == nil {
		return domain.Submission{}, invalid("No fields to update")
	}
	if u.PRURL != nil {
		raw := strings.TrimSpace(*u.PRURL)
		parsed, err := url.Parse(raw)
		if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
			return domain.Submission{}, invalid("prUrl must be an http(s) URL")
		}
		u.PRURL = &raw
	}

	sub, err := s.Store.Submissions().UpdateSubmission(ctx, id, u)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Submission{}, ErrSubmissionNotFound
	}
	return sub, err
}
