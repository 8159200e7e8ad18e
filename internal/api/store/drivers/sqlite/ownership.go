package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type ownershipRepo struct {
	q sqlx.ExtContext
}

func (r *ownershipRepo) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := sqlx.GetContext(ctx, r.q, &ok, `SELECT EXISTS (`+query+`)`, args...); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *ownershipRepo) IsBountyCreator(ctx context.Context, userID, bountyID string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM bounties WHERE id = ? AND creator_id = ?`, bountyID, userID)
}

func (r *ownershipRepo) IsBountyAssignee(ctx context.Context, userID, bountyID string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM bounties WHERE id = ? AND assignee_id = ?`, bountyID, userID)
}

func (r *ownershipRepo) IsBountyParticipant(ctx context.Context, userID, bountyID string) (bool, error) {
	return r.exists(ctx,
		`SELECT 1 FROM bounties WHERE id = ? AND (creator_id = ? OR assignee_id = ?)`,
		bountyID, userID, userID,
	)
}

func (r *ownershipRepo) IsApplicationOwner(ctx context.Context, userID, applicationID string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM applications WHERE id = ? AND applicant_id = ?`, applicationID, userID)
}

func (r *ownershipRepo) IsSubmissionOwner(ctx context.Context, userID, submissionID string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM submissions WHERE id = ? AND developer_id = ?`, submissionID, userID)
}

func (r *ownershipRepo) IsExtensionRequestOwner(ctx context.Context, userID, extensionRequestID string) (bool, error) {
	return r.exists(ctx,
		`SELECT 1 FROM extension_requests WHERE id = ? AND developer_id = ?`,
		extensionRequestID, userID,
	)
}
