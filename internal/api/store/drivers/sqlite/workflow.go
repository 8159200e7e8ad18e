package sqlite

import (
	"context"

	"github.com/devasign/devasign/internal/api/domain"
	"github.com/jmoiron/sqlx"
)

type applicationsRepo struct {
	q sqlx.ExtContext
}

func (r *applicationsRepo) CreateApplication(ctx context.Context, a domain.Application) error {
	_, err := sqlx.NamedExecContext(ctx, r.q, `
		INSERT INTO applications (id, bounty_id, applicant_id, cover_letter, status, created_at)
		VALUES (:id, :bounty_id, :applicant_id, :cover_letter, :status, :created_at)`, a)
	return mapConstraint(err)
}

func (r *applicationsRepo) DeleteApplication(ctx context.Context, id string) error {
	return requireOne(r.q.ExecContext(ctx, `DELETE FROM applications WHERE id = ?`, id))
}

type submissionsRepo struct {
	q sqlx.ExtContext
}

func (r *submissionsRepo) CreateSubmission(ctx context.Context, s domain.Submission) error {
	_, err := sqlx.NamedExecContext(ctx, r.q, `
		INSERT INTO submissions (id, bounty_id, developer_id, pr_url, notes, status, created_at)
		VALUES (:id, :bounty_id, :developer_id, :pr_url, :notes, :status, :created_at)`, s)
	return mapConstraint(err)
}

func (r *submissionsRepo) UpdateSubmission(
	ctx context.Context,
	id string,
	u domain.SubmissionUpdate,
) (domain.Submission, error) {
	var s domain.Submission
	err := sqlx.GetContext(ctx, r.q, &s, `
		UPDATE submissions SET
			pr_url = COALESCE(?, pr_url),
			notes  = COALESCE(?, notes)
		WHERE id = ?
		RETURNING id, bounty_id, developer_id, pr_url, notes, status, created_at`,
		u.PRURL, u.Notes, id,
	)
	if err != nil {
		return domain.Submission{}, mapNotFound(err)
	}
	return s, nil
}

type extensionRequestsRepo struct {
	q sqlx.ExtContext
}

func (r *extensionRequestsRepo) CreateExtensionRequest(ctx context.Context, e domain.ExtensionRequest) error {
	_, err := sqlx.NamedExecContext(ctx, r.q, `
		INSERT INTO extension_requests (id, bounty_id, developer_id, requested_deadline, reason, status, created_at)
		VALUES (:id, :bounty_id, :developer_id, :requested_deadline, :reason, :status, :created_at)`, e)
	return mapConstraint(err)
}

func (r *extensionRequestsRepo) DeleteExtensionRequest(ctx context.Context, id string) error {
	return requireOne(r.q.ExecContext(ctx, `DELETE FROM extension_requests WHERE id = ?`, id))
}
