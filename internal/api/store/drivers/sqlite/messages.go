package sqlite

import (
	"context"

	"github.com/devasign/devasign/internal/api/domain"
	"github.com/devasign/devasign/pkg/pagex"
	"github.com/jmoiron/sqlx"
)

type messagesRepo struct {
	q sqlx.ExtContext
}

func (r *messagesRepo) CreateMessage(ctx context.Context, m domain.Message) error {
	_, err := sqlx.NamedExecContext(ctx, r.q, `
		INSERT INTO messages (id, bounty_id, sender_id, recipient_id, content, created_at, read_at)
		VALUES (:id, :bounty_id, :sender_id, :recipient_id, :content, :created_at, :read_at)`, m)
	return mapConstraint(err)
}

func (r *messagesRepo) ListMessages(
	ctx context.Context,
	bountyID string,
	after *pagex.Cursor,
	limit int,
) ([]domain.Message, error) {
	query := `
		SELECT id, bounty_id, sender_id, recipient_id, content, created_at, read_at
		FROM messages WHERE bounty_id = ?`
	args := []any{bountyID}

	if after != nil {
		clause, cargs := after.Condition("created_at", "id")
		query += ` AND ` + clause
		args = append(args, cargs...)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	out := []domain.Message{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}
