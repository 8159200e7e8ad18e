package sqlite

import (
	"context"

	"github.com/devasign/devasign/internal/api/domain"
	"github.com/jmoiron/sqlx"
)

type usersRepo struct {
	q sqlx.ExtContext
}

const userColumns = `id, provider_id, username, display_name, email, avatar_url,
	total_earned, bounties_completed, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.q, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) UpsertUser(ctx context.Context, u domain.User) (domain.User, error) {
	const query = `
		INSERT INTO users (id, provider_id, username, display_name, email, avatar_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider_id) DO UPDATE SET
			username     = excluded.username,
			display_name = excluded.display_name,
			email        = excluded.email,
			avatar_url   = excluded.avatar_url,
			updated_at   = excluded.updated_at
		RETURNING ` + userColumns

	var out domain.User
	err := sqlx.GetContext(ctx, r.q, &out, query,
		u.ID, u.ProviderID, u.Username, u.DisplayName, u.Email, u.AvatarURL, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapConstraint(err)
	}
	return out, nil
}
