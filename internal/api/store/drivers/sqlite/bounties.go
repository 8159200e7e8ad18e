package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/devasign/devasign/internal/api/domain"
	"github.com/devasign/devasign/pkg/pagex"
	"github.com/jmoiron/sqlx"
)

type bountiesRepo struct {
	q sqlx.ExtContext
}

// bountyRow carries tech_tags as the JSON text sqlite stores.
type bountyRow struct {
	domain.Bounty
	TechTagsJSON string `db:"tech_tags"`
}

func (row bountyRow) toDomain() (domain.Bounty, error) {
	b := row.Bounty
	b.TechTags = []string{}
	if row.TechTagsJSON != "" {
		if err := json.Unmarshal([]byte(row.TechTagsJSON), &b.TechTags); err != nil {
			return domain.Bounty{}, fmt.Errorf("bounty %s: decode tech_tags: %w", b.ID, err)
		}
	}
	return b, nil
}

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	out, _ := json.Marshal(tags)
	return string(out)
}

const bountyColumns = `id, github_issue_id, repo_owner, repo_name, title, description, amount_usdc,
	tech_tags, difficulty, status, deadline, creator_id, assignee_id, created_at, updated_at`

func (r *bountiesRepo) CreateBounty(ctx context.Context, b domain.Bounty) error {
	_, err := sqlx.NamedExecContext(ctx, r.q, `
		INSERT INTO bounties (`+bountyColumns+`)
		VALUES (:id, :github_issue_id, :repo_owner, :repo_name, :title, :description, :amount_usdc,
			:tech_tags, :difficulty, :status, :deadline, :creator_id, :assignee_id, :created_at, :updated_at)`,
		bountyRow{Bounty: b, TechTagsJSON: encodeTags(b.TechTags)},
	)
	return mapConstraint(err)
}

func (r *bountiesRepo) GetBountyByID(ctx context.Context, id string) (domain.Bounty, error) {
	var row bountyRow
	err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+bountyColumns+` FROM bounties WHERE id = ?`, id)
	if err != nil {
		return domain.Bounty{}, mapNotFound(err)
	}
	return row.toDomain()
}

func (r *bountiesRepo) ListBounties(
	ctx context.Context,
	f domain.BountyFilter,
	after *pagex.Cursor,
	limit int,
) ([]domain.Bounty, error) {
	var (
		where []string
		args  []any
	)

	if len(f.TechStack) > 0 {
		tags := make([]string, len(f.TechStack))
		for i, t := range f.TechStack {
			tags[i] = strings.ToLower(t)
		}
		where = append(where, `EXISTS (SELECT 1 FROM json_each(bounties.tech_tags) WHERE lower(json_each.value) IN (?))`)
		args = append(args, tags)
	}
	if f.Difficulty != "" {
		where = append(where, `difficulty = ?`)
		args = append(args, f.Difficulty)
	}
	if f.Status != "" {
		where = append(where, `status = ?`)
		args = append(args, f.Status)
	}
	if f.AmountMin != nil {
		where = append(where, `amount_usdc >= ?`)
		args = append(args, *f.AmountMin)
	}
	if f.AmountMax != nil {
		where = append(where, `amount_usdc <= ?`)
		args = append(args, *f.AmountMax)
	}
	if f.CreatorID != "" {
		where = append(where, `creator_id = ?`)
		args = append(args, f.CreatorID)
	}
	if f.AssigneeID != "" {
		where = append(where, `assignee_id = ?`)
		args = append(args, f.AssigneeID)
	}
	if after != nil {
		clause, cargs := after.Condition("created_at", "id")
		where = append(where, clause)
		args = append(args, cargs...)
	}

	query := `SELECT ` + bountyColumns + ` FROM bounties`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	// Expands the tech tag slice into one placeholder per tag.
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}

	var rows []bountyRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(query), args...); err != nil {
		return nil, err
	}

	out := make([]domain.Bounty, 0, len(rows))
	for _, row := range rows {
		b, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *bountiesRepo) UpdateBounty(ctx context.Context, id string, u domain.BountyUpdate, now time.Time) error {
	set := []string{`updated_at = ?`}
	args := []any{now}

	if u.Title != nil {
		set = append(set, `title = ?`)
		args = append(args, *u.Title)
	}
	if u.Description != nil {
		set = append(set, `description = ?`)
		args = append(args, *u.Description)
	}
	if u.AmountUSDC != nil {
		set = append(set, `amount_usdc = ?`)
		args = append(args, *u.AmountUSDC)
	}
	if u.TechTags != nil {
		set = append(set, `tech_tags = ?`)
		args = append(args, encodeTags(*u.TechTags))
	}
	if u.Difficulty != nil {
		set = append(set, `difficulty = ?`)
		args = append(args, *u.Difficulty)
	}
	if u.Status != nil {
		set = append(set, `status = ?`)
		args = append(args, *u.Status)
	}
	if u.Deadline != nil {
		set = append(set, `deadline = ?`)
		args = append(args, *u.Deadline)
	}

	args = append(args, id)
	return requireOne(r.q.ExecContext(ctx,
		`UPDATE bounties SET `+strings.Join(set, `, `)+` WHERE id = ?`, args...))
}

func (r *bountiesRepo) SetBountyStatus(ctx context.Context, id string, status domain.BountyStatus, now time.Time) error {
	return requireOne(r.q.ExecContext(ctx,
		`UPDATE bounties SET status = ?, updated_at = ? WHERE id = ?`, status, now, id))
}
