package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/devasign/devasign/internal/api/domain"
	"github.com/devasign/devasign/internal/api/store"
	"github.com/devasign/devasign/pkg/idx"
	"github.com/devasign/devasign/pkg/pagex"
)

const maxTechTags = 20

// BountyService lists, creates and edits bounties.
type BountyService struct {
	Store store.Store
	Now   Clock
}

// BountyQuery is a listing request as it arrives from the query string.
type BountyQuery struct {
	TechStack  string // comma separated
	Difficulty string
	Status     string
	AmountMin  string
	AmountMax  string
	CreatorID  string
	AssigneeID string
	Cursor     string
	Limit      string
}

// ParseFilter validates the filter part of q.
func (q BountyQuery) ParseFilter() (domain.BountyFilter, error) {
	var f domain.BountyFilter

	for _, tag := range strings.Split(q.TechStack, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			f.TechStack = append(f.TechStack, tag)
		}
	}
	if q.Difficulty != "" {
		d, err := domain.ParseDifficulty(q.Difficulty)
		if err != nil {
			return f, invalid(err.Error())
		}
		f.Difficulty = d
	}
	if q.Status != "" {
		st, err := domain.ParseBountyStatus(q.Status)
		if err != nil {
			return f, invalid(err.Error())
		}
		f.Status = st
	}

	var err error
	if f.AmountMin, err = parseAmount("amount_min", q.AmountMin); err != nil {
		return f, err
	}
	if f.AmountMax, err = parseAmount("amount_max", q.AmountMax); err != nil {
		return f, err
	}
	if f.AmountMin != nil && f.AmountMax != nil && *f.AmountMin > *f.AmountMax {
		return f, invalid("amount_min must not be greater than amount_max")
	}

	if f.CreatorID, err = parseUserID("creator_id", q.CreatorID); err != nil {
		return f, err
	}
	if f.AssigneeID, err = parseUserID("assignee_id", q.AssigneeID); err != nil {
		return f, err
	}
	return f, nil
}

func parseUserID(name, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw != "" && !idx.Valid(raw) {
		return "", invalid(name + " must be a user id")
	}
	return raw, nil
}

func parseAmount(name, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, invalid(fmt.Sprintf("%s must be a non-negative number", name))
	}
	return &v, nil
}

func parseCursor(raw string) (*pagex.Cursor, error) {
	if raw == "" {
		return nil, nil
	}
	c, err := pagex.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	return &c, nil
}

func bountyCursor(b domain.Bounty) pagex.Cursor {
	return pagex.Cursor{OrderingKey: b.CreatedAt, ID: b.ID}
}

// List returns one page of bounties, newest first.
func (s *BountyService) List(ctx context.Context, q BountyQuery) (pagex.Page[domain.Bounty], error) {
	f, err := q.ParseFilter()
	if err != nil {
		return pagex.Page[domain.Bounty]{}, err
	}
	after, err := parseCursor(q.Cursor)
	if err != nil {
		return pagex.Page[domain.Bounty]{}, err
	}
	limit := pagex.ParseLimit(q.Limit, pagex.DefaultLimit, pagex.MaxLimit)

	rows, err := s.Store.Bounties().ListBounties(ctx, f, after, limit+1)
	if err != nil {
		return pagex.Page[domain.Bounty]{}, err
	}
	return pagex.NewPage(rows, limit, bountyCursor), nil
}

func (s *BountyService) Get(ctx context.Context, id string) (domain.Bounty, error) {
	b, err := s.Store.Bounties().GetBountyByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Bounty{}, ErrBountyNotFound
	}
	return b, err
}

// CreateBountyInput is the body of a new bounty.
type CreateBountyInput struct {
	RepoOwner   string            `json:"repoOwner"`
	RepoName    string            `json:"repoName"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	AmountUSDC  float64           `json:"amountUsdc"`
	TechTags    []string          `json:"techTags"`
	Difficulty  domain.Difficulty `json:"difficulty"`
	Deadline    *time.Time        `json:"deadline,omitempty"`
}

// Create stores a new open bounty owned by creatorID.
func (s *BountyService) Create(ctx context.Context, creatorID string, in CreateBountyInput) (domain.Bounty, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Bounty{}, invalid("title is required")
	}
	if in.AmountUSDC <= 0 {
		return domain.Bounty{}, invalid("amountUsdc must be greater than zero")
	}
	difficulty, err := domain.ParseDifficulty(string(in.Difficulty))
	if err != nil {
		return domain.Bounty{}, invalid(err.Error())
	}
	tags, err := cleanTags(in.TechTags)
	if err != nil {
		return domain.Bounty{}, err
	}

	now := s.Now.now()
	if in.Deadline != nil {
		d := in.Deadline.UTC().Truncate(time.Millisecond)
		if !d.After(now) {
			return domain.Bounty{}, invalid("deadline must be in the future")
		}
		in.Deadline = &d
	}

	b := domain.Bounty{
		ID:          idx.NewAt(now).String(),
		RepoOwner:   strings.TrimSpace(in.RepoOwner),
		RepoName:    strings.TrimSpace(in.RepoName),
		Title:       title,
		Description: in.Description,
		AmountUSDC:  in.AmountUSDC,
		TechTags:    tags,
		Difficulty:  difficulty,
		Status:      domain.BountyOpen,
		Deadline:    in.Deadline,
		CreatorID:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.Bounties().CreateBounty(ctx, b); err != nil {
		return domain.Bounty{}, err
	}
	return b, nil
}

// Update applies the non-nil fields of u.
func (s *BountyService) Update(ctx context.Context, id string, u domain.BountyUpdate) error {
	if u.Empty() {
		return invalid("No fields to update")
	}
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		if t == "" {
			return invalid("title must not be empty")
		}
		u.Title = &t
	}
	if u.AmountUSDC != nil && *u.AmountUSDC <= 0 {
		return invalid("amountUsdc must be greater than zero")
	}
	if u.Difficulty != nil {
		if _, err := domain.ParseDifficulty(string(*u.Difficulty)); err != nil {
			return invalid(err.Error())
		}
	}
	if u.Status != nil {
		if _, err := domain.ParseBountyStatus(string(*u.Status)); err != nil {
			return invalid(err.Error())
		}
	}
	if u.TechTags != nil {
		tags, err := cleanTags(*u.TechTags)
		if err != nil {
			return err
		}
		u.TechTags = &tags
	}
	if u.Deadline != nil {
		d := u.Deadline.UTC().Truncate(time.Millisecond)
		u.Deadline = &d
	}

	err := s.Store.Bounties().UpdateBounty(ctx, id, u, s.Now.now())
	if errors.Is(err, store.ErrNotFound) {
		return ErrBountyNotFound
	}
	return err
}

// Complete hands the bounty to the creator for review.
func (s *BountyService) Complete(ctx context.Context, id string) error {
	err := s.Store.Bounties().SetBountyStatus(ctx, id, domain.BountyInReview, s.Now.now())
	if errors.Is(err, store.ErrNotFound) {
		return ErrBountyNotFound
	}
	return err
}

func cleanTags(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	if len(out) > maxTechTags {
		return nil, invalid(fmt.Sprintf("at most %d tech tags are allowed", maxTechTags))
	}
	return out, nil
}
