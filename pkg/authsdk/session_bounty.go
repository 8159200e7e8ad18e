package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

func bountyPath(id string) string { return "/api/bounties/" + url.PathEscape(id) }

// ListBounties returns one page of bounties matching f, newest first.
// Pass the previous page's Meta.NextCursor to continue.
func (s *Session) ListBounties(ctx context.Context, f BountyFilter, page PageRequest) (*Page[Bounty], error) {
	var out Page[Bounty]
	c := get("/api/bounties", &out)
	c.query = f.values(page.values())
	if err := s.send(ctx, c); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) GetBounty(ctx context.Context, id string) (*Bounty, error) {
	var b Bounty
	if err := s.send(ctx, get(bountyPath(id), &b)); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBounty posts a new open bounty owned by the session's user.
func (s *Session) CreateBounty(ctx context.Context, req CreateBountyRequest) (*Bounty, error) {
	var b Bounty
	err := s.send(ctx, call{method: http.MethodPost, path: "/api/bounties", body: req, want: http.StatusCreated, out: &b})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBounty edits a bounty. Creator only.
func (s *Session) UpdateBounty(ctx context.Context, id string, req UpdateBountyRequest) error {
	return s.send(ctx, call{method: http.MethodPatch, path: bountyPath(id), body: req, want: http.StatusOK, out: &SuccessResponse{}})
}

// CompleteBounty submits a bounty for review. Assignee only.
func (s *Session) CompleteBounty(ctx context.Context, id string) error {
	return s.send(ctx, call{method: http.MethodPost, path: bountyPath(id) + "/complete", want: http.StatusOK, out: &SuccessResponse{}})
}

func (f BountyFilter) values(q url.Values) url.Values {
	if len(f.TechStack) > 0 {
		q.Set("tech_stack", strings.Join(f.TechStack, ","))
	}
	setIfNotEmpty(q, "difficulty", f.Difficulty)
	setIfNotEmpty(q, "status", f.Status)
	setIfNotEmpty(q, "creator_id", f.CreatorID)
	setIfNotEmpty(q, "assignee_id", f.AssigneeID)
	if f.AmountMin != nil {
		q.Set("amount_min", strconv.FormatFloat(*f.AmountMin, 'f', -1, 64))
	}
	if f.AmountMax != nil {
		q.Set("amount_max", strconv.FormatFloat(*f.AmountMax, 'f', -1, 64))
	}
	return q
}

func (p PageRequest) values() url.Values {
	q := url.Values{}
	setIfNotEmpty(q, "cursor", p.Cursor)
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

func setIfNotEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
