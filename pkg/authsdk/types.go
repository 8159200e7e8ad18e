package authsdk

import (
	"time"

	"github.com/devasign/devasign/pkg/jwtx"
)

// ============================================================================
// Session Types
// ============================================================================

// TokenPair is returned by POST /auth/refresh. Token is the short-lived JWT
// access token; RefreshToken is the opaque secret that rotates on every use.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse is returned by the provider callback after a successful
// handshake.
type LoginResponse struct {
	User         User   `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshTokenRequest is the body of POST /auth/refresh and POST /auth/logout.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SuccessResponse acknowledges a write that returns no resource.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ============================================================================
// User Types
// ============================================================================

// User is a marketplace account as the API exposes it.
type User struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	DisplayName       string    `json:"displayName,omitempty"`
	Email             string    `json:"email"`
	AvatarURL         string    `json:"avatarUrl"`
	TotalEarned       float64   `json:"totalEarned"`
	BountiesCompleted int       `json:"bountiesCompleted"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ============================================================================
// Bounty Types
// ============================================================================

type Bounty struct {
	ID            string     `json:"id"`
	GitHubIssueID *int64     `json:"githubIssueId,omitempty"`
	RepoOwner     string     `json:"repoOwner"`
	RepoName      string     `json:"repoName"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	AmountUSDC    float64    `json:"amountUsdc"`
	TechTags      []string   `json:"techTags"`
	Difficulty    string     `json:"difficulty"`
	Status        string     `json:"status"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	CreatorID     string     `json:"creatorId"`
	AssigneeID    *string    `json:"assigneeId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// CreateBountyRequest is the body of POST /api/bounties.
type CreateBountyRequest struct {
	RepoOwner   string     `json:"repoOwner,omitempty"`
	RepoName    string     `json:"repoName,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AmountUSDC  float64    `json:"amountUsdc"`
	TechTags    []string   `json:"techTags,omitempty"`
	Difficulty  string     `json:"difficulty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// UpdateBountyRequest is the body of PATCH /api/bounties/{id}. Nil fields
// are left unchanged.
type UpdateBountyRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	AmountUSDC  *float64   `json:"amountUsdc,omitempty"`
	TechTags    *[]string  `json:"techTags,omitempty"`
	Difficulty  *string    `json:"difficulty,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// BountyFilter narrows GET /api/bounties. Zero values are omitted.
type BountyFilter struct {
	TechStack  []string
	Difficulty string
	Status     string
	AmountMin  *float64
	AmountMax  *float64
	CreatorID  string
	AssigneeID string
}

// ============================================================================
// Message and Workflow Types
// ============================================================================

type Message struct {
	ID          string     `json:"id"`
	BountyID    string     `json:"bountyId"`
	SenderID    string     `json:"senderId"`
	RecipientID string     `json:"recipientId"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"createdAt"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
}

// PostMessageRequest is the body of POST /api/bounties/{id}/messages.
type PostMessageRequest struct {
	Content string `json:"content"`
}

type Submission struct {
	ID          string    `json:"id"`
	BountyID    string    `json:"bountyId"`
	DeveloperID string    `json:"developerId"`
	PRURL       string    `json:"prUrl"`
	Notes       string    `json:"notes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UpdateSubmissionRequest is the body of PATCH /api/submissions/{id}.
type UpdateSubmissionRequest struct {
	PRURL *string `json:"prUrl,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// ============================================================================
// Pagination Types
// ============================================================================

// PageMeta describes where a page sits in a keyset-paginated listing.
// NextCursor is nil on the last page.
type PageMeta struct {
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
	Count      int     `json:"count"`
}

// Page is one page of a listing.
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// PageRequest selects a page. An empty Cursor starts from the newest item;
// a zero Limit uses the server default.
type PageRequest struct {
	Cursor string
	Limit  int
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
	Verifier string `json:"verifier"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse contains the JSON Web Key Set published at
// GET /.well-known/jwks.json.
type JWKSResponse jwtx.JWKS
