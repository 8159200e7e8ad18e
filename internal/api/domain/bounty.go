package domain

import (
	"fmt"
	"slices"
	"time"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

var difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

// ParseDifficulty validates a difficulty filter or field value.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(s)
	if !slices.Contains(difficulties, d) {
		return "", fmt.Errorf("invalid difficulty %q (want one of beginner, intermediate, advanced)", s)
	}
	return d, nil
}

type BountyStatus string

const (
	BountyOpen      BountyStatus = "open"
	BountyAssigned  BountyStatus = "assigned"
	BountyInReview  BountyStatus = "in_review"
	BountyCompleted BountyStatus = "completed"
	BountyCancelled BountyStatus = "cancelled"
)

var bountyStatuses = []BountyStatus{BountyOpen, BountyAssigned, BountyInReview, BountyCompleted, BountyCancelled}

// ParseBountyStatus validates a status filter or field value.
func ParseBountyStatus(s string) (BountyStatus, error) {
	st := BountyStatus(s)
	if !slices.Contains(bountyStatuses, st) {
		return "", fmt.Errorf("invalid status %q (want one of open, assigned, in_review, completed, cancelled)", s)
	}
	return st, nil
}

type Bounty struct {
	ID            string       `json:"id" db:"id"`
	GitHubIssueID *int64       `json:"githubIssueId,omitempty" db:"github_issue_id"`
	RepoOwner     string       `json:"repoOwner" db:"repo_owner"`
	RepoName      string       `json:"repoName" db:"repo_name"`
	Title         string       `json:"title" db:"title"`
	Description   string       `json:"description" db:"description"`
	AmountUSDC    float64      `json:"amountUsdc" db:"amount_usdc"`
	TechTags      []string     `json:"techTags" db:"-"`
	Difficulty    Difficulty   `json:"difficulty" db:"difficulty"`
	Status        BountyStatus `json:"status" db:"status"`
	Deadline      *time.Time   `json:"deadline,omitempty" db:"deadline"`
	CreatorID     string       `json:"creatorId" db:"creator_id"`
	AssigneeID    *string      `json:"assigneeId,omitempty" db:"assignee_id"`
	CreatedAt     time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time    `json:"updatedAt" db:"updated_at"`
}

// BountyFilter narrows a bounty listing. Zero values mean "no filter".
type BountyFilter struct {
	TechStack  []string // any match
	Difficulty Difficulty
	Status     BountyStatus
	AmountMin  *float64
	AmountMax  *float64
	CreatorID  string
	AssigneeID string
}

// BountyUpdate holds the creator-editable fields. Nil means unchanged.
type BountyUpdate struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	AmountUSDC  *float64      `json:"amountUsdc,omitempty"`
	TechTags    *[]string     `json:"techTags,omitempty"`
	Difficulty  *Difficulty   `json:"difficulty,omitempty"`
	Status      *BountyStatus `json:"status,omitempty"`
	Deadline    *time.Time    `json:"deadline,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u BountyUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.AmountUSDC == nil &&
		u.TechTags == nil && u.Difficulty == nil && u.Status == nil && u.Deadline == nil
}

// Message is a note exchanged between the creator and the assignee of a bounty.
type Message struct {
	ID          string     `json:"id" db:"id"`
	BountyID    string     `json:"bountyId" db:"bounty_id"`
	SenderID    string     `json:"senderId" db:"sender_id"`
	RecipientID string     `json:"recipientId" db:"recipient_id"`
	Content     string     `json:"content" db:"content"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	ReadAt      *time.Time `json:"readAt,omitempty" db:"read_at"`
}

type Application struct {
	ID          string    `json:"id" db:"id"`
	BountyID    string    `json:"bountyId" db:"bounty_id"`
	ApplicantID string    `json:"applicantId" db:"applicant_id"`
	CoverLetter string    `json:"coverLetter" db:"cover_letter"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

type Submission struct {
	ID          string    `json:"id" db:"id"`
	BountyID    string    `json:"bountyId" db:"bounty_id"`
	DeveloperID string    `json:"developerId" db:"developer_id"`
	PRURL       string    `json:"prUrl" db:"pr_url"`
	Notes       string    `json:"notes" db:"notes"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// SubmissionUpdate holds the developer-editable fields of a submission.
type SubmissionUpdate struct {
	PRURL *string `json:"prUrl,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

type ExtensionRequest struct {
	ID                string    `json:"id" db:"id"`
	BountyID          string    `json:"bountyId" db:"bounty_id"`
	DeveloperID       string    `json:"developerId" db:"developer_id"`
	RequestedDeadline time.Time `json:"requestedDeadline" db:"requested_deadline"`
	Reason            string    `json:"reason" db:"reason"`
	Status            string    `json:"status" db:"status"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}
