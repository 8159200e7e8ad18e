package store

import (
	"context"
	"errors"
	"time"

	"github.com/devasign/devasign/internal/api/domain"
	"github.com/devasign/devasign/pkg/pagex"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// It exposes sub-repositories to keep concerns tidy and testable, and so a
// transaction-scoped Store can hand out the same repos bound to the tx.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	Bounties() Bounties
	Messages() Messages
	Applications() Applications
	Submissions() Submissions
	ExtensionRequests() ExtensionRequests
	Ownership() Ownership

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Inside fn only
	// use the tx argument; the sqlite driver runs on a single connection.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// UpsertUser inserts the user, or refreshes the profile fields of the
	// row with the same provider_id, and returns the stored row in one
	// statement. id and created_at of an existing row are preserved.
	UpsertUser(ctx context.Context, u domain.User) (domain.User, error)
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// DeleteRefreshTokenByHash returns how many rows were removed (0 or 1).
	// Rotation treats 0 as "someone else already consumed this token".
	DeleteRefreshTokenByHash(ctx context.Context, hash string) (int64, error)

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type Bounties interface {
	CreateBounty(ctx context.Context, b domain.Bounty) error
	GetBountyByID(ctx context.Context, id string) (domain.Bounty, error)

	// ListBounties returns at most limit bounties matching f, newest first,
	// strictly after the cursor when one is given.
	ListBounties(ctx context.Context, f domain.BountyFilter, after *pagex.Cursor, limit int) ([]domain.Bounty, error)

	UpdateBounty(ctx context.Context, id string, u domain.BountyUpdate, now time.Time) error
	SetBountyStatus(ctx context.Context, id string, status domain.BountyStatus, now time.Time) error
}

type Messages interface {
	CreateMessage(ctx context.Context, m domain.Message) error

	// ListMessages returns at most limit messages of a bounty, newest first.
	ListMessages(ctx context.Context, bountyID string, after *pagex.Cursor, limit int) ([]domain.Message, error)
}

type Applications interface {
	CreateApplication(ctx context.Context, a domain.Application) error
	DeleteApplication(ctx context.Context, id string) error
}

type Submissions interface {
	CreateSubmission(ctx context.Context, s domain.Submission) error
	UpdateSubmission(ctx context.Context, id string, u domain.SubmissionUpdate) (domain.Submission, error)
}

type ExtensionRequests interface {
	CreateExtensionRequest(ctx context.Context, e domain.ExtensionRequest) error
	DeleteExtensionRequest(ctx context.Context, id string) error
}

// Ownership answers the relationship questions behind every authorization
// guard. Each is a single EXISTS query: a missing resource and a resource
// owned by someone else both answer false.
type Ownership interface {
	IsBountyCreator(ctx context.Context, userID, bountyID string) (bool, error)
	IsBountyAssignee(ctx context.Context, userID, bountyID string) (bool, error)
	IsBountyParticipant(ctx context.Context, userID, bountyID string) (bool, error)
	IsApplicationOwner(ctx context.Context, userID, applicationID string) (bool, error)
	IsSubmissionOwner(ctx context.Context, userID, submissionID string) (bool, error)
	IsExtensionRequestOwner(ctx context.Context, userID, extensionRequestID string) (bool, error)
}
