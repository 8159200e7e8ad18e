package sqlite

import (
	"github.com/devasign/devasign/internal/api/store"
	"github.com/jmoiron/sqlx"
)

// repos hands out repositories bound to q, which is the pool on Store and
// the open transaction on txStore.
type repos struct {
	q sqlx.ExtContext
}

func (r repos) Users() store.Users                         { return &usersRepo{q: r.q} }
func (r repos) RefreshTokens() store.RefreshTokens         { return &refreshTokensRepo{q: r.q} }
func (r repos) Bounties() store.Bounties                   { return &bountiesRepo{q: r.q} }
func (r repos) Messages() store.Messages                   { return &messagesRepo{q: r.q} }
func (r repos) Applications() store.Applications           { return &applicationsRepo{q: r.q} }
func (r repos) Submissions() store.Submissions             { return &submissionsRepo{q: r.q} }
func (r repos) ExtensionRequests() store.ExtensionRequests { return &extensionRequestsRepo{q: r.q} }
func (r repos) Ownership() store.Ownership                 { return &ownershipRepo{q: r.q} }
