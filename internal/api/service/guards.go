package service

import (
	"github.com/devasign/devasign/internal/api/store"
	"github.com/devasign/devasign/pkg/httpx"
)

// Guard pairs an ownership predicate with the message a denied caller sees.
type Guard struct {
	Check   httpx.OwnershipCheck
	Message string
}

// Require returns middleware enforcing the guard on the path value param.
func (g Guard) Require(param string) httpx.Middleware {
	return httpx.RequireOwnership(g.Check, param, g.Message)
}

// Guards is the catalogue of resource guards used by the router.
type Guards struct {
	BountyCreator         Guard
	BountyAssignee        Guard
	BountyParticipant     Guard
	ApplicationOwner      Guard
	SubmissionOwner       Guard
	ExtensionRequestOwner Guard
}

func NewGuards(st store.Store) Guards {
	o := st.Ownership()
	return Guards{
		BountyCreator: Guard{
			Check:   httpx.OwnershipCheckFunc(o.IsBountyCreator),
			Message: "Forbidden: You must be the bounty creator",
		},
		BountyAssignee: Guard{
			Check:   httpx.OwnershipCheckFunc(o.IsBountyAssignee),
			Message: "Forbidden: You must be the assigned developer",
		},
		BountyParticipant: Guard{
			Check:   httpx.OwnershipCheckFunc(o.IsBountyParticipant),
			Message: "Forbidden: You must be a bounty participant",
		},
		ApplicationOwner: Guard{
			Check:   httpx.OwnershipCheckFunc(o.IsApplicationOwner),
			Message: "Forbidden: You must be the application owner",
		},
		SubmissionOwner: Guard{
			Check:   httpx.OwnershipCheckFunc(o.IsSubmissionOwner),
			Message: "Forbidden: You must be the submission owner",
		},
		ExtensionRequestOwner: Guard{
			Check:   httpx.OwnershipCheckFunc(o.IsExtensionRequestOwner),
			Message: "Forbidden: You must be the extension request owner",
		},
	}
}
