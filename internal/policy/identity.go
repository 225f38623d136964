package policy

import (
	"tierimage/internal/models"
	"tierimage/internal/plans"
)

// Identity is the verified caller of one request. It is built by the auth
// layer and passed explicitly to every policy and storage call.
type Identity struct {
	Authenticated bool
	Staff         bool
	AccountID     string
	Plan          models.Plan
}

func Anonymous() Identity {
	return Identity{}
}

func FromAccount(account models.Account) Identity {
	return Identity{
		Authenticated: true,
		Staff:         account.IsStaff,
		AccountID:     account.ID,
		Plan:          account.Plan,
	}
}

// Capability resolves the identity's plan. A blank plan surfaces as
// plans.ErrBlankPlan.
func (i Identity) Capability() (plans.Capability, error) {
	return plans.ResolvePlan(i.Plan)
}
