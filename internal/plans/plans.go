// Package plans maps account plan tags to the capability tier they unlock.
package plans

import (
	"errors"
	"fmt"
	"strings"

	"tierimage/internal/models"
)

// Capability is the resolved access level. Values are ordered: each tier
// sees strictly more than the one before it.
type Capability int

const (
	Basic Capability = iota
	Premium
	Enterprise
	Admin

	capabilityCount
)

// Count is the number of capability tiers. Tables indexed by Capability
// should be sized with it.
const Count = int(capabilityCount)

var (
	// ErrBlankPlan means a stored account carries no plan at all. It is a
	// misconfiguration and must never be defaulted.
	ErrBlankPlan   = errors.New("account plan is blank")
	ErrUnknownPlan = errors.New("account plan is unknown")
)

var byTag = map[models.Plan]Capability{
	models.PlanBasic:      Basic,
	models.PlanPremium:    Premium,
	models.PlanEnterprise: Enterprise,
	models.PlanAdmin:      Admin,
}

// Resolve maps a raw plan tag to its capability.
func Resolve(tag string) (Capability, error) {
	if strings.TrimSpace(tag) == "" {
		return 0, ErrBlankPlan
	}
	c, ok := byTag[models.Plan(tag)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPlan, tag)
	}
	return c, nil
}

func ResolvePlan(p models.Plan) (Capability, error) {
	return Resolve(string(p))
}

func (c Capability) AtLeast(other Capability) bool {
	return c >= other
}

func (c Capability) Valid() bool {
	return c >= Basic && c < capabilityCount
}

func (c Capability) Plan() models.Plan {
	switch c {
	case Basic:
		return models.PlanBasic
	case Premium:
		return models.PlanPremium
	case Enterprise:
		return models.PlanEnterprise
	case Admin:
		return models.PlanAdmin
	default:
		return ""
	}
}

func (c Capability) String() string {
	if p := c.Plan(); p != "" {
		return string(p)
	}
	return "unknown"
}
