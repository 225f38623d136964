// Package policy decides whether an identity may perform an action on a
// record. Scoping of reads happens in storage queries; this package covers
// authentication, staff-only mutations and ownership of loaded records.
package policy

import (
	"errors"

	"tierimage/internal/views"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	// ErrOutOfScope is returned for records owned by someone else. Callers
	// must report it exactly like a missing record.
	ErrOutOfScope = errors.New("record out of scope")
)

type Kind int

const (
	KindTier Kind = iota + 1
	KindCustomImage
	KindAccount
)

func (k Kind) String() string {
	switch k {
	case KindTier:
		return "tier"
	case KindCustomImage:
		return "custom_image"
	case KindAccount:
		return "account"
	default:
		return "unknown"
	}
}

// Resource describes the target of an action. OwnerID is empty for
// collection-level actions (list, create).
type Resource struct {
	Kind    Kind
	OwnerID string
}

func Collection(kind Kind) Resource {
	return Resource{Kind: kind}
}

func Record(kind Kind, ownerID string) Resource {
	return Resource{Kind: kind, OwnerID: ownerID}
}

// Authorize returns nil when id may perform action on res.
func Authorize(id Identity, action views.Action, res Resource) error {
	if !id.Authenticated || id.AccountID == "" {
		return ErrUnauthenticated
	}

	if res.Kind == KindTier && action.Mutates() && !id.Staff {
		return ErrForbidden
	}

	if res.OwnerID == "" {
		return nil
	}
	if res.OwnerID == id.AccountID {
		return nil
	}
	if res.Kind == KindAccount && id.Staff {
		return nil
	}
	return ErrOutOfScope
}

// OwnedBy returns the owner to stamp on a new record. Client-supplied
// owners are never consulted.
func OwnedBy(id Identity) string {
	return id.AccountID
}

// CanChangePlan reports whether id may change any account's plan tag.
func CanChangePlan(id Identity) bool {
	return id.Authenticated && id.Staff
}

// RequireStaff guards the admin console.
func RequireStaff(id Identity) error {
	if !id.Authenticated || id.AccountID == "" {
		return ErrUnauthenticated
	}
	if !id.Staff {
		return ErrForbidden
	}
	return nil
}

// AccountSchema is the account schema id works with. The plan tag and
// staff flag are absent for non-staff callers, so attempts to set them are
// dropped before validation.
func AccountSchema(id Identity) views.Schema {
	return views.AccountSchema(CanChangePlan(id))
}
