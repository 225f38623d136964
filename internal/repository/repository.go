package repository

import (
	"context"
	"errors"

	"tierimage/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// Every Tier and CustomImage lookup takes the owner id: records of other
// owners are reported as ErrNotFound.

type Accounts interface {
	Create(ctx context.Context, account models.Account) error
	GetByID(ctx context.Context, id string) (models.Account, error)
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	List(ctx context.Context, limit, offset int) ([]models.Account, error)
	Update(ctx context.Context, account models.Account) error
	Delete(ctx context.Context, id string) error
}

type Tiers interface {
	Create(ctx context.Context, tier models.Tier) error
	Get(ctx context.Context, ownerID, id string) (models.Tier, error)
	// Lock returns the tier and holds its row until the transaction ends.
	Lock(ctx context.Context, ownerID, id string) (models.Tier, error)
	List(ctx context.Context, ownerID string) ([]models.Tier, error)
	Update(ctx context.Context, tier models.Tier) error
	Delete(ctx context.Context, ownerID, id string) error
	// SetCustomImages replaces the membership set of the tier.
	SetCustomImages(ctx context.Context, tierID string, customImageIDs []string) error
}

type CustomImages interface {
	Create(ctx context.Context, image models.CustomImage) error
	Get(ctx context.Context, ownerID, id string) (models.CustomImage, error)
	Lock(ctx context.Context, ownerID, id string) (models.CustomImage, error)
	List(ctx context.Context, ownerID string) ([]models.CustomImage, error)
	Update(ctx context.Context, image models.CustomImage) error
	Delete(ctx context.Context, ownerID, id string) error
	// GetOrCreate returns the image named name owned by ownerID, inserting
	// candidate when no such image exists. created reports the insert.
	GetOrCreate(ctx context.Context, candidate models.CustomImage) (image models.CustomImage, created bool, err error)
	// Referenced reports which of keys are still pointed at by a record.
	Referenced(ctx context.Context, keys []string) (map[string]bool, error)
}

type Store interface {
	Accounts() Accounts
	Tiers() Tiers
	CustomImages() CustomImages
	// InTx runs fn against a store bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
}
