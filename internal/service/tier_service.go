package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"tierimage/internal/ids"
	"tierimage/internal/models"
	"tierimage/internal/policy"
	"tierimage/internal/repository"
	"tierimage/internal/views"
)

type CustomImageName struct {
	Name string `json:"name"`
}

// TierInput is the writable part of a tier. CustomImages distinguishes
// absent (nil) from present and empty.
type TierInput struct {
	Title        *string            `json:"title"`
	Description  *string            `json:"description"`
	CustomImages *[]CustomImageName `json:"custom_images"`
}

type TierService struct {
	store repository.Store
	log   zerolog.Logger
}

func NewTierService(store repository.Store, log zerolog.Logger) *TierService {
	return &TierService{store: store, log: log}
}

func (s *TierService) input(payload views.Payload, full bool) (TierInput, error) {
	var in TierInput
	if err := decode(views.TierSchema(), payload, &in); err != nil {
		return in, err
	}
	p := problems{}
	p.name(views.FieldTitle, in.Title, full)
	if in.CustomImages != nil {
		for i := range *in.CustomImages {
			name := &(*in.CustomImages)[i].Name
			p.name(views.FieldCustomImages, name, true)
		}
	}
	return in, p.err()
}

func (s *TierService) List(ctx context.Context, id policy.Identity) ([]map[string]any, error) {
	if err := policy.Authorize(id, views.ActionList, policy.Collection(policy.KindTier)); err != nil {
		return nil, err
	}
	tiers, err := s.store.Tiers().List(ctx, id.AccountID)
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	out := make([]map[string]any, 0, len(tiers))
	for _, tier := range tiers {
		doc, err := renderTier(tier)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *TierService) Get(ctx context.Context, id policy.Identity, tierID string) (map[string]any, error) {
	if err := policy.Authorize(id, views.ActionRetrieve, policy.Collection(policy.KindTier)); err != nil {
		return nil, err
	}
	tier, err := s.store.Tiers().Get(ctx, id.AccountID, tierID)
	if err != nil {
		return nil, fmt.Errorf("load tier: %w", err)
	}
	if err := policy.Authorize(id, views.ActionRetrieve, policy.Record(policy.KindTier, tier.OwnerID)); err != nil {
		return nil, err
	}
	return renderTier(tier)
}

func (s *TierService) Create(ctx context.Context, id policy.Identity, payload views.Payload) (map[string]any, error) {
	if err := policy.Authorize(id, views.ActionCreate, policy.Collection(policy.KindTier)); err != nil {
		return nil, err
	}
	in, err := s.input(payload, true)
	if err != nil {
		return nil, err
	}

	tier := models.Tier{ID: ids.New(), OwnerID: policy.OwnedBy(id)}
	if in.Title != nil {
		tier.Title = *in.Title
	}
	if in.Description != nil {
		tier.Description = *in.Description
	}

	var created models.Tier
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Tiers().Create(ctx, tier); err != nil {
			return fmt.Errorf("create tier: %w", err)
		}
		if in.CustomImages != nil {
			if err := s.associate(ctx, tx, tier, *in.CustomImages); err != nil {
				return err
			}
		}
		created, err = tx.Tiers().Get(ctx, tier.OwnerID, tier.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return renderTier(created)
}

// Update changes title and description and, when custom_images is
// present, replaces the association set. The tier row stays locked until
// the whole change commits.
func (s *TierService) Update(ctx context.Context, id policy.Identity, tierID string, action views.Action, payload views.Payload) (map[string]any, error) {
	if err := policy.Authorize(id, action, policy.Collection(policy.KindTier)); err != nil {
		return nil, err
	}
	in, err := s.input(payload, !action.Partial())
	if err != nil {
		return nil, err
	}

	var updated models.Tier
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		tier, err := tx.Tiers().Lock(ctx, id.AccountID, tierID)
		if err != nil {
			return fmt.Errorf("load tier: %w", err)
		}
		if err := policy.Authorize(id, action, policy.Record(policy.KindTier, tier.OwnerID)); err != nil {
			return err
		}

		if in.Title != nil {
			tier.Title = *in.Title
		}
		if in.Description != nil {
			tier.Description = *in.Description
		}
		if err := tx.Tiers().Update(ctx, tier); err != nil {
			return fmt.Errorf("update tier: %w", err)
		}
		if in.CustomImages != nil {
			if err := s.associate(ctx, tx, tier, *in.CustomImages); err != nil {
				return err
			}
		}
		updated, err = tx.Tiers().Get(ctx, tier.OwnerID, tier.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return renderTier(updated)
}

func (s *TierService) Delete(ctx context.Context, id policy.Identity, tierID string) error {
	if err := policy.Authorize(id, views.ActionDestroy, policy.Collection(policy.KindTier)); err != nil {
		return err
	}
	return s.store.InTx(ctx, func(tx repository.Store) error {
		tier, err := tx.Tiers().Lock(ctx, id.AccountID, tierID)
		if err != nil {
			return fmt.Errorf("load tier: %w", err)
		}
		if err := policy.Authorize(id, views.ActionDestroy, policy.Record(policy.KindTier, tier.OwnerID)); err != nil {
			return err
		}
		if err := tx.Tiers().Delete(ctx, tier.OwnerID, tier.ID); err != nil {
			return fmt.Errorf("delete tier: %w", err)
		}
		return nil
	})
}

// associate resolves every name to a custom image of the tier owner,
// creating the missing ones, and makes that the tier's membership set.
// Repeated names collapse into one association.
func (s *TierService) associate(ctx context.Context, tx repository.Store, tier models.Tier, names []CustomImageName) error {
	unique := lo.Uniq(lo.Map(names, func(n CustomImageName, _ int) string { return n.Name }))

	members := make([]string, 0, len(unique))
	for _, name := range unique {
		image, created, err := tx.CustomImages().GetOrCreate(ctx, models.CustomImage{
			ID:      ids.New(),
			OwnerID: tier.OwnerID,
			Name:    name,
		})
		if err != nil {
			return fmt.Errorf("get or create custom image %q: %w", name, err)
		}
		if created {
			s.log.Debug().Str("tier_id", tier.ID).Str("custom_image_id", image.ID).Msg("custom image created by association")
		}
		members = append(members, image.ID)
	}

	if err := tx.Tiers().SetCustomImages(ctx, tier.ID, members); err != nil {
		return fmt.Errorf("set tier custom images: %w", err)
	}
	return nil
}
