package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"tierimage/internal/models"
	"tierimage/internal/repository"
)

type tiers struct{ s *Store }

func (r tiers) Create(_ context.Context, tier models.Tier) error {
	return r.s.with(func(d *data) error {
		if _, ok := d.tiers[tier.ID]; ok {
			return repository.ErrConflict
		}
		now := r.s.now()
		tier.CreatedAt, tier.UpdatedAt = now, now
		tier.CustomImages = nil
		d.tiers[tier.ID] = tier
		return nil
	})
}

func (r tiers) Get(_ context.Context, ownerID, id string) (models.Tier, error) {
	var out models.Tier
	err := r.s.with(func(d *data) error {
		tier, ok := d.tiers[id]
		if !ok || tier.OwnerID != ownerID {
			return repository.ErrNotFound
		}
		out = d.withRefs(tier)
		return nil
	})
	return out, err
}

// Lock is Get: every operation already runs under the store lock.
func (r tiers) Lock(ctx context.Context, ownerID, id string) (models.Tier, error) {
	return r.Get(ctx, ownerID, id)
}

func (r tiers) List(_ context.Context, ownerID string) ([]models.Tier, error) {
	var out []models.Tier
	err := r.s.with(func(d *data) error {
		for _, tier := range d.tiers {
			if tier.OwnerID == ownerID {
				out = append(out, d.withRefs(tier))
			}
		}
		byCreated(out,
			func(t models.Tier) time.Time { return t.CreatedAt },
			func(t models.Tier) string { return t.ID })
		return nil
	})
	return out, err
}

func (d *data) withRefs(tier models.Tier) models.Tier {
	tier.CustomImages = nil
	imageIDs := make([]string, 0, len(d.members[tier.ID]))
	for imageID := range d.members[tier.ID] {
		imageIDs = append(imageIDs, imageID)
	}
	slices.Sort(imageIDs)
	for _, imageID := range imageIDs {
		image, ok := d.images[imageID]
		if !ok {
			continue
		}
		tier.CustomImages = append(tier.CustomImages, models.CustomImageRef{ID: image.ID, Name: image.Name})
	}
	slices.SortStableFunc(tier.CustomImages, func(a, b models.CustomImageRef) int {
		return strings.Compare(a.Name, b.Name)
	})
	return tier
}

func (r tiers) Update(_ context.Context, tier models.Tier) error {
	return r.s.with(func(d *data) error {
		existing, ok := d.tiers[tier.ID]
		if !ok || existing.OwnerID != tier.OwnerID {
			return repository.ErrNotFound
		}
		existing.Title = tier.Title
		existing.Description = tier.Description
		existing.UpdatedAt = r.s.now()
		d.tiers[tier.ID] = existing
		return nil
	})
}

func (r tiers) Delete(_ context.Context, ownerID, id string) error {
	return r.s.with(func(d *data) error {
		tier, ok := d.tiers[id]
		if !ok || tier.OwnerID != ownerID {
			return repository.ErrNotFound
		}
		delete(d.tiers, id)
		delete(d.members, id)
		return nil
	})
}

func (r tiers) SetCustomImages(_ context.Context, tierID string, customImageIDs []string) error {
	return r.s.with(func(d *data) error {
		if _, ok := d.tiers[tierID]; !ok {
			return repository.ErrNotFound
		}
		set := make(map[string]struct{}, len(customImageIDs))
		for _, id := range customImageIDs {
			if _, ok := d.images[id]; !ok {
				return repository.ErrNotFound
			}
			set[id] = struct{}{}
		}
		d.members[tierID] = set
		return nil
	})
}
