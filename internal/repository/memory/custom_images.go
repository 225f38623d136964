package memory

import (
	"context"
	"time"

	"tierimage/internal/models"
	"tierimage/internal/repository"
)

type customImages struct{ s *Store }

func (d *data) imageByName(ownerID, name string) (models.CustomImage, bool) {
	for _, image := range d.images {
		if image.OwnerID == ownerID && image.Name == name {
			return image, true
		}
	}
	return models.CustomImage{}, false
}

func (r customImages) Create(_ context.Context, image models.CustomImage) error {
	return r.s.with(func(d *data) error {
		if _, ok := d.images[image.ID]; ok {
			return repository.ErrConflict
		}
		if _, ok := d.imageByName(image.OwnerID, image.Name); ok {
			return repository.ErrConflict
		}
		now := r.s.now()
		image.CreatedAt, image.UpdatedAt = now, now
		d.images[image.ID] = image
		return nil
	})
}

func (r customImages) Get(_ context.Context, ownerID, id string) (models.CustomImage, error) {
	var out models.CustomImage
	err := r.s.with(func(d *data) error {
		image, ok := d.images[id]
		if !ok || image.OwnerID != ownerID {
			return repository.ErrNotFound
		}
		out = image
		return nil
	})
	return out, err
}

func (r customImages) Lock(ctx context.Context, ownerID, id string) (models.CustomImage, error) {
	return r.Get(ctx, ownerID, id)
}

func (r customImages) List(_ context.Context, ownerID string) ([]models.CustomImage, error) {
	var out []models.CustomImage
	err := r.s.with(func(d *data) error {
		for _, image := range d.images {
			if image.OwnerID == ownerID {
				out = append(out, image)
			}
		}
		byCreated(out,
			func(c models.CustomImage) time.Time { return c.CreatedAt },
			func(c models.CustomImage) string { return c.ID })
		return nil
	})
	return out, err
}

func (r customImages) Update(_ context.Context, image models.CustomImage) error {
	return r.s.with(func(d *data) error {
		existing, ok := d.images[image.ID]
		if !ok || existing.OwnerID != image.OwnerID {
			return repository.ErrNotFound
		}
		if other, ok := d.imageByName(image.OwnerID, image.Name); ok && other.ID != image.ID {
			return repository.ErrConflict
		}
		image.CreatedAt = existing.CreatedAt
		image.UpdatedAt = r.s.now()
		d.images[image.ID] = image
		return nil
	})
}

func (r customImages) Delete(_ context.Context, ownerID, id string) error {
	return r.s.with(func(d *data) error {
		image, ok := d.images[id]
		if !ok || image.OwnerID != ownerID {
			return repository.ErrNotFound
		}
		d.deleteImage(id)
		return nil
	})
}

func (r customImages) GetOrCreate(_ context.Context, candidate models.CustomImage) (models.CustomImage, bool, error) {
	var (
		out     models.CustomImage
		created bool
	)
	err := r.s.with(func(d *data) error {
		if existing, ok := d.imageByName(candidate.OwnerID, candidate.Name); ok {
			out = existing
			return nil
		}
		now := r.s.now()
		out = models.CustomImage{
			ID:        candidate.ID,
			OwnerID:   candidate.OwnerID,
			Name:      candidate.Name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		d.images[out.ID] = out
		created = true
		return nil
	})
	return out, created, err
}

func (r customImages) Referenced(_ context.Context, keys []string) (map[string]bool, error) {
	referenced := make(map[string]bool, len(keys))
	err := r.s.with(func(d *data) error {
		inUse := map[string]bool{}
		for _, image := range d.images {
			originals, variants := image.ObjectKeys()
			for _, key := range append(originals, variants...) {
				inUse[key] = true
			}
		}
		for _, key := range keys {
			if inUse[key] {
				referenced[key] = true
			}
		}
		return nil
	})
	return referenced, err
}
