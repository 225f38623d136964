package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"tierimage/internal/models"
	"tierimage/internal/queue"
	"tierimage/internal/storage"
)

// cleanup hands object keys nothing should point at any more to the
// worker. Failures are logged only: the nightly sweep catches leftovers.
type cleanup struct {
	queue queue.Enqueuer
	log   zerolog.Logger
}

func (c cleanup) purge(ctx context.Context, originals, variants []string) {
	if c.queue == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, batch := range []struct {
		bucket storage.Bucket
		keys   []string
	}{
		{storage.Originals, lo.Compact(originals)},
		{storage.Variants, lo.Compact(variants)},
	} {
		if len(batch.keys) == 0 {
			continue
		}
		if err := c.queue.Enqueue(ctx, queue.Purge(batch.bucket.String(), batch.keys...)); err != nil {
			c.log.Warn().Err(err).Strs("keys", batch.keys).Msg("enqueue purge failed")
		}
	}
}

// replaced purges the objects before pointed at and after does not.
func (c cleanup) replaced(ctx context.Context, before, after models.CustomImage) {
	bo, bv := before.ObjectKeys()
	ao, av := after.ObjectKeys()
	c.purge(ctx, lo.Without(bo, ao...), lo.Without(bv, av...))
}

func (c cleanup) removed(ctx context.Context, images ...models.CustomImage) {
	var originals, variants []string
	for _, image := range images {
		o, v := image.ObjectKeys()
		originals = append(originals, o...)
		variants = append(variants, v...)
	}
	c.purge(ctx, originals, variants)
}
