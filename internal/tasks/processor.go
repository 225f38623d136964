package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"tierimage/internal/queue"
	"tierimage/internal/storage"
)

// KeyIndex reports which object keys are still referenced by a record.
type KeyIndex interface {
	Referenced(ctx context.Context, keys []string) (map[string]bool, error)
}

type Processor struct {
	objects storage.Objects
	index   KeyIndex
	minAge  time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

func NewProcessor(objects storage.Objects, index KeyIndex, minAge time.Duration, logger zerolog.Logger) *Processor {
	return &Processor{
		objects: objects,
		index:   index,
		minAge:  minAge,
		logger:  logger,
		now:     time.Now,
	}
}

func (p *Processor) Handle(ctx context.Context, task queue.Task) error {
	switch task.Type {
	case queue.TaskPurge:
		return p.handlePurge(ctx, task)
	case queue.TaskSweep:
		return p.handleSweep(ctx)
	default:
		p.logger.Warn().Str("type", task.Type).Msg("unknown task type")
		return nil
	}
}

func (p *Processor) handlePurge(ctx context.Context, task queue.Task) error {
	bucket, err := storage.ParseBucket(task.Bucket)
	if err != nil {
		p.logger.Warn().Err(err).Msg("purge task dropped")
		return nil
	}

	removed, err := p.removeUnreferenced(ctx, bucket, lo.Uniq(lo.Compact(task.Keys)), task.RequestedAt)
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	p.logger.Debug().Str("bucket", task.Bucket).Int("removed", removed).Msg("purge done")
	return nil
}

// handleSweep removes objects left behind by rolled back requests. Objects
// younger than minAge may belong to a request still in flight.
func (p *Processor) handleSweep(ctx context.Context) error {
	cutoff := p.now().Add(-p.minAge)
	total := 0
	for _, target := range []struct {
		bucket storage.Bucket
		prefix string
	}{
		{storage.Variants, storage.DerivativePrefix},
		{storage.Originals, storage.SourcePrefix},
	} {
		objects, err := p.objects.List(ctx, target.bucket, target.prefix)
		if err != nil {
			return fmt.Errorf("sweep %s: %w", target.bucket, err)
		}
		candidates := lo.FilterMap(objects, func(o storage.ObjectInfo, _ int) (string, bool) {
			return o.Key, o.LastModified.Before(cutoff)
		})
		removed, err := p.removeUnreferenced(ctx, target.bucket, candidates, cutoff)
		if err != nil {
			return fmt.Errorf("sweep %s: %w", target.bucket, err)
		}
		total += removed
	}
	p.logger.Info().Int("removed", total).Msg("sweep done")
	return nil
}

// removeUnreferenced deletes the keys no record points at and that were not
// written after since. The write check runs last, right before Remove: an
// upload stores its objects before it commits, so a key reused by a request
// still in flight is spared. A write landing between that check and Remove
// is not caught; the next upload of the same content regenerates it.
func (p *Processor) removeUnreferenced(ctx context.Context, bucket storage.Bucket, keys []string, since time.Time) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	referenced, err := p.index.Referenced(ctx, keys)
	if err != nil {
		return 0, err
	}
	orphans := lo.Reject(keys, func(key string, _ int) bool { return referenced[key] })
	if !since.IsZero() {
		rewritten, err := p.writtenAfter(ctx, bucket, orphans, since)
		if err != nil {
			return 0, err
		}
		orphans = lo.Reject(orphans, func(key string, _ int) bool { return rewritten[key] })
	}
	if len(orphans) == 0 {
		return 0, nil
	}
	if err := p.objects.Remove(ctx, bucket, orphans...); err != nil {
		return 0, err
	}
	return len(orphans), nil
}

func (p *Processor) writtenAfter(ctx context.Context, bucket storage.Bucket, keys []string, since time.Time) (map[string]bool, error) {
	out := make(map[string]bool, len(keys))
	for _, key := range keys {
		objects, err := p.objects.List(ctx, bucket, key)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", key, err)
		}
		for _, o := range objects {
			if o.Key == key && o.LastModified.After(since) {
				out[key] = true
			}
		}
	}
	return out, nil
}
