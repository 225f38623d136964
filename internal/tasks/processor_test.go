package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierimage/internal/queue"
	"tierimage/internal/storage"
)

type fakeIndex map[string]bool

func (f fakeIndex) Referenced(_ context.Context, keys []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, key := range keys {
		if f[key] {
			out[key] = true
		}
	}
	return out, nil
}

func TestPurgeSkipsReferencedKeys(t *testing.T) {
	ctx := context.Background()
	objects := storage.NewMemoryStore()
	require.NoError(t, objects.Put(ctx, storage.Variants, "derivatives/a/old.png", []byte("x"), "image/png"))
	require.NoError(t, objects.Put(ctx, storage.Variants, "derivatives/a/live.png", []byte("x"), "image/png"))

	p := NewProcessor(objects, fakeIndex{"derivatives/a/live.png": true}, time.Hour, zerolog.Nop())
	require.NoError(t, p.Handle(ctx, queue.Purge("variants", "derivatives/a/old.png", "derivatives/a/live.png", "")))

	assert.False(t, objects.Has(storage.Variants, "derivatives/a/old.png"))
	assert.True(t, objects.Has(storage.Variants, "derivatives/a/live.png"))
}

func TestPurgeDropsUnknownBucket(t *testing.T) {
	p := NewProcessor(storage.NewMemoryStore(), fakeIndex{}, time.Hour, zerolog.Nop())
	assert.NoError(t, p.Handle(context.Background(), queue.Purge("thumbnails", "k")))
}

func TestSweepRemovesOldOrphans(t *testing.T) {
	ctx := context.Background()
	objects := storage.NewMemoryStore()
	for _, key := range []string{"derivatives/a/orphan.png", "derivatives/a/live.png"} {
		require.NoError(t, objects.Put(ctx, storage.Variants, key, []byte("x"), "image/png"))
	}
	require.NoError(t, objects.Put(ctx, storage.Originals, "uploads/custom-images/orphan.png", []byte("x"), "image/png"))

	p := NewProcessor(objects, fakeIndex{"derivatives/a/live.png": true}, time.Hour, zerolog.Nop())

	require.NoError(t, p.Handle(ctx, queue.Task{Type: queue.TaskSweep}))
	assert.Equal(t, 2, objects.Len(storage.Variants), "young objects survive")

	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.NoError(t, p.Handle(ctx, queue.Task{Type: queue.TaskSweep}))
	assert.False(t, objects.Has(storage.Variants, "derivatives/a/orphan.png"))
	assert.True(t, objects.Has(storage.Variants, "derivatives/a/live.png"))
	assert.Zero(t, objects.Len(storage.Originals))
}

func TestPurgeSparesKeysWrittenAfterRequest(t *testing.T) {
	ctx := context.Background()
	objects := storage.NewMemoryStore()
	key := "derivatives/a/0123456789abcdef_200x200.png"

	// The purge was requested, then an upload of the same content wrote
	// the key again before its transaction committed.
	stale := queue.Purge("variants", key)
	stale.RequestedAt = time.Now().Add(-time.Minute)
	require.NoError(t, objects.Put(ctx, storage.Variants, key, []byte("x"), "image/png"))

	p := NewProcessor(objects, fakeIndex{}, time.Hour, zerolog.Nop())
	require.NoError(t, p.Handle(ctx, stale))
	assert.True(t, objects.Has(storage.Variants, key))

	current := queue.Purge("variants", key)
	current.RequestedAt = time.Now().Add(time.Second)
	require.NoError(t, p.Handle(ctx, current))
	assert.False(t, objects.Has(storage.Variants, key))
}
