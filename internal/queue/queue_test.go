package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestPublishAndConsume(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)

	var got []Task
	consumer := NewConsumer(client, "media:cleanup", "media-workers", "w1", time.Second, zerolog.Nop(),
		HandlerFunc(func(_ context.Context, task Task) error {
			got = append(got, task)
			return nil
		}))
	consumer.block = 10 * time.Millisecond
	require.NoError(t, consumer.EnsureGroup(ctx))
	require.NoError(t, consumer.EnsureGroup(ctx))

	pub := NewPublisher(client, "media:cleanup")
	require.NoError(t, pub.Enqueue(ctx, Purge("variants", "derivatives/a/1.png", "derivatives/a/2.png")))
	require.NoError(t, pub.Enqueue(ctx, Task{Type: TaskSweep}))

	require.NoError(t, consumer.read(ctx))

	require.Len(t, got, 2)
	assert.Equal(t, TaskPurge, got[0].Type)
	assert.Equal(t, "variants", got[0].Bucket)
	assert.Equal(t, []string{"derivatives/a/1.png", "derivatives/a/2.png"}, got[0].Keys)
	assert.Equal(t, TaskSweep, got[1].Type)

	pending, err := client.XPending(ctx, "media:cleanup", "media-workers").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestFailedTaskStaysPending(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)

	consumer := NewConsumer(client, "media:cleanup", "media-workers", "w1", time.Second, zerolog.Nop(),
		HandlerFunc(func(context.Context, Task) error { return errors.New("storage down") }))
	consumer.block = 10 * time.Millisecond
	require.NoError(t, consumer.EnsureGroup(ctx))

	require.NoError(t, NewPublisher(client, "media:cleanup").Enqueue(ctx, Purge("originals", "uploads/x.png")))
	require.NoError(t, consumer.read(ctx))

	pending, err := client.XPending(ctx, "media:cleanup", "media-workers").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)
}

func TestLocalEnqueuerCallsHandler(t *testing.T) {
	var got Task
	local := Local{Handler: HandlerFunc(func(_ context.Context, task Task) error {
		got = task
		return nil
	})}
	require.NoError(t, local.Enqueue(context.Background(), Purge("originals", "k")))
	assert.Equal(t, []string{"k"}, got.Keys)
}

func TestRunsInProcess(t *testing.T) {
	assert.True(t, RunsInProcess(Local{}))
	assert.False(t, RunsInProcess(NewPublisher(newClient(t), "media:cleanup")))
}
