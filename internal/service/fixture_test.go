package service

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"tierimage/internal/models"
	"tierimage/internal/policy"
	"tierimage/internal/queue"
	"tierimage/internal/repository/memory"
	"tierimage/internal/security"
	"tierimage/internal/storage"
	"tierimage/internal/views"
)

var cheapParams = security.Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 16, SaltLen: 8}

type recordingQueue struct {
	tasks []queue.Task
}

func (q *recordingQueue) Enqueue(_ context.Context, task queue.Task) error {
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *recordingQueue) purged(bucket storage.Bucket) []string {
	var keys []string
	for _, task := range q.tasks {
		if task.Type == queue.TaskPurge && task.Bucket == bucket.String() {
			keys = append(keys, task.Keys...)
		}
	}
	return keys
}

type fixture struct {
	store    *memory.Store
	objects  *storage.MemoryStore
	queue    *recordingQueue
	images   *CustomImageService
	tiers    *TierService
	accounts *AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   memory.New(),
		objects: storage.NewMemoryStore(),
		queue:   &recordingQueue{},
	}
	log := zerolog.Nop()
	f.images = NewCustomImageService(f.store, f.objects, f.queue, log)
	f.tiers = NewTierService(f.store, log)
	f.accounts = NewAccountService(f.store, testSecurity, f.queue, log)
	f.accounts.params = cheapParams
	return f
}

// account stores an account directly and returns its identity.
func (f *fixture) account(t *testing.T, id string, plan models.Plan, staff bool) policy.Identity {
	t.Helper()
	account := models.Account{
		ID:       id,
		Email:    id + "@example.com",
		Plan:     plan,
		IsStaff:  staff,
		IsActive: true,
	}
	require.NoError(t, f.store.Accounts().Create(context.Background(), account))
	return policy.FromAccount(account)
}

func payload(t *testing.T, body string) views.Payload {
	t.Helper()
	var p views.Payload
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return p
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func keys(doc map[string]any) []string {
	out := make([]string, 0, len(doc))
	for k := range doc {
		out = append(out, k)
	}
	return out
}
