package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierimage/internal/models"
	"tierimage/internal/repository"
	"tierimage/internal/views"
)

func TestConcurrentAssociationsShareOneCustomImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	staff := f.account(t, "root", models.PlanAdmin, true)
	tierIDs := []string{
		f.createTier(t, staff, `{"title":"Gold"}`),
		f.createTier(t, staff, `{"title":"Silver"}`),
	}

	const workers = 16
	payloads := make([]views.Payload, workers)
	for i := range payloads {
		payloads[i] = payload(t, `{"custom_images":[{"name":"Image580"},{"name":"Image580"}]}`)
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.tiers.Update(ctx, staff, tierIDs[i%len(tierIDs)], views.ActionPartialUpdate, payloads[i])
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	images, err := f.store.CustomImages().List(ctx, staff.AccountID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "Image580", images[0].Name)

	for _, tierID := range tierIDs {
		doc, err := f.tiers.Get(ctx, staff, tierID)
		require.NoError(t, err)
		require.Len(t, refs(doc), 1, tierID)
		assert.Equal(t, images[0].ID, refs(doc)[0]["id"], tierID)
	}
}

var errMembership = errors.New("membership write failed")

type failingTiers struct{ repository.Tiers }

func (failingTiers) SetCustomImages(context.Context, string, []string) error {
	return errMembership
}

// failingStore breaks membership writes after custom images were created
// in the same transaction.
type failingStore struct{ repository.Store }

func (s failingStore) Tiers() repository.Tiers { return failingTiers{s.Store.Tiers()} }

func (s failingStore) InTx(ctx context.Context, fn func(repository.Store) error) error {
	return s.Store.InTx(ctx, func(tx repository.Store) error {
		return fn(failingStore{tx})
	})
}

func TestFailedAssociationRollsBackCreatedImages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	staff := f.account(t, "root", models.PlanAdmin, true)
	tierID := f.createTier(t, staff, `{"title":"Gold","custom_images":[{"name":"Kept"}]}`)

	broken := NewTierService(failingStore{f.store}, zerolog.Nop())
	_, err := broken.Update(ctx, staff, tierID, views.ActionPartialUpdate,
		payload(t, `{"title":"Platinum","custom_images":[{"name":"Image580"}]}`))
	require.ErrorIs(t, err, errMembership)

	images, err := f.store.CustomImages().List(ctx, staff.AccountID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "Kept", images[0].Name)

	doc, err := f.tiers.Get(ctx, staff, tierID)
	require.NoError(t, err)
	assert.Equal(t, "Gold", doc["title"])
	require.Len(t, refs(doc), 1)
	assert.Equal(t, "Kept", refs(doc)[0]["name"])
}
