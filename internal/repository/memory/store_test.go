package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierimage/internal/models"
	"tierimage/internal/repository"
)

func seed(t *testing.T, s *Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, s.Accounts().Create(context.Background(), models.Account{
			ID:    id,
			Email: id + "@example.com",
			Plan:  models.PlanBasic,
		}))
	}
}

func TestTierScopedByOwner(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, "alice", "bob")

	require.NoError(t, s.Tiers().Create(ctx, models.Tier{ID: "t1", OwnerID: "alice", Title: "Gold"}))

	_, err := s.Tiers().Get(ctx, "bob", "t1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.Tiers().Delete(ctx, "bob", "t1"), repository.ErrNotFound)

	tier, err := s.Tiers().Get(ctx, "alice", "t1")
	require.NoError(t, err)
	assert.Equal(t, "Gold", tier.Title)

	list, err := s.Tiers().List(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGetOrCreateIsKeyedByOwnerAndName(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, "alice", "bob")

	first, created, err := s.CustomImages().GetOrCreate(ctx, models.CustomImage{ID: "c1", OwnerID: "alice", Name: "Image580"})
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := s.CustomImages().GetOrCreate(ctx, models.CustomImage{ID: "c2", OwnerID: "alice", Name: "Image580"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	other, created, err := s.CustomImages().GetOrCreate(ctx, models.CustomImage{ID: "c3", OwnerID: "bob", Name: "Image580"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "c3", other.ID)
}

func TestRolledBackTransactionLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, "alice")
	require.NoError(t, s.Tiers().Create(ctx, models.Tier{ID: "t1", OwnerID: "alice", Title: "Gold"}))

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx repository.Store) error {
		image, _, err := tx.CustomImages().GetOrCreate(ctx, models.CustomImage{ID: "c1", OwnerID: "alice", Name: "a"})
		require.NoError(t, err)
		require.NoError(t, tx.Tiers().SetCustomImages(ctx, "t1", []string{image.ID}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	tier, err := s.Tiers().Get(ctx, "alice", "t1")
	require.NoError(t, err)
	assert.Empty(t, tier.CustomImages)

	images, err := s.CustomImages().List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestMembershipIsASet(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, "alice")
	require.NoError(t, s.Tiers().Create(ctx, models.Tier{ID: "t1", OwnerID: "alice", Title: "Gold"}))
	require.NoError(t, s.CustomImages().Create(ctx, models.CustomImage{ID: "c1", OwnerID: "alice", Name: "a"}))

	require.NoError(t, s.Tiers().SetCustomImages(ctx, "t1", []string{"c1", "c1"}))
	tier, err := s.Tiers().Get(ctx, "alice", "t1")
	require.NoError(t, err)
	assert.Equal(t, []models.CustomImageRef{{ID: "c1", Name: "a"}}, tier.CustomImages)

	require.NoError(t, s.CustomImages().Delete(ctx, "alice", "c1"))
	tier, err = s.Tiers().Get(ctx, "alice", "t1")
	require.NoError(t, err)
	assert.Empty(t, tier.CustomImages)
}

func TestAccountDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, "alice")
	require.NoError(t, s.Tiers().Create(ctx, models.Tier{ID: "t1", OwnerID: "alice", Title: "Gold"}))
	require.NoError(t, s.CustomImages().Create(ctx, models.CustomImage{ID: "c1", OwnerID: "alice", Name: "a", ImageKey: "uploads/x.png"}))

	require.NoError(t, s.Accounts().Delete(ctx, "alice"))

	_, err := s.Tiers().Get(ctx, "alice", "t1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	refs, err := s.CustomImages().Referenced(ctx, []string{"uploads/x.png"})
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestDuplicateEmailConflicts(t *testing.T) {
	s := New()
	seed(t, s, "alice")
	err := s.Accounts().Create(context.Background(), models.Account{ID: "other", Email: "alice@example.com"})
	assert.ErrorIs(t, err, repository.ErrConflict)
}
