package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierimage/internal/apperrors"
	"tierimage/internal/config"
	"tierimage/internal/models"
	"tierimage/internal/policy"
	"tierimage/internal/storage"
)

var testSecurity = config.SecurityConfig{JWTAccessSecret: "test-secret", JWTAccessTTL: time.Hour}

func TestRegisterLoginAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	doc, err := f.accounts.Register(ctx, RegisterInput{Email: "Jane@Example.COM", Password: "hunter22", Name: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "Jane@example.com", doc["email"])
	assert.NotContains(t, doc, "account_plan")

	account, err := f.store.Accounts().FindByEmail(ctx, "Jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.PlanBasic, account.Plan)
	assert.False(t, account.IsStaff)

	_, err = f.accounts.Register(ctx, RegisterInput{Email: "jane@example.com", Password: "x"})
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.From(err).Code)

	_, err = f.accounts.Login(ctx, "Jane@example.com", "wrong")
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.From(err).Code)

	result, err := f.accounts.Login(ctx, "Jane@EXAMPLE.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, account.ID, result.AccountID)

	id, err := f.accounts.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, id.AccountID)
	assert.Equal(t, models.PlanBasic, id.Plan)

	_, err = f.accounts.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, policy.ErrUnauthenticated)

	id, err = f.accounts.Authenticate(ctx, "")
	require.NoError(t, err)
	assert.False(t, id.Authenticated)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.accounts.Register(ctx, RegisterInput{Email: "a@b.c", Password: "12345"})
	require.NoError(t, err)
	_, err = f.accounts.Register(ctx, RegisterInput{Email: "a@B.C", Password: "12345"})
	appErr := apperrors.From(err)
	assert.Equal(t, apperrors.CodeValidationFailed, appErr.Code)
	assert.Contains(t, appErr.Details, "email")
}

func TestNonStaffCannotChangeOwnPlan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.account(t, "alice", models.PlanBasic, false)

	doc, err := f.accounts.UpdateMe(ctx, alice, "partial_update", payload(t, `{"account_plan":"admin","is_staff":true,"name":"Alice"}`))
	require.NoError(t, err)
	assert.Equal(t, "Alice", doc["name"])

	account, err := f.store.Accounts().GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.PlanBasic, account.Plan)
	assert.False(t, account.IsStaff)
}

func TestStaffCanChangePlans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	staff := f.account(t, "root", models.PlanAdmin, true)
	alice := f.account(t, "alice", models.PlanBasic, false)

	doc, err := f.accounts.UpdateAccount(ctx, staff, "alice", payload(t, `{"account_plan":"enterprise"}`))
	require.NoError(t, err)
	assert.Equal(t, "enterprise", doc["account_plan"])

	_, err = f.accounts.UpdateAccount(ctx, staff, "alice", payload(t, `{"account_plan":"gold"}`))
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.From(err).Code)

	_, err = f.accounts.UpdateAccount(ctx, alice, "root", payload(t, `{"account_plan":"basic"}`))
	assert.Equal(t, apperrors.CodeForbidden, apperrors.From(err).Code)

	list, err := f.accounts.ListAccounts(ctx, staff, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.accounts.ListAccounts(ctx, alice, 10, 0)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.From(err).Code)
}

func TestPasswordChangeIsRehashed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.accounts.Register(ctx, RegisterInput{Email: "a@b.c", Password: "first"})
	require.NoError(t, err)
	result, err := f.accounts.Login(ctx, "a@b.c", "first")
	require.NoError(t, err)
	id, err := f.accounts.Authenticate(ctx, result.Token)
	require.NoError(t, err)

	_, err = f.accounts.UpdateMe(ctx, id, "partial_update", payload(t, `{"password":"second"}`))
	require.NoError(t, err)

	_, err = f.accounts.Login(ctx, "a@b.c", "first")
	assert.Error(t, err)
	_, err = f.accounts.Login(ctx, "a@b.c", "second")
	assert.NoError(t, err)
}

func TestDeleteMeCascadesAndPurges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.account(t, "owner", models.PlanBasic, false)
	imageID := f.createImage(t, owner, "x")
	_, err := f.images.UploadImage(ctx, owner, imageID, &Upload{Filename: "x.png", Data: pngBytes(t, 40, 40)})
	require.NoError(t, err)

	require.NoError(t, f.accounts.DeleteMe(ctx, owner))

	_, err = f.store.Accounts().GetByID(ctx, "owner")
	assert.Error(t, err)
	images, err := f.store.CustomImages().List(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, images)
	assert.Len(t, f.queue.purged(storage.Originals), 1)
	assert.Len(t, f.queue.purged(storage.Variants), 2)
}

func TestEnsureSuperuser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.accounts.EnsureSuperuser(ctx, "root@example.com", "changeme"))
	require.NoError(t, f.accounts.EnsureSuperuser(ctx, "root@example.com", "changeme"))

	account, err := f.store.Accounts().FindByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.True(t, account.IsStaff)
	assert.Equal(t, models.PlanAdmin, account.Plan)

	list, err := f.store.Accounts().List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.Error(t, f.accounts.EnsureSuperuser(ctx, "nope", "changeme"))
}
