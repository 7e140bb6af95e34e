package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shareit/shareit-backend/pkg/db/dbtest"
	pkgerrors "github.com/shareit/shareit-backend/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.New(t)))
	require.NoError(t, err)
	return svc
}

func strPtr(v string) *string { return &v }

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)
}

func TestCreateThenGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateUserInput{Name: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserInput{Name: "alice", Email: "same@example.com"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateUserInput{Name: "bob", Email: "same@example.com"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Equal(t, "User email already exist", pkgerrors.As(err).Message())
}

func TestUpdateIsPartial(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateUserInput{Name: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, UpdateUserInput{Name: strPtr("alicia")})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Name)
	assert.Equal(t, "alice@example.com", updated.Email)

	updated, err = svc.Update(ctx, created.ID, UpdateUserInput{Email: strPtr("alicia@example.com"), Name: strPtr("  ")})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Name)
	assert.Equal(t, "alicia@example.com", updated.Email)
}

func TestUpdateEmailToTakenConflicts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserInput{Name: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	bob, err := svc.Create(ctx, CreateUserInput{Name: "bob", Email: "bob@example.com"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, bob.ID, UpdateUserInput{Email: strPtr("alice@example.com")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestUpdateMissingUser(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Update(context.Background(), 99, UpdateUserInput{Name: strPtr("x")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteRemovesUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateUserInput{Name: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.IsCode(svc.Delete(ctx, created.ID), pkgerrors.CodeNotFound))
}

func TestListOrdersByID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, CreateUserInput{Name: name, Email: name + "@example.com"})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "c", list[2].Name)
}
