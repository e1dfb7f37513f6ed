package service

import (
	"context"
	"testing"

	"go-dropship-admin/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBrands(t *testing.T, m LifecycleManager[model.Brand], actor *model.ActorIdentity, names ...string) []uint {
	t.Helper()
	ids := make([]uint, 0, len(names))
	for _, name := range names {
		b, err := m.Create(context.Background(), actor, &model.Brand{Name: name})
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}
	return ids
}

func TestBulkCoordinator_PurgeReportsEveryID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := brandManager(f)
	actor := adminActor(t, f)
	ids := seedBrands(t, m, actor, "First", "Second")

	bulk := NewBulkCoordinator[model.Brand](m, 4, f.log)
	result, err := bulk.Apply(ctx, actor, []uint{ids[0], ids[1], 999}, BulkPurge)
	require.NoError(t, err)

	require.Len(t, result.Succeeded, 2)
	assert.Equal(t, ids[0], result.Succeeded[0].ID)
	require.NotNil(t, result.Succeeded[0].Name)
	assert.Equal(t, "First", *result.Succeeded[0].Name)
	assert.Equal(t, ids[1], result.Succeeded[1].ID)
	assert.Equal(t, "Second", *result.Succeeded[1].Name)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, uint(999), result.Failed[0].ID)
	assert.Nil(t, result.Failed[0].Name)
	assert.Equal(t, ReasonNotFound, result.Failed[0].Reason)

	for _, id := range ids {
		_, err := m.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestBulkCoordinator_MixedStates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := brandManager(f)
	actor := adminActor(t, f)
	ids := seedBrands(t, m, actor, "Active", "Trashed")
	require.NoError(t, m.SoftDelete(ctx, actor, ids[1]))

	bulk := NewBulkCoordinator[model.Brand](m, 2, f.log)

	t.Run("trash", func(t *testing.T) {
		result, err := bulk.Apply(ctx, actor, ids, BulkTrash)
		require.NoError(t, err)
		require.Len(t, result.Succeeded, 1)
		assert.Equal(t, ids[0], result.Succeeded[0].ID)
		require.Len(t, result.Failed, 1)
		assert.Equal(t, ids[1], result.Failed[0].ID)
		assert.Equal(t, MsgAlreadyTrashed, result.Failed[0].Reason)
		require.NotNil(t, result.Failed[0].Name)
		assert.Equal(t, "Trashed", *result.Failed[0].Name)
	})

	t.Run("restore", func(t *testing.T) {
		result, err := bulk.Apply(ctx, actor, ids, BulkRestore)
		require.NoError(t, err)
		assert.Len(t, result.Succeeded, 2)
		assert.Empty(t, result.Failed)

		again, err := bulk.Apply(ctx, actor, ids, BulkRestore)
		require.NoError(t, err)
		assert.Empty(t, again.Succeeded)
		require.Len(t, again.Failed, 2)
		for _, failure := range again.Failed {
			assert.Equal(t, MsgNotInTrash, failure.Reason)
		}
	})
}

func TestBulkCoordinator_DuplicatesCollapse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := brandManager(f)
	actor := adminActor(t, f)
	ids := seedBrands(t, m, actor, "Only")

	bulk := NewBulkCoordinator[model.Brand](m, 4, f.log)
	result, err := bulk.Apply(ctx, actor, []uint{ids[0], ids[0], ids[0]}, BulkTrash)
	require.NoError(t, err)
	assert.Len(t, result.Succeeded, 1)
	assert.Empty(t, result.Failed)
}

func TestBulkCoordinator_CancelledBeforeStart(t *testing.T) {
	f := newFixture(t)
	m := brandManager(f)
	actor := adminActor(t, f)
	ids := seedBrands(t, m, actor, "Kept", "Also kept")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bulk := NewBulkCoordinator[model.Brand](m, 1, f.log)
	result, err := bulk.Apply(ctx, actor, ids, BulkPurge)
	require.NoError(t, err)
	assert.Empty(t, result.Succeeded)
	require.Len(t, result.Failed, 2)
	for _, failure := range result.Failed {
		assert.Equal(t, ReasonCancelled, failure.Reason)
	}

	for _, id := range ids {
		_, err := m.Get(context.Background(), id)
		assert.NoError(t, err)
	}
}

func TestBulkCoordinator_RejectsUnusableRequests(t *testing.T) {
	f := newFixture(t)
	m := brandManager(f)
	actor := adminActor(t, f)
	bulk := NewBulkCoordinator[model.Brand](m, 1, f.log)

	_, err := bulk.Apply(context.Background(), actor, []uint{1}, BulkOp("explode"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = bulk.Apply(context.Background(), actor, nil, BulkPurge)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBulkOp_Action(t *testing.T) {
	assert.Equal(t, model.ActionPermanentDelete, BulkPurge.Action())
	assert.Equal(t, model.ActionRestore, BulkRestore.Action())
	assert.Equal(t, model.ActionSoftDelete, BulkTrash.Action())
	assert.Empty(t, BulkOp("other").Action())
}
