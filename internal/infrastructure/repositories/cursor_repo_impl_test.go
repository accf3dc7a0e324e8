package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subpay-indexer.backend/internal/domain/entities"
)

func newCursorTestRepo(t *testing.T) *cursorRepository {
	db := newTestDB(t)
	createCursorsTable(t, db)
	createInitiatorFlagsTable(t, db)
	return &cursorRepository{store: NewMutexDB(db)}
}

func TestCursorRepository_GetDefaultsToMinBlock(t *testing.T) {
	repo := newCursorTestRepo(t)
	got, err := repo.Get(context.Background(), "8453", entities.EventKindSubscriptions, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), got)
}

func TestCursorRepository_SetThenGet(t *testing.T) {
	repo := newCursorTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, "8453", entities.EventKindPayments, 1200))

	got, err := repo.Get(ctx, "8453", entities.EventKindPayments, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1200), got)

	// min_block still wins if it exceeds the stored cursor.
	got, err = repo.Get(ctx, "8453", entities.EventKindPayments, 5000)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), got)
}

func TestCursorRepository_SetIsUpsert(t *testing.T) {
	repo := newCursorTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, "8453", entities.EventKindTerminations, 10))
	require.NoError(t, repo.Set(ctx, "8453", entities.EventKindTerminations, 20))

	got, err := repo.Get(ctx, "8453", entities.EventKindTerminations, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), got)
}

func TestCursorRepository_FreezeUnfreeze(t *testing.T) {
	repo := newCursorTestRepo(t)
	ctx := context.Background()

	frozen, _, err := repo.IsFrozen(ctx, "8453")
	require.NoError(t, err)
	assert.False(t, frozen)

	require.NoError(t, repo.Freeze(ctx, "8453", "receipt timeout", 1_700_000_000))
	frozen, reason, err := repo.IsFrozen(ctx, "8453")
	require.NoError(t, err)
	assert.True(t, frozen)
	assert.Equal(t, "receipt timeout", reason)

	require.NoError(t, repo.Unfreeze(ctx, "8453"))
	frozen, _, err = repo.IsFrozen(ctx, "8453")
	require.NoError(t, err)
	assert.False(t, frozen)
}
