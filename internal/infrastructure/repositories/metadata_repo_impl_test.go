package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataRepository_GetMissPutGetHit(t *testing.T) {
	db := newTestDB(t)
	createMetadataBlobsTable(t, db)
	repo := &metadataRepository{store: NewMutexDB(db)}
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, "Qm123")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Put(ctx, "Qm123", `{"merchantDomain":"paybeaver.xyz"}`))

	json, ok, err := repo.Get(ctx, "Qm123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"merchantDomain":"paybeaver.xyz"}`, json)
}
