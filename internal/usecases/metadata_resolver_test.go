package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainerrors "subpay-indexer.backend/internal/domain/errors"
	"subpay-indexer.backend/internal/domain/repositories"
)

type fakeMetadataRepo struct {
	store map[string]string
}

func newFakeMetadataRepo() *fakeMetadataRepo {
	return &fakeMetadataRepo{store: map[string]string{}}
}

func (f *fakeMetadataRepo) Get(_ context.Context, cid string) (string, bool, error) {
	v, ok := f.store[cid]
	return v, ok, nil
}

func (f *fakeMetadataRepo) Put(_ context.Context, cid, json string) error {
	f.store[cid] = json
	return nil
}

var _ repositories.MetadataRepository = (*fakeMetadataRepo)(nil)

type fakePinningClient struct {
	blobs map[string][]byte
	calls int
}

func (f *fakePinningClient) Get(_ context.Context, cid string) ([]byte, error) {
	f.calls++
	body, ok := f.blobs[cid]
	if !ok {
		return nil, domainerrors.ErrTransientMetadata
	}
	return body, nil
}

func TestMetadataResolver_ProductMetadata_CachesAfterFirstFetch(t *testing.T) {
	pinning := &fakePinningClient{blobs: map[string][]byte{
		"cidP": []byte(`{"merchantDomain":"paybeaver.xyz","productName":"Pro"}`),
	}}
	resolver := NewMetadataResolver(newFakeMetadataRepo(), pinning, zap.NewNop())

	meta, err := resolver.ResolveProductMetadata(context.Background(), []byte("cidP"))
	require.NoError(t, err)
	assert.Equal(t, "paybeaver.xyz", meta.MerchantDomain)
	assert.Equal(t, "Pro", meta.ProductName)
	assert.Equal(t, 1, pinning.calls)

	_, err = resolver.ResolveProductMetadata(context.Background(), []byte("cidP"))
	require.NoError(t, err)
	assert.Equal(t, 1, pinning.calls, "second resolve should hit the cache")
}

func TestMetadataResolver_ProductMetadata_MissingIsError(t *testing.T) {
	resolver := NewMetadataResolver(newFakeMetadataRepo(), &fakePinningClient{blobs: map[string][]byte{}}, zap.NewNop())

	_, err := resolver.ResolveProductMetadata(context.Background(), []byte("cidMissing"))
	assert.ErrorIs(t, err, domainerrors.ErrMissingMetadataKey)
}

func TestMetadataResolver_ProductMetadata_IncompleteKeysIsError(t *testing.T) {
	pinning := &fakePinningClient{blobs: map[string][]byte{"cidP": []byte(`{"merchantDomain":"paybeaver.xyz"}`)}}
	resolver := NewMetadataResolver(newFakeMetadataRepo(), pinning, zap.NewNop())

	_, err := resolver.ResolveProductMetadata(context.Background(), []byte("cidP"))
	assert.ErrorIs(t, err, domainerrors.ErrMissingMetadataKey)
}

func TestMetadataResolver_SubscriptionMetadata_MissingIsEmptyNotError(t *testing.T) {
	resolver := NewMetadataResolver(newFakeMetadataRepo(), &fakePinningClient{blobs: map[string][]byte{}}, zap.NewNop())

	meta := resolver.ResolveSubscriptionMetadata(context.Background(), []byte("cidMissing"))
	assert.Empty(t, meta.SubscriptionID)
	assert.Empty(t, meta.UserID)
}

func TestMetadataResolver_SubscriptionMetadata_EmptyBytesSkipsFetch(t *testing.T) {
	pinning := &fakePinningClient{blobs: map[string][]byte{}}
	resolver := NewMetadataResolver(newFakeMetadataRepo(), pinning, zap.NewNop())

	meta := resolver.ResolveSubscriptionMetadata(context.Background(), nil)
	assert.Empty(t, meta)
	assert.Equal(t, 0, pinning.calls)
}
