package usecases

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"subpay-indexer.backend/internal/domain/entities"
	domainerrors "subpay-indexer.backend/internal/domain/errors"
	"subpay-indexer.backend/internal/domain/repositories"
)

// PinningClient is the subset of the pinning service client the
// Metadata Resolver depends on.
type PinningClient interface {
	Get(ctx context.Context, cid string) ([]byte, error)
}

// MetadataResolver resolves an event's raw metadata bytes (a base58 IPFS
// CID) into parsed JSON, consulting the Entity Store's metadata cache
// before falling back to the pinning service, per spec.md §4.3.
type MetadataResolver struct {
	cache   repositories.MetadataRepository
	pinning PinningClient
	log     *zap.Logger
}

// NewMetadataResolver constructs a resolver.
func NewMetadataResolver(cache repositories.MetadataRepository, pinning PinningClient, log *zap.Logger) *MetadataResolver {
	return &MetadataResolver{cache: cache, pinning: pinning, log: log}
}

// resolveRaw returns the JSON text for cidBytes, or "" if the fetch
// failed (caller decides whether that's fatal).
func (r *MetadataResolver) resolveRaw(ctx context.Context, cidBytes []byte) string {
	if len(cidBytes) == 0 {
		return ""
	}
	cid := string(cidBytes)

	if cached, ok, err := r.cache.Get(ctx, cid); err == nil && ok {
		return cached
	}

	body, err := r.pinning.Get(ctx, cid)
	if err != nil {
		r.log.Warn("metadata fetch failed", zap.String("cid", cid), zap.Error(err))
		return ""
	}

	text := string(body)
	if err := r.cache.Put(ctx, cid, text); err != nil {
		r.log.Warn("metadata cache write failed", zap.String("cid", cid), zap.Error(err))
	}
	return text
}

// ResolveProductMetadata resolves mandatory product metadata. A missing
// or malformed blob is an error: the caller must skip ingestion.
func (r *MetadataResolver) ResolveProductMetadata(ctx context.Context, cidBytes []byte) (entities.ProductMetadata, error) {
	raw := r.resolveRaw(ctx, cidBytes)
	if raw == "" {
		return entities.ProductMetadata{}, domainerrors.ErrMissingMetadataKey
	}

	var meta entities.ProductMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil || !meta.Valid() {
		return entities.ProductMetadata{}, domainerrors.ErrMissingMetadataKey
	}
	return meta, nil
}

// ResolveSubscriptionMetadata resolves optional subscription metadata. A
// missing or malformed blob yields the zero value, not an error.
func (r *MetadataResolver) ResolveSubscriptionMetadata(ctx context.Context, cidBytes []byte) entities.SubscriptionMetadata {
	raw := r.resolveRaw(ctx, cidBytes)
	if raw == "" {
		return entities.SubscriptionMetadata{}
	}

	var meta entities.SubscriptionMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return entities.SubscriptionMetadata{}
	}
	return meta
}
