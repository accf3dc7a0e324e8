package repositories

import "context"

// MetadataRepository is the content-addressed cache backing the
// Metadata Resolver: CID -> raw JSON text.
type MetadataRepository interface {
	Get(ctx context.Context, cid string) (json string, ok bool, err error)
	Put(ctx context.Context, cid, json string) error
}
