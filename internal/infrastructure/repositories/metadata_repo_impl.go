package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"subpay-indexer.backend/internal/domain/entities"
	"subpay-indexer.backend/internal/domain/repositories"
)

type metadataRepository struct {
	store *MutexDB
}

// NewMetadataRepository constructs the CID->JSON cache the Metadata
// Resolver consults before falling back to the pinning service.
func NewMetadataRepository(store *MutexDB) repositories.MetadataRepository {
	return &metadataRepository{store: store}
}

func (r *metadataRepository) Get(ctx context.Context, cid string) (string, bool, error) {
	var blob entities.MetadataBlob
	var err error
	r.store.WithLock(func(db *gorm.DB) error {
		err = db.WithContext(ctx).Where("cid = ?", cid).First(&blob).Error
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return blob.JSON, true, nil
}

func (r *metadataRepository) Put(ctx context.Context, cid, json string) error {
	blob := entities.MetadataBlob{CID: cid, JSON: json}
	return r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&blob).Error
	})
}
