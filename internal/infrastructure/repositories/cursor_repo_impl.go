package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"subpay-indexer.backend/internal/domain/entities"
	"subpay-indexer.backend/internal/domain/repositories"
)

type cursorRepository struct {
	store *MutexDB
}

// NewCursorRepository constructs the Cursor Store on top of a
// mutex-guarded connection.
func NewCursorRepository(store *MutexDB) repositories.CursorRepository {
	return &cursorRepository{store: store}
}

func (r *cursorRepository) Get(ctx context.Context, chainID string, kind entities.EventKind, minBlock uint64) (uint64, error) {
	var cursor entities.Cursor
	err := r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("chain_id = ? AND event_kind = ?", chainID, kind).
			First(&cursor).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return minBlock, nil
	}
	if err != nil {
		return 0, err
	}
	if cursor.LastScanned < minBlock {
		return minBlock, nil
	}
	return cursor.LastScanned, nil
}

func (r *cursorRepository) Set(ctx context.Context, chainID string, kind entities.EventKind, block uint64) error {
	cursor := entities.Cursor{ChainID: chainID, EventKind: kind, LastScanned: block}
	return r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "chain_id"}, {Name: "event_kind"}},
				DoUpdates: clause.AssignmentColumns([]string{"last_scanned_block"}),
			}).
			Create(&cursor).Error
	})
}

func (r *cursorRepository) IsFrozen(ctx context.Context, chainID string) (bool, string, error) {
	var flag entities.InitiatorFlag
	var found bool
	err := r.store.WithLock(func(db *gorm.DB) error {
		err := db.WithContext(ctx).Where("chain_id = ?", chainID).First(&flag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil {
		return false, "", err
	}
	return found, flag.Reason, nil
}

func (r *cursorRepository) Freeze(ctx context.Context, chainID, reason string, setAt int64) error {
	flag := entities.InitiatorFlag{ChainID: chainID, Reason: reason, SetAt: setAt}
	return r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "chain_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"reason", "set_at"}),
			}).
			Create(&flag).Error
	})
}

func (r *cursorRepository) Unfreeze(ctx context.Context, chainID string) error {
	return r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).Where("chain_id = ?", chainID).Delete(&entities.InitiatorFlag{}).Error
	})
}
