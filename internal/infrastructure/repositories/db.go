package repositories

import (
	"sync"

	"gorm.io/gorm"

	"subpay-indexer.backend/internal/domain/entities"
)

// MutexDB wraps a pooled *gorm.DB with a process-wide mutex, satisfying
// the single-writer discipline spec.md §5 requires of the Entity Store:
// exactly one writer, statements serialized, read-committed isolation
// from the underlying connection.
type MutexDB struct {
	mu sync.Mutex
	DB *gorm.DB
}

// NewMutexDB wraps an already-opened connection.
func NewMutexDB(db *gorm.DB) *MutexDB {
	return &MutexDB{DB: db}
}

// WithLock runs fn while holding the store's write mutex.
func (m *MutexDB) WithLock(fn func(db *gorm.DB) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.DB)
}

// AutoMigrate creates or updates every table this module owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entities.Product{},
		&entities.Subscription{},
		&entities.MerchantBinding{},
		&entities.SubscriptionLog{},
		&entities.MetadataBlob{},
		&entities.Cursor{},
		&entities.InitiatorFlag{},
	)
}
