package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createCursorsTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE cursors (
		chain_id TEXT NOT NULL,
		event_kind TEXT NOT NULL,
		last_scanned_block INTEGER NOT NULL,
		PRIMARY KEY (chain_id, event_kind)
	);`)
}

func createInitiatorFlagsTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE initiator_flags (
		chain_id TEXT PRIMARY KEY,
		reason TEXT,
		set_at INTEGER
	);`)
}

func createProductsTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE products (
		product_hash TEXT NOT NULL,
		chain_id TEXT NOT NULL,
		merchant_address TEXT NOT NULL,
		token_address TEXT NOT NULL,
		token_symbol TEXT NOT NULL,
		token_decimals INTEGER NOT NULL,
		uint_amount TEXT NOT NULL,
		period INTEGER NOT NULL,
		payment_period INTEGER NOT NULL,
		free_trial_length INTEGER NOT NULL,
		metadata_hash TEXT NOT NULL,
		merchant_domain TEXT NOT NULL,
		product_name TEXT NOT NULL,
		created_at DATETIME,
		PRIMARY KEY (product_hash, chain_id)
	);`)
}

func createSubscriptionsTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE subscriptions (
		subscription_hash TEXT NOT NULL,
		chain_id TEXT NOT NULL,
		product_hash TEXT NOT NULL,
		user_address TEXT NOT NULL,
		start_ts INTEGER NOT NULL,
		payments_made INTEGER NOT NULL,
		terminated BOOLEAN NOT NULL,
		subscription_id TEXT,
		user_id TEXT,
		created_at DATETIME,
		PRIMARY KEY (subscription_hash, chain_id)
	);`)
}

func createMerchantBindingsTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE merchant_bindings (
		merchant_address TEXT NOT NULL,
		chain_id TEXT NOT NULL,
		initiator_address TEXT NOT NULL,
		updated_at DATETIME,
		PRIMARY KEY (merchant_address, chain_id)
	);`)
}

func createSubscriptionLogsTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE subscription_logs (
		log_id TEXT PRIMARY KEY,
		chain_id TEXT NOT NULL,
		type TEXT NOT NULL,
		subscription_hash TEXT NOT NULL,
		payment_number INTEGER NOT NULL,
		message TEXT,
		timestamp DATETIME NOT NULL
	);`)
}

func createMetadataBlobsTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE metadata_blobs (
		cid TEXT PRIMARY KEY,
		json TEXT NOT NULL
	);`)
}
