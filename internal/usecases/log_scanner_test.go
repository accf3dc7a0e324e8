package usecases

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"subpay-indexer.backend/internal/domain/entities"
	domainrepositories "subpay-indexer.backend/internal/domain/repositories"
	"subpay-indexer.backend/internal/infrastructure/repositories"
)

func newScanTestStore(t *testing.T) (*gorm.DB, domainrepositories.EntityStore) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, repositories.AutoMigrate(db))
	return db, repositories.NewEntityStore(repositories.NewMutexDB(db))
}

func newScanTestScanner(store domainrepositories.EntityStore) *LogScanner {
	resolver := NewMetadataResolver(newFakeMetadataRepo(), &fakePinningClient{}, zap.NewNop())
	return NewLogScanner("8453", "0xrouter", nil, nil, store, resolver, zap.NewNop())
}

func TestLogScanner_PaymentMadeHandlerIsMaxMerge(t *testing.T) {
	_, store := newScanTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddProduct(ctx, &entities.Product{ProductHash: "0xprod", ChainID: "8453", MerchantAddress: "0xm", TokenAddress: "0xt", TokenSymbol: "USDC", Period: 100, PaymentPeriod: 50, CreatedAt: time.Unix(0, 0)}))
	require.NoError(t, store.AddSubscription(ctx, &entities.Subscription{SubscriptionHash: "0xsub", ChainID: "8453", ProductHash: "0xprod", UserAddress: "0xuser", StartTS: 0, CreatedAt: time.Unix(0, 0)}))

	scanner := newScanTestScanner(store)
	event := &entities.RouterEvent{Tag: entities.TagPaymentMade, PaymentMade: &entities.PaymentMadeEvent{SubscriptionHash: "0xsub", PaymentNumber: 2}}
	require.NoError(t, scanner.handle(ctx, event))

	got, err := store.GetSubscription(ctx, "8453", "0xsub")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.PaymentsMade)

	// replaying a lower payment number is a no-op (max-merge, idempotence).
	require.NoError(t, scanner.handle(ctx, &entities.RouterEvent{Tag: entities.TagPaymentMade, PaymentMade: &entities.PaymentMadeEvent{SubscriptionHash: "0xsub", PaymentNumber: 1}}))
	got, err = store.GetSubscription(ctx, "8453", "0xsub")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.PaymentsMade)
}

func TestLogScanner_SubscriptionTerminatedHandlerIsIrreversible(t *testing.T) {
	_, store := newScanTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddProduct(ctx, &entities.Product{ProductHash: "0xprod", ChainID: "8453", MerchantAddress: "0xm", TokenAddress: "0xt", TokenSymbol: "USDC", Period: 100, PaymentPeriod: 50, CreatedAt: time.Unix(0, 0)}))
	require.NoError(t, store.AddSubscription(ctx, &entities.Subscription{SubscriptionHash: "0xsub", ChainID: "8453", ProductHash: "0xprod", UserAddress: "0xuser", CreatedAt: time.Unix(0, 0)}))

	scanner := newScanTestScanner(store)
	require.NoError(t, scanner.handle(ctx, &entities.RouterEvent{Tag: entities.TagSubscriptionTerminated, SubscriptionTerminated: &entities.SubscriptionTerminatedEvent{SubscriptionHash: "0xsub"}}))

	got, err := store.GetSubscription(ctx, "8453", "0xsub")
	require.NoError(t, err)
	assert.True(t, got.Terminated)
}

func TestLogScanner_InitiatorChangedHandlerUpsertsBinding(t *testing.T) {
	_, store := newScanTestStore(t)
	ctx := context.Background()
	scanner := newScanTestScanner(store)

	require.NoError(t, scanner.handle(ctx, &entities.RouterEvent{Tag: entities.TagInitiatorChanged, InitiatorChanged: &entities.InitiatorChangedEvent{Merchant: "0xm", NewInitiator: "0xfirst"}}))
	require.NoError(t, scanner.handle(ctx, &entities.RouterEvent{Tag: entities.TagInitiatorChanged, InitiatorChanged: &entities.InitiatorChangedEvent{Merchant: "0xm", NewInitiator: "0xsecond"}}))

	got, err := store.GetMerchantBinding(ctx, "8453", "0xm")
	require.NoError(t, err)
	assert.Equal(t, "0xsecond", got.InitiatorAddress)
}

func TestLogScanner_SubscriptionStarted_SkipsChainReadsWhenProductKnown(t *testing.T) {
	_, store := newScanTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddProduct(ctx, &entities.Product{ProductHash: "0xprod", ChainID: "8453", MerchantAddress: "0xm", TokenAddress: "0xt", TokenSymbol: "USDC", Period: 100, PaymentPeriod: 50, CreatedAt: time.Unix(0, 0)}))

	scanner := newScanTestScanner(store)
	event := &entities.SubscriptionStartedEvent{SubscriptionHash: "0xsub", ProductHash: "0xprod", User: "0xuser", Start: 1000}
	require.NoError(t, scanner.handleSubscriptionStarted(ctx, event))

	got, err := store.GetSubscription(ctx, "8453", "0xsub")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(0), got.PaymentsMade)
	assert.False(t, got.Terminated)
}
