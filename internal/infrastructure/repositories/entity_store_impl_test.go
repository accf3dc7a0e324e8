package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"subpay-indexer.backend/internal/domain/entities"
)

func newEntityTestStore(t *testing.T) (*entityStore, *gorm.DB) {
	db := newTestDB(t)
	createProductsTable(t, db)
	createSubscriptionsTable(t, db)
	createMerchantBindingsTable(t, db)
	createSubscriptionLogsTable(t, db)
	return &entityStore{store: NewMutexDB(db)}, db
}

func seedProduct(t *testing.T, store *entityStore, period, paymentPeriod int64) entities.Product {
	t.Helper()
	p := entities.Product{
		ProductHash:     "0xprod",
		ChainID:         "8453",
		MerchantAddress: "0xmerchant",
		TokenAddress:    "0xtoken",
		TokenSymbol:     "USDC",
		TokenDecimals:   6,
		UintAmount:      "1000000",
		Period:          period,
		PaymentPeriod:   paymentPeriod,
		MerchantDomain:  "paybeaver.xyz",
		ProductName:     "Pro",
		CreatedAt:       time.Unix(0, 0),
	}
	require.NoError(t, store.AddProduct(context.Background(), &p))
	return p
}

func TestEntityStore_AddProductIsFirstWriteWins(t *testing.T) {
	store, _ := newEntityTestStore(t)
	seedProduct(t, store, 100, 50)

	dup := entities.Product{ProductHash: "0xprod", ChainID: "8453", MerchantAddress: "0xother", TokenAddress: "0xtoken", TokenSymbol: "USDC", Period: 200, PaymentPeriod: 200, CreatedAt: time.Unix(0, 0)}
	require.NoError(t, store.AddProduct(context.Background(), &dup))

	got, err := store.GetProduct(context.Background(), "8453", "0xprod")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Period)
}

func TestEntityStore_UpdatePaymentsMadeIsMaxMerge(t *testing.T) {
	store, _ := newEntityTestStore(t)
	seedProduct(t, store, 100, 50)
	sub := entities.Subscription{SubscriptionHash: "0xsub", ChainID: "8453", ProductHash: "0xprod", UserAddress: "0xuser", StartTS: 100, CreatedAt: time.Unix(0, 0)}
	require.NoError(t, store.AddSubscription(context.Background(), &sub))

	require.NoError(t, store.UpdatePaymentsMade(context.Background(), "8453", "0xsub", 3))
	got, err := store.GetSubscription(context.Background(), "8453", "0xsub")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.PaymentsMade)

	// lower value is a no-op
	require.NoError(t, store.UpdatePaymentsMade(context.Background(), "8453", "0xsub", 2))
	got, err = store.GetSubscription(context.Background(), "8453", "0xsub")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.PaymentsMade)
}

func TestEntityStore_Terminate(t *testing.T) {
	store, _ := newEntityTestStore(t)
	seedProduct(t, store, 100, 50)
	sub := entities.Subscription{SubscriptionHash: "0xsub", ChainID: "8453", ProductHash: "0xprod", UserAddress: "0xuser", StartTS: 100, CreatedAt: time.Unix(0, 0)}
	require.NoError(t, store.AddSubscription(context.Background(), &sub))

	require.NoError(t, store.Terminate(context.Background(), "8453", "0xsub"))
	got, err := store.GetSubscription(context.Background(), "8453", "0xsub")
	require.NoError(t, err)
	assert.True(t, got.Terminated)
}

func TestEntityStore_GetPayable_WindowAndInitiatorAndBackoff(t *testing.T) {
	store, _ := newEntityTestStore(t)
	seedProduct(t, store, 100, 50)
	ctx := context.Background()

	sub := entities.Subscription{SubscriptionHash: "0xsub", ChainID: "8453", ProductHash: "0xprod", UserAddress: "0xuser", StartTS: 100, CreatedAt: time.Unix(0, 0)}
	require.NoError(t, store.AddSubscription(ctx, &sub))
	require.NoError(t, store.AddMerchantBinding(ctx, &entities.MerchantBinding{MerchantAddress: "0xmerchant", ChainID: "8453", InitiatorAddress: "0xinitiator", UpdatedAt: time.Unix(0, 0)}))

	// window: start=100, payments_made=0 -> open (100, 150)
	payable, err := store.GetPayable(ctx, "8453", 120, "0xinitiator", 86400)
	require.NoError(t, err)
	require.Len(t, payable, 1)
	assert.Equal(t, "0xsub", payable[0].SubscriptionHash)

	// wrong initiator excludes it
	payable, err = store.GetPayable(ctx, "8453", 120, "0xsomeoneelse", 86400)
	require.NoError(t, err)
	assert.Empty(t, payable)

	// outside window excludes it
	payable, err = store.GetPayable(ctx, "8453", 200, "0xinitiator", 86400)
	require.NoError(t, err)
	assert.Empty(t, payable)

	// a recent payment-issue log for the next payment number backs off
	require.NoError(t, store.AppendSubscriptionLog(ctx, &entities.SubscriptionLog{
		LogID: uuid.New(), ChainID: "8453", Type: entities.LogTypePaymentIssue,
		SubscriptionHash: "0xsub", PaymentNumber: 1, Timestamp: time.Unix(119, 0),
	}))
	payable, err = store.GetPayable(ctx, "8453", 120, "0xinitiator", 86400)
	require.NoError(t, err)
	assert.Empty(t, payable)

	// once the backoff window elapses, the billing window has closed as
	// well, so the subscription stays excluded
	payable, err = store.GetPayable(ctx, "8453", 119+86401, "0xinitiator", 86400)
	require.NoError(t, err)
	assert.Empty(t, payable)
}

func TestEntityStore_MerchantBindingIsLastWriteWins(t *testing.T) {
	store, _ := newEntityTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddMerchantBinding(ctx, &entities.MerchantBinding{MerchantAddress: "0xmerchant", ChainID: "8453", InitiatorAddress: "0xfirst", UpdatedAt: time.Unix(0, 0)}))
	require.NoError(t, store.AddMerchantBinding(ctx, &entities.MerchantBinding{MerchantAddress: "0xmerchant", ChainID: "8453", InitiatorAddress: "0xsecond", UpdatedAt: time.Unix(1, 0)}))

	got, err := store.GetMerchantBinding(ctx, "8453", "0xmerchant")
	require.NoError(t, err)
	assert.Equal(t, "0xsecond", got.InitiatorAddress)
}
