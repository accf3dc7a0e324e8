package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subpay-indexer.backend/internal/domain/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeEntityStore implements repositories.EntityStore with overridable
// function fields, following the teacher's handler-test stub pattern.
type fakeEntityStore struct {
	getSubscriptionFn func(ctx context.Context, chainID, hash string) (*entities.Subscription, error)
	listByUserFn      func(ctx context.Context, userAddress string) ([]entities.Subscription, error)
	listLogsFn        func(ctx context.Context, chainID, hash string) ([]entities.SubscriptionLog, error)
}

func (f *fakeEntityStore) AddProduct(context.Context, *entities.Product) error { return nil }
func (f *fakeEntityStore) GetProduct(context.Context, string, string) (*entities.Product, error) {
	return nil, nil
}
func (f *fakeEntityStore) AddSubscription(context.Context, *entities.Subscription) error { return nil }
func (f *fakeEntityStore) GetSubscription(ctx context.Context, chainID, hash string) (*entities.Subscription, error) {
	if f.getSubscriptionFn != nil {
		return f.getSubscriptionFn(ctx, chainID, hash)
	}
	return nil, nil
}
func (f *fakeEntityStore) ListSubscriptionsByUser(ctx context.Context, userAddress string) ([]entities.Subscription, error) {
	if f.listByUserFn != nil {
		return f.listByUserFn(ctx, userAddress)
	}
	return nil, nil
}
func (f *fakeEntityStore) ListSubscriptionsByMerchant(context.Context, string, string) ([]entities.Subscription, error) {
	return nil, nil
}
func (f *fakeEntityStore) ListSubscriptionsByMerchantAndUser(context.Context, string, string, string) ([]entities.Subscription, error) {
	return nil, nil
}
func (f *fakeEntityStore) ListSubscriptionsByMerchantAndSubscriptionID(context.Context, string, string, string) ([]entities.Subscription, error) {
	return nil, nil
}
func (f *fakeEntityStore) ListAllSubscriptions(context.Context) ([]entities.Subscription, error) {
	return nil, nil
}
func (f *fakeEntityStore) UpdatePaymentsMade(context.Context, string, string, int64) error { return nil }
func (f *fakeEntityStore) Terminate(context.Context, string, string) error                 { return nil }
func (f *fakeEntityStore) AddMerchantBinding(context.Context, *entities.MerchantBinding) error {
	return nil
}
func (f *fakeEntityStore) GetMerchantBinding(context.Context, string, string) (*entities.MerchantBinding, error) {
	return nil, nil
}
func (f *fakeEntityStore) AppendSubscriptionLog(context.Context, *entities.SubscriptionLog) error {
	return nil
}
func (f *fakeEntityStore) ListSubscriptionLogs(ctx context.Context, chainID, hash string) ([]entities.SubscriptionLog, error) {
	if f.listLogsFn != nil {
		return f.listLogsFn(ctx, chainID, hash)
	}
	return nil, nil
}
func (f *fakeEntityStore) LastPaymentIssueAt(context.Context, string, string, int64) (int64, error) {
	return 0, nil
}
func (f *fakeEntityStore) GetPayable(context.Context, string, int64, string, int64) ([]entities.Subscription, error) {
	return nil, nil
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func TestSubscriptionHandler_GetByHash_NotFound(t *testing.T) {
	store := &fakeEntityStore{}
	h := NewSubscriptionHandler(store)

	c, w := newTestContext(http.MethodGet, "/subscriptions/8453/0xdeadbeef")
	c.Params = gin.Params{{Key: "chainId", Value: "8453"}, {Key: "hash", Value: "0xdeadbeef"}}

	h.GetByHash(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscriptionHandler_GetByHash_Found(t *testing.T) {
	sub := &entities.Subscription{SubscriptionHash: "0xdeadbeef", ChainID: "8453"}
	store := &fakeEntityStore{
		getSubscriptionFn: func(context.Context, string, string) (*entities.Subscription, error) {
			return sub, nil
		},
	}
	h := NewSubscriptionHandler(store)

	c, w := newTestContext(http.MethodGet, "/subscriptions/8453/0xdeadbeef")
	c.Params = gin.Params{{Key: "chainId", Value: "8453"}, {Key: "hash", Value: "0xdeadbeef"}}

	h.GetByHash(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubscriptionHandler_GetByHash_StoreError(t *testing.T) {
	store := &fakeEntityStore{
		getSubscriptionFn: func(context.Context, string, string) (*entities.Subscription, error) {
			return nil, errors.New("db down")
		},
	}
	h := NewSubscriptionHandler(store)

	c, w := newTestContext(http.MethodGet, "/subscriptions/8453/0xdeadbeef")
	c.Params = gin.Params{{Key: "chainId", Value: "8453"}, {Key: "hash", Value: "0xdeadbeef"}}

	h.GetByHash(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSubscriptionHandler_ListByUser_EmptyReturnsEmptyArray(t *testing.T) {
	store := &fakeEntityStore{
		listByUserFn: func(context.Context, string) ([]entities.Subscription, error) {
			return nil, nil
		},
	}
	h := NewSubscriptionHandler(store)

	c, w := newTestContext(http.MethodGet, "/subscriptions/by-user/0xuser")
	c.Params = gin.Params{{Key: "userAddress", Value: "0xuser"}}

	h.ListByUser(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"items":[]`)
}

func TestSubscriptionHandler_ListByUser_PaginatesInMemory(t *testing.T) {
	subs := []entities.Subscription{
		{SubscriptionHash: "a", StartTS: 300},
		{SubscriptionHash: "b", StartTS: 200},
		{SubscriptionHash: "c", StartTS: 100},
	}
	store := &fakeEntityStore{
		listByUserFn: func(context.Context, string) ([]entities.Subscription, error) {
			return subs, nil
		},
	}
	h := NewSubscriptionHandler(store)

	c, w := newTestContext(http.MethodGet, "/subscriptions/by-user/0xuser?page=2&limit=1")
	c.Params = gin.Params{{Key: "userAddress", Value: "0xuser"}}
	req := httptest.NewRequest(http.MethodGet, "/subscriptions/by-user/0xuser?page=2&limit=1", nil)
	c.Request = req

	h.ListByUser(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"SubscriptionHash":"b"`)
	assert.NotContains(t, w.Body.String(), `"SubscriptionHash":"a"`)
}

func TestSubscriptionHandler_ListLogs(t *testing.T) {
	logs := []entities.SubscriptionLog{{SubscriptionHash: "h", Type: entities.LogTypePaymentMade}}
	store := &fakeEntityStore{
		listLogsFn: func(context.Context, string, string) ([]entities.SubscriptionLog, error) {
			return logs, nil
		},
	}
	h := NewSubscriptionHandler(store)

	c, w := newTestContext(http.MethodGet, "/subscriptions/8453/h/logs")
	c.Params = gin.Params{{Key: "chainId", Value: "8453"}, {Key: "hash", Value: "h"}}

	h.ListLogs(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"payment-made"`)
}
