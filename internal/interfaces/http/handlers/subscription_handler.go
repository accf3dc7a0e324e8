package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"subpay-indexer.backend/internal/domain/entities"
	domainerrors "subpay-indexer.backend/internal/domain/errors"
	"subpay-indexer.backend/internal/domain/repositories"
	"subpay-indexer.backend/internal/interfaces/http/response"
	"subpay-indexer.backend/pkg/utils"
)

// SubscriptionHandler serves the read-only subscription projection
// endpoints of the Query Interface (spec.md §4.8). It never writes:
// the Entity Store's only writers are the Log Scanner and Payment
// Initiator.
type SubscriptionHandler struct {
	store repositories.EntityStore
}

// NewSubscriptionHandler constructs a subscription handler.
func NewSubscriptionHandler(store repositories.EntityStore) *SubscriptionHandler {
	return &SubscriptionHandler{store: store}
}

// GetByHash returns a single subscription by (chain, hash).
// GET /subscriptions/:chainId/:hash
func (h *SubscriptionHandler) GetByHash(c *gin.Context) {
	chainID := c.Param("chainId")
	hash := c.Param("hash")

	sub, err := h.store.GetSubscription(c.Request.Context(), chainID, hash)
	if err != nil {
		response.Error(c, domainerrors.InternalError(err))
		return
	}
	if sub == nil {
		response.Error(c, domainerrors.NotFound("subscription not found"))
		return
	}
	response.Success(c, http.StatusOK, sub)
}

// ListByUser returns every subscription for a user address, across
// chains, newest first.
// GET /subscriptions/by-user/:userAddress
func (h *SubscriptionHandler) ListByUser(c *gin.Context) {
	subs, err := h.store.ListSubscriptionsByUser(c.Request.Context(), c.Param("userAddress"))
	if err != nil {
		response.Error(c, domainerrors.InternalError(err))
		return
	}
	respondSubscriptions(c, subs)
}

// ListByMerchant returns every subscription for a merchant domain on
// one chain, newest first.
// GET /subscriptions/by-merchant/:chainId/:merchantDomain
func (h *SubscriptionHandler) ListByMerchant(c *gin.Context) {
	subs, err := h.store.ListSubscriptionsByMerchant(c.Request.Context(), c.Param("chainId"), c.Param("merchantDomain"))
	if err != nil {
		response.Error(c, domainerrors.InternalError(err))
		return
	}
	respondSubscriptions(c, subs)
}

// ListByMerchantAndUser narrows ListByMerchant to one user address.
// GET /subscriptions/by-merchant/:chainId/:merchantDomain/user/:userAddress
func (h *SubscriptionHandler) ListByMerchantAndUser(c *gin.Context) {
	subs, err := h.store.ListSubscriptionsByMerchantAndUser(c.Request.Context(),
		c.Param("chainId"), c.Param("merchantDomain"), c.Param("userAddress"))
	if err != nil {
		response.Error(c, domainerrors.InternalError(err))
		return
	}
	respondSubscriptions(c, subs)
}

// ListByMerchantAndSubscriptionID narrows ListByMerchant to one
// merchant-assigned subscription ID (from subscription metadata).
// GET /subscriptions/by-merchant/:chainId/:merchantDomain/subscription-id/:subscriptionId
func (h *SubscriptionHandler) ListByMerchantAndSubscriptionID(c *gin.Context) {
	subs, err := h.store.ListSubscriptionsByMerchantAndSubscriptionID(c.Request.Context(),
		c.Param("chainId"), c.Param("merchantDomain"), c.Param("subscriptionId"))
	if err != nil {
		response.Error(c, domainerrors.InternalError(err))
		return
	}
	respondSubscriptions(c, subs)
}

// ListAll returns every subscription on every chain, newest first.
// GET /subscriptions
func (h *SubscriptionHandler) ListAll(c *gin.Context) {
	subs, err := h.store.ListAllSubscriptions(c.Request.Context())
	if err != nil {
		response.Error(c, domainerrors.InternalError(err))
		return
	}
	respondSubscriptions(c, subs)
}

// ListLogs returns the append-only subscription log for one
// subscription, in the store's persisted (timestamp-descending) order.
// GET /subscriptions/:chainId/:hash/logs
func (h *SubscriptionHandler) ListLogs(c *gin.Context) {
	logs, err := h.store.ListSubscriptionLogs(c.Request.Context(), c.Param("chainId"), c.Param("hash"))
	if err != nil {
		response.Error(c, domainerrors.InternalError(err))
		return
	}
	if logs == nil {
		logs = []entities.SubscriptionLog{}
	}
	response.Success(c, http.StatusOK, gin.H{"items": logs})
}

// respondSubscriptions paginates an already chain-sorted (start_ts
// descending) slice in memory: the Entity Store has no native offset
// support, so the Query Interface applies paging here, the same
// page/limit/meta contract the teacher's list endpoints use.
func respondSubscriptions(c *gin.Context, subs []entities.Subscription) {
	if subs == nil {
		subs = []entities.Subscription{}
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	pagination := utils.GetPaginationParams(page, limit)

	total := int64(len(subs))
	pageItems := subs
	if pagination.Limit > 0 {
		offset := pagination.CalculateOffset()
		if offset > len(subs) {
			offset = len(subs)
		}
		end := offset + pagination.Limit
		if end > len(subs) {
			end = len(subs)
		}
		pageItems = subs[offset:end]
	}

	meta := utils.CalculateMeta(total, pagination.Page, pagination.Limit)
	response.Success(c, http.StatusOK, gin.H{"items": pageItems, "meta": meta})
}
