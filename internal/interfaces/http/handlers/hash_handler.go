package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainerrors "subpay-indexer.backend/internal/domain/errors"
	"subpay-indexer.backend/internal/interfaces/http/response"
	"subpay-indexer.backend/internal/usecases"
)

// HashHandler exposes the subscription-hash helper over HTTP, mirroring
// the on-chain router's packed-encoding keccak256 (spec.md §6/§9) so
// callers can predict a subscription's hash before submitting a
// transaction.
type HashHandler struct{}

// NewHashHandler constructs a hash-helper handler.
func NewHashHandler() *HashHandler { return &HashHandler{} }

// Compute returns keccak256(productHash || user || start) hex-encoded.
// GET /subscriptions/hash?productHash=...&user=...&start=...
func (h *HashHandler) Compute(c *gin.Context) {
	productHash := c.Query("productHash")
	user := c.Query("user")
	startStr := c.Query("start")

	if productHash == "" || user == "" || startStr == "" {
		response.Error(c, domainerrors.BadRequest("productHash, user and start are required"))
		return
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		response.Error(c, domainerrors.BadRequest("start must be a unix timestamp"))
		return
	}

	hash := usecases.SubscriptionHash(productHash, user, start)
	response.Success(c, http.StatusOK, gin.H{"subscriptionHash": hash})
}
