package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "subpay-indexer.backend/internal/domain/errors"
	"subpay-indexer.backend/internal/domain/repositories"
	"subpay-indexer.backend/internal/interfaces/http/response"
)

// Pinner is the subset of the pinning client the store-metadata
// endpoint depends on.
type Pinner interface {
	Pin(ctx context.Context, filename string, content []byte) (string, error)
}

// MetadataHandler backs the Query Interface's store-metadata endpoint
// (spec.md §4.8): it accepts a JSON blob, checks a content-hash->CID
// cache, and on a miss pins the blob to the external pinning service
// and caches the CID it was assigned so identical blobs are never
// pinned twice.
type MetadataHandler struct {
	cache   repositories.MetadataRepository
	pinning Pinner
}

// NewMetadataHandler constructs a metadata-ingestion handler.
func NewMetadataHandler(cache repositories.MetadataRepository, pinning Pinner) *MetadataHandler {
	return &MetadataHandler{cache: cache, pinning: pinning}
}

// Store ingests a metadata blob and returns the CID it is addressable
// by, reusing a prior pin for byte-identical content.
// POST /metadata
func (h *MetadataHandler) Store(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.Error(c, domainerrors.BadRequest("could not read request body"))
		return
	}
	if len(body) == 0 {
		response.Error(c, domainerrors.BadRequest("empty metadata body"))
		return
	}

	sum := sha256.Sum256(body)
	contentKey := hex.EncodeToString(sum[:])

	if cid, ok, err := h.cache.Get(c.Request.Context(), contentKey); err == nil && ok {
		response.Success(c, http.StatusOK, gin.H{"cid": cid, "cached": true})
		return
	}

	cid, err := h.pinning.Pin(c.Request.Context(), contentKey+".json", body)
	if err != nil {
		response.Error(c, domainerrors.InternalError(err))
		return
	}

	if err := h.cache.Put(c.Request.Context(), contentKey, cid); err != nil {
		response.Error(c, domainerrors.InternalError(err))
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"cid": cid, "cached": false})
}
