package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"subpay-indexer.backend/internal/domain/repositories"
	"subpay-indexer.backend/internal/interfaces/http/response"
)

// HealthHandler reports process liveness plus the frozen/healthy
// status of every configured chain, so an operator can see at a
// glance which chains need clear-freeze without grepping logs.
type HealthHandler struct {
	cursors  repositories.CursorRepository
	chainIDs []string
}

// NewHealthHandler constructs a health handler over the given chain set.
func NewHealthHandler(cursors repositories.CursorRepository, chainIDs []string) *HealthHandler {
	return &HealthHandler{cursors: cursors, chainIDs: chainIDs}
}

type chainHealth struct {
	ChainID string `json:"chainId"`
	Frozen  bool   `json:"frozen"`
	Reason  string `json:"reason,omitempty"`
}

// Health reports liveness and per-chain freeze state.
// GET /healthz
func (h *HealthHandler) Health(c *gin.Context) {
	chains := make([]chainHealth, 0, len(h.chainIDs))
	for _, id := range h.chainIDs {
		frozen, reason, err := h.cursors.IsFrozen(c.Request.Context(), id)
		if err != nil {
			chains = append(chains, chainHealth{ChainID: id, Frozen: true, Reason: "status unavailable: " + err.Error()})
			continue
		}
		chains = append(chains, chainHealth{ChainID: id, Frozen: frozen, Reason: reason})
	}

	response.Success(c, http.StatusOK, gin.H{"status": "ok", "chains": chains})
}
