package repositories

import (
	"context"

	"subpay-indexer.backend/internal/domain/entities"
)

// CursorRepository is the Cursor Store from spec.md §4.1: durable scan
// progress per (chain, event kind), plus the per-chain frozen latch the
// Payment Initiator's stuck-transaction failure mode sets.
type CursorRepository interface {
	// Get returns max(minBlock, storedCursor); a missing row behaves as
	// if it held minBlock.
	Get(ctx context.Context, chainID string, kind entities.EventKind, minBlock uint64) (uint64, error)

	// Set upserts the cursor to block, called only after a scan slice's
	// handlers have all completed successfully.
	Set(ctx context.Context, chainID string, kind entities.EventKind, block uint64) error

	// IsFrozen reports whether the chain's initiator is currently
	// latched off, and why.
	IsFrozen(ctx context.Context, chainID string) (frozen bool, reason string, err error)

	// Freeze sets the chain's initiator-available flag, latching it
	// until an operator clears it via Unfreeze.
	Freeze(ctx context.Context, chainID, reason string, setAt int64) error

	// Unfreeze clears the chain's frozen flag. Operator-only recovery
	// path; never called by the Scheduler or Payment Initiator.
	Unfreeze(ctx context.Context, chainID string) error
}
