package entities

// Cursor is the last block fully scanned for one (chain, event kind)
// pair. A missing row is equivalent to the chain's configured min_block.
type Cursor struct {
	ChainID       string    `gorm:"primaryKey;column:chain_id"`
	EventKind     EventKind `gorm:"primaryKey;column:event_kind"`
	LastScanned   uint64    `gorm:"column:last_scanned_block;not null"`
}

func (Cursor) TableName() string { return "cursors" }

// InitiatorFlag is the per-chain "frozen" latch. Absence of a row means
// healthy; presence means the Payment Initiator refuses to run until an
// operator deletes the row.
type InitiatorFlag struct {
	ChainID string `gorm:"primaryKey;column:chain_id"`
	Reason  string `gorm:"column:reason"`
	SetAt   int64  `gorm:"column:set_at"`
}

func (InitiatorFlag) TableName() string { return "initiator_flags" }
