package entities

// Chain identifies one EVM-compatible network the indexer watches.
// Configuration-only; never persisted as its own row.
type Chain struct {
	ChainID            string
	ShortName          string
	RouterAddress      string
	RPCURL             string
	MinBlock           uint64
	PriorityFeeWei     uint64
	NeedsPOAMiddleware bool
}

// EventKind enumerates the router event types the Log Scanner paginates
// over independently, each with its own cursor.
type EventKind string

const (
	EventKindSubscriptions  EventKind = "subscriptions"
	EventKindPayments       EventKind = "payments"
	EventKindTerminations   EventKind = "terminations"
	EventKindInitiators     EventKind = "initiators"
)
