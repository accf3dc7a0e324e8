package entities

import "math/big"

// RouterEventTag discriminates the decoded router event variants. Handler
// dispatch is a switch on the tag rather than duck-typing raw log args.
type RouterEventTag string

const (
	TagSubscriptionStarted    RouterEventTag = "SubscriptionStarted"
	TagPaymentMade            RouterEventTag = "PaymentMade"
	TagSubscriptionTerminated RouterEventTag = "SubscriptionTerminated"
	TagInitiatorChanged       RouterEventTag = "InitiatorChanged"
)

// RouterEvent is the ABI-decoded, block-located form of one router log.
// Exactly one of the Tag-matching fields is populated.
type RouterEvent struct {
	Tag         RouterEventTag
	BlockNumber uint64
	TxHash      string
	LogIndex    uint

	SubscriptionStarted    *SubscriptionStartedEvent
	PaymentMade            *PaymentMadeEvent
	SubscriptionTerminated *SubscriptionTerminatedEvent
	InitiatorChanged       *InitiatorChangedEvent
}

// SubscriptionStartedEvent mirrors the router's
// SubscriptionStarted(bytes32,bytes32,address,uint256,bytes) event.
type SubscriptionStartedEvent struct {
	SubscriptionHash     string
	ProductHash          string
	User                 string
	Start                int64
	SubscriptionMetadata []byte // raw bytes, interpreted as base58 IPFS CID
}

// PaymentMadeEvent mirrors PaymentMade(bytes32,uint256).
type PaymentMadeEvent struct {
	SubscriptionHash string
	PaymentNumber    int64
}

// SubscriptionTerminatedEvent mirrors SubscriptionTerminated(bytes32).
type SubscriptionTerminatedEvent struct {
	SubscriptionHash string
}

// InitiatorChangedEvent mirrors InitiatorChanged(address,address).
type InitiatorChangedEvent struct {
	Merchant     string
	NewInitiator string
}

// ProductView mirrors the router's products(bytes32) view return tuple.
type ProductView struct {
	Merchant        string
	Token           string
	Amount          *big.Int
	Period          int64
	FreeTrialLength int64
	PaymentPeriod   int64
	Metadata        []byte
}

// MerchantSettingsView mirrors merchantSettings(address).
type MerchantSettingsView struct {
	Initiator string
}
