package entities

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionLogType distinguishes a failed payment attempt from a
// confirmed one in the append-only subscription log.
type SubscriptionLogType string

const (
	LogTypePaymentIssue SubscriptionLogType = "payment-issue"
	LogTypePaymentMade  SubscriptionLogType = "payment-made"
)

// SubscriptionLog is an append-only record of a payment attempt outcome
// for one billing cycle of one subscription. PaymentNumber is 1-indexed.
type SubscriptionLog struct {
	LogID            uuid.UUID           `gorm:"primaryKey;column:log_id;type:uuid"`
	ChainID          string              `gorm:"column:chain_id;not null;index"`
	Type             SubscriptionLogType `gorm:"column:type;not null"`
	SubscriptionHash string              `gorm:"column:subscription_hash;not null;index"`
	PaymentNumber    int64               `gorm:"column:payment_number;not null"`
	Message          string              `gorm:"column:message"`
	Timestamp        time.Time           `gorm:"column:timestamp;not null"`
}

func (SubscriptionLog) TableName() string { return "subscription_logs" }
