package entities

import "time"

// SubscriptionStatus is the derived lifecycle state of a Subscription at
// a given instant; it is never stored, only computed by Status().
type SubscriptionStatus string

const (
	StatusPaid       SubscriptionStatus = "paid"
	StatusPending    SubscriptionStatus = "pending"
	StatusExpired    SubscriptionStatus = "expired"
	StatusTerminated SubscriptionStatus = "terminated"
)

// Subscription is a user's instantiation of a Product. PaymentsMade only
// ever increases (max-merge) and Terminated only ever flips false->true.
type Subscription struct {
	SubscriptionHash string `gorm:"primaryKey;column:subscription_hash"`
	ChainID          string `gorm:"primaryKey;column:chain_id"`
	ProductHash      string `gorm:"column:product_hash;not null"`
	UserAddress      string `gorm:"column:user_address;not null"`
	StartTS          int64  `gorm:"column:start_ts;not null"`
	PaymentsMade     int64  `gorm:"column:payments_made;not null"`
	Terminated       bool   `gorm:"column:terminated;not null"`
	SubscriptionID   string `gorm:"column:subscription_id"`
	UserID           string `gorm:"column:user_id"`
	CreatedAt        time.Time `gorm:"column:created_at"`
}

func (Subscription) TableName() string { return "subscriptions" }

// NextPaymentAt returns the unix timestamp of the next cycle boundary
// given the product's billing period.
func (s *Subscription) NextPaymentAt(periodSeconds int64) int64 {
	return s.StartTS + periodSeconds*s.PaymentsMade
}

// IsActive reports whether now falls on or before the end of the current
// payable window: now <= start + period*payments_made + payment_period.
func (s *Subscription) IsActive(now, periodSeconds, paymentPeriodSeconds int64) bool {
	return now <= s.NextPaymentAt(periodSeconds)+paymentPeriodSeconds
}

// Status computes the lifecycle status from PaymentsMade/Terminated and
// the owning product's cadence.
func (s *Subscription) Status(now, periodSeconds, paymentPeriodSeconds int64) SubscriptionStatus {
	if s.Terminated {
		return StatusTerminated
	}
	next := s.NextPaymentAt(periodSeconds)
	switch {
	case now <= next:
		return StatusPaid
	case now <= next+paymentPeriodSeconds:
		return StatusPending
	default:
		return StatusExpired
	}
}

// MergePaymentsMade applies the max-merge rule from spec.md §4.2:
// payments_made <- max(payments_made, n). Returns true if the value
// actually changed.
func (s *Subscription) MergePaymentsMade(n int64) bool {
	if n > s.PaymentsMade {
		s.PaymentsMade = n
		return true
	}
	return false
}
