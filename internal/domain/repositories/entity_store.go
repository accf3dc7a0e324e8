package repositories

import (
	"context"

	"subpay-indexer.backend/internal/domain/entities"
)

// EntityStore is the single writer of record for products, subscriptions,
// merchant bindings and subscription logs (spec.md §4.2). The Log
// Scanner and Payment Initiator are its only writers; the Query
// Interface consumes it read-only.
type EntityStore interface {
	// AddProduct inserts a product, doing nothing if the (hash, chain)
	// pair already exists: first write wins.
	AddProduct(ctx context.Context, p *entities.Product) error
	GetProduct(ctx context.Context, chainID, productHash string) (*entities.Product, error)

	// AddSubscription inserts a subscription, doing nothing on conflict.
	AddSubscription(ctx context.Context, s *entities.Subscription) error
	GetSubscription(ctx context.Context, chainID, subscriptionHash string) (*entities.Subscription, error)
	ListSubscriptionsByUser(ctx context.Context, userAddress string) ([]entities.Subscription, error)
	ListSubscriptionsByMerchant(ctx context.Context, chainID, merchantDomain string) ([]entities.Subscription, error)
	ListSubscriptionsByMerchantAndUser(ctx context.Context, chainID, merchantDomain, userAddress string) ([]entities.Subscription, error)
	ListSubscriptionsByMerchantAndSubscriptionID(ctx context.Context, chainID, merchantDomain, subscriptionID string) ([]entities.Subscription, error)
	ListAllSubscriptions(ctx context.Context) ([]entities.Subscription, error)

	// UpdatePaymentsMade applies the max-merge rule: payments_made <-
	// max(payments_made, n). No-op (and no error) if n is not greater.
	UpdatePaymentsMade(ctx context.Context, chainID, subscriptionHash string, n int64) error

	// Terminate sets terminated=true. Irreversible.
	Terminate(ctx context.Context, chainID, subscriptionHash string) error

	// AddMerchantBinding upserts with last-write-wins semantics (unlike
	// products/subscriptions, a later InitiatorChanged always applies).
	AddMerchantBinding(ctx context.Context, b *entities.MerchantBinding) error
	GetMerchantBinding(ctx context.Context, chainID, merchantAddress string) (*entities.MerchantBinding, error)

	// AppendSubscriptionLog appends one append-only log entry.
	AppendSubscriptionLog(ctx context.Context, l *entities.SubscriptionLog) error
	ListSubscriptionLogs(ctx context.Context, chainID, subscriptionHash string) ([]entities.SubscriptionLog, error)

	// LastPaymentIssueAt returns the unix timestamp of the most recent
	// payment-issue log for this subscription's given payment number, or
	// 0 if none exists — consulted for the 24h backoff in GetPayable.
	LastPaymentIssueAt(ctx context.Context, chainID, subscriptionHash string, paymentNumber int64) (int64, error)

	// GetPayable returns subscriptions due for payment for this chain's
	// initiator at instant now, per spec.md §4.2's three conditions.
	GetPayable(ctx context.Context, chainID string, now int64, initiatorAddress string, backoff int64) ([]entities.Subscription, error)
}
