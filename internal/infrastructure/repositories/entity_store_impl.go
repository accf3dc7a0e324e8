package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"subpay-indexer.backend/internal/domain/entities"
	"subpay-indexer.backend/internal/domain/repositories"
)

type entityStore struct {
	store *MutexDB
}

// NewEntityStore constructs the single-writer Entity Store described in
// spec.md §4.2, backed by a mutex-guarded gorm connection.
func NewEntityStore(store *MutexDB) repositories.EntityStore {
	return &entityStore{store: store}
}

func (r *entityStore) AddProduct(ctx context.Context, p *entities.Product) error {
	return r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(p).Error
	})
}

func (r *entityStore) GetProduct(ctx context.Context, chainID, productHash string) (*entities.Product, error) {
	var p entities.Product
	var err error
	r.store.WithLock(func(db *gorm.DB) error {
		err = db.WithContext(ctx).
			Where("chain_id = ? AND product_hash = ?", chainID, productHash).
			First(&p).Error
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *entityStore) AddSubscription(ctx context.Context, s *entities.Subscription) error {
	return r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(s).Error
	})
}

func (r *entityStore) GetSubscription(ctx context.Context, chainID, subscriptionHash string) (*entities.Subscription, error) {
	var s entities.Subscription
	var err error
	r.store.WithLock(func(db *gorm.DB) error {
		err = db.WithContext(ctx).
			Where("chain_id = ? AND subscription_hash = ?", chainID, subscriptionHash).
			First(&s).Error
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *entityStore) ListSubscriptionsByUser(ctx context.Context, userAddress string) ([]entities.Subscription, error) {
	var subs []entities.Subscription
	err := r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("user_address = ?", userAddress).
			Order("start_ts DESC").
			Find(&subs).Error
	})
	return subs, err
}

func (r *entityStore) ListSubscriptionsByMerchant(ctx context.Context, chainID, merchantDomain string) ([]entities.Subscription, error) {
	var subs []entities.Subscription
	err := r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Joins("JOIN products ON products.product_hash = subscriptions.product_hash AND products.chain_id = subscriptions.chain_id").
			Where("subscriptions.chain_id = ? AND products.merchant_domain = ?", chainID, merchantDomain).
			Order("subscriptions.start_ts DESC").
			Find(&subs).Error
	})
	return subs, err
}

func (r *entityStore) ListSubscriptionsByMerchantAndUser(ctx context.Context, chainID, merchantDomain, userAddress string) ([]entities.Subscription, error) {
	var subs []entities.Subscription
	err := r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Joins("JOIN products ON products.product_hash = subscriptions.product_hash AND products.chain_id = subscriptions.chain_id").
			Where("subscriptions.chain_id = ? AND products.merchant_domain = ? AND subscriptions.user_address = ?", chainID, merchantDomain, userAddress).
			Order("subscriptions.start_ts DESC").
			Find(&subs).Error
	})
	return subs, err
}

func (r *entityStore) ListSubscriptionsByMerchantAndSubscriptionID(ctx context.Context, chainID, merchantDomain, subscriptionID string) ([]entities.Subscription, error) {
	var subs []entities.Subscription
	err := r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Joins("JOIN products ON products.product_hash = subscriptions.product_hash AND products.chain_id = subscriptions.chain_id").
			Where("subscriptions.chain_id = ? AND products.merchant_domain = ? AND subscriptions.subscription_id = ?", chainID, merchantDomain, subscriptionID).
			Order("subscriptions.start_ts DESC").
			Find(&subs).Error
	})
	return subs, err
}

func (r *entityStore) ListAllSubscriptions(ctx context.Context) ([]entities.Subscription, error) {
	var subs []entities.Subscription
	err := r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).Order("start_ts DESC").Find(&subs).Error
	})
	return subs, err
}

func (r *entityStore) UpdatePaymentsMade(ctx context.Context, chainID, subscriptionHash string, n int64) error {
	return r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Model(&entities.Subscription{}).
			Where("chain_id = ? AND subscription_hash = ? AND payments_made < ?", chainID, subscriptionHash, n).
			Update("payments_made", n).Error
	})
}

func (r *entityStore) Terminate(ctx context.Context, chainID, subscriptionHash string) error {
	return r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Model(&entities.Subscription{}).
			Where("chain_id = ? AND subscription_hash = ?", chainID, subscriptionHash).
			Update("terminated", true).Error
	})
}

func (r *entityStore) AddMerchantBinding(ctx context.Context, b *entities.MerchantBinding) error {
	return r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "merchant_address"}, {Name: "chain_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"initiator_address", "updated_at"}),
			}).
			Create(b).Error
	})
}

func (r *entityStore) GetMerchantBinding(ctx context.Context, chainID, merchantAddress string) (*entities.MerchantBinding, error) {
	var b entities.MerchantBinding
	var err error
	r.store.WithLock(func(db *gorm.DB) error {
		err = db.WithContext(ctx).
			Where("chain_id = ? AND merchant_address = ?", chainID, merchantAddress).
			First(&b).Error
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *entityStore) AppendSubscriptionLog(ctx context.Context, l *entities.SubscriptionLog) error {
	return r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).Create(l).Error
	})
}

func (r *entityStore) ListSubscriptionLogs(ctx context.Context, chainID, subscriptionHash string) ([]entities.SubscriptionLog, error) {
	var logs []entities.SubscriptionLog
	err := r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("chain_id = ? AND subscription_hash = ?", chainID, subscriptionHash).
			Order("timestamp DESC").
			Find(&logs).Error
	})
	return logs, err
}

func (r *entityStore) LastPaymentIssueAt(ctx context.Context, chainID, subscriptionHash string, paymentNumber int64) (int64, error) {
	var log entities.SubscriptionLog
	var err error
	r.store.WithLock(func(db *gorm.DB) error {
		err = db.WithContext(ctx).
			Where("chain_id = ? AND subscription_hash = ? AND type = ? AND payment_number = ?",
				chainID, subscriptionHash, entities.LogTypePaymentIssue, paymentNumber).
			Order("timestamp DESC").
			First(&log).Error
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return log.Timestamp.Unix(), nil
}

// payableCandidate joins a subscription to the cadence its product
// defines, needed to evaluate the billing window in Go rather than in a
// database-specific SQL dialect.
type payableCandidate struct {
	entities.Subscription
	Period        int64
	PaymentPeriod int64
}

func (r *entityStore) GetPayable(ctx context.Context, chainID string, now int64, initiatorAddress string, backoff int64) ([]entities.Subscription, error) {
	var candidates []payableCandidate
	err := r.store.WithLock(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Table("subscriptions").
			Select("subscriptions.*, products.period AS period, products.payment_period AS payment_period").
			Joins("JOIN products ON products.product_hash = subscriptions.product_hash AND products.chain_id = subscriptions.chain_id").
			Joins("JOIN merchant_bindings ON merchant_bindings.merchant_address = products.merchant_address AND merchant_bindings.chain_id = subscriptions.chain_id").
			Where("subscriptions.chain_id = ? AND subscriptions.terminated = ? AND merchant_bindings.initiator_address = ?", chainID, false, initiatorAddress).
			Find(&candidates).Error
	})
	if err != nil {
		return nil, err
	}

	var payable []entities.Subscription
	for _, c := range candidates {
		windowStart := c.StartTS + c.Period*c.PaymentsMade
		windowEnd := windowStart + c.PaymentPeriod
		if !(now > windowStart && now < windowEnd) {
			continue
		}

		issuedAt, err := r.LastPaymentIssueAt(ctx, chainID, c.SubscriptionHash, c.PaymentsMade+1)
		if err != nil {
			return nil, err
		}
		if issuedAt != 0 && now-issuedAt < backoff {
			continue
		}

		payable = append(payable, c.Subscription)
	}
	return payable, nil
}
