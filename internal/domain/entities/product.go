package entities

import "time"

// Product is the immutable merchant-defined subscription template a
// SubscriptionStarted event first introduces. Once persisted, every
// scalar field is fixed for the lifetime of the row.
type Product struct {
	ProductHash      string `gorm:"primaryKey;column:product_hash"`
	ChainID          string `gorm:"primaryKey;column:chain_id"`
	MerchantAddress  string `gorm:"column:merchant_address;not null"`
	TokenAddress     string `gorm:"column:token_address;not null"`
	TokenSymbol      string `gorm:"column:token_symbol;not null"`
	TokenDecimals    int    `gorm:"column:token_decimals;not null"`
	UintAmount       string `gorm:"column:uint_amount;not null"` // decimal string, atomic units
	Period           int64  `gorm:"column:period;not null"`      // seconds
	PaymentPeriod    int64  `gorm:"column:payment_period;not null"`
	FreeTrialLength  int64  `gorm:"column:free_trial_length;not null"`
	MetadataHash     string `gorm:"column:metadata_hash;not null"`
	MerchantDomain   string `gorm:"column:merchant_domain;not null"`
	ProductName      string `gorm:"column:product_name;not null"`
	CreatedAt        time.Time `gorm:"column:created_at"`
}

func (Product) TableName() string { return "products" }

// Valid reports whether the product satisfies the invariants spec.md §3
// requires before it may be persisted.
func (p *Product) Valid() bool {
	return p.Period > 0 && p.PaymentPeriod > 0 && p.TokenDecimals >= 0 && p.TokenDecimals <= 36
}
