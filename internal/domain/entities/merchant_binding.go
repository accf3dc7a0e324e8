package entities

import "time"

// MerchantBinding records which initiator account a merchant currently
// authorizes to trigger its recurring payments on a given chain. Last
// write wins: an InitiatorChanged event always overrides what is stored.
type MerchantBinding struct {
	MerchantAddress  string `gorm:"primaryKey;column:merchant_address"`
	ChainID          string `gorm:"primaryKey;column:chain_id"`
	InitiatorAddress string `gorm:"column:initiator_address;not null"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (MerchantBinding) TableName() string { return "merchant_bindings" }
