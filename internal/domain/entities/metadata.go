package entities

// MetadataBlob is the content-addressed cache row mapping an IPFS CID to
// the raw JSON text it resolves to.
type MetadataBlob struct {
	CID  string `gorm:"primaryKey;column:cid"`
	JSON string `gorm:"column:json;not null"`
}

func (MetadataBlob) TableName() string { return "metadata_blobs" }

// ProductMetadata is the decoded JSON shape required on a product's
// metadata reference. Both keys are mandatory; a missing one means the
// referencing subscription must be skipped (spec.md §4.3).
type ProductMetadata struct {
	MerchantDomain string `json:"merchantDomain"`
	ProductName    string `json:"productName"`
}

// Valid reports whether both required keys were present and non-empty.
func (m ProductMetadata) Valid() bool {
	return m.MerchantDomain != "" && m.ProductName != ""
}

// SubscriptionMetadata is the decoded JSON shape for a subscription's
// optional metadata reference. Missing metadata is treated as a zero
// value, not an error.
type SubscriptionMetadata struct {
	SubscriptionID string `json:"subscriptionId"`
	UserID         string `json:"userId"`
}
