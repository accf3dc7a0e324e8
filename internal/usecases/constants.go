package usecases

import "time"

const (
	// MaxRange bounds a single log-scan slice, per spec.md §4.4.
	MaxRange = 100

	// GasPerPayment is the default gas budget for a recurring payment.
	GasPerPayment = 100_000

	// SecondPaymentGas covers storage-initialization overhead on the
	// subscription's second payment cycle (the first is bundled with
	// subscription creation on-chain). See spec.md §9 Open Question (a).
	SecondPaymentGas = 120_000

	// PaymentIssueBackoff is how long a per-subscription payment-issue
	// log suppresses retrying the same payment number.
	PaymentIssueBackoff = 24 * time.Hour

	// BaseFeeBumpNumerator/Denominator compute base' = floor(1.2*base).
	BaseFeeBumpNumerator   = 6
	BaseFeeBumpDenominator = 5

	// TipBumpNumerator/Denominator compute tip' = floor(1.1*tip).
	TipBumpNumerator   = 11
	TipBumpDenominator = 10
)

// ReceiptTimeout is how long the Payment Initiator waits for a submitted
// transaction to be mined before latching the chain Frozen. A var, not a
// const, so tests can shrink it rather than wait out a real 120s timeout.
var ReceiptTimeout = 120 * time.Second

// GasBudget returns the gas units to budget for paymentNumber, per the
// Open Question (a) decision in spec.md §9.
func GasBudget(paymentNumber int64) uint64 {
	if paymentNumber == 2 {
		return SecondPaymentGas
	}
	return GasPerPayment
}
