package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// These gauges and counters are exported on the Query Interface's
// /metrics route so an operator can see scan progress and payment
// outcomes without grepping logs (SPEC_FULL.md §9).
var (
	// CursorLag is the head block minus the last-scanned block, per
	// chain and event kind. Grows when a chain falls behind; a
	// persistently large value usually means RPC errors are repeatedly
	// aborting scan slices.
	CursorLag = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "subpay",
		Subsystem: "scanner",
		Name:      "cursor_lag_blocks",
		Help:      "Blocks between chain head and last-scanned cursor, by chain and event kind.",
	}, []string{"chain", "kind"})

	// ChainFrozen is 1 while a chain's initiator is latched off, 0
	// otherwise. Drives alerting for operator clear-freeze action.
	ChainFrozen = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "subpay",
		Subsystem: "initiator",
		Name:      "chain_frozen",
		Help:      "1 if the chain's payment initiator is frozen, 0 otherwise.",
	}, []string{"chain"})

	// PaymentOutcomes counts payment attempts by chain and outcome
	// (made, product_not_found, malformed_amount, balance_read_failed,
	// insufficient_funds, allowance_read_failed, insufficient_allowance,
	// fee_computation_failed, compensation_computation_failed,
	// build_or_sign_failed, submit_failed, receipt_timeout,
	// no_matching_payment_log).
	PaymentOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subpay",
		Subsystem: "initiator",
		Name:      "payment_outcomes_total",
		Help:      "Payment attempts by chain and outcome.",
	}, []string{"chain", "outcome"})

	// ScanErrors counts non-fatal scan-slice errors by chain and event
	// kind, the population behind CursorLag's growth.
	ScanErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subpay",
		Subsystem: "scanner",
		Name:      "scan_errors_total",
		Help:      "Scan-slice errors by chain and event kind, logged and retried next tick.",
	}, []string{"chain", "kind"})
)
