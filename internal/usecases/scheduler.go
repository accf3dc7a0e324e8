package usecases

import (
	"context"
	"time"

	"go.uber.org/zap"

	"subpay-indexer.backend/internal/domain/entities"
	domainerrors "subpay-indexer.backend/internal/domain/errors"
)

// TickInterval is the scheduler's cooperative polling period, per
// spec.md §4.1: every chain's full scan-then-pay pass runs once per
// tick, sequentially, on its own goroutine.
const TickInterval = 12 * time.Second

// scannedEventKinds is the fixed pagination order for one chain's tick:
// all four cursors advance independently but are driven from one loop.
var scannedEventKinds = []entities.EventKind{
	entities.EventKindSubscriptions,
	entities.EventKindPayments,
	entities.EventKindTerminations,
	entities.EventKindInitiators,
}

// ChainScheduler drives one chain's repeating tick: four cursor-paginated
// log scans followed by one payment pass, isolated from every other
// chain's scheduler so a stuck or erroring chain never blocks the rest,
// following the teacher's PaymentRequestExpiryJob ticker/stop-channel
// shape generalized to a per-chain multi-stage tick.
type ChainScheduler struct {
	chainID   string
	minBlock  uint64
	scanner   *LogScanner
	initiator *PaymentInitiator
	interval  time.Duration
	stop      chan struct{}
	log       *zap.Logger
}

// NewChainScheduler constructs a scheduler bound to one chain.
func NewChainScheduler(chainID string, minBlock uint64, scanner *LogScanner, initiator *PaymentInitiator, log *zap.Logger) *ChainScheduler {
	return &ChainScheduler{
		chainID:   chainID,
		minBlock:  minBlock,
		scanner:   scanner,
		initiator: initiator,
		interval:  TickInterval,
		stop:      make(chan struct{}),
		log:       log,
	}
}

// Start runs ticks until ctx is cancelled or Stop is called. It never
// returns early on a tick-body error: every error is logged and the
// scheduler waits for the next tick, matching spec.md §8's fault
// isolation between chains and between ticks.
func (s *ChainScheduler) Start(ctx context.Context) {
	s.log.Info("scheduler: starting", zap.String("chain", s.chainID), zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler: stopped (context cancelled)", zap.String("chain", s.chainID))
			return
		case <-s.stop:
			s.log.Info("scheduler: stopped", zap.String("chain", s.chainID))
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Stop requests the scheduler halt before its next tick.
func (s *ChainScheduler) Stop() {
	close(s.stop)
}

func (s *ChainScheduler) tick(ctx context.Context) {
	for _, kind := range scannedEventKinds {
		if err := s.scanner.ScanOnce(ctx, kind, s.minBlock); err != nil {
			s.logByClassification(kind, err)
		}
	}

	if err := s.initiator.RunOnce(ctx); err != nil {
		s.logByClassification("payment", err)
	}
}

// logByClassification logs a tick-body error at a severity driven by
// domainerrors.Classify, per spec.md §7's propagation table: a latching
// error means the chain is now frozen and needs operator attention, a
// retryable one resolves itself on the next tick.
func (s *ChainScheduler) logByClassification(stage entities.EventKind, err error) {
	class := domainerrors.Classify(err)
	switch {
	case class.Latching:
		s.log.Error("scheduler: latching error, chain frozen until cleared",
			zap.String("chain", s.chainID), zap.String("stage", string(stage)), zap.Error(err))
	case class.Retryable:
		s.log.Warn("scheduler: retryable error, resuming next tick",
			zap.String("chain", s.chainID), zap.String("stage", string(stage)), zap.Error(err))
	default:
		s.log.Error("scheduler: unclassified error, resuming next tick",
			zap.String("chain", s.chainID), zap.String("stage", string(stage)), zap.Error(err))
	}
}

// Scheduler owns one ChainScheduler per configured chain and runs them
// concurrently so no chain's pace or failures affect another's.
type Scheduler struct {
	chains []*ChainScheduler
}

// NewScheduler constructs a multi-chain driver.
func NewScheduler(chains []*ChainScheduler) *Scheduler {
	return &Scheduler{chains: chains}
}

// Start launches every chain's scheduler on its own goroutine and blocks
// until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	for _, c := range s.chains {
		go c.Start(ctx)
	}
	<-ctx.Done()
}
