package usecases

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"subpay-indexer.backend/internal/domain/entities"
	domainerrors "subpay-indexer.backend/internal/domain/errors"
	"subpay-indexer.backend/internal/domain/repositories"
	"subpay-indexer.backend/internal/infrastructure/blockchain"
	"subpay-indexer.backend/internal/metrics"
)

// LogScanner runs the cursor-based paginated scan for one event kind on
// one chain, dispatching each decoded log to its idempotent handler, per
// spec.md §4.4.
type LogScanner struct {
	chainID       string
	routerAddress string
	client        *blockchain.EVMClient
	cursors       repositories.CursorRepository
	store         repositories.EntityStore
	metadata      *MetadataResolver
	log           *zap.Logger
}

// NewLogScanner constructs a scanner bound to one chain's router.
func NewLogScanner(
	chainID, routerAddress string,
	client *blockchain.EVMClient,
	cursors repositories.CursorRepository,
	store repositories.EntityStore,
	metadata *MetadataResolver,
	log *zap.Logger,
) *LogScanner {
	return &LogScanner{
		chainID:       chainID,
		routerAddress: routerAddress,
		client:        client,
		cursors:       cursors,
		store:         store,
		metadata:      metadata,
		log:           log,
	}
}

// ScanOnce runs the uniform loop from spec.md §4.4 for one event kind:
// from = cursor+1, paginate [from, head] in MaxRange-sized slices,
// advancing the cursor only after each slice's handlers all succeed.
func (s *LogScanner) ScanOnce(ctx context.Context, kind entities.EventKind, minBlock uint64) error {
	head, err := s.client.HeadBlock(ctx)
	if err != nil {
		metrics.ScanErrors.WithLabelValues(s.chainID, string(kind)).Inc()
		s.log.Warn("scan: head block fetch failed, resuming next tick",
			zap.String("chain", s.chainID), zap.String("kind", string(kind)), zap.Error(err))
		return nil
	}

	cursor, err := s.cursors.Get(ctx, s.chainID, kind, minBlock)
	if err != nil {
		return err
	}

	if head > cursor {
		metrics.CursorLag.WithLabelValues(s.chainID, string(kind)).Set(float64(head - cursor))
	} else {
		metrics.CursorLag.WithLabelValues(s.chainID, string(kind)).Set(0)
	}

	from := cursor + 1
	if from > head {
		return nil
	}

	topic, ok := blockchain.RouterEventTopics()[kind]
	if !ok {
		return domainerrors.ErrSchemaInvariant
	}

	for start := from; start <= head; start += MaxRange {
		end := start + MaxRange - 1
		if end > head {
			end = head
		}

		logs, err := s.client.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(start),
			ToBlock:   new(big.Int).SetUint64(end),
			Addresses: []common.Address{common.HexToAddress(s.routerAddress)},
			Topics:    [][]common.Hash{{topic}},
		})
		if err != nil {
			metrics.ScanErrors.WithLabelValues(s.chainID, string(kind)).Inc()
			s.log.Warn("scan: log fetch failed mid-range, resuming next tick",
				zap.String("chain", s.chainID), zap.String("kind", string(kind)),
				zap.Uint64("start", start), zap.Uint64("end", end), zap.Error(err))
			return nil
		}

		for _, l := range logs {
			event, err := blockchain.DecodeRouterEvent(l)
			if err != nil {
				s.log.Warn("scan: failed to decode log", zap.Error(err))
				continue
			}
			if err := s.handle(ctx, event); err != nil {
				metrics.ScanErrors.WithLabelValues(s.chainID, string(kind)).Inc()
				s.log.Warn("scan: handler failed, resuming next tick",
					zap.String("chain", s.chainID), zap.Error(err))
				return nil
			}
		}

		if err := s.cursors.Set(ctx, s.chainID, kind, end); err != nil {
			return err
		}
		metrics.CursorLag.WithLabelValues(s.chainID, string(kind)).Set(float64(head - end))
	}

	return nil
}

func (s *LogScanner) handle(ctx context.Context, event *entities.RouterEvent) error {
	switch event.Tag {
	case entities.TagSubscriptionStarted:
		return s.handleSubscriptionStarted(ctx, event.SubscriptionStarted)
	case entities.TagPaymentMade:
		return s.store.UpdatePaymentsMade(ctx, s.chainID, event.PaymentMade.SubscriptionHash, event.PaymentMade.PaymentNumber)
	case entities.TagSubscriptionTerminated:
		return s.store.Terminate(ctx, s.chainID, event.SubscriptionTerminated.SubscriptionHash)
	case entities.TagInitiatorChanged:
		return s.store.AddMerchantBinding(ctx, &entities.MerchantBinding{
			MerchantAddress:  event.InitiatorChanged.Merchant,
			ChainID:          s.chainID,
			InitiatorAddress: event.InitiatorChanged.NewInitiator,
		})
	default:
		return domainerrors.ErrSchemaInvariant
	}
}

func (s *LogScanner) handleSubscriptionStarted(ctx context.Context, e *entities.SubscriptionStartedEvent) error {
	existing, err := s.store.GetProduct(ctx, s.chainID, e.ProductHash)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := s.ingestProduct(ctx, e.ProductHash); err != nil {
			s.log.Error("scan: skipping subscription, product ingestion failed",
				zap.String("productHash", e.ProductHash), zap.Error(err))
			return nil
		}
	}

	subMeta := s.metadata.ResolveSubscriptionMetadata(ctx, e.SubscriptionMetadata)

	return s.store.AddSubscription(ctx, &entities.Subscription{
		SubscriptionHash: e.SubscriptionHash,
		ChainID:          s.chainID,
		ProductHash:      e.ProductHash,
		UserAddress:      e.User,
		StartTS:          e.Start,
		PaymentsMade:     0,
		Terminated:       false,
		SubscriptionID:   subMeta.SubscriptionID,
		UserID:           subMeta.UserID,
	})
}

func (s *LogScanner) ingestProduct(ctx context.Context, productHash string) error {
	view, err := s.client.GetProduct(ctx, s.routerAddress, productHash)
	if err != nil {
		return err
	}

	settings, err := s.client.GetMerchantSettings(ctx, s.routerAddress, view.Merchant)
	if err != nil {
		return err
	}

	decimals, err := s.client.GetDecimals(ctx, view.Token)
	if err != nil {
		return err
	}
	symbol, err := s.client.GetSymbol(ctx, view.Token)
	if err != nil {
		return err
	}

	productMeta, err := s.metadata.ResolveProductMetadata(ctx, view.Metadata)
	if err != nil {
		return err
	}

	if err := s.store.AddProduct(ctx, &entities.Product{
		ProductHash:     productHash,
		ChainID:         s.chainID,
		MerchantAddress: view.Merchant,
		TokenAddress:    view.Token,
		TokenSymbol:     symbol,
		TokenDecimals:   decimals,
		UintAmount:      view.Amount.String(),
		Period:          view.Period,
		PaymentPeriod:   view.PaymentPeriod,
		FreeTrialLength: view.FreeTrialLength,
		MerchantDomain:  productMeta.MerchantDomain,
		ProductName:     productMeta.ProductName,
	}); err != nil {
		return err
	}

	return s.store.AddMerchantBinding(ctx, &entities.MerchantBinding{
		MerchantAddress:  view.Merchant,
		ChainID:          s.chainID,
		InitiatorAddress: settings.Initiator,
	})
}
