package usecases

import (
	"context"
	"crypto/ecdsa"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"subpay-indexer.backend/internal/domain/entities"
	domainerrors "subpay-indexer.backend/internal/domain/errors"
	"subpay-indexer.backend/internal/domain/repositories"
	"subpay-indexer.backend/internal/infrastructure/blockchain"
	"subpay-indexer.backend/internal/metrics"
	"subpay-indexer.backend/pkg/utils"
)

// PaymentInitiator runs one scheduler tick's payment pass for one chain,
// per spec.md §4.5: select payable subscriptions, validate funds, compute
// gas and token compensation, submit sequentially, and latch the chain
// Frozen on a receipt timeout.
type PaymentInitiator struct {
	chainID        string
	routerAddress  string
	priorityFeeWei *big.Int
	privateKey     *ecdsa.PrivateKey
	initiatorAddr  common.Address

	client  *blockchain.EVMClient
	cursors repositories.CursorRepository
	store   repositories.EntityStore
	price   *PriceOracle
	log     *zap.Logger
}

// NewPaymentInitiator constructs an initiator bound to one chain and one
// signing key.
func NewPaymentInitiator(
	chainID, routerAddress string,
	priorityFeeWei *big.Int,
	privateKeyHex string,
	client *blockchain.EVMClient,
	cursors repositories.CursorRepository,
	store repositories.EntityStore,
	price *PriceOracle,
	log *zap.Logger,
) (*PaymentInitiator, error) {
	key, err := crypto.HexToECDSA(trimHexPrefix(privateKeyHex))
	if err != nil {
		return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrBuildOrSign)
	}

	return &PaymentInitiator{
		chainID:        chainID,
		routerAddress:  routerAddress,
		priorityFeeWei: priorityFeeWei,
		privateKey:     key,
		initiatorAddr:  crypto.PubkeyToAddress(key.PublicKey),
		client:         client,
		cursors:        cursors,
		store:          store,
		price:          price,
		log:            log,
	}, nil
}

func trimHexPrefix(s string) string {
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// RunOnce executes one full payment pass for the chain.
func (p *PaymentInitiator) RunOnce(ctx context.Context) error {
	frozen, reason, err := p.cursors.IsFrozen(ctx, p.chainID)
	if err != nil {
		return err
	}
	if frozen {
		metrics.ChainFrozen.WithLabelValues(p.chainID).Set(1)
		p.log.Error("payment initiator: chain is frozen, refusing to run",
			zap.String("chain", p.chainID), zap.String("reason", reason))
		return nil
	}
	metrics.ChainFrozen.WithLabelValues(p.chainID).Set(0)

	payable, err := p.store.GetPayable(ctx, p.chainID, nowUnix(), p.initiatorAddr.Hex(), int64(PaymentIssueBackoff.Seconds()))
	if err != nil {
		return err
	}

	for _, sub := range payable {
		if err := p.attempt(ctx, sub); err != nil {
			return err // a receipt timeout (after freezing) or a store error stops this tick.
		}
	}
	return nil
}

// nowUnix is a seam so tests can't accidentally depend on wall-clock
// time; production always calls through to time.Now().
var nowUnix = func() int64 { return timeNow().Unix() }

func (p *PaymentInitiator) attempt(ctx context.Context, sub entities.Subscription) error {
	product, err := p.store.GetProduct(ctx, p.chainID, sub.ProductHash)
	if err != nil {
		return err
	}
	if product == nil {
		p.issueLog(ctx, sub, "product_not_found", "product not found for subscription")
		return nil
	}

	paymentNumber := sub.PaymentsMade + 1
	amount, ok := new(big.Int).SetString(product.UintAmount, 10)
	if !ok {
		p.issueLog(ctx, sub, "malformed_amount", "malformed uint_amount")
		return nil
	}

	balance, err := p.client.GetTokenBalance(ctx, product.TokenAddress, sub.UserAddress)
	if err != nil {
		p.issueLog(ctx, sub, "balance_read_failed", "balance read failed: "+err.Error())
		return nil
	}
	if balance.Cmp(amount) < 0 {
		p.issueLog(ctx, sub, "insufficient_funds", "insufficient user balance")
		return nil
	}

	allowance, err := p.client.GetAllowance(ctx, product.TokenAddress, sub.UserAddress, p.routerAddress)
	if err != nil {
		p.issueLog(ctx, sub, "allowance_read_failed", "allowance read failed: "+err.Error())
		return nil
	}
	if allowance.Cmp(amount) < 0 {
		p.issueLog(ctx, sub, "insufficient_allowance", "insufficient allowance")
		return nil
	}

	gasUnits := GasBudget(paymentNumber)

	maxFee, tip, err := p.computeFees(ctx)
	if err != nil {
		p.issueLog(ctx, sub, "fee_computation_failed", "fee computation failed: "+err.Error())
		return nil
	}

	compensation, err := p.computeCompensation(ctx, product, gasUnits, maxFee)
	if err != nil {
		p.issueLog(ctx, sub, "compensation_computation_failed", "compensation computation failed: "+err.Error())
		return nil
	}

	tx, err := p.buildAndSign(ctx, sub.SubscriptionHash, compensation, gasUnits, maxFee, tip)
	if err != nil {
		p.issueLog(ctx, sub, "build_or_sign_failed", "build/sign failed: "+err.Error())
		return nil
	}

	if err := p.client.SendTransaction(ctx, tx); err != nil {
		p.issueLog(ctx, sub, "submit_failed", "submit failed: "+err.Error())
		return nil
	}

	receipt, err := p.client.WaitMined(ctx, tx.Hash(), ReceiptTimeout)
	if err != nil {
		metrics.PaymentOutcomes.WithLabelValues(p.chainID, "receipt_timeout").Inc()

		if domainerrors.Classify(domainerrors.ErrReceiptTimeout).Latching {
			reason := "receipt wait timed out"
			if err := p.cursors.Freeze(ctx, p.chainID, reason, timeNow().Unix()); err != nil {
				return err
			}
			metrics.ChainFrozen.WithLabelValues(p.chainID).Set(1)
			p.log.Error("payment initiator: receipt timeout, chain latched frozen",
				zap.String("chain", p.chainID), zap.String("subscription", sub.SubscriptionHash))
			return domainerrors.ErrReceiptTimeout
		}

		p.issueLog(ctx, sub, "receipt_timeout", "receipt wait timed out, not latching")
		return nil
	}

	return p.confirmPayment(ctx, sub, receipt, paymentNumber)
}

func (p *PaymentInitiator) confirmPayment(ctx context.Context, sub entities.Subscription, receipt *types.Receipt, expectedPaymentNumber int64) error {
	for _, l := range receipt.Logs {
		event, err := blockchain.DecodeRouterEvent(*l)
		if err != nil || event.Tag != entities.TagPaymentMade {
			continue
		}
		if common.HexToHash(event.PaymentMade.SubscriptionHash) != common.HexToHash(sub.SubscriptionHash) {
			continue
		}

		if err := p.store.UpdatePaymentsMade(ctx, p.chainID, sub.SubscriptionHash, event.PaymentMade.PaymentNumber); err != nil {
			return err
		}
		metrics.PaymentOutcomes.WithLabelValues(p.chainID, "made").Inc()
		return p.store.AppendSubscriptionLog(ctx, &entities.SubscriptionLog{
			LogID:            utils.GenerateUUIDv7(),
			ChainID:          p.chainID,
			Type:             entities.LogTypePaymentMade,
			SubscriptionHash: sub.SubscriptionHash,
			PaymentNumber:    event.PaymentMade.PaymentNumber,
			Timestamp:        timeNow(),
		})
	}

	p.issueLog(ctx, sub, "no_matching_payment_log", "receipt confirmed but no matching PaymentMade log found")
	return nil
}

// computeFees applies the EIP-1559 bump rule from spec.md §4.5.c:
// base' = floor(1.2*base), tip' = floor(1.1*tip), maxFee = base' + tip'.
func (p *PaymentInitiator) computeFees(ctx context.Context) (maxFee, tip *big.Int, err error) {
	base, err := p.client.BaseFee(ctx)
	if err != nil {
		return nil, nil, err
	}

	suggestedTip, err := p.client.SuggestTip(ctx)
	if err != nil {
		return nil, nil, err
	}
	if p.priorityFeeWei != nil && p.priorityFeeWei.Sign() > 0 {
		suggestedTip = p.priorityFeeWei
	}

	bumpedBase := new(big.Int).Mul(base, big.NewInt(BaseFeeBumpNumerator))
	bumpedBase.Div(bumpedBase, big.NewInt(BaseFeeBumpDenominator))

	bumpedTip := new(big.Int).Mul(suggestedTip, big.NewInt(TipBumpNumerator))
	bumpedTip.Div(bumpedTip, big.NewInt(TipBumpDenominator))

	return new(big.Int).Add(bumpedBase, bumpedTip), bumpedTip, nil
}

// computeCompensation converts eth_fee = gas*maxFee/1e18 into the
// token's atomic units via the Price Oracle's native-to-token price:
// token_comp = eth_fee * native_to_token_price, per spec.md §4.5.c.
func (p *PaymentInitiator) computeCompensation(ctx context.Context, product *entities.Product, gasUnits uint64, maxFee *big.Int) (*big.Int, error) {
	price, err := p.price.GetNativeToToken(ctx, p.chainID, product.TokenAddress)
	if err != nil {
		return nil, err
	}
	if price <= 0 {
		return nil, domainerrors.ErrUnsupportedToken
	}

	weiFee := new(big.Int).Mul(big.NewInt(int64(gasUnits)), maxFee)
	ethFee := new(big.Float).Quo(new(big.Float).SetInt(weiFee), big.NewFloat(1e18))

	tokenHuman := new(big.Float).Mul(ethFee, big.NewFloat(price))

	atomicScale := new(big.Float).SetFloat64(math.Pow10(product.TokenDecimals))
	atomicFloat := new(big.Float).Mul(tokenHuman, atomicScale)

	atomic, _ := atomicFloat.Int(nil)
	return atomic, nil
}

func (p *PaymentInitiator) buildAndSign(ctx context.Context, subscriptionHash string, compensation *big.Int, gasUnits uint64, maxFee, tip *big.Int) (*types.Transaction, error) {
	nonce, err := p.client.PendingNonceAt(ctx, p.initiatorAddr.Hex())
	if err != nil {
		return nil, err
	}

	router := common.HexToAddress(p.routerAddress)
	data := blockchain.PackMakePayment(subscriptionHash, compensation)

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   p.client.ChainID(),
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: maxFee,
		Gas:       gasUnits,
		To:        &router,
		Data:      data,
	})

	signed, err := types.SignTx(tx, types.NewLondonSigner(p.client.ChainID()), p.privateKey)
	if err != nil {
		return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrBuildOrSign)
	}
	return signed, nil
}

func (p *PaymentInitiator) issueLog(ctx context.Context, sub entities.Subscription, outcome, message string) {
	metrics.PaymentOutcomes.WithLabelValues(p.chainID, outcome).Inc()

	err := p.store.AppendSubscriptionLog(ctx, &entities.SubscriptionLog{
		LogID:            utils.GenerateUUIDv7(),
		ChainID:          p.chainID,
		Type:             entities.LogTypePaymentIssue,
		SubscriptionHash: sub.SubscriptionHash,
		PaymentNumber:    sub.PaymentsMade + 1,
		Message:          message,
		Timestamp:        timeNow(),
	})
	if err != nil {
		p.log.Error("payment initiator: failed to append payment-issue log", zap.Error(err))
	}
	p.log.Warn("payment initiator: payment issue", zap.String("subscription", sub.SubscriptionHash), zap.String("reason", message))
}
