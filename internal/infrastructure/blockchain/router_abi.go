package blockchain

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	domainentities "subpay-indexer.backend/internal/domain/entities"
	domainerrors "subpay-indexer.backend/internal/domain/errors"
)

// Router event and function signatures, verbatim from the on-chain
// contract. Selectors and topics are derived from these at init time
// rather than hardcoded, since unlike the well-known ERC-20 selectors
// these are specific to this router and easy to get wrong by hand.
const (
	sigSubscriptionStarted    = "SubscriptionStarted(bytes32,bytes32,address,uint256,bytes)"
	sigPaymentMade            = "PaymentMade(bytes32,uint256)"
	sigSubscriptionTerminated = "SubscriptionTerminated(bytes32)"
	sigInitiatorChanged       = "InitiatorChanged(address,address)"

	sigProductsView          = "products(bytes32)"
	sigMerchantSettingsView  = "merchantSettings(address)"
	sigMakePayment           = "makePayment(bytes32,uint256)"
)

var (
	topicSubscriptionStarted    = crypto.Keccak256Hash([]byte(sigSubscriptionStarted))
	topicPaymentMade            = crypto.Keccak256Hash([]byte(sigPaymentMade))
	topicSubscriptionTerminated = crypto.Keccak256Hash([]byte(sigSubscriptionTerminated))
	topicInitiatorChanged       = crypto.Keccak256Hash([]byte(sigInitiatorChanged))

	selectorProductsView         = crypto.Keccak256([]byte(sigProductsView))[:4]
	selectorMerchantSettingsView = crypto.Keccak256([]byte(sigMerchantSettingsView))[:4]
	selectorMakePayment          = crypto.Keccak256([]byte(sigMakePayment))[:4]
)

// RouterEventTopics returns the four event-kind topics the Log Scanner
// paginates over independently, indexed the same way as entities.EventKind.
func RouterEventTopics() map[domainentities.EventKind]common.Hash {
	return map[domainentities.EventKind]common.Hash{
		domainentities.EventKindSubscriptions: topicSubscriptionStarted,
		domainentities.EventKindPayments:      topicPaymentMade,
		domainentities.EventKindTerminations:  topicSubscriptionTerminated,
		domainentities.EventKindInitiators:    topicInitiatorChanged,
	}
}

func mustArguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, len(types))
	for i, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}
		args[i] = abi.Argument{Type: typ}
	}
	return args
}

var (
	subscriptionStartedArgs    = mustArguments("bytes32", "bytes32", "address", "uint256", "bytes")
	paymentMadeArgs            = mustArguments("bytes32", "uint256")
	subscriptionTerminatedArgs = mustArguments("bytes32")
	initiatorChangedArgs       = mustArguments("address", "address")
	productsViewArgs           = mustArguments("address", "address", "uint256", "uint256", "uint256", "uint256", "bytes")
	merchantSettingsViewArgs   = mustArguments("address")
)

// DecodeRouterEvent dispatches a raw log by topic[0] into the tagged
// variant the Log Scanner's handler table switches on, replacing
// duck-typed event args with typed fields parsed by the ABI decoder.
func DecodeRouterEvent(l types.Log) (*domainentities.RouterEvent, error) {
	if len(l.Topics) == 0 {
		return nil, domainerrors.ErrSchemaInvariant
	}

	base := domainentities.RouterEvent{
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash.Hex(),
		LogIndex:    l.Index,
	}

	switch l.Topics[0] {
	case topicSubscriptionStarted:
		values, err := subscriptionStartedArgs.Unpack(l.Data)
		if err != nil {
			return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrSchemaInvariant)
		}
		base.Tag = domainentities.TagSubscriptionStarted
		base.SubscriptionStarted = &domainentities.SubscriptionStartedEvent{
			SubscriptionHash:     common.Hash(values[0].([32]byte)).Hex(),
			ProductHash:          common.Hash(values[1].([32]byte)).Hex(),
			User:                 values[2].(common.Address).Hex(),
			Start:                values[3].(*big.Int).Int64(),
			SubscriptionMetadata: values[4].([]byte),
		}
	case topicPaymentMade:
		values, err := paymentMadeArgs.Unpack(l.Data)
		if err != nil {
			return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrSchemaInvariant)
		}
		base.Tag = domainentities.TagPaymentMade
		base.PaymentMade = &domainentities.PaymentMadeEvent{
			SubscriptionHash: common.Hash(values[0].([32]byte)).Hex(),
			PaymentNumber:    values[1].(*big.Int).Int64(),
		}
	case topicSubscriptionTerminated:
		values, err := subscriptionTerminatedArgs.Unpack(l.Data)
		if err != nil {
			return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrSchemaInvariant)
		}
		base.Tag = domainentities.TagSubscriptionTerminated
		base.SubscriptionTerminated = &domainentities.SubscriptionTerminatedEvent{
			SubscriptionHash: common.Hash(values[0].([32]byte)).Hex(),
		}
	case topicInitiatorChanged:
		values, err := initiatorChangedArgs.Unpack(l.Data)
		if err != nil {
			return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrSchemaInvariant)
		}
		base.Tag = domainentities.TagInitiatorChanged
		base.InitiatorChanged = &domainentities.InitiatorChangedEvent{
			Merchant:     values[0].(common.Address).Hex(),
			NewInitiator: values[1].(common.Address).Hex(),
		}
	default:
		return nil, domainerrors.ErrSchemaInvariant
	}

	return &base, nil
}

// GetProduct reads the router's products(bytes32) view.
func (c *EVMClient) GetProduct(ctx context.Context, routerAddress, productHash string) (*domainentities.ProductView, error) {
	data := append(append([]byte{}, selectorProductsView...), common.HexToHash(productHash).Bytes()...)
	router := common.HexToAddress(routerAddress)
	result, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &router, Data: data}, nil)
	if err != nil {
		return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrTransientRPC)
	}

	values, err := productsViewArgs.Unpack(result)
	if err != nil {
		return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrSchemaInvariant)
	}

	return &domainentities.ProductView{
		Merchant:        values[0].(common.Address).Hex(),
		Token:           values[1].(common.Address).Hex(),
		Amount:          values[2].(*big.Int),
		Period:          values[3].(*big.Int).Int64(),
		FreeTrialLength: values[4].(*big.Int).Int64(),
		PaymentPeriod:   values[5].(*big.Int).Int64(),
		Metadata:        values[6].([]byte),
	}, nil
}

// GetMerchantSettings reads the router's merchantSettings(address) view.
func (c *EVMClient) GetMerchantSettings(ctx context.Context, routerAddress, merchantAddress string) (*domainentities.MerchantSettingsView, error) {
	data := append(append([]byte{}, selectorMerchantSettingsView...), common.LeftPadBytes(common.HexToAddress(merchantAddress).Bytes(), 32)...)
	router := common.HexToAddress(routerAddress)
	result, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &router, Data: data}, nil)
	if err != nil {
		return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrTransientRPC)
	}

	values, err := merchantSettingsViewArgs.Unpack(result)
	if err != nil {
		return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrSchemaInvariant)
	}

	return &domainentities.MerchantSettingsView{
		Initiator: values[0].(common.Address).Hex(),
	}, nil
}

// PackMakePayment encodes makePayment(bytes32,uint256) call data.
func PackMakePayment(subscriptionHash string, compensationAtomic *big.Int) []byte {
	args := mustArguments("bytes32", "uint256")
	var hashArg [32]byte
	copy(hashArg[:], common.HexToHash(subscriptionHash).Bytes())
	packed, err := args.Pack(hashArg, compensationAtomic)
	if err != nil {
		panic(err)
	}
	return append(append([]byte{}, selectorMakePayment...), packed...)
}
