package blockchain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	domainerrors "subpay-indexer.backend/internal/domain/errors"
)

// rpcTransport is the subset of *ethclient.Client this package drives.
// Narrowing it to an interface lets tests supply a stub transport while
// production always wires in a real *ethclient.Client, following the
// teacher's NewEVMClientWithCallView injectable-client pattern for
// deterministic payment/scan tests without a live node.
type rpcTransport interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// EVMClient provides EVM blockchain interaction for one configured RPC
// endpoint. One instance is shared by the Log Scanner and the Payment
// Initiator for a given chain.
type EVMClient struct {
	client  rpcTransport
	chainID *big.Int
	rpcURL  string
}

// NewEVMClient creates a new EVM client.
func NewEVMClient(rpcURL string) (*EVMClient, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, err
	}

	chainID, err := client.ChainID(context.Background())
	if err != nil {
		return nil, err
	}

	return &EVMClient{
		client:  client,
		chainID: chainID,
		rpcURL:  rpcURL,
	}, nil
}

// NewEVMClientWithTransport builds a client around an injected transport,
// bypassing the dial step entirely. Production never calls this; it
// exists for deterministic unit tests of scan/payment logic.
func NewEVMClientWithTransport(chainID *big.Int, transport rpcTransport) *EVMClient {
	return &EVMClient{client: transport, chainID: chainID}
}

// ChainID returns the chain ID reported by the node.
func (c *EVMClient) ChainID() *big.Int {
	return c.chainID
}

// GetBalance gets the native coin balance of an address.
func (c *EVMClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	addr := common.HexToAddress(address)
	return c.client.BalanceAt(ctx, addr, nil)
}

// erc20Call encodes a 4-byte selector plus 32-byte-padded address
// arguments and executes it as an eth_call against the token contract,
// following the teacher's raw-selector CallContract pattern (no ABI
// binding generation in this corpus).
func (c *EVMClient) erc20Call(ctx context.Context, tokenAddress, selectorHex string, addrArgs ...string) ([]byte, error) {
	token := common.HexToAddress(tokenAddress)
	data := common.Hex2Bytes(selectorHex)
	for _, a := range addrArgs {
		data = append(data, common.LeftPadBytes(common.HexToAddress(a).Bytes(), 32)...)
	}

	msg := ethereum.CallMsg{To: &token, Data: data}
	result, err := c.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrTransientRPC)
	}
	return result, nil
}

// GetTokenBalance reads ERC-20 balanceOf(owner).
func (c *EVMClient) GetTokenBalance(ctx context.Context, tokenAddress, ownerAddress string) (*big.Int, error) {
	result, err := c.erc20Call(ctx, tokenAddress, "70a08231", ownerAddress)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(result), nil
}

// GetAllowance reads ERC-20 allowance(owner, spender).
func (c *EVMClient) GetAllowance(ctx context.Context, tokenAddress, ownerAddress, spenderAddress string) (*big.Int, error) {
	result, err := c.erc20Call(ctx, tokenAddress, "dd62ed3e", ownerAddress, spenderAddress)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(result), nil
}

// GetDecimals reads ERC-20 decimals().
func (c *EVMClient) GetDecimals(ctx context.Context, tokenAddress string) (int, error) {
	result, err := c.erc20Call(ctx, tokenAddress, "313ce567")
	if err != nil {
		return 0, err
	}
	return int(new(big.Int).SetBytes(result).Int64()), nil
}

// GetSymbol reads ERC-20 symbol(), decoding the ABI-encoded dynamic
// string return (offset, length, data).
func (c *EVMClient) GetSymbol(ctx context.Context, tokenAddress string) (string, error) {
	result, err := c.erc20Call(ctx, tokenAddress, "95d89b41")
	if err != nil {
		return "", err
	}
	return decodeABIString(result)
}

func decodeABIString(result []byte) (string, error) {
	if len(result) < 64 {
		return "", domainerrors.ErrSchemaInvariant
	}
	length := new(big.Int).SetBytes(result[32:64]).Int64()
	if int64(len(result)) < 64+length {
		return "", domainerrors.ErrSchemaInvariant
	}
	return string(result[64 : 64+length]), nil
}

// FilterLogs fetches raw logs matching the query, wrapping node errors as
// TransientRPC so the Log Scanner's retry-next-tick policy applies.
func (c *EVMClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	logs, err := c.client.FilterLogs(ctx, q)
	if err != nil {
		return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrTransientRPC)
	}
	return logs, nil
}

// HeadBlock returns the current chain head block number.
func (c *EVMClient) HeadBlock(ctx context.Context) (uint64, error) {
	n, err := c.client.BlockNumber(ctx)
	if err != nil {
		return 0, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrTransientRPC)
	}
	return n, nil
}

// BaseFee returns the latest block's baseFeePerGas.
func (c *EVMClient) BaseFee(ctx context.Context) (*big.Int, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrTransientRPC)
	}
	if header.BaseFee == nil {
		return nil, domainerrors.ErrSchemaInvariant
	}
	return header.BaseFee, nil
}

// SuggestTip returns the node's suggested priority fee.
func (c *EVMClient) SuggestTip(ctx context.Context) (*big.Int, error) {
	tip, err := c.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrTransientRPC)
	}
	return tip, nil
}

// PendingNonceAt returns the next usable nonce for the account,
// including transactions still pending in the mempool.
func (c *EVMClient) PendingNonceAt(ctx context.Context, address string) (uint64, error) {
	n, err := c.client.PendingNonceAt(ctx, common.HexToAddress(address))
	if err != nil {
		return 0, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrTransientRPC)
	}
	return n, nil
}

// SendTransaction submits a signed transaction.
func (c *EVMClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := c.client.SendTransaction(ctx, tx); err != nil {
		return domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrBuildOrSign)
	}
	return nil
}

// WaitMined polls for a transaction receipt until it is mined or timeout
// elapses, returning ErrReceiptTimeout on expiry (spec.md §4.5.f).
func (c *EVMClient) WaitMined(ctx context.Context, txHash common.Hash, timeout time.Duration) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		receipt, err := c.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, domainerrors.ErrReceiptTimeout
		case <-ticker.C:
		}
	}
}

// GetTransactionReceipt fetches a receipt without waiting. The Payment
// Initiator does not call it; it reads PaymentMade logs from the receipt
// WaitMined returns.
func (c *EVMClient) GetTransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt, err := c.client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, domainerrors.NewAppError(0, "", err.Error(), domainerrors.ErrTransientRPC)
	}
	return receipt, nil
}

// Close closes the underlying connection.
func (c *EVMClient) Close() {
	c.client.Close()
}
