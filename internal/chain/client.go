package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/compose-network/validator-bootstrap/internal/errs"
	"github.com/compose-network/validator-bootstrap/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

const DefaultPollInterval = time.Second

// txIndexingInProgress is reported by geth for receipts of blocks its tx indexer has not
// reached yet.
const txIndexingInProgress = "transaction indexing is in progress"

type (
	// Backend is the subset of ethclient used to build, submit and track transactions.
	// Both *ethclient.Client and the simulated backend client satisfy it.
	Backend interface {
		ChainID(ctx context.Context) (*big.Int, error)
		PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
		SuggestGasPrice(ctx context.Context) (*big.Int, error)
		SuggestGasTipCap(ctx context.Context) (*big.Int, error)
		HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
		EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
		SendTransaction(ctx context.Context, tx *types.Transaction) error
		TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
		BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	}

	// RPCCaller issues raw JSON-RPC calls. Only needed for node-managed signers.
	RPCCaller interface {
		CallContext(ctx context.Context, result any, method string, args ...any) error
	}

	// Client is a thin adapter over a JSON-RPC endpoint.
	Client struct {
		backend      Backend
		caller       RPCCaller
		pollInterval time.Duration
		closer       func()

		chainIDMu sync.Mutex
		chainID   *big.Int

		logger *slog.Logger
	}
)

// Dial connects to the JSON-RPC endpoint at url.
func Dial(ctx context.Context, url string, pollInterval time.Duration) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, &errs.RPCError{Op: fmt.Sprintf("dial %s", url), Err: err}
	}

	c := NewClient(ethclient.NewClient(rpcClient), rpcClient, pollInterval)
	c.closer = rpcClient.Close

	return c, nil
}

// NewClient creates a client over an existing backend. caller may be nil when no
// node-managed signer is used.
func NewClient(backend Backend, caller RPCCaller, pollInterval time.Duration) *Client {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	return &Client{
		backend:      backend,
		caller:       caller,
		pollInterval: pollInterval,
		logger:       logger.Named("chain_client"),
	}
}

// Close releases the underlying connection if the client owns it.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// RootSigner resolves the pre-funded account used to fund everything else. A non-empty
// privateKeyHex selects a keyed signer; otherwise the node account at accountIndex is used.
func (c *Client) RootSigner(ctx context.Context, privateKeyHex string, accountIndex int) (*Signer, error) {
	if privateKeyHex != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
		if err != nil {
			return nil, errs.NewConfigError("invalid root private key: %v", err)
		}
		signer := NewKeyedSigner(key, RoleRoot)
		c.logger.With("address", signer.Address).Info("using keyed root signer")
		return signer, nil
	}

	if c.caller == nil {
		return nil, errs.NewConfigError("no root private key configured and node accounts are unavailable")
	}

	var accounts []common.Address
	if err := c.caller.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, &errs.RPCError{Op: "eth_accounts", Err: err}
	}
	if accountIndex < 0 || accountIndex >= len(accounts) {
		return nil, errs.NewConfigError("root account index %d out of range, node has %d accounts", accountIndex, len(accounts))
	}

	signer := NewNodeSigner(accounts[accountIndex], RoleRoot)
	c.logger.
		With("address", signer.Address).
		With("account_index", accountIndex).
		Info("using node-managed root signer")

	return signer, nil
}

// Send submits a transaction from signer to the given address and returns its hash without
// waiting for it to be mined.
func (c *Client) Send(ctx context.Context, signer *Signer, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	if value == nil {
		value = new(big.Int)
	}

	if signer.NodeManaged() {
		return c.sendNodeManaged(ctx, signer, to, value, data)
	}

	return c.sendKeyed(ctx, signer, to, value, data)
}

func (c *Client) sendNodeManaged(ctx context.Context, signer *Signer, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	if c.caller == nil {
		return common.Hash{}, &errs.RPCError{Op: "eth_sendTransaction", Err: errors.New("no raw rpc access")}
	}

	args := map[string]any{
		"from":  signer.Address,
		"to":    to,
		"value": (*hexutil.Big)(value),
	}
	if len(data) > 0 {
		args["data"] = hexutil.Bytes(data)
	}

	var hash common.Hash
	if err := c.caller.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, &errs.RPCError{Op: fmt.Sprintf("eth_sendTransaction from %s", signer.Address), Err: err}
	}

	c.logger.
		With("from", signer.Address).
		With("to", to).
		With("tx_hash", hash).
		Debug("transaction submitted by node")

	return hash, nil
}

func (c *Client) sendKeyed(ctx context.Context, signer *Signer, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	signer.mu.Lock()
	defer signer.mu.Unlock()

	chainID, err := c.chainIDOf(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	if !signer.nonceKnown {
		nonce, err := c.backend.PendingNonceAt(ctx, signer.Address)
		if err != nil {
			return common.Hash{}, &errs.RPCError{Op: fmt.Sprintf("fetch nonce of %s", signer.Address), Err: err}
		}
		signer.nonce = nonce
		signer.nonceKnown = true
	}

	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  signer.Address,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return common.Hash{}, &errs.RPCError{Op: fmt.Sprintf("estimate gas for %s", to), Err: err}
	}

	txData, err := c.feeData(ctx, chainID, signer.nonce, gas, to, value, data)
	if err != nil {
		return common.Hash{}, err
	}

	tx, err := types.SignNewTx(signer.key, types.LatestSignerForChainID(chainID), txData)
	if err != nil {
		return common.Hash{}, &errs.RPCError{Op: "sign transaction", Err: err}
	}

	if err := c.backend.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, &errs.RPCError{Op: fmt.Sprintf("send transaction from %s", signer.Address), Err: err}
	}
	signer.nonce++

	c.logger.
		With("from", signer.Address).
		With("to", to).
		With("nonce", tx.Nonce()).
		With("tx_hash", tx.Hash()).
		Debug("transaction submitted")

	return tx.Hash(), nil
}

// feeData builds a dynamic fee transaction when the chain reports a base fee and falls back to
// a legacy transaction otherwise.
func (c *Client) feeData(ctx context.Context, chainID *big.Int, nonce, gas uint64, to common.Address, value *big.Int, data []byte) (types.TxData, error) {
	head, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, &errs.RPCError{Op: "fetch latest header", Err: err}
	}

	if head.BaseFee == nil {
		gasPrice, err := c.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, &errs.RPCError{Op: "suggest gas price", Err: err}
		}
		return &types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gas,
			To:       &to,
			Value:    value,
			Data:     data,
		}, nil
	}

	tip, err := c.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, &errs.RPCError{Op: "suggest gas tip cap", Err: err}
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	return &types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      data,
	}, nil
}

func (c *Client) chainIDOf(ctx context.Context) (*big.Int, error) {
	c.chainIDMu.Lock()
	defer c.chainIDMu.Unlock()

	if c.chainID != nil {
		return c.chainID, nil
	}

	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, &errs.RPCError{Op: "fetch chain id", Err: err}
	}
	c.chainID = chainID

	return chainID, nil
}

// WaitForReceipt polls until the transaction is mined. A reverted transaction is an error.
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				c.logger.With("tx_hash", hash).Warn("transaction reverted")
				return nil, &errs.RPCError{Op: fmt.Sprintf("transaction %s", hash), Err: errors.New("reverted")}
			}
			return receipt, nil
		case err != nil && !receiptPending(err):
			return nil, &errs.RPCError{Op: fmt.Sprintf("fetch receipt of %s", hash), Err: err}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, &errs.RPCError{Op: fmt.Sprintf("wait for receipt of %s", hash), Err: ctx.Err()}
		}
	}
}

// receiptPending reports whether err means the receipt is not available yet.
func receiptPending(err error) bool {
	if errors.Is(err, ethereum.NotFound) {
		return true
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := dataErr.ErrorData().(string); ok && data == txIndexingInProgress {
			return true
		}
	}

	return strings.Contains(err.Error(), txIndexingInProgress)
}

// BalanceAt returns the latest balance of account.
func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, &errs.RPCError{Op: fmt.Sprintf("fetch balance of %s", account), Err: err}
	}
	return balance, nil
}
