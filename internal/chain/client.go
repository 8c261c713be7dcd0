package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// TxRequest describes a contract transaction to be sent from an account.
type TxRequest struct {
	From  common.Address
	To    common.Address
	Data  []byte
	Gas   uint64
	Value *big.Int
}

// Client wraps go-ethereum RPC and provides helper methods.
// It doubles as the node-managed wallet: accounts are whatever the provider exposes.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// NewClient creates a new chain client from the RPC URL (http, ws or ipc).
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain ID.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// HeaderByNumber returns the block header by number; nil means latest.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return c.ethClient.HeaderByNumber(ctx, number)
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}

// EstimateGas runs eth_estimateGas, which also surfaces reverts before broadcast.
func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return c.ethClient.EstimateGas(ctx, msg)
}

// TransactionReceipt returns the receipt of a mined transaction or ethereum.NotFound.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return c.ethClient.TransactionReceipt(ctx, txHash)
}

func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return c.ethClient.PendingNonceAt(ctx, account)
}

func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return c.ethClient.SuggestGasPrice(ctx)
}

func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return c.ethClient.SuggestGasTipCap(ctx)
}

// SendSignedTransaction broadcasts an already signed transaction.
func (c *Client) SendSignedTransaction(ctx context.Context, tx *types.Transaction) error {
	return c.ethClient.SendTransaction(ctx, tx)
}

// Accounts returns the accounts managed by the connected node (eth_accounts).
func (c *Client) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := c.rpcClient.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// SendTransaction asks the node to sign and broadcast from a managed account (eth_sendTransaction).
func (c *Client) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	args := map[string]interface{}{
		"from": req.From,
		"to":   req.To,
		"data": hexutil.Bytes(req.Data),
	}
	if req.Gas > 0 {
		args["gas"] = hexutil.Uint64(req.Gas)
	}
	if req.Value != nil && req.Value.Sign() > 0 {
		args["value"] = (*hexutil.Big)(req.Value)
	}

	var hash common.Hash
	if err := c.rpcClient.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}
	if hash == (common.Hash{}) {
		return common.Hash{}, fmt.Errorf("eth_sendTransaction returned empty hash")
	}
	return hash, nil
}
