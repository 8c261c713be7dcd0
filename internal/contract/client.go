package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"gridScope/internal/chain"
	"gridScope/internal/units"
)

const (
	defaultReceiptPoll  = time.Second
	defaultRetryBackoff = 100 * time.Millisecond
	gasHeadroomPercent  = 20
)

// Backend is the provider surface the client reads through.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Wallet exposes signing accounts and broadcasts transactions from them.
type Wallet interface {
	Accounts(ctx context.Context) ([]common.Address, error)
	SendTransaction(ctx context.Context, req chain.TxRequest) (common.Hash, error)
}

// Config holds the immutable contract binding and call policy.
type Config struct {
	Address        common.Address
	ABI            abi.ABI
	MaxRetries     int
	RetryBackoff   time.Duration
	ReceiptPoll    time.Duration
	ReceiptTimeout time.Duration
}

// Parameters are the trading parameters in contract units.
// GridSize is a plain count; the prices and amount are base units.
type Parameters struct {
	GridSize      *big.Int
	LowerPrice    *big.Int
	UpperPrice    *big.Int
	AmountPerGrid *big.Int
	StopLossPrice *big.Int
}

// Client mediates all reads and writes to the grid trading contract.
type Client struct {
	cfg     Config
	backend Backend
	wallet  Wallet
	logger  *zap.Logger
}

// NewClient binds a contract address and ABI to a provider backend.
// wallet may be nil for read-only use.
func NewClient(cfg Config, backend Backend, wallet Wallet, logger *zap.Logger) (*Client, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is nil")
	}
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("contract address is required")
	}
	if err := ValidateABI(cfg.ABI); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		backend: backend,
		wallet:  wallet,
		logger:  logger,
	}, nil
}

// Address returns the bound contract address.
func (c *Client) Address() common.Address { return c.cfg.Address }

// ReadMetric invokes a zero-argument getter and returns its raw integer value.
func (c *Client) ReadMetric(ctx context.Context, name string) (*big.Int, error) {
	method, ok := c.cfg.ABI.Methods[name]
	if !ok {
		return nil, fmt.Errorf("unknown method %s", name)
	}
	if len(method.Inputs) != 0 {
		return nil, fmt.Errorf("method %s takes arguments", name)
	}

	data, err := c.cfg.ABI.Pack(name)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", name, err)
	}

	resp, err := c.call(ctx, name, ethereum.CallMsg{To: &c.cfg.Address, Data: data})
	if err != nil {
		return nil, err
	}

	values, err := c.cfg.ABI.Unpack(name, resp)
	if err != nil {
		return nil, &RPCError{Method: name, Err: fmt.Errorf("unpack: %w", err)}
	}
	if len(values) != 1 {
		return nil, &RPCError{Method: name, Err: fmt.Errorf("expected 1 return value, got %d", len(values))}
	}
	value, err := asBigInt(values[0])
	if err != nil {
		return nil, &RPCError{Method: name, Err: err}
	}
	return value, nil
}

// call runs eth_call, retrying provider failures up to MaxRetries times with a doubling delay.
// Reverts are returned on the first attempt.
func (c *Client) call(ctx context.Context, name string, msg ethereum.CallMsg) ([]byte, error) {
	delay := c.cfg.RetryBackoff
	if delay <= 0 {
		delay = defaultRetryBackoff
	}
	for attempt := 0; ; attempt++ {
		resp, err := c.backend.CallContract(ctx, msg, nil)
		if err == nil {
			return resp, nil
		}
		err = classify(name, err)
		c.logger.Warn("contract call failed", zap.String("method", name), zap.Int("attempt", attempt+1), zap.Error(err))
		if attempt >= c.cfg.MaxRetries || !IsRPC(err) {
			return nil, err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, classify(name, ctx.Err())
		case <-timer.C:
		}
		delay *= 2
	}
}

// WriteParameters submits updateTradingParameters from the wallet's first account.
func (c *Client) WriteParameters(ctx context.Context, params Parameters) (*types.Receipt, error) {
	args := []*big.Int{params.GridSize, params.LowerPrice, params.UpperPrice, params.AmountPerGrid, params.StopLossPrice}
	for i, arg := range args {
		if arg == nil {
			return nil, fmt.Errorf("%s: argument %d is nil", MethodUpdateTradingParameters, i)
		}
		if !units.FitsUint256(arg) {
			return nil, fmt.Errorf("%s: argument %d (%s) is outside uint256", MethodUpdateTradingParameters, i, arg)
		}
	}
	return c.transact(ctx, MethodUpdateTradingParameters,
		params.GridSize, params.LowerPrice, params.UpperPrice, params.AmountPerGrid, params.StopLossPrice)
}

// EmergencyWithdraw submits emergencyWithdraw from the wallet's first account.
func (c *Client) EmergencyWithdraw(ctx context.Context) (*types.Receipt, error) {
	return c.transact(ctx, MethodEmergencyWithdraw)
}

// Signer resolves the signing account: the first account the wallet exposes.
func (c *Client) Signer(ctx context.Context) (common.Address, error) {
	if c.wallet == nil {
		return common.Address{}, ErrNoAccount
	}
	accounts, err := c.wallet.Accounts(ctx)
	if err != nil {
		return common.Address{}, &RPCError{Method: "eth_accounts", Err: err}
	}
	if len(accounts) == 0 {
		return common.Address{}, ErrNoAccount
	}
	return accounts[0], nil
}

func (c *Client) transact(ctx context.Context, method string, args ...interface{}) (*types.Receipt, error) {
	data, err := c.cfg.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	from, err := c.Signer(ctx)
	if err != nil {
		return nil, err
	}

	msg := ethereum.CallMsg{From: from, To: &c.cfg.Address, Data: data}
	gas, err := c.backend.EstimateGas(ctx, msg)
	if err != nil {
		return nil, classify(method, err)
	}
	gas += gas * gasHeadroomPercent / 100

	hash, err := c.wallet.SendTransaction(ctx, chain.TxRequest{
		From: from,
		To:   c.cfg.Address,
		Data: data,
		Gas:  gas,
	})
	if err != nil {
		return nil, classify(method, err)
	}
	c.logger.Info("transaction sent",
		zap.String("method", method),
		zap.String("from", from.Hex()),
		zap.String("tx_hash", hash.Hex()),
		zap.Uint64("gas", gas),
	)

	receipt, err := c.waitReceipt(ctx, hash)
	if err != nil {
		return nil, &RPCError{Method: method, Err: fmt.Errorf("wait receipt %s: %w", hash.Hex(), err)}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, &RevertError{Method: method, TxHash: hash}
	}

	c.logger.Info("transaction mined",
		zap.String("method", method),
		zap.String("tx_hash", hash.Hex()),
		zap.Uint64("block_number", blockNumber(receipt)),
		zap.Uint64("gas_used", receipt.GasUsed),
	)
	return receipt, nil
}

func (c *Client) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if c.cfg.ReceiptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.ReceiptTimeout)
		defer cancel()
	}
	poll := c.cfg.ReceiptPoll
	if poll <= 0 {
		poll = defaultReceiptPoll
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			c.logger.Debug("receipt fetch failed", zap.String("tx_hash", hash.Hex()), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func blockNumber(receipt *types.Receipt) uint64 {
	if receipt == nil || receipt.BlockNumber == nil {
		return 0
	}
	return receipt.BlockNumber.Uint64()
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}
