package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// keyBackend is the subset of Client a KeyWallet needs to build and broadcast transactions.
type keyBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendSignedTransaction(ctx context.Context, tx *types.Transaction) error
}

// KeyWallet signs transactions locally with a single private key.
type KeyWallet struct {
	backend keyBackend
	key     *ecdsa.PrivateKey
	address common.Address

	mu      sync.Mutex
	chainID *big.Int
}

// NewKeyWallet parses a hex private key (with or without 0x prefix).
func NewKeyWallet(backend keyBackend, privateKeyHex string) (*KeyWallet, error) {
	if backend == nil {
		return nil, fmt.Errorf("chain backend is nil")
	}
	pkHex := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if pkHex == "" {
		return nil, fmt.Errorf("private key is required")
	}
	key, err := crypto.HexToECDSA(pkHex)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &KeyWallet{
		backend: backend,
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the signing address.
func (w *KeyWallet) Address() common.Address { return w.address }

// Accounts returns the single local account.
func (w *KeyWallet) Accounts(context.Context) ([]common.Address, error) {
	return []common.Address{w.address}, nil
}

// SendTransaction signs req with the local key and broadcasts it.
// London-enabled chains get a dynamic fee transaction, others a legacy one.
func (w *KeyWallet) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	if req.From != w.address {
		return common.Hash{}, fmt.Errorf("unknown account %s", req.From.Hex())
	}

	chainID, err := w.loadChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get chain id: %w", err)
	}

	// Serialize nonce allocation so back-to-back sends do not collide.
	w.mu.Lock()
	defer w.mu.Unlock()

	nonce, err := w.backend.PendingNonceAt(ctx, w.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get nonce: %w", err)
	}
	head, err := w.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get head: %w", err)
	}

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	to := req.To

	var tx *types.Transaction
	if head.BaseFee != nil {
		tip, err := w.backend.SuggestGasTipCap(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("get gas tip: %w", err)
		}
		feeCap := new(big.Int).Mul(head.BaseFee, big.NewInt(2))
		feeCap.Add(feeCap, tip)
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       req.Gas,
			To:        &to,
			Value:     value,
			Data:      req.Data,
		})
	} else {
		gasPrice, err := w.backend.SuggestGasPrice(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("get gas price: %w", err)
		}
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      req.Gas,
			To:       &to,
			Value:    value,
			Data:     req.Data,
		})
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}
	if err := w.backend.SendSignedTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}
	return signed.Hash(), nil
}

func (w *KeyWallet) loadChainID(ctx context.Context) (*big.Int, error) {
	w.mu.Lock()
	cached := w.chainID
	w.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	id, err := w.backend.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.chainID = id
	w.mu.Unlock()
	return id, nil
}
