package chain

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const testKeyHex = "0xb71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

type fakeKeyBackend struct {
	baseFee *big.Int
	nonce   uint64
	sent    []*types.Transaction
}

func (f *fakeKeyBackend) ChainID(context.Context) (*big.Int, error) { return big.NewInt(31337), nil }

func (f *fakeKeyBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeKeyBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(100), BaseFee: f.baseFee}, nil
}

func (f *fakeKeyBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (f *fakeKeyBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(5_000_000_000), nil
}

func (f *fakeKeyBackend) SendSignedTransaction(_ context.Context, tx *types.Transaction) error {
	f.sent = append(f.sent, tx)
	return nil
}

func TestKeyWalletDynamicFee(t *testing.T) {
	backend := &fakeKeyBackend{baseFee: big.NewInt(1_000_000_000), nonce: 7}
	wallet, err := NewKeyWallet(backend, testKeyHex)
	if err != nil {
		t.Fatalf("new wallet: %v", err)
	}

	accounts, err := wallet.Accounts(context.Background())
	if err != nil || len(accounts) != 1 || accounts[0] != wallet.Address() {
		t.Fatalf("accounts mismatch: %v %v", accounts, err)
	}

	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	hash, err := wallet.SendTransaction(context.Background(), TxRequest{
		From: wallet.Address(),
		To:   to,
		Data: []byte{0xde, 0xad, 0xbe, 0xef},
		Gas:  50_000,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(backend.sent) != 1 {
		t.Fatalf("expected 1 sent tx, got %d", len(backend.sent))
	}

	tx := backend.sent[0]
	if tx.Hash() != hash {
		t.Fatalf("hash mismatch: %s != %s", tx.Hash().Hex(), hash.Hex())
	}
	if tx.Type() != types.DynamicFeeTxType {
		t.Fatalf("expected dynamic fee tx, got type %d", tx.Type())
	}
	if tx.Nonce() != 7 || tx.Gas() != 50_000 || *tx.To() != to {
		t.Fatalf("tx fields mismatch: nonce=%d gas=%d to=%s", tx.Nonce(), tx.Gas(), tx.To().Hex())
	}
	if tx.GasFeeCap().Cmp(big.NewInt(4_000_000_000)) != 0 {
		t.Fatalf("fee cap mismatch: %s", tx.GasFeeCap())
	}

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(31337)), tx)
	if err != nil {
		t.Fatalf("recover sender: %v", err)
	}
	if sender != wallet.Address() {
		t.Fatalf("sender mismatch: %s != %s", sender.Hex(), wallet.Address().Hex())
	}
}

func TestKeyWalletLegacyWithoutBaseFee(t *testing.T) {
	backend := &fakeKeyBackend{}
	wallet, err := NewKeyWallet(backend, testKeyHex)
	if err != nil {
		t.Fatalf("new wallet: %v", err)
	}

	_, err = wallet.SendTransaction(context.Background(), TxRequest{
		From: wallet.Address(),
		To:   common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Gas:  21_000,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	tx := backend.sent[0]
	if tx.Type() != types.LegacyTxType {
		t.Fatalf("expected legacy tx, got type %d", tx.Type())
	}
	if tx.GasPrice().Cmp(big.NewInt(5_000_000_000)) != 0 {
		t.Fatalf("gas price mismatch: %s", tx.GasPrice())
	}
}

func TestKeyWalletRejectsForeignAccount(t *testing.T) {
	wallet, err := NewKeyWallet(&fakeKeyBackend{}, testKeyHex)
	if err != nil {
		t.Fatalf("new wallet: %v", err)
	}
	_, err = wallet.SendTransaction(context.Background(), TxRequest{
		From: common.HexToAddress("0x2222222222222222222222222222222222222222"),
	})
	if err == nil {
		t.Fatalf("expected error for foreign account")
	}
}

func TestNewKeyWalletInvalidKey(t *testing.T) {
	if _, err := NewKeyWallet(&fakeKeyBackend{}, ""); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := NewKeyWallet(&fakeKeyBackend{}, "0xzz"); err == nil {
		t.Fatalf("expected error for malformed key")
	}
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress(" 0x1111111111111111111111111111111111111111 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != common.HexToAddress("0x1111111111111111111111111111111111111111") {
		t.Fatalf("address mismatch: %s", addr.Hex())
	}
	if _, err := ParseAddress("0x123"); err == nil {
		t.Fatalf("expected error for short address")
	}
	if _, err := ParseAddress(""); err == nil {
		t.Fatalf("expected error for empty address")
	}
}
