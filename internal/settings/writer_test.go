package settings

import (
	"context"
	"errors"
	"math/big"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"gridScope/internal/contract"
	"gridScope/internal/model"
)

var (
	contractAddr = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	signerAddr   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

type fakeTransactor struct {
	params    []contract.Parameters
	withdraws int
	receipt   *types.Receipt
	err       error
}

func (f *fakeTransactor) Address() common.Address { return contractAddr }

func (f *fakeTransactor) Signer(context.Context) (common.Address, error) { return signerAddr, nil }

func (f *fakeTransactor) WriteParameters(_ context.Context, params contract.Parameters) (*types.Receipt, error) {
	f.params = append(f.params, params)
	return f.receipt, f.err
}

func (f *fakeTransactor) EmergencyWithdraw(context.Context) (*types.Receipt, error) {
	f.withdraws++
	return f.receipt, f.err
}

type txSink struct {
	records []model.TxRecord
}

func (s *txSink) PutSnapshot(context.Context, model.Snapshot) error { return nil }

func (s *txSink) PutTxRecord(_ context.Context, rec model.TxRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func minedReceipt() *types.Receipt {
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      common.HexToHash("0x01"),
		BlockNumber: big.NewInt(42),
		GasUsed:     21000,
	}
}

func TestFormParametersConvertsUnits(t *testing.T) {
	form := Form{GridSize: "10", LowerPrice: "1.0", UpperPrice: "2.0", AmountPerGrid: "0.1", StopLossPrice: "0.9"}
	params, err := form.Parameters()
	if err != nil {
		t.Fatalf("Parameters error: %v", err)
	}

	want := []string{"10", "1000000000000000000", "2000000000000000000", "100000000000000000", "900000000000000000"}
	got := []string{
		params.GridSize.String(),
		params.LowerPrice.String(),
		params.UpperPrice.String(),
		params.AmountPerGrid.String(),
		params.StopLossPrice.String(),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected parameters: got %v, want %v", got, want)
	}
}

func TestFormParametersValidation(t *testing.T) {
	valid := Form{GridSize: "10", LowerPrice: "1", UpperPrice: "2", AmountPerGrid: "0.1", StopLossPrice: "0.9"}
	cases := []struct {
		name  string
		edit  func(*Form)
		field string
	}{
		{"empty grid", func(f *Form) { f.GridSize = "" }, "gridSize"},
		{"fractional grid", func(f *Form) { f.GridSize = "2.5" }, "gridSize"},
		{"zero grid", func(f *Form) { f.GridSize = "0" }, "gridSize"},
		{"bad lower", func(f *Form) { f.LowerPrice = "abc" }, "lowerPrice"},
		{"negative upper", func(f *Form) { f.UpperPrice = "-1" }, "upperPrice"},
		{"empty amount", func(f *Form) { f.AmountPerGrid = " " }, "amountPerGrid"},
		{"bad stop loss", func(f *Form) { f.StopLossPrice = "1e" }, "stopLossPrice"},
		{"grid above uint256", func(f *Form) { f.GridSize = overUint256 }, "gridSize"},
		{"lower in exponent form", func(f *Form) { f.LowerPrice = "1e60" }, "lowerPrice"},
		{"upper above uint256", func(f *Form) { f.UpperPrice = "1" + strings.Repeat("0", 60) }, "upperPrice"},
		{"huge exponent", func(f *Form) { f.AmountPerGrid = "1e20000000" }, "amountPerGrid"},
	}
	for _, tc := range cases {
		form := valid
		tc.edit(&form)
		_, err := form.Parameters()
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
		if verr.Field != tc.field {
			t.Fatalf("%s: got field %s, want %s", tc.name, verr.Field, tc.field)
		}
	}
}

// 2^256 + 1
const overUint256 = "115792089237316195423570985008687907853269984665640564039457584007913129639937"

func TestSubmitOutOfRangeSendsNothing(t *testing.T) {
	tx := &fakeTransactor{receipt: minedReceipt()}
	w := NewWriter(tx, &txSink{}, zap.NewNop())

	out := w.Submit(context.Background(), Form{GridSize: overUint256, LowerPrice: "1", UpperPrice: "2", AmountPerGrid: "0.1", StopLossPrice: "0.9"})
	if !IsValidation(out.Err) {
		t.Fatalf("expected validation error, got %v", out.Err)
	}
	if len(tx.params) != 0 {
		t.Fatalf("expected nothing submitted, got %d", len(tx.params))
	}
}

func TestFormDoesNotCheckPriceOrdering(t *testing.T) {
	form := Form{GridSize: "3", LowerPrice: "5", UpperPrice: "1", AmountPerGrid: "0", StopLossPrice: "0"}
	if _, err := form.Parameters(); err != nil {
		t.Fatalf("ordering is left to the contract: %v", err)
	}
}

func TestSubmitSuccessRecordsTransaction(t *testing.T) {
	tx := &fakeTransactor{receipt: minedReceipt()}
	sink := &txSink{}
	w := NewWriter(tx, sink, zap.NewNop())
	w.now = func() time.Time { return time.Unix(100, 0) }

	out := w.Submit(context.Background(), Form{GridSize: "10", LowerPrice: "1.0", UpperPrice: "2.0", AmountPerGrid: "0.1", StopLossPrice: "0.9"})
	if !out.OK() {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if len(tx.params) != 1 || tx.params[0].LowerPrice.String() != "1000000000000000000" {
		t.Fatalf("unexpected submitted params: %+v", tx.params)
	}

	want := model.TxRecord{
		Contract:    contractAddr.Hex(),
		Method:      contract.MethodUpdateTradingParameters,
		From:        signerAddr.Hex(),
		TxHash:      common.HexToHash("0x01").Hex(),
		BlockNumber: 42,
		GasUsed:     21000,
		Status:      model.TxStatusSuccess,
		SubmittedAt: time.Unix(100, 0).UTC(),
	}
	if len(sink.records) != 1 || !reflect.DeepEqual(sink.records[0], want) {
		t.Fatalf("unexpected records: %+v", sink.records)
	}
}

func TestSubmitValidationFailureSendsNothing(t *testing.T) {
	tx := &fakeTransactor{receipt: minedReceipt()}
	sink := &txSink{}
	out := NewWriter(tx, sink, nil).Submit(context.Background(), Form{GridSize: "x"})
	if !IsValidation(out.Err) {
		t.Fatalf("expected validation error, got %v", out.Err)
	}
	if len(tx.params) != 0 || len(sink.records) != 0 {
		t.Fatalf("nothing should be sent or recorded")
	}
}

func TestWithdrawRevertIsRecorded(t *testing.T) {
	hash := common.HexToHash("0xbeef")
	tx := &fakeTransactor{err: &contract.RevertError{Method: contract.MethodEmergencyWithdraw, Reason: "not owner", TxHash: hash}}
	sink := &txSink{}

	out := NewWriter(tx, sink, zap.NewNop()).Withdraw(context.Background())
	if out.OK() || !contract.IsRevert(out.Err) {
		t.Fatalf("expected revert, got %v", out.Err)
	}
	if tx.withdraws != 1 {
		t.Fatalf("expected one withdraw call, got %d", tx.withdraws)
	}
	if out.TxHash() != hash {
		t.Fatalf("unexpected tx hash %s", out.TxHash().Hex())
	}
	rec := sink.records[0]
	if rec.Status != model.TxStatusReverted || rec.TxHash != hash.Hex() {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestOutcomeRecordRPCFailure(t *testing.T) {
	out := Outcome{Method: contract.MethodEmergencyWithdraw, Err: &contract.RPCError{Method: "eth_sendTransaction", Err: errors.New("dial tcp")}}
	rec := out.Record(contractAddr, time.Unix(0, 0))
	if rec.Status != model.TxStatusFailed || rec.TxHash != "" || rec.From != "" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}
