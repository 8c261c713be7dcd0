package settings

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"gridScope/internal/contract"
	"gridScope/internal/model"
	"gridScope/internal/storage"
)

// Transactor submits contract writes. contract.Client satisfies it.
type Transactor interface {
	Address() common.Address
	Signer(ctx context.Context) (common.Address, error)
	WriteParameters(ctx context.Context, params contract.Parameters) (*types.Receipt, error)
	EmergencyWithdraw(ctx context.Context) (*types.Receipt, error)
}

// Outcome is the explicit result of a write. The caller decides whether to refresh.
type Outcome struct {
	Method  string
	From    common.Address
	Receipt *types.Receipt
	Err     error
}

func (o Outcome) OK() bool { return o.Err == nil }

// TxHash returns the mined transaction hash, or the hash carried by a mined revert.
func (o Outcome) TxHash() common.Hash {
	if o.Receipt != nil {
		return o.Receipt.TxHash
	}
	var revert *contract.RevertError
	if errors.As(o.Err, &revert) {
		return revert.TxHash
	}
	return common.Hash{}
}

// Record summarizes the outcome for the transaction sinks.
func (o Outcome) Record(contractAddress common.Address, at time.Time) model.TxRecord {
	rec := model.TxRecord{
		Contract:    contractAddress.Hex(),
		Method:      o.Method,
		Status:      model.TxStatusSuccess,
		SubmittedAt: at.UTC(),
	}
	if o.From != (common.Address{}) {
		rec.From = o.From.Hex()
	}
	if hash := o.TxHash(); hash != (common.Hash{}) {
		rec.TxHash = hash.Hex()
	}
	if o.Receipt != nil {
		rec.GasUsed = o.Receipt.GasUsed
		if o.Receipt.BlockNumber != nil {
			rec.BlockNumber = o.Receipt.BlockNumber.Uint64()
		}
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
		rec.Status = model.TxStatusFailed
		if contract.IsRevert(o.Err) {
			rec.Status = model.TxStatusReverted
		}
	}
	return rec
}

// Writer validates settings and submits them to the contract.
type Writer struct {
	tx     Transactor
	sink   storage.Storage
	logger *zap.Logger
	now    func() time.Time
}

// NewWriter builds a Writer. sink may be nil.
func NewWriter(tx Transactor, sink storage.Storage, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{tx: tx, sink: sink, logger: logger, now: time.Now}
}

// Submit validates the form and calls updateTradingParameters.
// A validation failure returns before anything is sent and is not recorded.
func (w *Writer) Submit(ctx context.Context, form Form) Outcome {
	params, err := form.Parameters()
	if err != nil {
		return Outcome{Method: contract.MethodUpdateTradingParameters, Err: err}
	}

	w.logger.Info("submitting trading parameters",
		zap.String("grid_size", params.GridSize.String()),
		zap.String("lower_price", params.LowerPrice.String()),
		zap.String("upper_price", params.UpperPrice.String()),
		zap.String("amount_per_grid", params.AmountPerGrid.String()),
		zap.String("stop_loss_price", params.StopLossPrice.String()),
	)
	return w.run(ctx, contract.MethodUpdateTradingParameters, func(ctx context.Context) (*types.Receipt, error) {
		return w.tx.WriteParameters(ctx, params)
	})
}

// Withdraw calls emergencyWithdraw.
func (w *Writer) Withdraw(ctx context.Context) Outcome {
	return w.run(ctx, contract.MethodEmergencyWithdraw, w.tx.EmergencyWithdraw)
}

func (w *Writer) run(ctx context.Context, method string, send func(context.Context) (*types.Receipt, error)) Outcome {
	submittedAt := w.now()
	out := Outcome{Method: method}
	if from, err := w.tx.Signer(ctx); err == nil {
		out.From = from
	}
	out.Receipt, out.Err = send(ctx)

	if out.Err != nil {
		w.logger.Error("contract write failed",
			zap.String("method", method),
			zap.Bool("reverted", contract.IsRevert(out.Err)),
			zap.Error(out.Err),
		)
	} else {
		w.logger.Info("contract write succeeded",
			zap.String("method", method),
			zap.String("tx_hash", out.TxHash().Hex()),
			zap.Uint64("gas_used", out.Receipt.GasUsed),
			zap.String("block_number", blockString(out.Receipt.BlockNumber)),
		)
	}

	if w.sink != nil {
		if err := w.sink.PutTxRecord(ctx, out.Record(w.tx.Address(), submittedAt)); err != nil {
			w.logger.Warn("store tx record failed", zap.String("method", method), zap.Error(err))
		}
	}
	return out
}

func blockString(n *big.Int) string {
	if n == nil {
		return ""
	}
	return n.String()
}
