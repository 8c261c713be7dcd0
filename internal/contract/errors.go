package contract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrNoAccount is returned when the wallet exposes no signing account.
var ErrNoAccount = errors.New("wallet exposes no account")

// revertErrorCode is the JSON-RPC code geth-compatible nodes use for execution reverts.
const revertErrorCode = 3

// RPCError reports a provider-side failure: unreachable endpoint, timeout, malformed response.
type RPCError struct {
	Method string
	Err    error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc %s: %v", e.Method, e.Err)
}

func (e *RPCError) Unwrap() error { return e.Err }

// RevertError reports that the contract rejected the call.
// TxHash is set when the revert happened in a mined transaction.
type RevertError struct {
	Method string
	Reason string
	TxHash common.Hash
	Err    error
}

func (e *RevertError) Error() string {
	msg := e.Method + " reverted"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.TxHash != (common.Hash{}) {
		msg += " (tx " + e.TxHash.Hex() + ")"
	}
	return msg
}

func (e *RevertError) Unwrap() error { return e.Err }

// IsRevert reports whether err is, or wraps, a RevertError.
func IsRevert(err error) bool {
	var revert *RevertError
	return errors.As(err, &revert)
}

// IsRPC reports whether err is, or wraps, an RPCError.
func IsRPC(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr)
}

// classify maps a provider error to RevertError or RPCError.
func classify(method string, err error) error {
	if err == nil {
		return nil
	}
	if IsRevert(err) || IsRPC(err) {
		return err
	}
	if reason, ok := revertReason(err); ok {
		return &RevertError{Method: method, Reason: reason, Err: err}
	}
	return &RPCError{Method: method, Err: err}
}

func revertReason(err error) (string, bool) {
	reverted := false

	var codeErr rpc.Error
	if errors.As(err, &codeErr) && codeErr.ErrorCode() == revertErrorCode {
		reverted = true
	}

	msg := err.Error()
	if strings.Contains(strings.ToLower(msg), "execution reverted") {
		reverted = true
	}
	if !reverted {
		return "", false
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if hexData, ok := dataErr.ErrorData().(string); ok {
			if data, decodeErr := hexutil.Decode(hexData); decodeErr == nil && len(data) > 0 {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					return reason, true
				}
				// Custom error selector: keep the raw payload.
				return hexData, true
			}
		}
	}

	if _, after, found := strings.Cut(msg, "execution reverted: "); found {
		return strings.TrimSpace(after), true
	}
	return "", true
}
