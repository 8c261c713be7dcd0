package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Getter and write method names exposed by the grid trading contract.
const (
	MethodCurrentPrice            = "getCurrentPrice"
	MethodRealizedPnL             = "realizedPnL"
	MethodTotalInvestment         = "totalInvestment"
	MethodTotalValue              = "calculateTotalValue"
	MethodGridSize                = "gridSize"
	MethodLowerPrice              = "lowerPrice"
	MethodUpperPrice              = "upperPrice"
	MethodAmountPerGrid           = "amountPerGrid"
	MethodStopLossPrice           = "stopLossPrice"
	MethodUpdateTradingParameters = "updateTradingParameters"
	MethodEmergencyWithdraw       = "emergencyWithdraw"
)

// ReadMethods lists the zero-argument getters in dashboard order.
var ReadMethods = []string{
	MethodCurrentPrice,
	MethodRealizedPnL,
	MethodTotalInvestment,
	MethodTotalValue,
	MethodGridSize,
	MethodLowerPrice,
	MethodUpperPrice,
	MethodAmountPerGrid,
	MethodStopLossPrice,
}

const gridBotABIJSON = `[
  {"inputs": [], "name": "getCurrentPrice", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "realizedPnL", "outputs": [{"internalType": "int256", "name": "", "type": "int256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "totalInvestment", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "calculateTotalValue", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "gridSize", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "lowerPrice", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "upperPrice", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "amountPerGrid", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "stopLossPrice", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {
    "inputs": [
      {"internalType": "uint256", "name": "_gridSize", "type": "uint256"},
      {"internalType": "uint256", "name": "_lowerPrice", "type": "uint256"},
      {"internalType": "uint256", "name": "_upperPrice", "type": "uint256"},
      {"internalType": "uint256", "name": "_amountPerGrid", "type": "uint256"},
      {"internalType": "uint256", "name": "_stopLossPrice", "type": "uint256"}
    ],
    "name": "updateTradingParameters",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {"inputs": [], "name": "emergencyWithdraw", "outputs": [], "stateMutability": "nonpayable", "type": "function"}
]`

var (
	gridBotABI     abi.ABI
	gridBotABIOnce sync.Once
	gridBotABIErr  error
)

// GridBotABI returns the built-in grid trading contract ABI.
func GridBotABI() (abi.ABI, error) {
	gridBotABIOnce.Do(func() {
		gridBotABI, gridBotABIErr = abi.JSON(strings.NewReader(gridBotABIJSON))
	})
	return gridBotABI, gridBotABIErr
}

// LoadABI reads an ABI JSON file, falling back to the built-in ABI when path is empty.
// Both Truffle/Hardhat artifacts ({"abi": [...]}) and bare ABI arrays are accepted.
func LoadABI(path string) (abi.ABI, error) {
	if path == "" {
		return GridBotABI()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("read abi: %w", err)
	}
	raw := extractABI(data)
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi: %w", err)
	}
	if err := ValidateABI(parsed); err != nil {
		return abi.ABI{}, err
	}
	return parsed, nil
}

// ValidateABI checks that every method the client calls is declared with the expected arity.
func ValidateABI(parsed abi.ABI) error {
	for _, name := range ReadMethods {
		method, ok := parsed.Methods[name]
		if !ok {
			return fmt.Errorf("abi missing method %s", name)
		}
		if len(method.Inputs) != 0 || len(method.Outputs) != 1 {
			return fmt.Errorf("abi method %s must take no arguments and return one value", name)
		}
	}

	update, ok := parsed.Methods[MethodUpdateTradingParameters]
	if !ok {
		return fmt.Errorf("abi missing method %s", MethodUpdateTradingParameters)
	}
	if len(update.Inputs) != 5 {
		return fmt.Errorf("abi method %s must take 5 arguments, has %d", MethodUpdateTradingParameters, len(update.Inputs))
	}

	withdraw, ok := parsed.Methods[MethodEmergencyWithdraw]
	if !ok {
		return fmt.Errorf("abi missing method %s", MethodEmergencyWithdraw)
	}
	if len(withdraw.Inputs) != 0 {
		return fmt.Errorf("abi method %s must take no arguments", MethodEmergencyWithdraw)
	}
	return nil
}

func extractABI(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return string(trimmed)
	}
	var artifact struct {
		ABI json.RawMessage `json:"abi"`
	}
	if err := json.Unmarshal(trimmed, &artifact); err != nil || len(artifact.ABI) == 0 {
		return string(trimmed)
	}
	return string(artifact.ABI)
}
