package settings

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"gridScope/internal/contract"
	"gridScope/internal/units"
)

// Form is the raw user input for updateTradingParameters.
type Form struct {
	GridSize      string `json:"gridSize"`
	LowerPrice    string `json:"lowerPrice"`
	UpperPrice    string `json:"upperPrice"`
	AmountPerGrid string `json:"amountPerGrid"`
	StopLossPrice string `json:"stopLossPrice"`
}

// ValidationError reports a form field that could not be converted.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Parameters converts the form into contract units.
// Grid size is a plain count. Prices and amount are ether values converted to base units.
func (f Form) Parameters() (contract.Parameters, error) {
	gridSize, err := parseCount(f.GridSize)
	if err != nil {
		return contract.Parameters{}, &ValidationError{Field: "gridSize", Err: err}
	}

	params := contract.Parameters{GridSize: gridSize}
	prices := []struct {
		field string
		input string
		dst   **big.Int
	}{
		{"lowerPrice", f.LowerPrice, &params.LowerPrice},
		{"upperPrice", f.UpperPrice, &params.UpperPrice},
		{"amountPerGrid", f.AmountPerGrid, &params.AmountPerGrid},
		{"stopLossPrice", f.StopLossPrice, &params.StopLossPrice},
	}
	for _, p := range prices {
		value, err := units.ToBaseUnits(p.input)
		if err != nil {
			return contract.Parameters{}, &ValidationError{Field: p.field, Err: err}
		}
		if value.Sign() < 0 {
			return contract.Parameters{}, &ValidationError{Field: p.field, Err: errors.New("must not be negative")}
		}
		*p.dst = value
	}
	return params, nil
}

func parseCount(input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errors.New("empty value")
	}
	value, ok := new(big.Int).SetString(input, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not an integer", input)
	}
	if value.Sign() <= 0 {
		return nil, errors.New("must be positive")
	}
	if !units.FitsUint256(value) {
		return nil, errors.New("exceeds uint256")
	}
	return value, nil
}
