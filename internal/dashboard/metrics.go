package dashboard

import (
	"math/big"

	"gridScope/internal/contract"
	"gridScope/internal/units"
)

// Unit selects how a raw value is rendered.
type Unit int

const (
	// UnitEther values are 18-decimal base units shown with an ETH suffix.
	UnitEther Unit = iota
	// UnitCount values are plain integers.
	UnitCount
)

// Metric binds a contract getter to its display field.
type Metric struct {
	Field  string
	Label  string
	Method string
	Unit   Unit
}

// Metrics is the fixed read order: portfolio metrics first, then trading parameters.
var Metrics = []Metric{
	{Field: "currentPrice", Label: "Current price", Method: contract.MethodCurrentPrice, Unit: UnitEther},
	{Field: "realizedPnL", Label: "Realized PnL", Method: contract.MethodRealizedPnL, Unit: UnitEther},
	{Field: "totalInvestment", Label: "Total investment", Method: contract.MethodTotalInvestment, Unit: UnitEther},
	{Field: "totalValue", Label: "Total value", Method: contract.MethodTotalValue, Unit: UnitEther},
	{Field: "gridSize", Label: "Grid size", Method: contract.MethodGridSize, Unit: UnitCount},
	{Field: "lowerPrice", Label: "Lower price", Method: contract.MethodLowerPrice, Unit: UnitEther},
	{Field: "upperPrice", Label: "Upper price", Method: contract.MethodUpperPrice, Unit: UnitEther},
	{Field: "amountPerGrid", Label: "Amount per grid", Method: contract.MethodAmountPerGrid, Unit: UnitEther},
	{Field: "stopLossPrice", Label: "Stop-loss price", Method: contract.MethodStopLossPrice, Unit: UnitEther},
}

// Format renders a raw value for display.
func (m Metric) Format(value *big.Int) string {
	if m.Unit == UnitCount {
		if value == nil {
			return "0"
		}
		return value.String()
	}
	return units.FormatEther(value)
}
