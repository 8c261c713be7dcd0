// Package units converts between on-chain base units and human-readable decimal strings.
//
// Values follow the "ether" convention: one display unit is 10^18 base units.
package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits carried by base units.
const Decimals = 18

// EtherSuffix is appended to display values denominated in ether.
const EtherSuffix = " ETH"

// maxInputLen bounds the raw input. A uint256 in ether has at most 60 integer digits.
const maxInputLen = 128

// MaxUint256 is the largest value a uint256 contract argument can hold.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// FitsUint256 reports whether v is within [0, 2^256-1].
func FitsUint256(v *big.Int) bool {
	return v != nil && v.Sign() >= 0 && v.BitLen() <= 256
}

// ToBaseUnits converts a decimal string to base units.
// Digits beyond the 18th fractional place are truncated, never rounded.
// Exponent notation is rejected, and the magnitude must fit in 256 bits.
func ToBaseUnits(input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if len(input) > maxInputLen {
		return nil, fmt.Errorf("amount too long (%d chars, max %d)", len(input), maxInputLen)
	}
	if strings.ContainsAny(input, "eE") {
		return nil, fmt.Errorf("invalid amount %q: exponent notation not supported", input)
	}
	d, err := decimal.NewFromString(input)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", input, err)
	}
	value := d.Shift(Decimals).Truncate(0).BigInt()
	if value.BitLen() > 256 {
		return nil, fmt.Errorf("amount %q exceeds uint256", input)
	}
	return value, nil
}

// ToDecimal renders base units as an exact decimal string with trailing zeros trimmed.
func ToDecimal(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -Decimals).String()
}

// FormatEther renders base units for display, e.g. "1.5 ETH".
func FormatEther(value *big.Int) string {
	return ToDecimal(value) + EtherSuffix
}
