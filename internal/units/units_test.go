package units

import (
	"math/big"
	"strings"
	"testing"
	"time"
)

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad big int literal %s", s)
	}
	return v
}

func TestToBaseUnitsRoundTrip(t *testing.T) {
	inputs := []string{
		"0",
		"1",
		"1.5",
		"0.1",
		"0.000000000000000001",
		"123456789.123456789123456789",
		"2",
		"-3.25",
	}
	for _, input := range inputs {
		base, err := ToBaseUnits(input)
		if err != nil {
			t.Fatalf("to base units %q: %v", input, err)
		}
		if got := ToDecimal(base); got != input {
			t.Fatalf("round-trip mismatch: %q -> %s -> %q", input, base, got)
		}
	}
}

func TestToBaseUnitsTruncates(t *testing.T) {
	got, err := ToBaseUnits("0.1234567890123456789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := mustBig(t, "123456789012345678")
	if got.Cmp(want) != 0 {
		t.Fatalf("expected truncation to %s, got %s", want, got)
	}

	got, err = ToBaseUnits("0.0000000000000000019")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("expected 1 base unit, got %s", got)
	}
}

func TestToBaseUnitsValues(t *testing.T) {
	got, err := ToBaseUnits("1.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(mustBig(t, "1000000000000000000")) != 0 {
		t.Fatalf("1.0 mismatch: %s", got)
	}

	got, err = ToBaseUnits(" 0.9 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(mustBig(t, "900000000000000000")) != 0 {
		t.Fatalf("0.9 mismatch: %s", got)
	}
}

func TestToBaseUnitsInvalid(t *testing.T) {
	for _, input := range []string{"", "   ", "abc", "1.2.3", "1,5"} {
		if _, err := ToBaseUnits(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestToBaseUnitsRejectsExponent(t *testing.T) {
	for _, input := range []string{"1e20000000", "1E3", "1.5e-2", "2e60"} {
		start := time.Now()
		if _, err := ToBaseUnits(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Fatalf("%q took %s", input, elapsed)
		}
	}
}

func TestToBaseUnitsRange(t *testing.T) {
	// Largest whole-ether value whose base units still fit.
	maxEther := new(big.Int).Div(MaxUint256, mustBig(t, "1000000000000000000"))
	got, err := ToBaseUnits(maxEther.String())
	if err != nil {
		t.Fatalf("max ether %s: %v", maxEther, err)
	}
	if !FitsUint256(got) {
		t.Fatalf("expected %s to fit uint256", got)
	}

	over := new(big.Int).Add(maxEther, big.NewInt(1))
	if _, err := ToBaseUnits(over.String()); err == nil {
		t.Fatalf("expected overflow error for %s", over)
	}
	if _, err := ToBaseUnits("1" + strings.Repeat("0", 60)); err == nil {
		t.Fatalf("expected overflow error for 1e60")
	}
	if _, err := ToBaseUnits(strings.Repeat("9", 200)); err == nil {
		t.Fatalf("expected length error")
	}
}

func TestFitsUint256(t *testing.T) {
	if !FitsUint256(MaxUint256) {
		t.Fatalf("max uint256 should fit")
	}
	if FitsUint256(new(big.Int).Add(MaxUint256, big.NewInt(1))) {
		t.Fatalf("2^256 should not fit")
	}
	if FitsUint256(big.NewInt(-1)) || FitsUint256(nil) {
		t.Fatalf("negative and nil should not fit")
	}
}

func TestFormatEther(t *testing.T) {
	if got := FormatEther(mustBig(t, "1500000000000000000")); got != "1.5 ETH" {
		t.Fatalf("format mismatch: %q", got)
	}
	if got := FormatEther(mustBig(t, "1000000000000000000000")); got != "1000 ETH" {
		t.Fatalf("format mismatch: %q", got)
	}
	if got := FormatEther(big.NewInt(1)); got != "0.000000000000000001 ETH" {
		t.Fatalf("format mismatch: %q", got)
	}
	if got := ToDecimal(nil); got != "0" {
		t.Fatalf("nil mismatch: %q", got)
	}
}
