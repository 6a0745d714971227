package common

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	SOLDecimals  = 9 // SOL has 9 decimals (lamports)
	USDCDecimals = 6 // USDC has 6 decimals (micro)
)

// LamportsToSOL converts lamports to SOL string without float precision loss
func LamportsToSOL(lamports uint64) string {
	return formatWithDecimals(decimal.NewFromUint64(lamports), SOLDecimals)
}

// MicroToUSDC converts micro units to USDC string without float precision loss
func MicroToUSDC(micro uint64) string {
	return formatWithDecimals(decimal.NewFromUint64(micro), USDCDecimals)
}

// ToBaseUnits converts a display amount into an integer string of base units.
// Example: ToBaseUnits("0.1", 8) = "10000000"
// Fractional digits beyond decimals are rejected rather than truncated.
func ToBaseUnits(amount decimal.Decimal, decimals int32) (string, error) {
	if !amount.IsPositive() {
		return "", fmt.Errorf("amount must be greater than 0")
	}
	shifted := amount.Shift(decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return "", fmt.Errorf("amount %s has more than %d decimals", amount.String(), decimals)
	}
	return shifted.BigInt().String(), nil
}

// FromBaseUnits converts an integer string of base units into a display amount.
// Example: FromBaseUnits("24981836", 9) = "0.024981836"
func FromBaseUnits(units string, decimals int32) (string, error) {
	units = strings.TrimSpace(units)
	if units == "" {
		return "", fmt.Errorf("empty string")
	}
	d, err := decimal.NewFromString(units)
	if err != nil {
		return "", fmt.Errorf("failed to parse base units '%s': %w", units, err)
	}
	if !d.Equal(d.Truncate(0)) {
		return "", fmt.Errorf("base units must be an integer: %s", units)
	}
	return formatWithDecimals(d, decimals), nil
}

// formatWithDecimals renders value/10^decimals with exactly decimals fractional digits
func formatWithDecimals(value decimal.Decimal, decimals int32) string {
	return value.Shift(-decimals).StringFixed(decimals)
}
