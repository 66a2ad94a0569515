package money

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts stay as base-unit big integers everywhere inside the engine;
// conversion to and from human decimals happens only here, at the
// presentation boundary.

// Format renders a base-unit amount as a human decimal string.
func Format(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// Parse converts a human decimal string into base units. Rejects negative
// values and more fractional digits than the token carries.
func Parse(value string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if d.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	shifted := d.Shift(decimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount has more than %d decimal places", decimals)
	}
	out := shifted.BigInt()
	// Token amounts are 256-bit words on the ledger.
	if out.BitLen() > 256 {
		return nil, fmt.Errorf("amount exceeds 256 bits")
	}
	return out, nil
}
