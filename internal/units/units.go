// Package units converts between lamports, the ledger's native value unit,
// and their SOL-denominated decimal form.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL uint64 = 1_000_000_000

const solExponent = 9

var (
	// ErrInvalidAmount is returned for negative, too precise or out of range amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	maxLamports = decimal.NewFromBigInt(new(big.Int).SetUint64(^uint64(0)), 0)
)

// ParseSOL converts a decimal SOL amount such as "1.1" into lamports.
func ParseSOL(s string) (uint64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// FromDecimal converts a SOL amount into lamports.
func FromDecimal(sol decimal.Decimal) (uint64, error) {
	if sol.IsNegative() {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, sol)
	}
	lamports := sol.Shift(solExponent)
	if !lamports.IsInteger() {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, sol, solExponent)
	}
	if lamports.GreaterThan(maxLamports) {
		return 0, fmt.Errorf("%w: %s overflows", ErrInvalidAmount, sol)
	}
	return lamports.BigInt().Uint64(), nil
}

// ToDecimal returns lamports as a SOL amount.
func ToDecimal(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -solExponent)
}

// FormatSOL renders lamports as a SOL string, e.g. 3900000000 -> "3.9".
func FormatSOL(lamports uint64) string {
	return ToDecimal(lamports).String()
}

// SOL returns n whole SOL in lamports.
func SOL(n uint64) uint64 {
	return n * LamportsPerSOL
}
