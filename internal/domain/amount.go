package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a decimal-integer string such as "-20" or "123456789012345678901234567890".
// Fractions and exponent notation are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Decimal{}, &InvalidAmountError{Value: s}
	}
	if _, ok := new(big.Int).SetString(s, 10); !ok {
		return decimal.Decimal{}, &InvalidAmountError{Value: s}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, &InvalidAmountError{Value: s}
	}

	return d, nil
}

// AmountFromBig converts a value returned by a contract call.
func AmountFromBig(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, 0)
}

// FormatAmount renders an integer amount in canonical form: plain digits, a leading
// minus sign for negatives and "0" for zero.
func FormatAmount(d decimal.Decimal) string {
	return d.BigInt().String()
}
