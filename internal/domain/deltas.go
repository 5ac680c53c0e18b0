package domain

import "github.com/shopspring/decimal"

// Deltas signed differences between a snapshot and the account's previous record.
type Deltas struct {
	Balance          decimal.Decimal
	Shares           decimal.Decimal
	TotalShares      decimal.Decimal
	TotalPooledValue decimal.Decimal
}

// ZeroDeltas is the result for an account observed for the first time.
func ZeroDeltas() Deltas {
	return Deltas{
		Balance:          decimal.Zero,
		Shares:           decimal.Zero,
		TotalShares:      decimal.Zero,
		TotalPooledValue: decimal.Zero,
	}
}
