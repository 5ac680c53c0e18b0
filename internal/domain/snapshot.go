// Package domain defines the data structures shared by the tracker, the stores and the ledger reader.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BlockTimeLayout is how observation time is written to the history table.
const BlockTimeLayout = "2006-01-02 15:04:05"

// LedgerSnapshot one reading of an account's holdings and the pool aggregates.
type LedgerSnapshot struct {
	// Account queried account address.
	Account string
	// Balance token balance of the account.
	Balance decimal.Decimal
	// Shares pool shares held by the account.
	Shares decimal.Decimal
	// TotalShares shares issued by the pool, not account scoped.
	TotalShares decimal.Decimal
	// TotalPooledValue value held by the pool, not account scoped.
	TotalPooledValue decimal.Decimal
	// ObservedAt block time of the reading, UTC.
	ObservedAt time.Time
}

// NewLedgerSnapshot creates a snapshot, truncating observation time to whole seconds in UTC.
func NewLedgerSnapshot(
	account string,
	balance decimal.Decimal,
	shares decimal.Decimal,
	totalShares decimal.Decimal,
	totalPooledValue decimal.Decimal,
	observedAt time.Time,
) LedgerSnapshot {
	return LedgerSnapshot{
		Account:          account,
		Balance:          balance,
		Shares:           shares,
		TotalShares:      totalShares,
		TotalPooledValue: totalPooledValue,
		ObservedAt:       observedAt.UTC().Truncate(time.Second),
	}
}

// Validate checks that the account is set and every reading is a non-negative integer.
func (s LedgerSnapshot) Validate() error {
	if s.Account == "" {
		return ErrEmptyAccount
	}

	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{ColumnBalance, s.Balance},
		{ColumnShares, s.Shares},
		{ColumnTotalShares, s.TotalShares},
		{ColumnTotalPooledEther, s.TotalPooledValue},
	}
	for _, f := range fields {
		if !f.value.IsInteger() || f.value.IsNegative() {
			return &InvalidAmountError{Field: f.name, Value: f.value.String()}
		}
	}

	return nil
}
