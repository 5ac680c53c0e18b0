// Package tracker computes snapshot deltas against an account's history and appends new records.
package tracker

import (
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/stakewatch/internal/domain"
)

// FindLatest returns the last record for account in append order and its position.
// Stored timestamps are not compared: the most recently recorded row wins.
func FindLatest(history []domain.HistoryRecord, account string) (domain.HistoryRecord, int, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Address == account {
			return history[i], i, true
		}
	}
	return domain.HistoryRecord{}, -1, false
}

// ComputeDeltas subtracts the account's latest recorded values from current.
// An account without history gets zero deltas.
func ComputeDeltas(history []domain.HistoryRecord, account string, current domain.LedgerSnapshot) (domain.Deltas, error) {
	if account == "" {
		return domain.Deltas{}, domain.ErrEmptyAccount
	}
	if err := current.Validate(); err != nil {
		return domain.Deltas{}, err
	}

	last, row, ok := FindLatest(history, account)
	if !ok {
		return domain.ZeroDeltas(), nil
	}

	baseline, err := parseBaseline(last, row)
	if err != nil {
		return domain.Deltas{}, err
	}

	return domain.Deltas{
		Balance:          current.Balance.Sub(baseline.Balance),
		Shares:           current.Shares.Sub(baseline.Shares),
		TotalShares:      current.TotalShares.Sub(baseline.TotalShares),
		TotalPooledValue: current.TotalPooledValue.Sub(baseline.TotalPooledValue),
	}, nil
}

type baselineValues struct {
	Balance          decimal.Decimal
	Shares           decimal.Decimal
	TotalShares      decimal.Decimal
	TotalPooledValue decimal.Decimal
}

func parseBaseline(rec domain.HistoryRecord, row int) (baselineValues, error) {
	var b baselineValues

	fields := []struct {
		column string
		raw    string
		dst    *decimal.Decimal
	}{
		{domain.ColumnBalance, rec.Balance, &b.Balance},
		{domain.ColumnShares, rec.Shares, &b.Shares},
		{domain.ColumnTotalShares, rec.TotalShares, &b.TotalShares},
		{domain.ColumnTotalPooledEther, rec.TotalPooledEther, &b.TotalPooledValue},
	}
	for _, f := range fields {
		v, err := domain.ParseAmount(f.raw)
		if err != nil || v.IsNegative() {
			return baselineValues{}, &domain.CorruptRecordError{Row: row, Column: f.column, Value: f.raw}
		}
		*f.dst = v
	}

	return b, nil
}
