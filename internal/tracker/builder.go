package tracker

import "github.com/vadiminshakov/stakewatch/internal/domain"

// BuildRecord converts a snapshot and its deltas into the persisted row shape.
func BuildRecord(account string, snapshot domain.LedgerSnapshot, deltas domain.Deltas) domain.HistoryRecord {
	return domain.HistoryRecord{
		BlockTime:                snapshot.ObservedAt.UTC().Format(domain.BlockTimeLayout),
		Address:                  account,
		Balance:                  domain.FormatAmount(snapshot.Balance),
		ChangeInBalance:          domain.FormatAmount(deltas.Balance),
		Shares:                   domain.FormatAmount(snapshot.Shares),
		ChangeInShares:           domain.FormatAmount(deltas.Shares),
		TotalShares:              domain.FormatAmount(snapshot.TotalShares),
		ChangeInTotalShares:      domain.FormatAmount(deltas.TotalShares),
		TotalPooledEther:         domain.FormatAmount(snapshot.TotalPooledValue),
		ChangeInTotalPooledEther: domain.FormatAmount(deltas.TotalPooledValue),
	}
}
