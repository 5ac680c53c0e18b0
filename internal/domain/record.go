package domain

// History table columns, in the order they are written.
const (
	ColumnBlockTime                = "BlockTime"
	ColumnAddress                  = "Address"
	ColumnBalance                  = "Balance"
	ColumnChangeInBalance          = "ChangeInBalance"
	ColumnShares                   = "Shares"
	ColumnChangeInShares           = "ChangeInShares"
	ColumnTotalShares              = "TotalShares"
	ColumnChangeInTotalShares      = "ChangeInTotalShares"
	ColumnTotalPooledEther         = "TotalPooledEther"
	ColumnChangeInTotalPooledEther = "ChangeInTotalPooledEther"
)

// Columns is the fixed header of the history table.
var Columns = []string{
	ColumnBlockTime,
	ColumnAddress,
	ColumnBalance,
	ColumnChangeInBalance,
	ColumnShares,
	ColumnChangeInShares,
	ColumnTotalShares,
	ColumnChangeInTotalShares,
	ColumnTotalPooledEther,
	ColumnChangeInTotalPooledEther,
}

// HistoryRecord one persisted row. Numbers are kept as decimal-integer strings
// so they survive the store without precision loss.
type HistoryRecord struct {
	BlockTime                string `json:"block_time"`
	Address                  string `json:"address"`
	Balance                  string `json:"balance"`
	ChangeInBalance          string `json:"change_in_balance"`
	Shares                   string `json:"shares"`
	ChangeInShares           string `json:"change_in_shares"`
	TotalShares              string `json:"total_shares"`
	ChangeInTotalShares      string `json:"change_in_total_shares"`
	TotalPooledEther         string `json:"total_pooled_ether"`
	ChangeInTotalPooledEther string `json:"change_in_total_pooled_ether"`
}

// Row returns the record's values in Columns order.
func (r HistoryRecord) Row() []string {
	return []string{
		r.BlockTime,
		r.Address,
		r.Balance,
		r.ChangeInBalance,
		r.Shares,
		r.ChangeInShares,
		r.TotalShares,
		r.ChangeInTotalShares,
		r.TotalPooledEther,
		r.ChangeInTotalPooledEther,
	}
}

// RecordFromRow builds a record from values in Columns order.
func RecordFromRow(row []string) (HistoryRecord, bool) {
	if len(row) != len(Columns) {
		return HistoryRecord{}, false
	}

	return HistoryRecord{
		BlockTime:                row[0],
		Address:                  row[1],
		Balance:                  row[2],
		ChangeInBalance:          row[3],
		Shares:                   row[4],
		ChangeInShares:           row[5],
		TotalShares:              row[6],
		ChangeInTotalShares:      row[7],
		TotalPooledEther:         row[8],
		ChangeInTotalPooledEther: row[9],
	}, true
}
