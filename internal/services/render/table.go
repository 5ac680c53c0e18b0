// Package render prints an account's history table to a terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vadiminshakov/stakewatch/internal/domain"
)

// weiDecimals converts wei amounts into ether for the summary column.
const weiDecimals = 18

var (
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	gain      = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	loss      = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF6B6B"}

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(highlight).MarginTop(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

var headers = []string{
	"BlockTime",
	domain.ColumnBalance,
	"ΔBalance",
	domain.ColumnShares,
	"ΔShares",
	domain.ColumnTotalShares,
	"ΔTotalShares",
	domain.ColumnTotalPooledEther,
	"ΔTotalPooledEther",
	"Balance ETH",
}

// deltaColumns are the header positions holding signed deltas.
var deltaColumns = map[int]bool{2: true, 4: true, 6: true, 8: true}

// AccountRows returns up to limit most recent records of account, oldest first.
// A limit of zero or less returns all of them.
func AccountRows(records []domain.HistoryRecord, account string, limit int) []domain.HistoryRecord {
	var rows []domain.HistoryRecord
	for _, rec := range records {
		if rec.Address == account {
			rows = append(rows, rec)
		}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	return rows
}

// History writes the last limit records of account as a table.
func History(w io.Writer, records []domain.HistoryRecord, account string, limit int) error {
	rows := AccountRows(records, account, limit)

	cells := make([][]string, 0, len(rows))
	for _, rec := range rows {
		cells = append(cells, []string{
			rec.BlockTime,
			rec.Balance,
			rec.ChangeInBalance,
			rec.Shares,
			rec.ChangeInShares,
			rec.TotalShares,
			rec.ChangeInTotalShares,
			rec.TotalPooledEther,
			rec.ChangeInTotalPooledEther,
			ether(rec.Balance),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(highlight)).
		Headers(headers...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if deltaColumns[col] && row >= 0 && row < len(cells) {
				switch sign(cells[row][col]) {
				case 1:
					return cellStyle.Foreground(gain)
				case -1:
					return cellStyle.Foreground(loss)
				}
			}
			return cellStyle
		})

	title := titleStyle.Render(fmt.Sprintf("%s (%d of %d records)", account, len(rows), countFor(records, account)))
	_, err := fmt.Fprintln(w, title+"\n"+t.Render())
	return err
}

func countFor(records []domain.HistoryRecord, account string) int {
	n := 0
	for _, rec := range records {
		if rec.Address == account {
			n++
		}
	}
	return n
}

// ether renders a wei amount in ether; malformed values are shown unchanged.
func ether(wei string) string {
	v, err := domain.ParseAmount(wei)
	if err != nil {
		return wei
	}
	return v.Shift(-weiDecimals).StringFixed(6)
}

func sign(v string) int {
	switch {
	case v == "" || v == "0":
		return 0
	case strings.HasPrefix(v, "-"):
		return -1
	default:
		return 1
	}
}
