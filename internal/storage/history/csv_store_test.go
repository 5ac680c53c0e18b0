package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/stakewatch/internal/domain"
)

func testRecord(address, balance string) domain.HistoryRecord {
	return domain.HistoryRecord{
		BlockTime:                "2024-05-01 12:00:00",
		Address:                  address,
		Balance:                  balance,
		ChangeInBalance:          "0",
		Shares:                   "10",
		ChangeInShares:           "0",
		TotalShares:              "1000",
		ChangeInTotalShares:      "0",
		TotalPooledEther:         "123456789012345678901234567890",
		ChangeInTotalPooledEther: "-5",
	}
}

func TestCSVStore_LoadAllMissingFile(t *testing.T) {
	s := NewCSVStore(filepath.Join(t.TempDir(), "results.csv"))

	records, err := s.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCSVStore_AppendCreatesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "results.csv")
	s := NewCSVStore(path)

	require.NoError(t, s.Append(testRecord("0xa", "100")))

	payload, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(domain.Columns, ","), lines[0])
	assert.Equal(t, "2024-05-01 12:00:00,0xa,100,0,10,0,1000,0,123456789012345678901234567890,-5", lines[1])

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestCSVStore_RoundTripKeepsOrderAndPrecision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	s := NewCSVStore(path)

	_, err := s.LoadAll()
	require.NoError(t, err)
	require.NoError(t, s.Append(testRecord("0xa", "100")))
	require.NoError(t, s.Append(testRecord("0xb", "7")))
	require.NoError(t, s.Append(testRecord("0xa", "150")))

	reloaded, err := NewCSVStore(path).LoadAll()
	require.NoError(t, err)
	require.Len(t, reloaded, 3)
	assert.Equal(t, []string{"0xa", "0xb", "0xa"}, []string{reloaded[0].Address, reloaded[1].Address, reloaded[2].Address})
	assert.Equal(t, "150", reloaded[2].Balance)
	assert.Equal(t, "123456789012345678901234567890", reloaded[2].TotalPooledEther)
}

func TestCSVStore_ReadsReorderedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	content := "Address,BlockTime,Balance,Shares,TotalShares,TotalPooledEther,ChangeInBalance,ChangeInShares,ChangeInTotalShares,ChangeInTotalPooledEther\n" +
		"0xa,2024-05-01 12:00:00,100,10,1000,2000,1,2,3,4\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := NewCSVStore(path).LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "0xa", records[0].Address)
	assert.Equal(t, "2000", records[0].TotalPooledEther)
	assert.Equal(t, "4", records[0].ChangeInTotalPooledEther)
}

func TestCSVStore_MalformedNumbersLoadAsText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	content := strings.Join(domain.Columns, ",") + "\n" +
		"2024-05-01 12:00:00,0xa,abc,0,10,0,1000,0,2000,0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := NewCSVStore(path).LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "abc", records[0].Balance)
}

func TestCSVStore_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing column", content: "BlockTime,Address,Balance\n2024-05-01 12:00:00,0xa,1\n"},
		{name: "unknown column", content: strings.Replace(strings.Join(domain.Columns, ","), "Shares", "Stake", 1) + "\n"},
		{name: "ragged row", content: strings.Join(domain.Columns, ",") + "\n1,2,3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "results.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := NewCSVStore(path).LoadAll()
			assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		})
	}
}

func TestCSVStore_FailedAppendKeepsPreviousState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.csv")
	s := NewCSVStore(path)
	require.NoError(t, s.Append(testRecord("0xa", "100")))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// a directory in place of the temp file makes the write fail
	require.NoError(t, os.Mkdir(path+".tmp", 0o755))

	err = s.Append(testRecord("0xa", "200"))
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	records, err := NewCSVStore(path).LoadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
