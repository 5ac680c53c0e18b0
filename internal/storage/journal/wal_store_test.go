package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/stakewatch/internal/domain"
)

func TestWALStore_SaveAndEntries(t *testing.T) {
	dir := t.TempDir()
	s, err := NewWALStore(dir)
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(Entry{RunID: "r1", RecordedAt: now, Record: domain.HistoryRecord{Address: "0xA", Balance: "100"}}))
	require.NoError(t, s.Save(Entry{RunID: "r2", RecordedAt: now, Record: domain.HistoryRecord{Address: "0xB", Balance: "7"}}))
	require.NoError(t, s.Save(Entry{RunID: "r3", RecordedAt: now, Record: domain.HistoryRecord{Address: "0xA", Balance: "150"}}))
	assert.Equal(t, uint64(3), s.CurrentIndex())

	all, err := s.Entries("")
	require.NoError(t, err)
	require.Len(t, all, 3)

	onlyA, err := s.Entries("0xa")
	require.NoError(t, err)
	require.Len(t, onlyA, 2)
	assert.Equal(t, "r1", onlyA[0].RunID)
	assert.Equal(t, "150", onlyA[1].Record.Balance)

	require.NoError(t, s.Close())

	reopened, err := NewWALStore(dir)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, reopened.Close())
	}()

	again, err := reopened.Entries("0xB")
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, "r2", again[0].RunID)
}

func TestWALStore_RequiresAddress(t *testing.T) {
	s, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	assert.Error(t, s.Save(Entry{RunID: "r1"}))
}

func TestWALStore_NilStore(t *testing.T) {
	var s *WALStore

	assert.Error(t, s.Save(Entry{}))
	_, err := s.Entries("")
	assert.Error(t, err)
	assert.Zero(t, s.CurrentIndex())
	assert.Error(t, s.Close())
}
