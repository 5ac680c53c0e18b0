// Package journal mirrors every appended history record into a write-ahead log.
package journal

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/stakewatch/internal/domain"
)

const (
	DefaultDir   = "./wal/stakewatch"
	segmentLimit = 1000
	maxSegments  = 100
	keyPrefix    = "history_record_"
)

// Entry one journaled run.
type Entry struct {
	RunID      string               `json:"run_id"`
	RecordedAt time.Time            `json:"recorded_at"`
	Record     domain.HistoryRecord `json:"record"`
}

// WALStore persists journal entries in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed journal under dir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "journal_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init history journal WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save writes the entry to the WAL. Callers must set entry.Record.Address.
func (s *WALStore) Save(entry Entry) error {
	if s == nil || s.wal == nil {
		return errors.New("history journal is not initialized")
	}
	if entry.Record.Address == "" {
		return fmt.Errorf("journal entry address is required")
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "marshal journal entry")
	}

	key := keyPrefix + strings.ToLower(entry.Record.Address)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// Entries returns all journaled entries in write order. A non-empty account limits
// the result to that account.
func (s *WALStore) Entries(account string) ([]Entry, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("history journal is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	wantKey := keyPrefix + strings.ToLower(account)

	var entries []Entry
	for msg := range s.wal.Iterator() {
		if !strings.HasPrefix(msg.Key, keyPrefix) {
			continue
		}
		if account != "" && msg.Key != wantKey {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(msg.Value, &entry); err != nil {
			return nil, errors.Wrap(err, "decode journal entry")
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("history journal is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
