// Package history persists the append-only history table as a CSV file.
package history

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/stakewatch/internal/domain"
)

// DefaultPath is used when no history path is configured.
const DefaultPath = "results.csv"

// CSVStore keeps history records in a CSV file with the domain.Columns header.
// Each append rewrites the whole table through a temp file and rename.
type CSVStore struct {
	path    string
	mu      sync.Mutex
	records []domain.HistoryRecord
	loaded  bool
}

// NewCSVStore creates a store for the given file. The file is not touched until LoadAll or Append.
func NewCSVStore(path string) *CSVStore {
	if path == "" {
		path = DefaultPath
	}
	return &CSVStore{path: path}
}

// Path returns the backing file path.
func (s *CSVStore) Path() string {
	return s.path
}

// LoadAll reads every record in file order. A missing or empty file yields no records.
func (s *CSVStore) LoadAll() ([]domain.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return nil, err
	}

	s.records = records
	s.loaded = true

	out := make([]domain.HistoryRecord, len(records))
	copy(out, records)
	return out, nil
}

// Append adds rec at the end and persists the resulting table before returning.
// On failure the file on disk is left as it was.
func (s *CSVStore) Append(rec domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		records, err := s.read()
		if err != nil {
			return err
		}
		s.records = records
		s.loaded = true
	}

	next := make([]domain.HistoryRecord, len(s.records), len(s.records)+1)
	copy(next, s.records)
	next = append(next, rec)

	if err := s.write(next); err != nil {
		return err
	}

	s.records = next
	return nil
}

func (s *CSVStore) read() ([]domain.HistoryRecord, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, storeError(err, "read history file %s", s.path)
	}

	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}

	r := csv.NewReader(bytes.NewReader(payload))
	header, err := r.Read()
	if err != nil {
		return nil, storeError(err, "read history header")
	}

	positions, err := columnPositions(header)
	if err != nil {
		return nil, err
	}

	var records []domain.HistoryRecord
	for {
		raw, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, storeError(err, "read history row %d", len(records))
		}

		ordered := make([]string, len(domain.Columns))
		for i, pos := range positions {
			ordered[i] = raw[pos]
		}

		rec, _ := domain.RecordFromRow(ordered)
		records = append(records, rec)
	}

	return records, nil
}

// columnPositions maps each of domain.Columns to its index in the file header.
func columnPositions(header []string) ([]int, error) {
	if len(header) != len(domain.Columns) {
		return nil, storeError(fmt.Errorf("got %d columns, want %d", len(header), len(domain.Columns)), "unexpected history header")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	positions := make([]int, len(domain.Columns))
	for i, name := range domain.Columns {
		pos, ok := index[name]
		if !ok {
			return nil, storeError(fmt.Errorf("column %s not found", name), "unexpected history header")
		}
		positions[i] = pos
	}

	return positions, nil
}

func (s *CSVStore) write(records []domain.HistoryRecord) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return storeError(err, "create history dir %s", dir)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(domain.Columns); err != nil {
		return storeError(err, "encode history header")
	}
	for _, rec := range records {
		if err := w.Write(rec.Row()); err != nil {
			return storeError(err, "encode history row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return storeError(err, "encode history")
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return storeError(err, "create history temp file")
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		os.Remove(tmp)
		return storeError(err, "write history temp file")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return storeError(err, "sync history temp file")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return storeError(err, "close history temp file")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return storeError(err, "persist history file")
	}

	return nil
}

// storeError wraps err with context and tags it as ErrStoreUnavailable.
func storeError(err error, format string, args ...any) error {
	return errors.Wrapf(&unavailableError{cause: err}, format, args...)
}

type unavailableError struct {
	cause error
}

func (e *unavailableError) Error() string {
	return fmt.Sprintf("%s: %v", domain.ErrStoreUnavailable, e.cause)
}

func (e *unavailableError) Unwrap() []error {
	return []error{domain.ErrStoreUnavailable, e.cause}
}
