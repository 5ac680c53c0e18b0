package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrConfigurationMissing a required credential or identifier is absent.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrLedgerUnreachable the ledger endpoint cannot be reached or returned malformed data.
	ErrLedgerUnreachable = errors.New("ledger unreachable")
	// ErrStoreUnavailable the history store cannot be read or written.
	ErrStoreUnavailable = errors.New("history store unavailable")
	// ErrCorruptHistoryRecord a stored numeric field is not a valid integer.
	ErrCorruptHistoryRecord = errors.New("corrupt history record")

	// ErrEmptyAccount account identifier is required.
	ErrEmptyAccount = errors.New("account is required")
)

// InvalidAmountError a value that is not a decimal integer.
type InvalidAmountError struct {
	Field string
	Value string
}

func (e *InvalidAmountError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid integer amount %q", e.Value)
	}
	return fmt.Sprintf("invalid integer amount %q in %s", e.Value, e.Field)
}

// CorruptRecordError points at the stored value that could not be parsed.
type CorruptRecordError struct {
	// Row zero-based position of the record in the store.
	Row    int
	Column string
	Value  string
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("%s: row %d column %s has value %q", ErrCorruptHistoryRecord, e.Row, e.Column, e.Value)
}

// Unwrap lets errors.Is match ErrCorruptHistoryRecord.
func (e *CorruptRecordError) Unwrap() error {
	return ErrCorruptHistoryRecord
}
