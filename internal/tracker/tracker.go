package tracker

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vadiminshakov/stakewatch/internal/domain"
	"github.com/vadiminshakov/stakewatch/internal/services/render"
	"github.com/vadiminshakov/stakewatch/internal/storage/journal"
)

type snapshotReader interface {
	Snapshot(ctx context.Context, account string) (domain.LedgerSnapshot, error)
}

type historyStore interface {
	LoadAll() ([]domain.HistoryRecord, error)
	Append(rec domain.HistoryRecord) error
}

type journalStore interface {
	Save(entry journal.Entry) error
}

// Result outcome of one run.
type Result struct {
	RunID  string
	Record domain.HistoryRecord
	// History is the store content including Record.
	History []domain.HistoryRecord
}

// Tracker runs the snapshot, compare, append pipeline for one account.
type Tracker struct {
	account  string
	reader   snapshotReader
	store    historyStore
	journal  journalStore
	out      io.Writer
	showRows int
	now      func() time.Time
	l        *zap.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithJournal mirrors appended records into j.
func WithJournal(j journalStore) Option {
	return func(t *Tracker) {
		t.journal = j
	}
}

// WithOutput prints the account's last rows records to w after each run.
func WithOutput(w io.Writer, rows int) Option {
	return func(t *Tracker) {
		t.out = w
		t.showRows = rows
	}
}

// WithClock overrides the journal timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// New creates a tracker for account.
func New(account string, reader snapshotReader, store historyStore, l *zap.Logger, opts ...Option) (*Tracker, error) {
	if account == "" {
		return nil, domain.ErrEmptyAccount
	}
	if reader == nil || store == nil {
		return nil, errors.New("tracker needs a ledger reader and a history store")
	}
	if l == nil {
		l = zap.NewNop()
	}

	t := &Tracker{
		account: account,
		reader:  reader,
		store:   store,
		now:     time.Now,
		l:       l.With(zap.String("account", account)),
	}
	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// RunOnce reads the ledger, computes deltas against the stored history and appends one record.
// Any error aborts the run before the append.
func (t *Tracker) RunOnce(ctx context.Context) (Result, error) {
	runID := uuid.New().String()
	l := t.l.With(zap.String("run_id", runID))

	snapshot, err := t.reader.Snapshot(ctx, t.account)
	if err != nil {
		return Result{}, errors.Wrap(err, "query ledger")
	}

	history, err := t.store.LoadAll()
	if err != nil {
		return Result{}, errors.Wrap(err, "load history")
	}

	deltas, err := ComputeDeltas(history, t.account, snapshot)
	if err != nil {
		return Result{}, errors.Wrap(err, "compute deltas")
	}

	rec := BuildRecord(t.account, snapshot, deltas)
	if err := t.store.Append(rec); err != nil {
		return Result{}, errors.Wrap(err, "append history record")
	}

	l.Info("history record appended",
		zap.String("block_time", rec.BlockTime),
		zap.String("balance", rec.Balance),
		zap.String("change_in_balance", rec.ChangeInBalance),
		zap.String("change_in_shares", rec.ChangeInShares),
		zap.Int("history_len", len(history)+1),
	)

	if t.journal != nil {
		entry := journal.Entry{RunID: runID, RecordedAt: t.now().UTC(), Record: rec}
		if err := t.journal.Save(entry); err != nil {
			l.Warn("failed to journal history record", zap.Error(err))
		}
	}

	result := Result{
		RunID:   runID,
		Record:  rec,
		History: append(history, rec),
	}

	if t.out != nil {
		if err := render.History(t.out, result.History, t.account, t.showRows); err != nil {
			l.Warn("failed to print history", zap.Error(err))
		}
	}

	return result, nil
}

// Schedule runs RunOnce on a cron schedule until ctx is cancelled.
// A run still in progress when the next tick fires makes that tick skip.
func (t *Tracker) Schedule(ctx context.Context, spec string) error {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	_, err := c.AddFunc(spec, func() {
		if _, err := t.RunOnce(ctx); err != nil {
			t.l.Error("scheduled run failed", zap.Error(err))
		}
	})
	if err != nil {
		return errors.Wrapf(err, "invalid schedule %q", spec)
	}

	c.Start()
	t.l.Info("scheduler started", zap.String("schedule", spec))

	<-ctx.Done()
	<-c.Stop().Done()
	t.l.Info("scheduler stopped")

	return nil
}
