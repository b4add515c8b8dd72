// Package ledger owns the expense log and its persistence in a blob store.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"masarif/internal/blob"
	"masarif/internal/core"
	applog "masarif/internal/log"
)

// DefaultKey is the blob key the log is stored under.
const DefaultKey = "studentExpenses"

// Store holds the in-memory log, newest first, and mirrors every mutation
// to the blob store. It is not safe for concurrent use; callers serialize
// access (see services.ExpenseService).
type Store struct {
	blobs  blob.Store
	key    string
	seed   bool
	logger *applog.Logger
	log    []core.Expense
	seeded bool
}

// Options configures a Store.
type Options struct {
	Key    string
	Seed   bool
	Logger *applog.Logger
}

func NewStore(blobs blob.Store, opts Options) *Store {
	key := opts.Key
	if key == "" {
		key = DefaultKey
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	return &Store{
		blobs:  blobs,
		key:    key,
		seed:   opts.Seed,
		logger: logger.WithComponent(applog.ComponentLedger),
		log:    []core.Expense{},
	}
}

// Load reads the log from the blob store and makes it current.
//
// An absent blob yields the sample seed (or an empty log when seeding is
// off). A blob that exists but cannot be parsed resets the in-memory log to
// empty and returns an error wrapping core.ErrStorageCorrupt; the returned
// slice is then the empty log the caller should continue with. Seed data is
// not written back until the first mutation.
func (s *Store) Load(ctx context.Context) ([]core.Expense, error) {
	data, ok, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, blob.ErrUnreadable) {
			return s.reset(fmt.Errorf("%w: %v", core.ErrStorageCorrupt, err))
		}
		return nil, fmt.Errorf("load expenses: %w", err)
	}

	if !ok {
		s.fresh()
		s.logger.InfoContext(ctx, "No stored log, starting fresh",
			applog.FieldStorageKey, s.key,
			applog.FieldCount, len(s.log))
		return s.Snapshot(), nil
	}

	log, err := Decode(data)
	if err != nil {
		return s.reset(err)
	}
	s.log = log
	s.seeded = false
	s.logger.InfoContext(ctx, "Log loaded",
		applog.FieldStorageKey, s.key,
		applog.FieldCount, len(log))
	return s.Snapshot(), nil
}

// fresh installs the log of a store that holds nothing yet.
func (s *Store) fresh() {
	s.log = []core.Expense{}
	s.seeded = s.seed
	if s.seed {
		s.log = Seed()
	}
}

func (s *Store) reset(err error) ([]core.Expense, error) {
	s.log = []core.Expense{}
	s.seeded = false
	s.logger.Warn("Stored log is corrupt, continuing with an empty log",
		applog.FieldStorageKey, s.key,
		applog.FieldError, err)
	return s.Snapshot(), err
}

// Append prepends e, persists the new log and returns a copy of it. When
// persistence fails the in-memory log is left as it was.
func (s *Store) Append(ctx context.Context, e core.Expense) ([]core.Expense, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	for _, existing := range s.log {
		if existing.ID == e.ID {
			return nil, fmt.Errorf("%w: %d", core.ErrDuplicateID, e.ID)
		}
	}

	next := make([]core.Expense, 0, len(s.log)+1)
	next = append(next, e)
	next = append(next, s.log...)

	if err := s.Persist(ctx, next); err != nil {
		return nil, err
	}
	return s.Snapshot(), nil
}

// Persist serializes log, overwrites the stored blob and makes log current.
func (s *Store) Persist(ctx context.Context, log []core.Expense) error {
	data, err := Encode(log)
	if err != nil {
		return err
	}
	if err := s.blobs.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("persist expenses: %w", err)
	}
	s.log = core.CloneLog(log)
	s.seeded = false
	s.logger.DebugContext(ctx, "Log persisted",
		applog.FieldStorageKey, s.key,
		applog.FieldCount, len(log))
	return nil
}

// Reset clears the log and persists the empty state.
func (s *Store) Reset(ctx context.Context) error {
	return s.Persist(ctx, []core.Expense{})
}

// Purge deletes the stored blob. The store then behaves as on a first
// start: the seed when seeding is on, otherwise an empty log.
func (s *Store) Purge(ctx context.Context) error {
	if err := s.blobs.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("purge expenses: %w", err)
	}
	s.fresh()
	s.logger.InfoContext(ctx, "Stored log deleted", applog.FieldStorageKey, s.key)
	return nil
}

// Seeded reports whether the current log is the sample seed that has not
// been persisted yet.
func (s *Store) Seeded() bool {
	return s.seeded
}

// Snapshot returns a copy of the current log.
func (s *Store) Snapshot() []core.Expense {
	return core.CloneLog(s.log)
}

// Key returns the blob key the log is stored under.
func (s *Store) Key() string {
	return s.key
}

// MaxID returns the largest ID in log, or 0.
func MaxID(log []core.Expense) int64 {
	var top int64
	for _, e := range log {
		if e.ID > top {
			top = e.ID
		}
	}
	return top
}
