package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"masarif/internal/core"
	"masarif/internal/ledger"
	applog "masarif/internal/log"
)

// Publisher announces recorded expenses. *amqp.Client satisfies it.
type Publisher interface {
	PublishExpenseRecorded(ctx context.Context, e core.Expense) error
}

// ExpenseService serializes every operation on the expense log: one
// logical writer, snapshots handed out to readers.
type ExpenseService struct {
	mu         sync.Mutex
	store      *ledger.Store
	normalizer *core.Normalizer
	ids        *core.MonotonicIDs
	registry   *core.Registry
	publisher  Publisher
	clock      core.Clock
	location   *time.Location
	logger     *applog.Logger
	closers    []func() error
}

// Options wires an ExpenseService. Only Store is required.
type Options struct {
	Store     *ledger.Store
	Registry  *core.Registry
	Publisher Publisher
	Clock     core.Clock
	Location  *time.Location
	Logger    *applog.Logger
	// Closers run on Close, in order.
	Closers []func() error
}

func NewExpenseService(opts Options) *ExpenseService {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	reg := opts.Registry
	if reg == nil {
		reg = core.DefaultRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}

	normalizer := core.NewNormalizer(clock, loc)
	ids := core.NewMonotonicIDs(clock)
	normalizer.IDs = ids

	return &ExpenseService{
		store:      opts.Store,
		normalizer: normalizer,
		ids:        ids,
		registry:   reg,
		publisher:  opts.Publisher,
		clock:      clock,
		location:   loc,
		logger:     logger.WithComponent(applog.ComponentExpense),
		closers:    opts.Closers,
	}
}

// Load reads the stored log. A corrupt blob is logged and the service
// continues with an empty log; only I/O failures are returned.
func (s *ExpenseService) Load(ctx context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, err := s.store.Load(ctx)
	if err != nil && !errors.Is(err, core.ErrStorageCorrupt) {
		return nil, err
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Continuing with an empty log", applog.FieldError, err)
	}
	s.ids.Observe(ledger.MaxID(log))
	return log, nil
}

// Record normalizes in, appends the record and publishes an event. Nothing
// is persisted when validation fails. Publish failures are logged only.
func (s *ExpenseService) Record(ctx context.Context, in core.RawInput) (core.Expense, error) {
	e, err := s.append(ctx, in)
	if err != nil {
		return core.Expense{}, err
	}

	s.logger.InfoContext(ctx, "Expense recorded",
		applog.NewFields().WithExpense(e).WithOperation(applog.OpCreate).ToSlice()...)
	if !s.registry.Has(e.Category) {
		s.logger.WarnContext(ctx, "Expense recorded under an unknown category",
			applog.FieldExpenseID, e.ID,
			applog.FieldCategory, e.Category)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseRecorded(ctx, e); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish expense recorded event",
				applog.FieldExpenseID, e.ID,
				applog.FieldError, err)
		}
	}
	return e, nil
}

func (s *ExpenseService) append(ctx context.Context, in core.RawInput) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.normalizer.Normalize(in)
	if err != nil {
		return core.Expense{}, err
	}
	if _, err := s.store.Append(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("record expense: %w", err)
	}
	return e, nil
}

// List returns a snapshot of the log, newest first.
func (s *ExpenseService) List(ctx context.Context) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Summary aggregates a snapshot against today. An empty today means the
// current date in the service location.
func (s *ExpenseService) Summary(ctx context.Context, today core.Date) core.Summary {
	if today == "" {
		today = s.Today()
	}
	return core.Summarize(s.List(ctx), today, s.registry)
}

// Reset clears the log and persists the empty state.
func (s *ExpenseService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset expenses: %w", err)
	}
	s.logger.InfoContext(ctx, "Expense log cleared", applog.FieldOperation, applog.OpDelete)
	return nil
}

// Purge deletes the stored log. The next state is the seed when seeding is
// on, otherwise an empty log.
func (s *ExpenseService) Purge(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Purge(ctx); err != nil {
		return err
	}
	s.ids.Observe(ledger.MaxID(s.store.Snapshot()))
	s.logger.InfoContext(ctx, "Stored expense log deleted", applog.FieldOperation, applog.OpDelete)
	return nil
}

// Today returns the current calendar date in the service location.
func (s *ExpenseService) Today() core.Date {
	return core.DateOf(s.clock().In(s.location))
}

// NewForm returns the pre-filled input for a new record.
func (s *ExpenseService) NewForm(defaultCategory string) core.RawInput {
	return core.NewForm(s.clock, s.location, defaultCategory)
}

// Registry returns the active category set.
func (s *ExpenseService) Registry() *core.Registry {
	return s.registry
}

// Close runs the configured closers and joins their errors.
func (s *ExpenseService) Close() error {
	var errs []error
	for _, c := range s.closers {
		if c == nil {
			continue
		}
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}
	return nil
}
