package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/export"
	applog "tally/internal/log"
	"tally/internal/metrics"
	"tally/internal/realtime"
	"tally/internal/store"
)

// ErrEmptyPatch is returned by Update when the patch changes nothing.
var ErrEmptyPatch = errors.New("patch has no fields")

// ExportResult is a rendered export ready to be served or written.
type ExportResult struct {
	Body     string
	FileName string
	MimeType string
}

// ExpenseService orchestrates expense operations across the store, the
// per-user list cache and change publishers.
type ExpenseService struct {
	store     store.ExpenseStore
	publisher realtime.Publisher
	lists     cache.Cache[[]core.Expense]
	exporter  *export.Exporter
	metrics   *metrics.Metrics
	logger    *applog.Logger
	now       func() time.Time

	// versions counts writes per user so a list read from the store is
	// not cached over a newer change.
	mu       sync.Mutex
	versions map[string]uint64
}

type Option func(*ExpenseService)

// WithPublisher sets where change events go after a successful write.
func WithPublisher(p realtime.Publisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

// WithListCache caches each user's full expense list.
func WithListCache(c cache.Cache[[]core.Expense]) Option {
	return func(s *ExpenseService) { s.lists = c }
}

func WithExporter(x *export.Exporter) Option {
	return func(s *ExpenseService) { s.exporter = x }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ExpenseService) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

func NewExpenseService(st store.ExpenseStore, logger *applog.Logger, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store:    st,
		exporter: export.New(),
		logger:   logger.WithComponent(applog.ComponentExpense),
		now:      time.Now,
		versions: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new expense and announces it.
func (s *ExpenseService) Create(ctx context.Context, userID string, in core.NewExpense) (core.Expense, error) {
	e, err := s.store.Create(ctx, userID, in)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	s.changed(ctx, realtime.NewEvent(realtime.Insert, userID, e, s.now()))
	return e, nil
}

// Update applies a partial update and announces the result.
func (s *ExpenseService) Update(ctx context.Context, userID, id string, patch core.ExpensePatch) (core.Expense, error) {
	if patch.IsEmpty() {
		return core.Expense{}, ErrEmptyPatch
	}
	e, err := s.store.Update(ctx, userID, id, patch)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.changed(ctx, realtime.NewEvent(realtime.Update, userID, e, s.now()))
	return e, nil
}

// Delete removes an expense and announces it.
func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	e, err := s.store.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.changed(ctx, realtime.NewEvent(realtime.Delete, userID, e, s.now()))
	return nil
}

func (s *ExpenseService) Get(ctx context.Context, userID, id string) (core.Expense, error) {
	e, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// List returns the user's expenses matching opts, newest first.
func (s *ExpenseService) List(ctx context.Context, userID string, opts core.FilterOptions) ([]core.Expense, error) {
	all, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.Filter(all, opts), nil
}

// Summarize aggregates the user's expenses matching opts.
func (s *ExpenseService) Summarize(ctx context.Context, userID string, opts core.FilterOptions) (core.Summary, error) {
	list, err := s.List(ctx, userID, opts)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(list), nil
}

// Export renders the user's expenses matching filter in the requested format.
func (s *ExpenseService) Export(ctx context.Context, userID string, filter core.FilterOptions, opts export.Options) (ExportResult, error) {
	list, err := s.List(ctx, userID, filter)
	if err != nil {
		return ExportResult{}, err
	}

	report, err := s.exporter.Render(list, opts)
	s.metrics.ObserveExport(string(opts.Format), err)
	if err != nil {
		return ExportResult{}, err
	}

	s.logger.InfoContext(ctx, "Expenses exported",
		applog.NewFields().WithUser(userID).WithOperation(applog.OpExport).WithExport(string(opts.Format), len(list)).ToSlice()...)

	return ExportResult{
		Body:     report.Body,
		FileName: report.FileName,
		MimeType: export.MimeType(opts.Format),
	}, nil
}

func (s *ExpenseService) load(ctx context.Context, userID string) ([]core.Expense, error) {
	if s.lists != nil {
		list, ok := s.lists.Get(userID)
		s.metrics.ObserveCache(ok)
		if ok {
			return list, nil
		}
	}
	s.mu.Lock()
	version := s.versions[userID]
	s.mu.Unlock()

	list, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if s.lists != nil {
		s.mu.Lock()
		if s.versions[userID] == version {
			s.lists.Set(userID, list)
		}
		s.mu.Unlock()
	}
	return list, nil
}

// changed patches the cached list and publishes ev. Publish failures are
// logged; the write already succeeded.
func (s *ExpenseService) changed(ctx context.Context, ev realtime.ChangeEvent) {
	s.mu.Lock()
	s.versions[ev.UserID]++
	if s.lists != nil {
		s.lists.Update(ev.UserID, func(list []core.Expense) []core.Expense {
			return realtime.Apply(list, ev)
		})
	}
	s.mu.Unlock()
	s.metrics.ObserveChange(string(ev.Type))

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change event",
			applog.FieldEventType, ev.Type,
			applog.FieldUserID, ev.UserID,
			applog.FieldExpenseID, ev.ExpenseID,
			applog.FieldError, err)
	}
}

// Close closes the underlying store.
func (s *ExpenseService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close expense service: %w", err)
	}
	return nil
}
