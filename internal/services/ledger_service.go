package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"giaodich/internal/amqp"
	"giaodich/internal/cache"
	"giaodich/internal/core"
	"giaodich/internal/ledger"
	"giaodich/internal/loader"
	"giaodich/internal/log"
	"giaodich/internal/report"
	"giaodich/internal/storage"
)

var (
	ErrNotFound     = errors.New("transaction not found")
	ErrDuplicateID  = errors.New("transaction id already recorded")
	ErrRateConflict = core.ErrRateConflict
)

// Store persists ledger mutations.
type Store interface {
	SaveTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
}

// Publisher announces ledger mutations.
type Publisher interface {
	PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
}

// LedgerService is the concurrency-safe entry point to a ledger. Writes go
// to the store first, then to the in-memory ledger, then out as events.
type LedgerService struct {
	mu     sync.RWMutex
	ledger *ledger.Ledger
	rates  *core.RateTable

	store     Store
	publisher Publisher
	reports   cache.Cache[report.Report]
	logger    *log.Logger
}

type Option func(*LedgerService)

func WithStore(store Store) Option {
	return func(s *LedgerService) { s.store = store }
}

func WithPublisher(publisher Publisher) Option {
	return func(s *LedgerService) { s.publisher = publisher }
}

// WithReportCache memoises Report results until the next mutation.
func WithReportCache(c cache.Cache[report.Report]) Option {
	return func(s *LedgerService) { s.reports = c }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *LedgerService) { s.logger = logger.WithComponent(log.ComponentLedger) }
}

// NewLedgerService builds a ledger from ds. A nil dataset starts empty.
func NewLedgerService(ds *loader.Dataset, opts ...Option) *LedgerService {
	s := &LedgerService{
		ledger: ledger.New(),
		rates:  core.NewRateTable(),
		logger: log.Default().WithComponent(log.ComponentLedger),
	}
	if ds != nil {
		ds.Populate(s.ledger)
		if ds.Rates != nil {
			s.rates = ds.Rates
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record adds tx to the ledger. The id must be unused, and a currency
// transaction's rate must agree with any rate already registered under its id.
func (s *LedgerService) Record(ctx context.Context, tx core.Transaction) error {
	s.mu.Lock()
	err := s.recordLocked(ctx, tx)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.recorded(ctx, tx)
	return nil
}

// RecordWithNextID builds a transaction with the next free id and records it.
// The id is allocated and used under the same write lock, so concurrent
// callers never receive the same one.
func (s *LedgerService) RecordWithNextID(ctx context.Context, build func(id int64) (core.Transaction, error)) (core.Transaction, error) {
	s.mu.Lock()
	tx, err := build(s.nextID())
	if err == nil {
		err = s.recordLocked(ctx, tx)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.recorded(ctx, tx)
	return tx, nil
}

func (s *LedgerService) recordLocked(ctx context.Context, tx core.Transaction) error {
	if _, exists := s.ledger.Find(tx.ID()); exists {
		return fmt.Errorf("transaction %d: %w", tx.ID(), ErrDuplicateID)
	}
	if ct, ok := tx.(*core.CurrencyTransaction); ok && ct.ExchangeRate() != nil {
		rate := ct.ExchangeRate()
		if known, ok := s.rates.Get(rate.ID()); ok && !known.Equal(rate) {
			return fmt.Errorf("exchange rate %d: %w", rate.ID(), ErrRateConflict)
		}
	}

	if s.store != nil {
		if err := s.store.SaveTransaction(ctx, tx); err != nil {
			return fmt.Errorf("save transaction: %w", err)
		}
	}
	if ct, ok := tx.(*core.CurrencyTransaction); ok && ct.ExchangeRate() != nil {
		s.rates.Register(ct.ExchangeRate())
	}
	s.ledger.Add(tx)
	s.invalidate()
	return nil
}

func (s *LedgerService) recorded(ctx context.Context, tx core.Transaction) {
	s.logger.InfoContext(ctx, "Transaction recorded", log.NewFields().
		WithOperation(log.OpRecord).
		WithTransaction(tx).
		ToSlice()...)
	s.publish(ctx, amqp.EventRecorded, tx)
}

// Remove deletes the transaction with the given id and returns it. The
// ledger's incremental counters are left as they were.
func (s *LedgerService) Remove(ctx context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	tx, ok := s.ledger.Find(id)
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}

	if s.store != nil {
		err := s.store.DeleteTransaction(ctx, id)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			s.logger.WarnContext(ctx, "Transaction missing from store, removing from ledger only",
				log.FieldTransactionID, id)
		case err != nil:
			s.mu.Unlock()
			return nil, fmt.Errorf("delete transaction: %w", err)
		}
	}
	s.ledger.Remove(tx)
	s.invalidate()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Transaction removed", log.NewFields().
		WithOperation(log.OpRemove).
		WithTransaction(tx).
		ToSlice()...)
	s.publish(ctx, amqp.EventRemoved, tx)
	return tx, nil
}

// Transactions returns the transactions that fall in window relative to today.
func (s *LedgerService) Transactions(window report.Window, today core.Date) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return report.Apply(window, s.ledger.List(), today)
}

// Report builds the summary and rows for window relative to today.
func (s *LedgerService) Report(window report.Window, today core.Date) (report.Report, error) {
	key := reportKey(window, today)
	if s.reports != nil {
		if r, ok := s.reports.Get(key); ok {
			return r, nil
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := report.Build(window, s.ledger.List(), today)
	if err != nil {
		return report.Report{}, err
	}
	// Stored under the read lock so a concurrent mutation cannot purge
	// before this result lands.
	if s.reports != nil {
		s.reports.Set(key, r)
	}
	return r, nil
}

// Counters returns the ledger's incremental counters. After a Remove they
// can disagree with a Summarize over the full list.
func (s *LedgerService) Counters() ledger.Counters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Counters()
}

func (s *LedgerService) Rates() []*core.ExchangeRate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rates.All()
}

func (s *LedgerService) Rate(id int64) (*core.ExchangeRate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rates.Get(id)
}

// nextID returns one more than the largest id in the ledger. The caller
// holds s.mu.
func (s *LedgerService) nextID() int64 {
	ids := make([]int64, 0, s.ledger.Len())
	for _, tx := range s.ledger.List() {
		ids = append(ids, tx.ID())
	}
	if len(ids) == 0 {
		return 1
	}
	return slices.Max(ids) + 1
}

func (s *LedgerService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Len()
}

// invalidate must be called with the write lock held.
func (s *LedgerService) invalidate() {
	if s.reports != nil {
		s.reports.Purge()
	}
}

func (s *LedgerService) publish(ctx context.Context, eventType amqp.EventType, tx core.Transaction) {
	if s.publisher == nil {
		return
	}
	event := amqp.NewTransactionEvent(eventType, tx)
	if err := s.publisher.PublishTransactionEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldEventID, event.EventID,
			log.FieldTransactionID, tx.ID(),
			log.FieldError, err)
	}
}

func reportKey(window report.Window, today core.Date) string {
	return string(window) + "|" + today.String()
}
