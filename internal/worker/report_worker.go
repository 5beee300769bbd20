// Package worker keeps the exported report in step with the ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"giaodich/internal/amqp"
	"giaodich/internal/core"
	"giaodich/internal/log"
	"giaodich/internal/report"
	"giaodich/internal/services"
	"giaodich/internal/sheets"
)

// ReportWorker rebuilds one window's report from the persisted dataset and
// hands it to an exporter, after every transaction event and on a timer.
type ReportWorker struct {
	loader   services.DatasetLoader
	exporter sheets.ReportExporter
	window   report.Window
	now      func() time.Time
	logger   *log.Logger
	limiter  *rate.Limiter
	// handled remembers event ids exported recently; brokers redeliver.
	handled  *gocache.Cache

	// mu serialises exports so a sheet is never cleared mid-write.
	mu       sync.Mutex
	exported int
}

// DefaultExportLimit keeps two Sheets calls per export within the API's
// per-minute write quota.
const DefaultExportLimit = rate.Limit(0.5)

const defaultExportBurst = 3

// HandledEventTTL is how long a handled event id is remembered.
const HandledEventTTL = 10 * time.Minute

type Option func(*ReportWorker)

// WithExportLimit bounds how often reports are exported. Bursts of events
// wait for a token instead of being dropped.
func WithExportLimit(limit rate.Limit, burst int) Option {
	return func(w *ReportWorker) { w.limiter = rate.NewLimiter(limit, burst) }
}

func WithClock(now func() time.Time) Option {
	return func(w *ReportWorker) { w.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(w *ReportWorker) { w.logger = logger.WithComponent(log.ComponentWorker) }
}

func NewReportWorker(loader services.DatasetLoader, exporter sheets.ReportExporter, window report.Window, opts ...Option) *ReportWorker {
	w := &ReportWorker{
		loader:   loader,
		exporter: exporter,
		window:   window,
		now:      time.Now,
		logger:   log.Default().WithComponent(log.ComponentWorker),
		limiter:  rate.NewLimiter(DefaultExportLimit, defaultExportBurst),
		handled:  gocache.New(HandledEventTTL, 2*HandledEventTTL),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Export loads the dataset, builds the report for today and exports it.
func (w *ReportWorker) Export(ctx context.Context) (report.Report, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return report.Report{}, fmt.Errorf("wait for export slot: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	ds, err := w.loader.Load(ctx)
	if err != nil {
		return report.Report{}, fmt.Errorf("load dataset: %w", err)
	}
	today := core.DateOf(w.now())
	rep, err := report.Build(w.window, ds.Transactions, today)
	if err != nil {
		return report.Report{}, fmt.Errorf("build report: %w", err)
	}
	if err := w.exporter.ExportReport(ctx, rep); err != nil {
		return report.Report{}, fmt.Errorf("export report: %w", err)
	}
	w.exported++

	w.logger.InfoContext(ctx, "Report exported", log.NewFields().
		WithOperation(log.OpExport).
		WithWindow(string(w.window), today).
		ToSlice()...)
	return rep, nil
}

// HandleEvent is an amqp.EventHandler. A failed export is returned so the
// event is redelivered; a redelivered event that was already exported is
// acknowledged without exporting again.
func (w *ReportWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	w.logger.DebugContext(ctx, "Processing transaction event",
		log.FieldEventID, event.EventID,
		log.FieldEventType, string(event.Type),
		log.FieldTransactionID, event.TransactionID)

	if _, seen := w.handled.Get(event.EventID); seen {
		w.logger.DebugContext(ctx, "Skipping already handled event", log.FieldEventID, event.EventID)
		return nil
	}

	if _, err := w.Export(ctx); err != nil {
		return fmt.Errorf("event %s: %w", event.EventID, err)
	}
	w.handled.SetDefault(event.EventID, struct{}{})
	return nil
}

// Run exports once immediately and then on every tick until ctx is done.
// Export failures are logged and retried on the next tick.
func (w *ReportWorker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("export interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := w.Export(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "Periodic export failed", log.NewFields().
				WithOperation(log.OpExport).
				WithError(err).
				ToSlice()...)
		}
		select {
		case <-ctx.Done():
			w.logger.Info("Report worker stopped", log.FieldCount, w.Exported())
			return nil
		case <-ticker.C:
		}
	}
}

// Exported returns how many reports were exported successfully.
func (w *ReportWorker) Exported() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exported
}
