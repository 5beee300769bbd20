package worker

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"giaodich/internal/amqp"
	"giaodich/internal/core"
	"giaodich/internal/loader"
	"giaodich/internal/log"
	"giaodich/internal/report"
	"giaodich/internal/services"
	"giaodich/internal/sheets/memory"
)

var fixedNow = time.Date(2025, time.January, 20, 12, 0, 0, 0, time.UTC)

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func datasetLoader(t *testing.T) services.DatasetLoader {
	t.Helper()
	gold, err := core.NewGoldTransaction(1, core.NewDate(2025, 1, 5), 2000, 3, core.SJC)
	if err != nil {
		t.Fatal(err)
	}
	old, err := core.NewGoldTransaction(2, core.NewDate(2024, 12, 5), 1000, 1, core.PNJ)
	if err != nil {
		t.Fatal(err)
	}
	ds := &loader.Dataset{Transactions: []core.Transaction{gold, old}, Rates: core.NewRateTable()}
	return services.LoaderFunc(func(context.Context) (*loader.Dataset, error) { return ds, nil })
}

type failingExporter struct{ err error }

func (f failingExporter) ExportReport(context.Context, report.Report) error { return f.err }

func newWorker(l services.DatasetLoader, exp interface {
	ExportReport(context.Context, report.Report) error
}, window report.Window) *ReportWorker {
	return NewReportWorker(l, exp, window,
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(quietLogger()),
		WithExportLimit(rate.Inf, 1))
}

func TestExportBuildsWindowReport(t *testing.T) {
	store := memory.New()
	w := newWorker(datasetLoader(t), store, report.ThisMonth)

	rep, err := w.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if rep.Summary.GoldCount != 1 || rep.Summary.GoldTotalAmount != 6000 {
		t.Errorf("summary = %+v", rep.Summary)
	}
	last, ok := store.Last()
	if !ok {
		t.Fatal("nothing exported")
	}
	if last.Report.Window != report.ThisMonth || last.Report.Today != core.NewDate(2025, 1, 20) {
		t.Errorf("exported window=%s today=%v", last.Report.Window, last.Report.Today)
	}
	if len(last.Rows) == 0 {
		t.Error("exported rows are empty")
	}
	if w.Exported() != 1 {
		t.Errorf("exported = %d, want 1", w.Exported())
	}
}

func TestExportErrors(t *testing.T) {
	loadErr := errors.New("disk gone")
	exportErr := errors.New("quota exceeded")

	tests := []struct {
		name    string
		loader  services.DatasetLoader
		export  error
		window  report.Window
		wantErr error
	}{
		{
			name:    "load failure",
			loader:  services.LoaderFunc(func(context.Context) (*loader.Dataset, error) { return nil, loadErr }),
			window:  report.All,
			wantErr: loadErr,
		},
		{
			name:    "export failure",
			export:  exportErr,
			window:  report.All,
			wantErr: exportErr,
		},
		{
			name:    "unknown window",
			window:  report.Window("yesterday"),
			wantErr: report.ErrUnknownWindow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.loader
			if l == nil {
				l = datasetLoader(t)
			}
			w := newWorker(l, failingExporter{err: tt.export}, tt.window)
			if _, err := w.Export(context.Background()); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if w.Exported() != 0 {
				t.Errorf("exported = %d, want 0", w.Exported())
			}
		})
	}
}

func TestHandleEventExports(t *testing.T) {
	store := memory.New()
	w := newWorker(datasetLoader(t), store, report.All)

	tx, err := core.NewGoldTransaction(1, core.NewDate(2025, 1, 5), 2000, 3, core.SJC)
	if err != nil {
		t.Fatal(err)
	}
	event := amqp.NewTransactionEvent(amqp.EventRecorded, tx)
	if err := w.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if store.Count() != 1 {
		t.Fatalf("exports = %d, want 1", store.Count())
	}
	last, _ := store.Last()
	if last.Report.Summary.GrandCount != 2 {
		t.Errorf("grand count = %d, want 2", last.Report.Summary.GrandCount)
	}
}

func TestHandleEventReturnsExportError(t *testing.T) {
	w := newWorker(datasetLoader(t), failingExporter{err: errors.New("boom")}, report.All)
	tx, _ := core.NewGoldTransaction(1, core.NewDate(2025, 1, 5), 2000, 3, core.SJC)
	if err := w.HandleEvent(context.Background(), amqp.NewTransactionEvent(amqp.EventRemoved, tx)); err == nil {
		t.Fatal("expected error so the event is redelivered")
	}
}

func TestRunExportsUntilCancelled(t *testing.T) {
	store := memory.New()
	w := newWorker(datasetLoader(t), store, report.All)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, 10*time.Millisecond) }()

	deadline := time.After(2 * time.Second)
	for store.Count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("only %d exports before deadline", store.Count())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunRejectsNonPositiveInterval(t *testing.T) {
	w := newWorker(datasetLoader(t), memory.New(), report.All)
	if err := w.Run(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func TestExportFromDataFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	data := `{"exchange_rates":[{"id":1,"currency_type":1,"rate":24000,"effective_day":1,"effective_month":1,"effective_year":2025}],
"transactions":[{"type":"currency","id":2,"day":6,"month":1,"year":2025,"quantity":100,"currency_type":1,
"exchange_rate":{"id":1,"currency_type":1,"rate":24000,"effective_day":1,"effective_month":1,"effective_year":2025}}]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	store := memory.New()
	w := newWorker(services.FileLoader(path), store, report.ThisMonth)

	rep, err := w.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if rep.Summary.CurrencyTotalAmount != 2_400_000 {
		t.Errorf("currency total = %v, want 2400000", rep.Summary.CurrencyTotalAmount)
	}
}

func TestExportLimitDefersBursts(t *testing.T) {
	store := memory.New()
	w := NewReportWorker(datasetLoader(t), store, report.All,
		WithLogger(quietLogger()),
		WithExportLimit(rate.Every(time.Hour), 1))

	if _, err := w.Export(context.Background()); err != nil {
		t.Fatalf("first export: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := w.Export(ctx); err == nil {
		t.Fatal("second export should wait past the deadline")
	}
	if store.Count() != 1 {
		t.Errorf("exports = %d, want 1", store.Count())
	}
}

func TestHandleEventSkipsRedelivery(t *testing.T) {
	store := memory.New()
	w := newWorker(datasetLoader(t), store, report.All)

	tx, _ := core.NewGoldTransaction(1, core.NewDate(2025, 1, 5), 2000, 3, core.SJC)
	event := amqp.NewTransactionEvent(amqp.EventRecorded, tx)
	for i := 0; i < 3; i++ {
		if err := w.HandleEvent(context.Background(), event); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	if store.Count() != 1 {
		t.Errorf("exports = %d, want 1", store.Count())
	}

	other := amqp.NewTransactionEvent(amqp.EventRemoved, tx)
	if err := w.HandleEvent(context.Background(), other); err != nil {
		t.Fatal(err)
	}
	if store.Count() != 2 {
		t.Errorf("exports = %d, want 2 after a new event", store.Count())
	}
}

func TestHandleEventRetriesFailedEvent(t *testing.T) {
	exp := &flakyExporter{failures: 1}
	w := newWorker(datasetLoader(t), exp, report.All)

	tx, _ := core.NewGoldTransaction(1, core.NewDate(2025, 1, 5), 2000, 3, core.SJC)
	event := amqp.NewTransactionEvent(amqp.EventRecorded, tx)
	if err := w.HandleEvent(context.Background(), event); err == nil {
		t.Fatal("first delivery should fail")
	}
	if err := w.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if exp.calls != 2 {
		t.Errorf("export calls = %d, want 2", exp.calls)
	}
}

type flakyExporter struct {
	failures int
	calls    int
}

func (f *flakyExporter) ExportReport(context.Context, report.Report) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("temporary failure")
	}
	return nil
}
