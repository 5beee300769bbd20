package memory

import (
	"context"
	"testing"

	"giaodich/internal/core"
	"giaodich/internal/report"
)

func TestStore_ExportReport(t *testing.T) {
	s := New()
	if _, ok := s.Last(); ok {
		t.Fatal("new store should have no exports")
	}

	rate, _ := core.NewExchangeRate(1, core.USD, 24_000, core.NewDate(2025, 1, 1))
	usd, _ := core.NewCurrencyTransaction(2, core.NewDate(2025, 1, 3), 50, core.USD, rate)
	r, err := report.Build(report.All, []core.Transaction{usd}, core.NewDate(2025, 1, 20))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.ExportReport(context.Background(), r); err != nil {
		t.Fatalf("ExportReport() error = %v", err)
	}

	last, ok := s.Last()
	if !ok || s.Count() != 1 {
		t.Fatalf("expected one export, got %d", s.Count())
	}
	if last.Report.Summary.CurrencyTotalAmount != 1_200_000 {
		t.Errorf("currency total = %v, want 1200000", last.Report.Summary.CurrencyTotalAmount)
	}
	lastRow := last.Rows[len(last.Rows)-1]
	if lastRow[3] != "USD" || lastRow[4] != 24_000.0 {
		t.Errorf("currency row = %v", lastRow)
	}
}
