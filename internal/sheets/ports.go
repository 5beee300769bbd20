package sheets

import (
	"context"

	"giaodich/internal/report"
)

// ReportExporter publishes a window report to an outside sheet, replacing
// whatever an earlier export left there.
type ReportExporter interface {
	ExportReport(ctx context.Context, r report.Report) error
}

var (
	goldHeader     = []any{"ID", "Date", "Unit price", "Quantity", "Gold type", "Total amount"}
	currencyHeader = []any{"ID", "Date", "Quantity", "Currency", "Exchange rate", "Total amount"}
)

// ReportRows lays r out as sheet rows: a title line, the summary block, then
// the gold and currency tables, separated by blank rows. Amounts stay numeric
// so the sheet can format them.
func ReportRows(r report.Report) [][]any {
	s := r.Summary
	rows := [][]any{
		{"Report", r.Window.Title(), "As of", r.Today.String()},
		{},
		{"Gold transactions", s.GoldCount, s.GoldTotalAmount},
		{"Currency transactions", s.CurrencyCount, s.CurrencyTotalAmount},
		{"Total", s.GrandCount, s.GrandTotalAmount},
		{},
		{"Gold"},
		goldHeader,
	}
	for _, g := range r.Gold {
		rows = append(rows, []any{g.ID, g.Date.String(), g.UnitPrice, g.Quantity, g.GoldType.String(), g.TotalAmount})
	}

	rows = append(rows, []any{}, []any{"Currency"}, currencyHeader)
	for _, c := range r.Currency {
		rows = append(rows, []any{c.ID, c.Date.String(), c.Quantity, c.CurrencyType.String(), c.ExchangeRate, c.TotalAmount})
	}
	return rows
}
