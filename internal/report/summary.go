package report

import (
	"giaodich/internal/core"
)

// Summary holds counts and VND totals split by transaction variant.
type Summary struct {
	GoldCount           int     `json:"gold_count"`
	CurrencyCount       int     `json:"currency_count"`
	GoldTotalAmount     float64 `json:"gold_total_amount"`
	CurrencyTotalAmount float64 `json:"currency_total_amount"`
	GrandCount          int     `json:"grand_count"`
	GrandTotalAmount    float64 `json:"grand_total_amount"`
}

// Summarize scans txs from scratch. It never reads a ledger's counters, so
// the result stays exact after removals.
func Summarize(txs []core.Transaction) Summary {
	var s Summary
	for _, tx := range txs {
		switch t := tx.(type) {
		case *core.GoldTransaction:
			s.GoldCount++
			s.GoldTotalAmount += t.TotalAmount()
		case *core.CurrencyTransaction:
			s.CurrencyCount++
			s.CurrencyTotalAmount += t.TotalAmount()
		case *core.PricedTransaction:
			// neither gold nor currency
		}
	}
	s.GrandCount = s.GoldCount + s.CurrencyCount
	s.GrandTotalAmount = s.GoldTotalAmount + s.CurrencyTotalAmount
	return s
}

// GoldRow is one line of the gold table.
type GoldRow struct {
	ID          int64         `json:"id"`
	Date        core.Date     `json:"date"`
	UnitPrice   float64       `json:"unit_price"`
	Quantity    float64       `json:"quantity"`
	GoldType    core.GoldType `json:"gold_type"`
	TotalAmount float64       `json:"total_amount"`
}

// CurrencyRow is one line of the currency table.
type CurrencyRow struct {
	ID           int64             `json:"id"`
	Date         core.Date         `json:"date"`
	Quantity     float64           `json:"quantity"`
	CurrencyType core.CurrencyType `json:"currency_type"`
	ExchangeRate float64           `json:"exchange_rate"`
	TotalAmount  float64           `json:"total_amount"`
}

// Report is everything shown for one window: the summary block followed by
// the gold and currency tables.
type Report struct {
	Window   Window        `json:"window"`
	Today    core.Date     `json:"today"`
	Summary  Summary       `json:"summary"`
	Gold     []GoldRow     `json:"gold"`
	Currency []CurrencyRow `json:"currency"`
}

// Build filters txs by w and lays the subset out as a Report.
func Build(w Window, txs []core.Transaction, today core.Date) (Report, error) {
	subset, err := Apply(w, txs, today)
	if err != nil {
		return Report{}, err
	}
	r := Report{
		Window:   w,
		Today:    today,
		Summary:  Summarize(subset),
		Gold:     make([]GoldRow, 0),
		Currency: make([]CurrencyRow, 0),
	}
	for _, tx := range subset {
		switch t := tx.(type) {
		case *core.GoldTransaction:
			price, _ := t.UnitPrice()
			r.Gold = append(r.Gold, GoldRow{
				ID:          t.ID(),
				Date:        t.Date(),
				UnitPrice:   price,
				Quantity:    t.Quantity(),
				GoldType:    t.GoldType(),
				TotalAmount: t.TotalAmount(),
			})
		case *core.CurrencyTransaction:
			row := CurrencyRow{
				ID:           t.ID(),
				Date:         t.Date(),
				Quantity:     t.Quantity(),
				CurrencyType: t.Currency(),
				ExchangeRate: 1,
				TotalAmount:  t.TotalAmount(),
			}
			if rate := t.ExchangeRate(); rate != nil {
				row.ExchangeRate = rate.Rate()
			}
			r.Currency = append(r.Currency, row)
		}
	}
	return r, nil
}
