package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"giaodich/internal/core"
	"giaodich/internal/ledger"
	"giaodich/internal/report"
)

const sample = `{
  "transactions": [
    {"type": "gold", "id": 1, "day": 10, "month": 6, "year": 2024,
     "unit_price": 2000, "quantity": 3, "gold_type": 0},
    {"type": "currency", "id": 2, "day": 11, "month": 6, "year": 2024,
     "quantity": 100, "currency_type": 1,
     "exchange_rate": {"id": 5, "currency_type": 1, "rate": 24000,
                       "effective_day": 1, "effective_month": 6, "effective_year": 2024}},
    {"type": "stock", "id": 3, "day": 1, "month": 1, "year": 2024, "quantity": 1},
    {"type": "currency", "id": 4, "day": 12, "month": 6, "year": 2024,
     "quantity": 5, "currency_type": 1,
     "exchange_rate": {"id": 5, "currency_type": 1, "rate": 24000,
                       "effective_day": 1, "effective_month": 6, "effective_year": 2024}}
  ],
  "exchange_rates": [
    {"id": 5, "currency_type": 1, "rate": 24000,
     "effective_day": 1, "effective_month": 6, "effective_year": 2024},
    {"id": 6, "currency_type": 2, "rate": 26000,
     "effective_day": 1, "effective_month": 6, "effective_year": 2024}
  ]
}`

func TestDecodeSample(t *testing.T) {
	ds, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ds.Transactions) != 3 || ds.Skipped != 1 {
		t.Fatalf("got %d transactions, %d skipped", len(ds.Transactions), ds.Skipped)
	}
	if ds.Rates.Len() != 2 {
		t.Fatalf("rates = %d, want 2", ds.Rates.Len())
	}

	a := ds.Transactions[1].(*core.CurrencyTransaction)
	b := ds.Transactions[2].(*core.CurrencyTransaction)
	if a.ExchangeRate() != b.ExchangeRate() {
		t.Fatalf("transactions with the same rate id should share the record")
	}
	if canonical, _ := ds.Rates.Get(5); canonical != a.ExchangeRate() {
		t.Fatalf("transaction rate should be the table's record")
	}

	l := ledger.New()
	ds.Populate(l)
	got := report.Summarize(report.FilterAll(l.List()))
	if got.GoldTotalAmount != 6000 || got.CurrencyTotalAmount != 2520000 || got.GrandCount != 3 {
		t.Fatalf("unexpected summary %+v", got)
	}
}

func TestDecodeInvalidEnum(t *testing.T) {
	cases := []string{
		`{"transactions":[{"type":"gold","id":1,"day":1,"month":1,"year":2024,"unit_price":1,"quantity":1,"gold_type":3}]}`,
		`{"transactions":[{"type":"currency","id":1,"day":1,"month":1,"year":2024,"quantity":1,"currency_type":7,
		  "exchange_rate":{"id":1,"currency_type":1,"rate":1,"effective_day":1,"effective_month":1,"effective_year":2024}}]}`,
		`{"exchange_rates":[{"id":1,"currency_type":-1,"rate":1,"effective_day":1,"effective_month":1,"effective_year":2024}]}`,
	}
	for i, in := range cases {
		if _, err := Decode(strings.NewReader(in)); !errors.Is(err, core.ErrInvalidEnumValue) {
			t.Fatalf("case %d: expected ErrInvalidEnumValue, got %v", i, err)
		}
	}
}

func TestDecodeMissingFields(t *testing.T) {
	cases := []string{
		`{"transactions":[{"type":"gold","id":1,"day":1,"month":1,"year":2024,"quantity":1,"gold_type":0}]}`,
		`{"transactions":[{"type":"currency","id":1,"day":1,"month":1,"year":2024,"quantity":1,"currency_type":1}]}`,
	}
	for i, in := range cases {
		if _, err := Decode(strings.NewReader(in)); !errors.Is(err, ErrMissingField) {
			t.Fatalf("case %d: expected ErrMissingField, got %v", i, err)
		}
	}
}

func TestDecodeConflictingRates(t *testing.T) {
	cases := map[string]string{
		"standalone and embedded": `{
		  "transactions": [
		    {"type": "currency", "id": 1, "day": 2, "month": 1, "year": 2024,
		     "quantity": 100, "currency_type": 1,
		     "exchange_rate": {"id": 1, "currency_type": 1, "rate": 24000,
		                       "effective_day": 1, "effective_month": 1, "effective_year": 2024}}
		  ],
		  "exchange_rates": [
		    {"id": 1, "currency_type": 1, "rate": 25000,
		     "effective_day": 1, "effective_month": 1, "effective_year": 2024}
		  ]
		}`,
		"two embedded": `{
		  "transactions": [
		    {"type": "currency", "id": 2, "day": 2, "month": 1, "year": 2024,
		     "quantity": 100, "currency_type": 2,
		     "exchange_rate": {"id": 9, "currency_type": 2, "rate": 26000,
		                       "effective_day": 1, "effective_month": 1, "effective_year": 2024}},
		    {"type": "currency", "id": 3, "day": 3, "month": 1, "year": 2024,
		     "quantity": 100, "currency_type": 2,
		     "exchange_rate": {"id": 9, "currency_type": 2, "rate": 27000,
		                       "effective_day": 1, "effective_month": 1, "effective_year": 2024}}
		  ]
		}`,
		"two standalone": `{
		  "exchange_rates": [
		    {"id": 4, "currency_type": 1, "rate": 24000,
		     "effective_day": 1, "effective_month": 1, "effective_year": 2024},
		    {"id": 4, "currency_type": 1, "rate": 24000,
		     "effective_day": 2, "effective_month": 1, "effective_year": 2024}
		  ]
		}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			ds, err := Decode(strings.NewReader(in))
			if !errors.Is(err, core.ErrRateConflict) {
				t.Fatalf("expected ErrRateConflict, got dataset %+v, err %v", ds, err)
			}
		})
	}
}

func TestDecodeMalformedJSON(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"transactions": [`)); err == nil {
		t.Fatalf("expected error for malformed json")
	}
}

func TestDecodeEmptyObject(t *testing.T) {
	ds, err := Decode(strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ds.Transactions) != 0 || ds.Rates.Len() != 0 {
		t.Fatalf("expected empty dataset, got %+v", ds)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadFile(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}

	path := filepath.Join(dir, "data.json")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ds, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(ds.Transactions) != 3 {
		t.Fatalf("got %d transactions", len(ds.Transactions))
	}
}
