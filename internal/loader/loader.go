// Package loader reads the JSON data file that seeds a ledger.
//
// The file holds a "transactions" array of gold and currency records and a
// standalone "exchange_rates" array. Records with an unknown type are skipped.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"giaodich/internal/core"
	"giaodich/internal/ledger"
)

const (
	typeGold     = "gold"
	typeCurrency = "currency"
)

var ErrMissingField = errors.New("missing field")

type (
	File struct {
		Transactions  []TransactionRecord `json:"transactions"`
		ExchangeRates []RateRecord        `json:"exchange_rates"`
	}

	TransactionRecord struct {
		Type         string      `json:"type"`
		ID           int64       `json:"id"`
		Day          int         `json:"day"`
		Month        int         `json:"month"`
		Year         int         `json:"year"`
		UnitPrice    *float64    `json:"unit_price,omitempty"`
		Quantity     *float64    `json:"quantity"`
		GoldType     *int        `json:"gold_type,omitempty"`
		CurrencyType *int        `json:"currency_type,omitempty"`
		ExchangeRate *RateRecord `json:"exchange_rate,omitempty"`
	}

	RateRecord struct {
		ID             int64   `json:"id"`
		CurrencyType   int     `json:"currency_type"`
		Rate           float64 `json:"rate"`
		EffectiveDay   int     `json:"effective_day"`
		EffectiveMonth int     `json:"effective_month"`
		EffectiveYear  int     `json:"effective_year"`
	}
)

// Dataset is the fully constructed content of a data file.
type Dataset struct {
	Transactions []core.Transaction
	Rates        *core.RateTable
	// Skipped counts records whose type was not recognised.
	Skipped int
}

// LoadFile opens and decodes the data file at path.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	ds, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ds, nil
}

// Decode parses a data file and builds its entities.
func Decode(r io.Reader) (*Dataset, error) {
	var file File
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return file.Build()
}

// Build turns the raw records into entities. Standalone rates are registered
// first so that transactions embedding an equal rate share it. Two records
// with the same rate id and different values fail with core.ErrRateConflict.
func (f File) Build() (*Dataset, error) {
	ds := &Dataset{Rates: core.NewRateTable()}

	for i, rr := range f.ExchangeRates {
		rate, err := rr.build()
		if err != nil {
			return nil, fmt.Errorf("exchange_rates[%d]: %w", i, err)
		}
		if _, err := ds.Rates.Resolve(rate); err != nil {
			return nil, fmt.Errorf("exchange_rates[%d]: %w", i, err)
		}
	}

	for i, tr := range f.Transactions {
		tx, err := tr.build(ds.Rates)
		if err != nil {
			return nil, fmt.Errorf("transactions[%d]: %w", i, err)
		}
		if tx == nil {
			ds.Skipped++
			continue
		}
		ds.Transactions = append(ds.Transactions, tx)
	}
	return ds, nil
}

// Populate adds every transaction to l in file order.
func (ds *Dataset) Populate(l *ledger.Ledger) {
	for _, tx := range ds.Transactions {
		l.Add(tx)
	}
}

func (rr RateRecord) build() (*core.ExchangeRate, error) {
	currency, err := core.CurrencyTypeFromInt(rr.CurrencyType)
	if err != nil {
		return nil, err
	}
	return core.NewExchangeRate(rr.ID, currency, rr.Rate,
		core.NewDate(rr.EffectiveYear, rr.EffectiveMonth, rr.EffectiveDay))
}

// build returns nil, nil for unknown record types.
func (tr TransactionRecord) build(rates *core.RateTable) (core.Transaction, error) {
	date := core.NewDate(tr.Year, tr.Month, tr.Day)

	switch tr.Type {
	case typeGold:
		if tr.UnitPrice == nil {
			return nil, fmt.Errorf("gold %d: unit_price: %w", tr.ID, ErrMissingField)
		}
		if tr.Quantity == nil {
			return nil, fmt.Errorf("gold %d: quantity: %w", tr.ID, ErrMissingField)
		}
		if tr.GoldType == nil {
			return nil, fmt.Errorf("gold %d: gold_type: %w", tr.ID, ErrMissingField)
		}
		gt, err := core.GoldTypeFromInt(*tr.GoldType)
		if err != nil {
			return nil, fmt.Errorf("gold %d: %w", tr.ID, err)
		}
		tx, err := core.NewGoldTransaction(tr.ID, date, *tr.UnitPrice, *tr.Quantity, gt)
		if err != nil {
			return nil, err
		}
		return tx, nil

	case typeCurrency:
		if tr.Quantity == nil {
			return nil, fmt.Errorf("currency %d: quantity: %w", tr.ID, ErrMissingField)
		}
		if tr.CurrencyType == nil {
			return nil, fmt.Errorf("currency %d: currency_type: %w", tr.ID, ErrMissingField)
		}
		if tr.ExchangeRate == nil {
			return nil, fmt.Errorf("currency %d: exchange_rate: %w", tr.ID, ErrMissingField)
		}
		ct, err := core.CurrencyTypeFromInt(*tr.CurrencyType)
		if err != nil {
			return nil, fmt.Errorf("currency %d: %w", tr.ID, err)
		}
		rate, err := tr.ExchangeRate.build()
		if err != nil {
			return nil, fmt.Errorf("currency %d: exchange_rate: %w", tr.ID, err)
		}
		shared, err := rates.Resolve(rate)
		if err != nil {
			return nil, fmt.Errorf("currency %d: %w", tr.ID, err)
		}
		tx, err := core.NewCurrencyTransaction(tr.ID, date, *tr.Quantity, ct, shared)
		if err != nil {
			return nil, err
		}
		return tx, nil
	}
	return nil, nil
}
