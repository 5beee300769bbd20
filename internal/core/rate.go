package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRate  = errors.New("exchange rate must be positive")
	ErrRateConflict = errors.New("exchange rate id already registered with different values")
)

// ExchangeRate converts one unit of a currency into VND from its effective
// date on. It is immutable and meant to be shared by pointer.
type ExchangeRate struct {
	id        int64
	currency  CurrencyType
	rate      float64
	effective Date
}

// NewExchangeRate builds a rate record. The effective date is informational;
// nothing selects rates by date.
func NewExchangeRate(id int64, currency CurrencyType, rate float64, effective Date) (*ExchangeRate, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("rate %d (%v): %w", id, rate, ErrInvalidRate)
	}
	return &ExchangeRate{id: id, currency: currency, rate: rate, effective: effective}, nil
}

func (r *ExchangeRate) ID() int64              { return r.id }
func (r *ExchangeRate) Currency() CurrencyType { return r.currency }
func (r *ExchangeRate) Rate() float64          { return r.rate }
func (r *ExchangeRate) Effective() Date        { return r.effective }

// Equal compares two rates by value. Two nil rates are equal.
func (r *ExchangeRate) Equal(other *ExchangeRate) bool {
	if r == nil || other == nil {
		return r == other
	}
	return *r == *other
}

// RateTable holds the shared rate records, keyed by id. The first record
// registered for an id is canonical; an equal record resolves to it and a
// different one is rejected by Resolve.
type RateTable struct {
	byID  map[int64]*ExchangeRate
	order []*ExchangeRate
}

func NewRateTable() *RateTable {
	return &RateTable{byID: make(map[int64]*ExchangeRate)}
}

// Register stores r unless its id is already known, and returns the
// canonical record for that id.
func (t *RateTable) Register(r *ExchangeRate) *ExchangeRate {
	if existing, ok := t.byID[r.id]; ok {
		return existing
	}
	t.byID[r.id] = r
	t.order = append(t.order, r)
	return r
}

// Resolve returns the canonical record for r's id, registering r when the id
// is new. A known id carrying different values fails with ErrRateConflict.
func (t *RateTable) Resolve(r *ExchangeRate) (*ExchangeRate, error) {
	existing, ok := t.byID[r.id]
	if !ok {
		return t.Register(r), nil
	}
	if !existing.Equal(r) {
		return nil, fmt.Errorf("exchange rate %d: %w", r.id, ErrRateConflict)
	}
	return existing, nil
}

// Get returns the record registered for id.
func (t *RateTable) Get(id int64) (*ExchangeRate, bool) {
	r, ok := t.byID[id]
	return r, ok
}

// All returns every record in registration order.
func (t *RateTable) All() []*ExchangeRate {
	return append([]*ExchangeRate(nil), t.order...)
}

// Len returns the number of records.
func (t *RateTable) Len() int {
	return len(t.order)
}
