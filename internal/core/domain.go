package core

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindGold     Kind = "gold"
	KindCurrency Kind = "currency"
	KindPriced   Kind = "priced"
)

var (
	ErrInvalidArgumentCount = errors.New("invalid number of arguments")
	ErrMissingExchangeRate  = errors.New("exchange rate required for foreign currency")
)

// Transaction is a single dated financial event valued in VND.
//
// The interface is sealed: only the variants in this package implement it.
// TotalAmount is computed once when the transaction is built and every field
// is read-only afterwards, so it always matches the fields it came from.
// Negative quantities and prices are accepted as refunds or corrections.
type Transaction interface {
	ID() int64
	Date() Date
	Quantity() float64
	// UnitPrice reports the unit price and whether the variant has one.
	UnitPrice() (float64, bool)
	TotalAmount() float64
	Kind() Kind

	calculateTotalAmount() float64
}

type (
	base struct {
		id           int64
		date         Date
		quantity     float64
		unitPrice    float64
		hasUnitPrice bool
		totalAmount  float64
	}

	// PricedTransaction is a generic dated record that is neither gold nor
	// currency. Its total is unit price times quantity, or the bare quantity
	// when it was built without a unit price.
	PricedTransaction struct {
		base
	}

	GoldTransaction struct {
		base
		goldType GoldType
	}

	CurrencyTransaction struct {
		base
		currency CurrencyType
		rate     *ExchangeRate
	}
)

// newBase takes either (quantity) or (unitPrice, quantity).
func newBase(id int64, date Date, values ...float64) (base, error) {
	b := base{id: id, date: date}
	switch len(values) {
	case 1:
		b.quantity = values[0]
	case 2:
		b.unitPrice, b.quantity = values[0], values[1]
		b.hasUnitPrice = true
	default:
		return base{}, fmt.Errorf("transaction %d: got %d values: %w", id, len(values), ErrInvalidArgumentCount)
	}
	return b, nil
}

// freeze stores the variant's total. It runs exactly once, as the last step
// of every constructor.
func freeze(tx Transaction, b *base) {
	b.totalAmount = tx.calculateTotalAmount()
}

// NewPricedTransaction builds a generic transaction from one value (quantity)
// or two values (unit price, quantity).
func NewPricedTransaction(id int64, date Date, values ...float64) (*PricedTransaction, error) {
	b, err := newBase(id, date, values...)
	if err != nil {
		return nil, err
	}
	tx := &PricedTransaction{base: b}
	freeze(tx, &tx.base)
	return tx, nil
}

// NewGoldTransaction builds a gold purchase valued at unitPrice * quantity.
func NewGoldTransaction(id int64, date Date, unitPrice, quantity float64, goldType GoldType) (*GoldTransaction, error) {
	b, err := newBase(id, date, unitPrice, quantity)
	if err != nil {
		return nil, err
	}
	tx := &GoldTransaction{base: b, goldType: goldType}
	freeze(tx, &tx.base)
	return tx, nil
}

// NewCurrencyTransaction builds a currency exchange. The rate is shared, not
// copied; it may be nil for VND, which converts at 1.
func NewCurrencyTransaction(id int64, date Date, quantity float64, currency CurrencyType, rate *ExchangeRate) (*CurrencyTransaction, error) {
	if rate == nil && (currency == USD || currency == EUR) {
		return nil, fmt.Errorf("transaction %d (%s): %w", id, currency, ErrMissingExchangeRate)
	}
	b, err := newBase(id, date, quantity)
	if err != nil {
		return nil, err
	}
	tx := &CurrencyTransaction{base: b, currency: currency, rate: rate}
	freeze(tx, &tx.base)
	return tx, nil
}

func (b *base) ID() int64                  { return b.id }
func (b *base) Date() Date                 { return b.date }
func (b *base) Quantity() float64          { return b.quantity }
func (b *base) UnitPrice() (float64, bool) { return b.unitPrice, b.hasUnitPrice }
func (b *base) TotalAmount() float64       { return b.totalAmount }

func (t *PricedTransaction) Kind() Kind { return KindPriced }

func (t *PricedTransaction) calculateTotalAmount() float64 {
	if !t.hasUnitPrice {
		return t.quantity
	}
	return t.unitPrice * t.quantity
}

func (t *GoldTransaction) Kind() Kind { return KindGold }

func (t *GoldTransaction) GoldType() GoldType { return t.goldType }

func (t *GoldTransaction) calculateTotalAmount() float64 {
	return t.unitPrice * t.quantity
}

func (t *CurrencyTransaction) Kind() Kind { return KindCurrency }

func (t *CurrencyTransaction) Currency() CurrencyType { return t.currency }

// ExchangeRate returns the shared rate record, nil for a VND transaction
// built without one.
func (t *CurrencyTransaction) ExchangeRate() *ExchangeRate { return t.rate }

func (t *CurrencyTransaction) calculateTotalAmount() float64 {
	switch t.currency {
	case VND:
		return t.quantity
	case USD, EUR:
		return t.quantity * t.rate.Rate()
	default:
		// Tags added to CurrencyType without a conversion rule are worth nothing.
		return 0
	}
}

// Equal reports whether a and b are the same variant with the same fields.
// Exchange rates are compared by value, not by pointer.
func Equal(a, b Transaction) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *GoldTransaction:
		y, ok := b.(*GoldTransaction)
		return ok && x.base == y.base && x.goldType == y.goldType
	case *CurrencyTransaction:
		y, ok := b.(*CurrencyTransaction)
		return ok && x.base == y.base && x.currency == y.currency && x.rate.Equal(y.rate)
	case *PricedTransaction:
		y, ok := b.(*PricedTransaction)
		return ok && x.base == y.base
	default:
		return false
	}
}
