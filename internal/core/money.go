// Package core holds the transaction data model: currency and gold tags,
// calendar dates, exchange rates and the sealed transaction variants.
//
// This file contains the closed tag sets and helpers to format amounts in
// the reporting currency.
package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CurrencyType tags the currency a CurrencyTransaction was made in.
type CurrencyType int

// GoldType tags the gold brand of a GoldTransaction.
type GoldType int

const (
	VND CurrencyType = iota
	USD
	EUR
)

const (
	SJC GoldType = iota
	PNJ
	DOJI
)

var (
	ErrInvalidEnumValue = errors.New("invalid enum value")

	currencyNames = []string{"VND", "USD", "EUR"}
	goldNames     = []string{"SJC", "PNJ", "DOJI"}
)

// CurrencyTypeFromInt maps the positional integer used by the data file.
func CurrencyTypeFromInt(v int) (CurrencyType, error) {
	if v < 0 || v >= len(currencyNames) {
		return 0, fmt.Errorf("currency type %d: %w", v, ErrInvalidEnumValue)
	}
	return CurrencyType(v), nil
}

// GoldTypeFromInt maps the positional integer used by the data file.
func GoldTypeFromInt(v int) (GoldType, error) {
	if v < 0 || v >= len(goldNames) {
		return 0, fmt.Errorf("gold type %d: %w", v, ErrInvalidEnumValue)
	}
	return GoldType(v), nil
}

// ParseCurrencyType accepts a currency name (case-insensitive) or its index.
func ParseCurrencyType(s string) (CurrencyType, error) {
	s = strings.TrimSpace(s)
	for i, name := range currencyNames {
		if strings.EqualFold(s, name) {
			return CurrencyType(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		return CurrencyTypeFromInt(n)
	}
	return 0, fmt.Errorf("currency type %q: %w", s, ErrInvalidEnumValue)
}

// ParseGoldType accepts a gold brand name (case-insensitive) or its index.
func ParseGoldType(s string) (GoldType, error) {
	s = strings.TrimSpace(s)
	for i, name := range goldNames {
		if strings.EqualFold(s, name) {
			return GoldType(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		return GoldTypeFromInt(n)
	}
	return 0, fmt.Errorf("gold type %q: %w", s, ErrInvalidEnumValue)
}

func (c CurrencyType) String() string {
	if c < 0 || int(c) >= len(currencyNames) {
		return fmt.Sprintf("CurrencyType(%d)", int(c))
	}
	return currencyNames[c]
}

func (g GoldType) String() string {
	if g < 0 || int(g) >= len(goldNames) {
		return fmt.Sprintf("GoldType(%d)", int(g))
	}
	return goldNames[g]
}

// MarshalText writes the tag name so JSON responses stay readable.
func (c CurrencyType) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (g GoldType) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

// UnmarshalText accepts the forms ParseCurrencyType does.
func (c *CurrencyType) UnmarshalText(b []byte) error {
	v, err := ParseCurrencyType(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (g *GoldType) UnmarshalText(b []byte) error {
	v, err := ParseGoldType(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// FormatVND renders an amount with dot thousand separators, e.g. "2.406.000 ₫".
// Fractions are rounded to the nearest dong.
func FormatVND(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatFloat(amount, 'f', 0, 64)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	s := b.String() + " ₫"
	if neg {
		return "-" + s
	}
	return s
}
