// Package report selects transactions by time window and summarises them.
//
// Every function is pure: the reference date is passed in, the input slice
// is never modified and empty input yields empty output or a zero Summary.
package report

import (
	"errors"
	"fmt"
	"strings"

	"giaodich/internal/core"
)

// Window names one of the reporting periods relative to a reference date.
type Window string

const (
	LastMonth Window = "last_month"
	ThisMonth Window = "this_month"
	Future    Window = "future"
	All       Window = "all"
)

var ErrUnknownWindow = errors.New("unknown report window")

// Windows lists every window in display order.
func Windows() []Window {
	return []Window{LastMonth, ThisMonth, Future, All}
}

// ParseWindow accepts "last_month", "last-month" or "LAST MONTH" style names.
func ParseWindow(s string) (Window, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	switch Window(norm) {
	case LastMonth, ThisMonth, Future, All:
		return Window(norm), nil
	case "view_all":
		return All, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownWindow)
}

// Title returns the label used in exported reports.
func (w Window) Title() string {
	switch w {
	case LastMonth:
		return "LAST MONTH"
	case ThisMonth:
		return "THIS MONTH"
	case Future:
		return "FUTURE"
	case All:
		return "VIEW ALL"
	}
	return strings.ToUpper(string(w))
}

// FilterByMonthYear keeps transactions dated in the given month and year.
func FilterByMonthYear(txs []core.Transaction, month, year int) []core.Transaction {
	out := make([]core.Transaction, 0)
	for _, tx := range txs {
		if tx.Date().SameMonth(month, year) {
			out = append(out, tx)
		}
	}
	return out
}

// FilterLastMonth keeps transactions from the calendar month before today's.
func FilterLastMonth(txs []core.Transaction, today core.Date) []core.Transaction {
	month, year := today.PreviousMonth()
	return FilterByMonthYear(txs, month, year)
}

// FilterThisMonth keeps transactions from today's calendar month.
func FilterThisMonth(txs []core.Transaction, today core.Date) []core.Transaction {
	return FilterByMonthYear(txs, today.Month, today.Year)
}

// FilterFuture keeps transactions dated strictly after today.
func FilterFuture(txs []core.Transaction, today core.Date) []core.Transaction {
	out := make([]core.Transaction, 0)
	for _, tx := range txs {
		if tx.Date().After(today) {
			out = append(out, tx)
		}
	}
	return out
}

// FilterAll returns every transaction.
func FilterAll(txs []core.Transaction) []core.Transaction {
	return append(make([]core.Transaction, 0, len(txs)), txs...)
}

// Apply runs the filter that corresponds to w.
func Apply(w Window, txs []core.Transaction, today core.Date) ([]core.Transaction, error) {
	switch w {
	case LastMonth:
		return FilterLastMonth(txs, today), nil
	case ThisMonth:
		return FilterThisMonth(txs, today), nil
	case Future:
		return FilterFuture(txs, today), nil
	case All:
		return FilterAll(txs), nil
	}
	return nil, fmt.Errorf("%q: %w", w, ErrUnknownWindow)
}
