// Package ledger keeps the ordered list of transactions together with
// running per-variant counters.
package ledger

import (
	"giaodich/internal/core"
)

// Counters are the incremental totals maintained by Add.
type Counters struct {
	GoldCount           int     `json:"gold_count"`
	CurrencyCount       int     `json:"currency_count"`
	GoldTotalAmount     float64 `json:"gold_total_amount"`
	CurrencyTotalAmount float64 `json:"currency_total_amount"`
}

// Ledger is an insertion-ordered transaction list.
//
// The counters are updated by Add and never by Remove, so they drift once a
// transaction is removed. Reports that must be exact should re-scan the list
// with report.Summarize instead of reading Counters.
//
// A Ledger is not safe for concurrent use.
type Ledger struct {
	transactions []core.Transaction
	counters     Counters
}

func New() *Ledger {
	return &Ledger{}
}

// Add appends tx and updates the counter of its variant. Variants other than
// gold and currency are kept in the list but not counted.
func (l *Ledger) Add(tx core.Transaction) {
	l.transactions = append(l.transactions, tx)
	switch t := tx.(type) {
	case *core.GoldTransaction:
		l.counters.GoldCount++
		l.counters.GoldTotalAmount += t.TotalAmount()
	case *core.CurrencyTransaction:
		l.counters.CurrencyCount++
		l.counters.CurrencyTotalAmount += t.TotalAmount()
	}
}

// Remove deletes the first entry structurally equal to tx and reports whether
// one was found. Counters are left untouched.
func (l *Ledger) Remove(tx core.Transaction) bool {
	for i, existing := range l.transactions {
		if core.Equal(existing, tx) {
			l.transactions = append(l.transactions[:i], l.transactions[i+1:]...)
			return true
		}
	}
	return false
}

// List returns a copy of the transactions in insertion order.
func (l *Ledger) List() []core.Transaction {
	return append([]core.Transaction(nil), l.transactions...)
}

// Find returns the first transaction with the given id.
func (l *Ledger) Find(id int64) (core.Transaction, bool) {
	for _, tx := range l.transactions {
		if tx.ID() == id {
			return tx, true
		}
	}
	return nil, false
}

// Len returns the number of transactions currently held.
func (l *Ledger) Len() int {
	return len(l.transactions)
}

// Counters returns a snapshot of the incremental counters.
func (l *Ledger) Counters() Counters {
	return l.counters
}
