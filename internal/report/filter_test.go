package report

import (
	"errors"
	"testing"

	"giaodich/internal/core"
)

func gold(t *testing.T, id int64, d core.Date) core.Transaction {
	t.Helper()
	tx, err := core.NewGoldTransaction(id, d, 1000, 1, core.SJC)
	if err != nil {
		t.Fatalf("gold: %v", err)
	}
	return tx
}

func ids(txs []core.Transaction) []int64 {
	out := make([]int64, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID()
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterByMonthYear(t *testing.T) {
	txs := []core.Transaction{
		gold(t, 1, core.NewDate(2024, 5, 3)),
		gold(t, 2, core.NewDate(2024, 6, 1)),
		gold(t, 3, core.NewDate(2023, 5, 9)),
		gold(t, 4, core.NewDate(2024, 5, 30)),
	}
	got := ids(FilterByMonthYear(txs, 5, 2024))
	if !equalIDs(got, []int64{1, 4}) {
		t.Fatalf("got %v, want [1 4]", got)
	}
}

func TestFilterLastMonth(t *testing.T) {
	txs := []core.Transaction{
		gold(t, 1, core.NewDate(2023, 12, 24)),
		gold(t, 2, core.NewDate(2024, 12, 1)),
		gold(t, 3, core.NewDate(2024, 5, 15)),
		gold(t, 4, core.NewDate(2024, 1, 2)),
	}
	cases := []struct {
		name  string
		today core.Date
		want  []int64
	}{
		{"january rolls back a year", core.NewDate(2024, 1, 10), []int64{1}},
		{"mid year", core.NewDate(2024, 6, 10), []int64{3}},
		{"february", core.NewDate(2024, 2, 29), []int64{4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ids(FilterLastMonth(txs, tc.today)); !equalIDs(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilterThisMonth(t *testing.T) {
	txs := []core.Transaction{
		gold(t, 1, core.NewDate(2024, 6, 1)),
		gold(t, 2, core.NewDate(2024, 6, 30)),
		gold(t, 3, core.NewDate(2025, 6, 1)),
	}
	got := ids(FilterThisMonth(txs, core.NewDate(2024, 6, 15)))
	if !equalIDs(got, []int64{1, 2}) {
		t.Fatalf("got %v, want [1 2]", got)
	}
}

func TestFilterFuture(t *testing.T) {
	txs := []core.Transaction{
		gold(t, 1, core.NewDate(2024, 6, 16)),
		gold(t, 2, core.NewDate(2024, 6, 15)),
		gold(t, 3, core.NewDate(2024, 7, 1)),
		gold(t, 4, core.NewDate(2025, 1, 1)),
		gold(t, 5, core.NewDate(2023, 12, 31)),
	}
	got := ids(FilterFuture(txs, core.NewDate(2024, 6, 15)))
	if !equalIDs(got, []int64{1, 3, 4}) {
		t.Fatalf("got %v, want [1 3 4]", got)
	}
}

func TestFilterAll(t *testing.T) {
	txs := []core.Transaction{gold(t, 2, core.NewDate(2024, 1, 1)), gold(t, 1, core.NewDate(2020, 1, 1))}
	got := FilterAll(txs)
	if !equalIDs(ids(got), []int64{2, 1}) {
		t.Fatalf("got %v", ids(got))
	}
	got[0] = nil
	if txs[0] == nil {
		t.Fatalf("FilterAll must not alias its input")
	}
}

func TestFiltersOnEmptyInput(t *testing.T) {
	today := core.NewDate(2024, 6, 15)
	for _, w := range Windows() {
		got, err := Apply(w, nil, today)
		if err != nil {
			t.Fatalf("%s: %v", w, err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("%s: expected empty non-nil slice, got %v", w, got)
		}
	}
}

func TestParseWindow(t *testing.T) {
	cases := map[string]Window{
		"last_month": LastMonth,
		"LAST MONTH": LastMonth,
		"this-month": ThisMonth,
		"future":     Future,
		"VIEW ALL":   All,
		"all":        All,
	}
	for in, want := range cases {
		got, err := ParseWindow(in)
		if err != nil || got != want {
			t.Fatalf("ParseWindow(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseWindow("yesterday"); !errors.Is(err, ErrUnknownWindow) {
		t.Fatalf("expected ErrUnknownWindow, got %v", err)
	}
	if _, err := Apply(Window("nope"), nil, core.Date{}); !errors.Is(err, ErrUnknownWindow) {
		t.Fatalf("Apply: expected ErrUnknownWindow, got %v", err)
	}
}
