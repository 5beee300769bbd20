package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const scenario = `{
  "exchange_rates": [
    {"id": 1, "currency_type": 1, "rate": 24000, "effective_day": 1, "effective_month": 1, "effective_year": 2025}
  ],
  "transactions": [
    {"type": "gold", "id": 1, "day": 5, "month": 1, "year": 2025, "unit_price": 2000, "quantity": 3, "gold_type": 0},
    {"type": "currency", "id": 2, "day": 6, "month": 1, "year": 2025, "quantity": 100, "currency_type": 1,
     "exchange_rate": {"id": 1, "currency_type": 1, "rate": 24000, "effective_day": 1, "effective_month": 1, "effective_year": 2025}}
  ]
}`

func writeScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(scenario), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clock() time.Time { return time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC) }

func TestRunPrintsEveryWindow(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), []string{"-data", writeScenario(t)}, &out, clock); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, want := range []string{"== LAST MONTH (20/01/2025) ==", "== THIS MONTH", "== FUTURE", "== VIEW ALL", "2.406.000 ₫"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunSingleWindowWithRows(t *testing.T) {
	var out strings.Builder
	args := []string{"-data", writeScenario(t), "-window", "future", "-today", "2025-01-05", "-rows"}
	if err := run(context.Background(), args, &out, clock); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	if strings.Contains(got, "THIS MONTH") {
		t.Errorf("printed more than the requested window:\n%s", got)
	}
	if !strings.Contains(got, "2.400.000 ₫") || strings.Contains(got, "#1") {
		t.Errorf("future from 05/01 should hold only the currency exchange:\n%s", got)
	}
}

func TestRunRowsFormatting(t *testing.T) {
	var out strings.Builder
	args := []string{"-data", writeScenario(t), "-window", "all", "-rows"}
	if err := run(context.Background(), args, &out, clock); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	if strings.Contains(got, "%!") {
		t.Fatalf("malformed row formatting:\n%s", got)
	}
	for _, want := range []string{"#1", "SJC", "2.000 ₫ x 3", "6.000 ₫", "#2", "USD", "100 @ 24000", "2.400.000 ₫"} {
		if !strings.Contains(got, want) {
			t.Errorf("rows missing %q:\n%s", want, got)
		}
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"-data", filepath.Join(t.TempDir(), "nope.json")}},
		{"bad today", []string{"-today", "20/01/2025"}},
		{"bad window", []string{"-window", "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			if err := run(context.Background(), tt.args, &out, clock); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
