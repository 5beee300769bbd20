package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"giaodich/internal/core"
	"giaodich/internal/loader"
	"giaodich/internal/storage"
)

const seedJSON = `{
  "transactions": [
    {"type": "gold", "id": 1, "day": 5, "month": 1, "year": 2025,
     "unit_price": 8020000, "quantity": 0.3, "gold_type": 1},
    {"type": "currency", "id": 2, "day": 6, "month": 1, "year": 2025,
     "quantity": 10, "currency_type": 1,
     "exchange_rate": {"id": 9, "currency_type": 1, "rate": 24000,
                       "effective_day": 1, "effective_month": 1, "effective_year": 2025}}
  ],
  "exchange_rates": []
}`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBootstrap_FileOnly(t *testing.T) {
	ds, err := Bootstrap(context.Background(), nil, writeSeed(t, seedJSON), quietLogger())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if len(ds.Transactions) != 2 || ds.Rates.Len() != 1 {
		t.Errorf("got %d transactions, %d rates", len(ds.Transactions), ds.Rates.Len())
	}
}

func TestBootstrap_MissingFileStartsEmpty(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.json")
	ds, err := Bootstrap(context.Background(), nil, missing, quietLogger())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if len(ds.Transactions) != 0 || ds.Rates == nil {
		t.Errorf("expected empty dataset with a rate table, got %+v", ds)
	}
}

func TestBootstrap_MalformedFileFails(t *testing.T) {
	_, err := Bootstrap(context.Background(), nil, writeSeed(t, `{"transactions": [`), quietLogger())
	if err == nil {
		t.Fatal("expected error for malformed data file")
	}
}

func TestBootstrap_SeedsEmptyStore(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "giaodich.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()

	seed := writeSeed(t, seedJSON)
	ds, err := Bootstrap(ctx, repo, seed, quietLogger())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if len(ds.Transactions) != 2 {
		t.Fatalf("got %d transactions after seeding", len(ds.Transactions))
	}
	if n, _ := repo.CountTransactions(ctx); n != 2 {
		t.Errorf("store holds %d rows, want 2", n)
	}

	// A store that already has rows is not seeded again.
	svc := NewLedgerService(ds, WithStore(repo), WithLogger(quietLogger()))
	if _, err := svc.Remove(ctx, 1); err != nil {
		t.Fatal(err)
	}
	again, err := Bootstrap(ctx, repo, seed, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Transactions) != 1 || again.Transactions[0].ID() != 2 {
		t.Errorf("store should win over the data file, got %d transactions", len(again.Transactions))
	}
	usd := again.Transactions[0].(*core.CurrencyTransaction)
	if canonical, _ := again.Rates.Get(9); canonical != usd.ExchangeRate() {
		t.Error("reloaded transaction should share the table's rate record")
	}
}

type failingStore struct{}

func (failingStore) CountTransactions(context.Context) (int, error) {
	return 0, errors.New("database is locked")
}
func (failingStore) Import(context.Context, *loader.Dataset) error { return nil }
func (failingStore) Load(context.Context) (*loader.Dataset, error) { return nil, nil }

func TestBootstrap_StoreError(t *testing.T) {
	_, err := Bootstrap(context.Background(), failingStore{}, "", quietLogger())
	if err == nil {
		t.Fatal("expected store error")
	}
}
