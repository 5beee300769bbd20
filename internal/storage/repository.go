package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"giaodich/internal/core"
	"giaodich/internal/loader"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("transaction not found")

type SQLiteRepository struct {
	db *sql.DB
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite ledger schema ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveTransaction stores tx and, for currency transactions, its rate.
func (r *SQLiteRepository) SaveTransaction(ctx context.Context, tx core.Transaction) error {
	return r.inTx(ctx, func(sqlTx *sql.Tx) error {
		return saveTransaction(ctx, sqlTx, tx)
	})
}

// DeleteTransaction removes the row with the given transaction id.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete transaction %d: %w", id, ErrNotFound)
	}

	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id)
	return nil
}

// Import stores a whole dataset atomically: rates first, then transactions
// in dataset order.
func (r *SQLiteRepository) Import(ctx context.Context, ds *loader.Dataset) error {
	err := r.inTx(ctx, func(sqlTx *sql.Tx) error {
		for _, rate := range ds.Rates.All() {
			if err := saveExchangeRate(ctx, sqlTx, rate); err != nil {
				return err
			}
		}
		for _, tx := range ds.Transactions {
			if err := saveTransaction(ctx, sqlTx, tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("import dataset: %w", err)
	}

	slog.InfoContext(ctx, "Dataset imported into SQLite",
		"transactions", len(ds.Transactions),
		"exchange_rates", ds.Rates.Len())
	return nil
}

// CountTransactions returns the number of stored transactions.
func (r *SQLiteRepository) CountTransactions(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// ListExchangeRates loads every stored rate into a fresh table.
func (r *SQLiteRepository) ListExchangeRates(ctx context.Context) (*core.RateTable, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, currency_type, rate, effective_day, effective_month, effective_year
		FROM exchange_rates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query exchange rates: %w", err)
	}
	defer rows.Close()

	table := core.NewRateTable()
	for rows.Next() {
		var (
			id, currency   int64
			rate           float64
			day, month, yr int
		)
		if err := rows.Scan(&id, &currency, &rate, &day, &month, &yr); err != nil {
			return nil, fmt.Errorf("scan exchange rate: %w", err)
		}
		ct, err := core.CurrencyTypeFromInt(int(currency))
		if err != nil {
			return nil, fmt.Errorf("exchange rate %d: %w", id, err)
		}
		er, err := core.NewExchangeRate(id, ct, rate, core.NewDate(yr, month, day))
		if err != nil {
			return nil, err
		}
		table.Register(er)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchange rates: %w", err)
	}
	return table, nil
}

// ListTransactions returns stored transactions in insertion order. Currency
// transactions point at the records in rates.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, rates *core.RateTable) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, day, month, year, quantity, unit_price, gold_type, currency_type, exchange_rate_id
		FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			id                       int64
			kind                     string
			day, month, year         int
			quantity                 float64
			unitPrice                sql.NullFloat64
			goldType, currency, rate sql.NullInt64
		)
		if err := rows.Scan(&id, &kind, &day, &month, &year, &quantity, &unitPrice, &goldType, &currency, &rate); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx, err := rowToTransaction(id, core.Kind(kind), core.NewDate(year, month, day), quantity, unitPrice, goldType, currency, rate, rates)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Load reads rates and transactions back as a dataset.
func (r *SQLiteRepository) Load(ctx context.Context) (*loader.Dataset, error) {
	rates, err := r.ListExchangeRates(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := r.ListTransactions(ctx, rates)
	if err != nil {
		return nil, err
	}
	return &loader.Dataset{Transactions: txs, Rates: rates}, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(sqlTx); err != nil {
		sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func saveExchangeRate(ctx context.Context, db execer, rate *core.ExchangeRate) error {
	eff := rate.Effective()
	_, err := db.ExecContext(ctx, `
		INSERT INTO exchange_rates (id, currency_type, rate, effective_day, effective_month, effective_year)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		rate.ID(), int(rate.Currency()), rate.Rate(), eff.Day, eff.Month, eff.Year)
	if err != nil {
		return fmt.Errorf("save exchange rate %d: %w", rate.ID(), err)
	}
	return nil
}

func saveTransaction(ctx context.Context, db execer, tx core.Transaction) error {
	var unitPrice, goldType, currency, rateID any
	if price, ok := tx.UnitPrice(); ok {
		unitPrice = price
	}
	switch t := tx.(type) {
	case *core.GoldTransaction:
		goldType = int(t.GoldType())
	case *core.CurrencyTransaction:
		currency = int(t.Currency())
		if rate := t.ExchangeRate(); rate != nil {
			if err := saveExchangeRate(ctx, db, rate); err != nil {
				return err
			}
			rateID = rate.ID()
		}
	}

	d := tx.Date()
	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions (id, kind, day, month, year, quantity, unit_price, gold_type, currency_type, exchange_rate_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID(), string(tx.Kind()), d.Day, d.Month, d.Year, tx.Quantity(), unitPrice, goldType, currency, rateID)
	if err != nil {
		return fmt.Errorf("save transaction %d: %w", tx.ID(), err)
	}
	return nil
}

func rowToTransaction(id int64, kind core.Kind, date core.Date, quantity float64,
	unitPrice sql.NullFloat64, goldType, currency, rateID sql.NullInt64, rates *core.RateTable) (core.Transaction, error) {

	switch kind {
	case core.KindGold:
		gt, err := core.GoldTypeFromInt(int(goldType.Int64))
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", id, err)
		}
		tx, err := core.NewGoldTransaction(id, date, unitPrice.Float64, quantity, gt)
		if err != nil {
			return nil, err
		}
		return tx, nil

	case core.KindCurrency:
		ct, err := core.CurrencyTypeFromInt(int(currency.Int64))
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", id, err)
		}
		var rate *core.ExchangeRate
		if rateID.Valid {
			var ok bool
			if rate, ok = rates.Get(rateID.Int64); !ok {
				return nil, fmt.Errorf("transaction %d: exchange rate %d not stored", id, rateID.Int64)
			}
		}
		tx, err := core.NewCurrencyTransaction(id, date, quantity, ct, rate)
		if err != nil {
			return nil, err
		}
		return tx, nil

	case core.KindPriced:
		values := []float64{quantity}
		if unitPrice.Valid {
			values = []float64{unitPrice.Float64, quantity}
		}
		tx, err := core.NewPricedTransaction(id, date, values...)
		if err != nil {
			return nil, err
		}
		return tx, nil
	}
	return nil, fmt.Errorf("transaction %d: unknown kind %q", id, kind)
}
