package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"giaodich/internal/core"
	"giaodich/internal/loader"
	"giaodich/internal/log"
)

// DatasetStore is a persistent store that can be seeded with and read back
// as a whole dataset.
type DatasetStore interface {
	CountTransactions(ctx context.Context) (int, error)
	Import(ctx context.Context, ds *loader.Dataset) error
	Load(ctx context.Context) (*loader.Dataset, error)
}

// Bootstrap returns the dataset a service should start from.
//
// Without a store the JSON data file is the only source. With a store, an
// empty database is first seeded from the data file and then read back, so
// the returned dataset always reflects what is persisted. A missing data file
// yields an empty dataset; a malformed one is an error.
func Bootstrap(ctx context.Context, store DatasetStore, dataFile string, logger *log.Logger) (*loader.Dataset, error) {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithComponent(log.ComponentLoader)

	if store == nil {
		return loadDataFile(ctx, dataFile, logger)
	}

	n, err := store.CountTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	if n == 0 && dataFile != "" {
		seed, err := loadDataFile(ctx, dataFile, logger)
		if err != nil {
			return nil, err
		}
		if len(seed.Transactions) > 0 || seed.Rates.Len() > 0 {
			if err := store.Import(ctx, seed); err != nil {
				return nil, fmt.Errorf("bootstrap: seed store: %w", err)
			}
			logger.InfoContext(ctx, "Store seeded from data file",
				"file", dataFile,
				log.FieldCount, len(seed.Transactions))
		}
	}

	ds, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	logger.InfoContext(ctx, "Ledger loaded from store", log.FieldCount, len(ds.Transactions))
	return ds, nil
}

func loadDataFile(ctx context.Context, path string, logger *log.Logger) (*loader.Dataset, error) {
	ds, err := loader.LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.WarnContext(ctx, "Data file not found, starting with an empty ledger", "file", path)
		return &loader.Dataset{Rates: core.NewRateTable()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	if ds.Skipped > 0 {
		logger.WarnContext(ctx, "Skipped records with unknown type", "file", path, "skipped", ds.Skipped)
	}
	logger.InfoContext(ctx, "Data file loaded",
		"file", path,
		log.FieldCount, len(ds.Transactions),
		"exchange_rates", ds.Rates.Len())
	return ds, nil
}

// DatasetLoader reads the current persisted dataset.
type DatasetLoader interface {
	Load(ctx context.Context) (*loader.Dataset, error)
}

// LoaderFunc adapts a function to DatasetLoader.
type LoaderFunc func(ctx context.Context) (*loader.Dataset, error)

func (f LoaderFunc) Load(ctx context.Context) (*loader.Dataset, error) { return f(ctx) }

// FileLoader reads the JSON data file at path on every call.
func FileLoader(path string) DatasetLoader {
	return LoaderFunc(func(context.Context) (*loader.Dataset, error) {
		return loader.LoadFile(path)
	})
}
