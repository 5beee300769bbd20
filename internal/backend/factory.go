package backend

import (
	"context"
	"errors"
	"fmt"

	"giaodich/internal/amqp"
	"giaodich/internal/cache"
	"giaodich/internal/log"
	"giaodich/internal/report"
	"giaodich/internal/services"
	"giaodich/internal/storage"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case FileBackend:
		return f.createFileBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createFileBackend(ctx context.Context, config Config) (*BackendResult, error) {
	ds, err := services.Bootstrap(ctx, nil, config.DataFile, f.logger)
	if err != nil {
		return nil, err
	}

	reports := newReportCache(config)
	opts := []services.Option{services.WithReportCache(reports), services.WithLogger(f.logger)}
	var closers []closer
	amqpClient := f.connectAMQP(config)
	if amqpClient != nil {
		opts = append(opts, services.WithPublisher(amqpClient))
		closers = append(closers, amqpClient)
	}

	f.logger.Info("Initialized file backend",
		"data_file", config.DataFile,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Service: services.NewLedgerService(ds, opts...),
		Reports: reports,
		Cleanup: closeAll(closers...),
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	ds, err := services.Bootstrap(ctx, repo, config.DataFile, f.logger)
	if err != nil {
		repo.Close()
		return nil, err
	}

	reports := newReportCache(config)
	opts := []services.Option{
		services.WithStore(repo),
		services.WithReportCache(reports),
		services.WithLogger(f.logger),
	}
	closers := []closer{repo}
	amqpClient := f.connectAMQP(config)
	if amqpClient != nil {
		opts = append(opts, services.WithPublisher(amqpClient))
		closers = append(closers, amqpClient)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Service: services.NewLedgerService(ds, opts...),
		Reports: reports,
		Cleanup: closeAll(closers...),
	}, nil
}

// connectAMQP returns nil when AMQP is not configured or unreachable; the
// ledger works without events.
func (f *DefaultFactory) connectAMQP(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}

func newReportCache(config Config) *cache.LRUCache[report.Report] {
	return cache.NewLRUCache[report.Report](config.CacheSize, config.CacheTTL)
}

type closer interface{ Close() error }

// closeAll closes every closer and joins their errors.
func closeAll(closers ...closer) CleanupFunc {
	return func() error {
		var errs []error
		for _, c := range closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
