package backend

import (
	"context"
	"time"

	"giaodich/internal/cache"
	"giaodich/internal/report"
	"giaodich/internal/services"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult is a ready ledger service plus the pieces callers wire
// around it.
type BackendResult struct {
	Service *services.LedgerService
	// Reports is the service's report cache, for registration with a
	// cache.Manager.
	Reports *cache.LRUCache[report.Report]
	Cleanup CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// JSON data file. Seeds an empty SQLite database too.
	DataFile string

	SQLiteDBPath string

	// Optional event publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	CacheSize int
	CacheTTL  time.Duration
}

type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
