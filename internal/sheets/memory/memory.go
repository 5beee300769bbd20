// Package memory keeps exported reports in process. The worker falls back to
// it when no spreadsheet is configured, and tests use it to observe exports.
package memory

import (
	"context"
	"sync"

	"giaodich/internal/report"
	ports "giaodich/internal/sheets"
)

type Export struct {
	Report report.Report
	Rows   [][]any
}

type Store struct {
	mu      sync.Mutex
	exports []Export
}

var _ ports.ReportExporter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) ExportReport(_ context.Context, r report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports = append(s.exports, Export{Report: r, Rows: ports.ReportRows(r)})
	return nil
}

// Last returns the most recent export.
func (s *Store) Last() (Export, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.exports) == 0 {
		return Export{}, false
	}
	return s.exports[len(s.exports)-1], true
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exports)
}
