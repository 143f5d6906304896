package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bdo-market-etl/internal/domain"
	"bdo-market-etl/internal/storage"
)

// reportKey is the identity key of a report row.
type reportKey struct {
	AnalyzeTime time.Time
	Name        string
	Tier        int
}

// ReportStore is an in-memory implementation of storage.ReportStore.
type ReportStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.ProfitReportRow
	keys map[string]map[reportKey]bool
}

// NewReportStore creates a new in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{
		data: make(map[string][]*domain.ProfitReportRow),
		keys: make(map[string]map[reportKey]bool),
	}
}

// Compile-time interface check.
var _ storage.ReportStore = (*ReportStore)(nil)

// InsertBatch adds report rows, silently skipping duplicate
// (analyze_time, name, sid) keys.
func (s *ReportStore) InsertBatch(_ context.Context, table string, rows []*domain.ProfitReportRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: no report rows to store", storage.ErrInvalidInput)
	}
	if table == "" {
		return fmt.Errorf("%w: empty table name", storage.ErrInvalidInput)
	}
	if !storage.AllowedReportTable(table) {
		return fmt.Errorf("%w: %q", storage.ErrUnknownTable, table)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys[table] == nil {
		s.keys[table] = make(map[reportKey]bool)
	}
	for _, r := range rows {
		if r == nil {
			return storage.ErrInvalidInput
		}
		key := reportKey{AnalyzeTime: r.AnalyzeTime, Name: r.Name, Tier: r.Tier}
		if s.keys[table][key] {
			continue
		}
		cp := *r
		s.data[table] = append(s.data[table], &cp)
		s.keys[table][key] = true
	}
	return nil
}

// Latest returns the rows of the most recent hour bucket, ordered by rate
// descending.
func (s *ReportStore) Latest(_ context.Context, table string) ([]*domain.ProfitReportRow, error) {
	if table == "" {
		return nil, fmt.Errorf("%w: empty table name", storage.ErrInvalidInput)
	}
	if !storage.AllowedReportTable(table) {
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownTable, table)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest time.Time
	for _, r := range s.data[table] {
		if r.AnalyzeTime.After(latest) {
			latest = r.AnalyzeTime
		}
	}
	if latest.IsZero() {
		return nil, storage.ErrNotFound
	}

	var out []*domain.ProfitReportRow
	for _, r := range s.data[table] {
		if r.AnalyzeTime.Equal(latest) {
			cp := *r
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Rate != out[j].Rate {
			return out[i].Rate > out[j].Rate
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Tier < out[j].Tier
	})
	return out, nil
}

// Count returns the number of stored rows for a table.
func (s *ReportStore) Count(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[table])
}
