// Package memory provides in-memory store implementations mirroring the
// PostgreSQL semantics. Used by unit tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bdo-market-etl/internal/domain"
	"bdo-market-etl/internal/storage"
)

// snapshotKey is the identity key of a snapshot row.
type snapshotKey struct {
	ScrapeTime time.Time
	ItemID     int
	Tier       int
}

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.SnapshotRow // table → rows
	keys map[string]map[snapshotKey]bool

	// Now is the clock used for the default "current hour" read window.
	Now func() time.Time
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string][]*domain.SnapshotRow),
		keys: make(map[string]map[snapshotKey]bool),
		Now:  time.Now,
	}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertBatch adds rows, silently skipping duplicate (scrape_time, item_id,
// sid) keys both against stored rows and within the batch.
func (s *SnapshotStore) InsertBatch(_ context.Context, table string, rows []*domain.SnapshotRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: no rows to store", storage.ErrInvalidInput)
	}
	if table == "" {
		return fmt.Errorf("%w: empty table name", storage.ErrInvalidInput)
	}
	if !storage.AllowedScrapeTable(table) {
		return fmt.Errorf("%w: %q", storage.ErrUnknownTable, table)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys[table] == nil {
		s.keys[table] = make(map[snapshotKey]bool)
	}
	for _, r := range rows {
		if r == nil {
			return storage.ErrInvalidInput
		}
		key := snapshotKey{ScrapeTime: r.ScrapeTime, ItemID: r.ItemID, Tier: r.Tier}
		if s.keys[table][key] {
			continue
		}
		cp := *r
		s.data[table] = append(s.data[table], &cp)
		s.keys[table][key] = true
	}
	return nil
}

// FetchLatest reads rows matching the filter with the same hour-bucket rules
// as the PostgreSQL store.
func (s *SnapshotStore) FetchLatest(_ context.Context, table string, f storage.SnapshotFilter) ([]*domain.SnapshotRow, error) {
	if table == "" {
		return nil, fmt.Errorf("%w: empty table name", storage.ErrInvalidInput)
	}
	if !storage.AllowedScrapeTable(table) {
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownTable, table)
	}

	var start, end time.Time
	if f.At == nil {
		start = domain.HourBucket(s.Now())
	} else {
		start = domain.HourBucket(*f.At)
		end = start.Add(time.Hour)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.SnapshotRow
	for _, r := range s.data[table] {
		if r.ScrapeTime.Before(start) {
			continue
		}
		if !end.IsZero() && !r.ScrapeTime.Before(end) {
			continue
		}
		if f.Name != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.Name)) {
			continue
		}
		if f.Tier != nil && r.Tier != *f.Tier {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemID != out[j].ItemID {
			return out[i].ItemID < out[j].ItemID
		}
		return out[i].Tier < out[j].Tier
	})
	return out, nil
}

// Count returns the number of stored rows for a table.
func (s *SnapshotStore) Count(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[table])
}
