// Package catalog loads the static item list that maps item (or group) names
// to market identifiers and classifies ids into game-shop categories.
//
// The list is loaded once per process invocation. Loading runs a dedup pass
// over each entry and rewrites the backing file only when duplicates were
// removed; the catalog is immutable afterwards.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"bdo-market-etl/internal/domain"
)

// Catalog errors.
var (
	ErrEmptyList   = errors.New("catalog: item list is empty")
	ErrUnknownName = errors.New("catalog: unknown item name")
)

// Catalog is the loaded item list. Keys are item or group names ("all",
// "accessory", a specific item name); values are the market identifiers the
// name resolves to.
type Catalog struct {
	entries map[string][]int
}

// Load reads the item list at path, deduplicates identifiers per entry and
// rewrites the file if any duplicates were removed.
func Load(path string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item list %s: %w", path, err)
	}

	var parsed map[string]idList
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse item list %s: %w", path, err)
	}
	if len(parsed) == 0 {
		return nil, ErrEmptyList
	}

	entries := make(map[string][]int, len(parsed))
	changed := false
	for name, ids := range parsed {
		deduped := dedupe(ids)
		if len(deduped) != len(ids) {
			logger.Info("deduplicated item ids", "name", name, "removed", len(ids)-len(deduped))
			changed = true
		}
		entries[name] = deduped
	}

	if changed {
		if err := write(path, entries); err != nil {
			return nil, fmt.Errorf("rewrite item list %s: %w", path, err)
		}
		logger.Info("item list rewritten after dedup", "path", path)
	}

	return &Catalog{entries: entries}, nil
}

// ItemIDs resolves a name to its market identifiers.
func (c *Catalog) ItemIDs(name string) ([]int, error) {
	ids, ok := c.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	return ids, nil
}

// Category classifies an item id by membership in the category groups,
// defaulting to unknown for unclassified ids.
func (c *Catalog) Category(itemID int) domain.Category {
	for _, group := range []domain.Category{domain.CategoryBuff, domain.CategoryCostume, domain.CategoryAccessory} {
		for _, id := range c.entries[string(group)] {
			if id == itemID {
				return group
			}
		}
	}
	return domain.CategoryUnknown
}

// idList accepts both a bare integer and a list of integers, matching the
// two shapes the item list file uses.
type idList []int

func (l *idList) UnmarshalJSON(data []byte) error {
	var many []int
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one int
	if err := json.Unmarshal(data, &one); err != nil {
		return fmt.Errorf("item ids must be an int or a list of ints: %w", err)
	}
	*l = []int{one}
	return nil
}

// dedupe returns the sorted set of ids.
func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

func write(path string, entries map[string][]int) error {
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
