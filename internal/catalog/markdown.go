package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Item is one row of the curated markdown item table.
type Item struct {
	Name         string
	ID           int
	MainCategory string
	SubCategory  string
}

// ParseMarkdownTable parses the curated item table, a pipe-delimited markdown
// table with columns name | id | mainCategory | subCategory. The header and
// separator rows are skipped; blank lines are ignored.
func ParseMarkdownTable(md string) ([]Item, error) {
	lines := strings.Split(md, "\n")
	var items []Item
	row := 0
	for _, line := range lines {
		line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "|"))
		if line == "" {
			continue
		}
		row++
		// Header and |---|---| separator.
		if row <= 2 {
			continue
		}
		cols := strings.Split(line, "|")
		if len(cols) < 4 {
			return nil, fmt.Errorf("catalog: malformed table row %q", line)
		}
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		id, err := strconv.Atoi(cols[1])
		if err != nil {
			return nil, fmt.Errorf("catalog: bad item id in row %q: %w", line, err)
		}
		items = append(items, Item{
			Name:         cols[0],
			ID:           id,
			MainCategory: cols[2],
			SubCategory:  cols[3],
		})
	}
	return items, nil
}

// ItemFilter narrows a parsed item table. Zero-value fields match everything.
type ItemFilter struct {
	Keyword      string // substring match on name
	MainCategory string
	SubCategory  string
}

// FilterItems returns the items matching every set filter field.
func FilterItems(items []Item, f ItemFilter) []Item {
	var out []Item
	for _, it := range items {
		if f.Keyword != "" && !strings.Contains(it.Name, f.Keyword) {
			continue
		}
		if f.MainCategory != "" && it.MainCategory != f.MainCategory {
			continue
		}
		if f.SubCategory != "" && it.SubCategory != f.SubCategory {
			continue
		}
		out = append(out, it)
	}
	return out
}
