// Package analysis derives the profitability report and the trading-volume
// trend ranking from stored snapshots.
package analysis

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"bdo-market-etl/internal/domain"
)

// Reasons a per-item profit computation can fail.
var (
	// ErrMissingBaseline: the item has no tier-0 (clean) row to compare
	// against.
	ErrMissingBaseline = errors.New("analysis: missing tier 0 baseline price")

	// ErrMissingPrevTier: the immediately preceding tier is absent from the
	// item's partition.
	ErrMissingPrevTier = errors.New("analysis: missing previous tier price")

	// ErrZeroCost: prev + clean price sum to zero, making the rate of return
	// undefined. Surfaced as a failure rather than a silent Inf/NaN.
	ErrZeroCost = errors.New("analysis: zero upgrade cost")
)

// ItemError reports the failure of one item's profit computation. A failing
// item aborts only its own rows; the rest of the batch proceeds.
type ItemError struct {
	ItemID int
	Name   string
	Tier   int
	Cause  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("analysis: item %d (%s) tier %d: %v", e.ItemID, e.Name, e.Tier, e.Cause)
}

func (e *ItemError) Unwrap() error { return e.Cause }

// ProfitOptions configures a profit analysis run.
type ProfitOptions struct {
	// Category filters the snapshot before analysis. Defaults to accessory.
	Category domain.Category
	// Merchant selects the merchant after-tax rate instead of the normal one.
	Merchant bool
	// Now overrides the wall clock; the whole batch is tagged with one
	// hour-truncated analyze time derived from it.
	Now func() time.Time
}

// Stats is the derived profit and rate of return for one (item, tier) pair.
type Stats struct {
	Profit float64
	Rate   float64
}

// CalculateStats computes profit and rate of return for one tier of an item
// partition. prices maps tier → last sold price for a single item. Tier 0 has
// no prior tier to compare against and is zero by definition.
func CalculateStats(prices map[int]int64, tier int, merchant bool) (Stats, error) {
	if tier == 0 {
		return Stats{}, nil
	}

	current, ok := prices[tier]
	if !ok {
		return Stats{}, fmt.Errorf("analysis: no price at tier %d", tier)
	}
	prev, ok := prices[tier-1]
	if !ok {
		return Stats{}, ErrMissingPrevTier
	}
	clean, ok := prices[0]
	if !ok {
		return Stats{}, ErrMissingBaseline
	}

	cost := prev + clean
	if cost == 0 {
		return Stats{}, ErrZeroCost
	}

	profit := float64(current-cost) * domain.AfterTaxRate(merchant)
	return Stats{
		Profit: profit,
		Rate:   1 + profit/float64(cost),
	}, nil
}

// AnalyzeProfit derives a profit report batch from the latest snapshot rows.
// Rows are filtered to the target category, partitioned by item id and
// processed tier-ascending. Items whose comparison data is incomplete are
// dropped and reported in the returned item errors; the remaining items are
// unaffected. The result carries a single hour-truncated analyze time and is
// sorted by rate descending.
func AnalyzeProfit(rows []*domain.SnapshotRow, opts ProfitOptions) ([]*domain.ProfitReportRow, []*ItemError) {
	if opts.Category == "" {
		opts.Category = domain.CategoryAccessory
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	analyzeTime := domain.HourBucket(now())

	// Partition by item id within the target category.
	partitions := make(map[int][]*domain.SnapshotRow)
	var order []int
	for _, r := range rows {
		if r.Category != opts.Category {
			continue
		}
		if _, seen := partitions[r.ItemID]; !seen {
			order = append(order, r.ItemID)
		}
		partitions[r.ItemID] = append(partitions[r.ItemID], r)
	}
	sort.Ints(order)

	var (
		report   []*domain.ProfitReportRow
		itemErrs []*ItemError
	)
	for _, itemID := range order {
		part := partitions[itemID]
		sort.Slice(part, func(i, j int) bool { return part[i].Tier < part[j].Tier })

		prices := make(map[int]int64, len(part))
		for _, r := range part {
			prices[r.Tier] = r.LastSoldPrice
		}

		itemRows := make([]*domain.ProfitReportRow, 0, len(part))
		failed := false
		for _, r := range part {
			stats, err := CalculateStats(prices, r.Tier, opts.Merchant)
			if err != nil {
				itemErrs = append(itemErrs, &ItemError{ItemID: itemID, Name: r.Name, Tier: r.Tier, Cause: err})
				failed = true
				continue
			}
			itemRows = append(itemRows, &domain.ProfitReportRow{
				AnalyzeTime: analyzeTime,
				Category:    r.Category,
				Name:        r.Name,
				Tier:        r.Tier,
				Price:       r.LastSoldPrice,
				Profit:      stats.Profit,
				Rate:        stats.Rate,
				Stock:       r.CurrentStock,
			})
		}
		// A failing item aborts all of its rows, not the whole batch.
		if !failed {
			report = append(report, itemRows...)
		}
	}

	sort.SliceStable(report, func(i, j int) bool { return report[i].Rate > report[j].Rate })
	return report, itemErrs
}
