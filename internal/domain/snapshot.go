package domain

import "time"

// Enhancement tier bounds. Tier 0 is the unenhanced ("clean") item and is the
// baseline both analyzers compare against.
const (
	MinTier = 0
	MaxTier = 20
)

// SnapshotRow is one priced-item observation from the world market.
// Corresponds to the scrape tables in PostgreSQL.
// Identity key: (ScrapeTime, ItemID, Tier); rows are immutable once stored.
type SnapshotRow struct {
	ScrapeTime    time.Time // collection time, truncated to the hour
	Category      Category
	Name          string
	ItemID        int
	Tier          int // enhancement level (sid), 0..20
	MinEnhance    int
	MaxEnhance    int
	BasePrice     int64
	CurrentStock  int64
	TotalTrades   int64
	PriceMin      int64
	PriceMax      int64
	LastSoldPrice int64
	LastSoldTime  time.Time
}

// HourBucket truncates t to the top of its hour. Same-hour reruns of the
// pipeline collapse to one logical snapshot through this truncation.
func HourBucket(t time.Time) time.Time {
	return t.Truncate(time.Hour)
}
