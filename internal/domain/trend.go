package domain

import "time"

// TrendResult is one row of the trading-volume trend ranking. It is derived
// on demand by joining two snapshots and is never persisted.
//
// AvgTradesPerDay is nil when the sub-day scaling branch declined to produce
// a value (no remaining hours until the end-of-day reference).
type TrendResult struct {
	AnalyzeTime     time.Time
	Category        Category
	Name            string
	ItemID          int
	Tier            int
	Price           int64 // current last sold price
	Stock           int64 // current stock
	VolumeChange    int64
	AvgTradesPerDay *float64
}
