package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"bdo-market-etl/internal/domain"
	"bdo-market-etl/internal/storage"
)

// ErrInvalidPeriod is returned when the look-back period is not a positive
// number of days.
var ErrInvalidPeriod = errors.New("analysis: period must be at least one day")

// secondsPerDay is the normalization base for average trades per day.
const secondsPerDay = 86400

// dayEndHour is the fixed end-of-day reference hour (23:00 local) used by the
// sub-day scaling heuristic.
const dayEndHour = 23

// TrendAnalyzer ranks items by normalized trading-volume change between the
// current snapshot and one a configurable number of days back. Results are
// transient; nothing is persisted.
type TrendAnalyzer struct {
	store  storage.SnapshotStore
	table  string
	logger *slog.Logger
	now    func() time.Time
}

// NewTrendAnalyzer creates a trend analyzer reading from the allow-listed
// snapshot table behind the trend report key.
func NewTrendAnalyzer(store storage.SnapshotStore, logger *slog.Logger) (*TrendAnalyzer, error) {
	table, err := storage.ReportSource("trend")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TrendAnalyzer{store: store, table: table, logger: logger, now: time.Now}, nil
}

// WithClock overrides the analyzer's wall clock. Tests pin it.
func (a *TrendAnalyzer) WithClock(now func() time.Time) *TrendAnalyzer {
	a.now = now
	return a
}

// joinKey identifies an item across two snapshots.
type joinKey struct {
	Category domain.Category
	Name     string
	ItemID   int
	Tier     int
}

// Analyze fetches the current-hour snapshot and the one periodDays back,
// inner-joins them on item identity and returns the rows ranked by average
// trades per day descending. Either snapshot being empty yields an empty
// result, not an error.
func (a *TrendAnalyzer) Analyze(ctx context.Context, periodDays int) ([]*domain.TrendResult, error) {
	if periodDays < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPeriod, periodDays)
	}

	now := a.now()
	past := now.Add(-time.Duration(periodDays) * 24 * time.Hour)

	current, err := a.store.FetchLatest(ctx, a.table, storage.SnapshotFilter{At: &now})
	if err != nil {
		return nil, err
	}
	pastRows, err := a.store.FetchLatest(ctx, a.table, storage.SnapshotFilter{At: &past})
	if err != nil {
		return nil, err
	}
	if len(current) == 0 || len(pastRows) == 0 {
		a.logger.Warn("trend analysis has nothing to compare",
			"current_rows", len(current), "past_rows", len(pastRows))
		return nil, nil
	}

	return JoinTrend(current, pastRows, now, past), nil
}

// JoinTrend inner-joins two snapshots on (category, name, item id, tier) and
// computes the volume change and normalized daily trade average for each
// matched pair. Items present in only one snapshot are dropped. Exposed with
// explicit timestamps so the time-normalization branches are directly
// exercisable.
func JoinTrend(current, past []*domain.SnapshotRow, now, pastTime time.Time) []*domain.TrendResult {
	pastByKey := make(map[joinKey]*domain.SnapshotRow, len(past))
	for _, r := range past {
		pastByKey[joinKey{r.Category, r.Name, r.ItemID, r.Tier}] = r
	}

	analyzeTime := domain.HourBucket(now)
	var results []*domain.TrendResult
	for _, cur := range current {
		prev, ok := pastByKey[joinKey{cur.Category, cur.Name, cur.ItemID, cur.Tier}]
		if !ok {
			continue
		}
		change := cur.TotalTrades - prev.TotalTrades
		results = append(results, &domain.TrendResult{
			AnalyzeTime:     analyzeTime,
			Category:        cur.Category,
			Name:            cur.Name,
			ItemID:          cur.ItemID,
			Tier:            cur.Tier,
			Price:           cur.LastSoldPrice,
			Stock:           cur.CurrentStock,
			VolumeChange:    change,
			AvgTradesPerDay: normalizeTradesPerDay(change, now, pastTime),
		})
	}

	// Rank by daily average descending; rows without a value go last.
	sort.SliceStable(results, func(i, j int) bool {
		ri, rj := results[i].AvgTradesPerDay, results[j].AvgTradesPerDay
		switch {
		case ri == nil:
			return false
		case rj == nil:
			return true
		default:
			return *ri > *rj
		}
	})
	return results
}

// normalizeTradesPerDay converts a volume change over [pastTime, now] into an
// average-trades-per-day figure.
//
// Windows of a day or longer divide by the elapsed day count. Sub-day windows
// would wildly mis-estimate a daily rate from a partial sample, so they scale
// by the hours remaining until the 23:00 end-of-day reference instead; when
// no positive remainder exists the value is left undefined rather than scaled
// by a non-positive factor. The sub-day branch is a heuristic approximation,
// not an exact projection.
func normalizeTradesPerDay(volumeChange int64, now, pastTime time.Time) *float64 {
	elapsed := now.Sub(pastTime).Seconds()
	if elapsed >= secondsPerDay {
		avg := float64(volumeChange) / (elapsed / secondsPerDay)
		return &avg
	}

	dayEnd := time.Date(now.Year(), now.Month(), now.Day(), dayEndHour, 0, 0, 0, now.Location())
	remainingHours := dayEnd.Sub(now).Hours()
	if remainingHours <= 0 {
		return nil
	}
	avg := float64(volumeChange) * (24 / remainingHours)
	return &avg
}
