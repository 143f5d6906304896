package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bdo-market-etl/internal/domain"
	"bdo-market-etl/internal/storage"
	"bdo-market-etl/internal/storage/postgres"
)

func makeReport(analyze time.Time, name string, tier int, rate float64) *domain.ProfitReportRow {
	return &domain.ProfitReportRow{
		AnalyzeTime: analyze,
		Category:    domain.CategoryAccessory,
		Name:        name,
		Tier:        tier,
		Price:       500,
		Profit:      170.95,
		Rate:        rate,
		Stock:       3,
	}
}

func TestReportStore_InsertAndLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewReportStore(pool, nil)
	ctx := context.Background()
	analyze := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)

	rows := []*domain.ProfitReportRow{
		makeReport(analyze, "Ogre Ring", 1, 1.3),
		makeReport(analyze, "Ogre Ring", 2, 1.569833),
		makeReport(analyze, "Tungrad Necklace", 1, 1.8),
	}
	require.NoError(t, store.InsertBatch(ctx, "profitabilityreport", rows))

	got, err := store.Latest(ctx, "profitabilityreport")
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Rate descending.
	assert.Equal(t, "Tungrad Necklace", got[0].Name)
	assert.Equal(t, "Ogre Ring", got[1].Name)
	assert.Equal(t, 2, got[1].Tier)
	assert.InDelta(t, 1.569833, got[1].Rate, 1e-9)
	assert.Equal(t, "Ogre Ring", got[2].Name)
	assert.Equal(t, 1, got[2].Tier)

	for _, r := range got {
		assert.True(t, analyze.Equal(r.AnalyzeTime))
		assert.Equal(t, domain.CategoryAccessory, r.Category)
	}
}

func TestReportStore_ReanalysisIsIdempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewReportStore(pool, nil)
	ctx := context.Background()
	analyze := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)

	rows := []*domain.ProfitReportRow{
		makeReport(analyze, "Ogre Ring", 1, 1.3),
		makeReport(analyze, "Ogre Ring", 2, 1.57),
	}
	require.NoError(t, store.InsertBatch(ctx, "profitabilityreport", rows))
	require.NoError(t, store.InsertBatch(ctx, "profitabilityreport", rows))

	got, err := store.Latest(ctx, "profitabilityreport")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestReportStore_LatestPicksNewestBucket(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewReportStore(pool, nil)
	ctx := context.Background()
	earlier := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Hour)

	require.NoError(t, store.InsertBatch(ctx, "profitabilityreport", []*domain.ProfitReportRow{
		makeReport(earlier, "Ogre Ring", 1, 9.9),
		makeReport(earlier, "Ogre Ring", 2, 9.8),
	}))
	require.NoError(t, store.InsertBatch(ctx, "profitabilityreport", []*domain.ProfitReportRow{
		makeReport(later, "Ogre Ring", 1, 1.3),
	}))

	got, err := store.Latest(ctx, "profitabilityreport")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, later.Equal(got[0].AnalyzeTime))
	assert.InDelta(t, 1.3, got[0].Rate, 1e-9)
}

func TestReportStore_LatestEmptyTable(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewReportStore(pool, nil)

	_, err := store.Latest(context.Background(), "profitabilityreport")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReportStore_RejectsUnlistedTable(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewReportStore(pool, nil)
	ctx := context.Background()
	analyze := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	rows := []*domain.ProfitReportRow{makeReport(analyze, "Ogre Ring", 1, 1.3)}

	err := store.InsertBatch(ctx, "marketsublist", rows)
	assert.ErrorIs(t, err, storage.ErrUnknownTable)

	_, err = store.Latest(ctx, "profitabilityreport; --")
	assert.ErrorIs(t, err, storage.ErrUnknownTable)
}
