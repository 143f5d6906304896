package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bdo-market-etl/internal/domain"
	"bdo-market-etl/internal/storage"
)

func row(scrape time.Time, name string, itemID, tier int) *domain.SnapshotRow {
	return &domain.SnapshotRow{
		ScrapeTime:    scrape,
		Category:      domain.CategoryAccessory,
		Name:          name,
		ItemID:        itemID,
		Tier:          tier,
		LastSoldPrice: 100,
	}
}

func TestSnapshotStore_InsertBatchValidation(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)

	err := store.InsertBatch(ctx, "marketsublist", nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.InsertBatch(ctx, "", []*domain.SnapshotRow{row(now, "Ogre Ring", 11653, 0)})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.InsertBatch(ctx, "evil; DROP TABLE", []*domain.SnapshotRow{row(now, "Ogre Ring", 11653, 0)})
	assert.ErrorIs(t, err, storage.ErrUnknownTable)
}

func TestSnapshotStore_ReingestIsIdempotent(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)

	batch := []*domain.SnapshotRow{
		row(now, "Ogre Ring", 11653, 0),
		row(now, "Ogre Ring", 11653, 1),
	}

	require.NoError(t, store.InsertBatch(ctx, "marketsublist", batch))
	require.Equal(t, 2, store.Count("marketsublist"))

	// Re-running the same hour changes nothing.
	require.NoError(t, store.InsertBatch(ctx, "marketsublist", batch))
	assert.Equal(t, 2, store.Count("marketsublist"))

	// The next hour is a fresh key.
	later := []*domain.SnapshotRow{row(now.Add(time.Hour), "Ogre Ring", 11653, 0)}
	require.NoError(t, store.InsertBatch(ctx, "marketsublist", later))
	assert.Equal(t, 3, store.Count("marketsublist"))
}

func TestSnapshotStore_DuplicateWithinBatch(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)

	batch := []*domain.SnapshotRow{
		row(now, "Ogre Ring", 11653, 0),
		row(now, "Ogre Ring", 11653, 0),
	}
	require.NoError(t, store.InsertBatch(ctx, "marketsublist", batch))
	assert.Equal(t, 1, store.Count("marketsublist"))
}

func TestSnapshotStore_FetchLatestDefaultsToCurrentHour(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }

	bucket := domain.HourBucket(now)
	require.NoError(t, store.InsertBatch(ctx, "marketsublist", []*domain.SnapshotRow{
		row(bucket.Add(-time.Hour), "Ogre Ring", 11653, 0),
		row(bucket, "Ogre Ring", 11653, 0),
		row(bucket, "Tungrad Necklace", 11625, 0),
	}))

	rows, err := store.FetchLatest(ctx, "marketsublist", storage.SnapshotFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, bucket, r.ScrapeTime)
	}
}

func TestSnapshotStore_FetchLatestAtWindow(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertBatch(ctx, "marketsublist", []*domain.SnapshotRow{
		row(base, "Ogre Ring", 11653, 0),
		row(base.Add(time.Hour), "Ogre Ring", 11653, 0),
	}))

	at := base.Add(25 * time.Minute) // inside the 10:00 bucket
	rows, err := store.FetchLatest(ctx, "marketsublist", storage.SnapshotFilter{At: &at})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, base, rows[0].ScrapeTime)
}

func TestSnapshotStore_FetchLatestFilters(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }

	require.NoError(t, store.InsertBatch(ctx, "marketsublist", []*domain.SnapshotRow{
		row(now, "Ogre Ring", 11653, 0),
		row(now, "Ogre Ring", 11653, 1),
		row(now, "Tungrad Necklace", 11625, 0),
	}))

	rows, err := store.FetchLatest(ctx, "marketsublist", storage.SnapshotFilter{Name: "ogre"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	tier := 1
	rows, err = store.FetchLatest(ctx, "marketsublist", storage.SnapshotFilter{Tier: &tier})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Tier)

	rows, err = store.FetchLatest(ctx, "marketsublist", storage.SnapshotFilter{Name: "nothing"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSnapshotStore_TablesAreIsolated(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }

	require.NoError(t, store.InsertBatch(ctx, "marketsublist", []*domain.SnapshotRow{
		row(now, "Ogre Ring", 11653, 0),
	}))
	require.NoError(t, store.InsertBatch(ctx, "marketlist", []*domain.SnapshotRow{
		row(now, "Ogre Ring", 11653, 0),
	}))

	assert.Equal(t, 1, store.Count("marketsublist"))
	assert.Equal(t, 1, store.Count("marketlist"))

	rows, err := store.FetchLatest(ctx, "biddinginfo", storage.SnapshotFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
