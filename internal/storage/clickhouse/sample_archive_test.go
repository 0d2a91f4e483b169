package clickhouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mining-sim-lab/internal/domain"
	"mining-sim-lab/internal/storage"
	"mining-sim-lab/internal/storage/clickhouse"
)

func testSample(runID string, ts int64) *domain.ArchivedSample {
	return &domain.ArchivedSample{
		RunID: runID,
		Coin:  domain.CoinBTC,
		MetricsSample: domain.MetricsSample{
			TimeSeconds:      ts,
			Hashrate:         101.2,
			PowerWatts:       3240,
			TemperatureC:     71.5,
			HourlyProfitUSD:  14.1,
			HourlyRevenueUSD: 14.4,
			Efficiency:       31.23,
		},
	}
}

func TestSampleArchive_InsertBulk(t *testing.T) {
	conn := setupTestDB(t)

	store := clickhouse.NewSampleArchive(conn)
	ctx := context.Background()

	// Empty insert
	assert.NoError(t, store.InsertBulk(ctx, nil))

	err := store.InsertBulk(ctx, []*domain.ArchivedSample{testSample("run-1", 2), testSample("run-1", 1)})
	require.NoError(t, err)

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].TimeSeconds)
	assert.Equal(t, *testSample("run-1", 1), *got[0])
}

func TestSampleArchive_InsertBulk_DuplicateKey(t *testing.T) {
	conn := setupTestDB(t)

	store := clickhouse.NewSampleArchive(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.ArchivedSample{testSample("run-1", 1)}))

	err := store.InsertBulk(ctx, []*domain.ArchivedSample{testSample("run-1", 2), testSample("run-1", 1)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSampleArchive_InsertBulk_IntraBatchDuplicate(t *testing.T) {
	conn := setupTestDB(t)

	store := clickhouse.NewSampleArchive(conn)

	err := store.InsertBulk(context.Background(), []*domain.ArchivedSample{testSample("run-1", 5), testSample("run-1", 5)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSampleArchive_GetByTimeRange(t *testing.T) {
	conn := setupTestDB(t)

	store := clickhouse.NewSampleArchive(conn)
	ctx := context.Background()

	var batch []*domain.ArchivedSample
	for ts := int64(1); ts <= 10; ts++ {
		batch = append(batch, testSample("run-1", ts))
	}
	batch = append(batch, testSample("run-2", 4))
	require.NoError(t, store.InsertBulk(ctx, batch))

	got, err := store.GetByTimeRange(ctx, "run-1", 4, 6)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(4), got[0].TimeSeconds)
	assert.Equal(t, int64(6), got[2].TimeSeconds)
	for _, s := range got {
		assert.Equal(t, "run-1", s.RunID)
	}
}
