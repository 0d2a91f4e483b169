package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTick(t *testing.T) {
	ticksBefore := testutil.ToFloat64(DefaultMetrics.TicksTotal)
	blocksBefore := testutil.ToFloat64(DefaultMetrics.BlocksFoundTotal.WithLabelValues("DOGE"))

	RecordTick(TickObservation{
		Coin:                 "DOGE",
		BlockFound:           true,
		ElapsedSeconds:       42,
		TotalEarningsUSD:     800,
		ProbabilityPerSecond: 0.25,
		CoinPriceUSD:         0.08,
		NetworkDifficulty:    8e6,
		HistorySize:          42,
	})

	assert.Equal(t, ticksBefore+1, testutil.ToFloat64(DefaultMetrics.TicksTotal))
	assert.Equal(t, blocksBefore+1, testutil.ToFloat64(DefaultMetrics.BlocksFoundTotal.WithLabelValues("DOGE")))
	assert.Equal(t, 42.0, testutil.ToFloat64(DefaultMetrics.ElapsedSeconds))
	assert.Equal(t, 800.0, testutil.ToFloat64(DefaultMetrics.TotalEarningsUSD))
	assert.Equal(t, 0.25, testutil.ToFloat64(DefaultMetrics.ProbabilityPerSecond))
}

func TestRecordArchiveWrite_CountsErrors(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.ArchiveErrors.WithLabelValues("memory", "insert"))

	RecordArchiveWrite("memory", "insert", 0.001, nil)
	RecordArchiveWrite("memory", "insert", 0.001, assert.AnError)

	assert.Equal(t, before+1, testutil.ToFloat64(DefaultMetrics.ArchiveErrors.WithLabelValues("memory", "insert")))
}
