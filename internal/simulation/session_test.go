package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mining-sim-lab/internal/domain"
	"mining-sim-lab/internal/history"
)

func mustCoin(t *testing.T, symbol string) domain.Coin {
	t.Helper()
	coin, err := domain.LookupCoin(symbol)
	require.NoError(t, err)
	return coin
}

func newBTCSession(t *testing.T) *Session {
	t.Helper()
	return NewSession(mustCoin(t, domain.CoinBTC), domain.DefaultMiningParameters(), history.DefaultCapacity)
}

func TestStep_BlockFoundAndSample(t *testing.T) {
	s := newBTCSession(t)
	// discovery, hashrate, power, temperature, price
	rng := NewSequenceSource(0.3, 0.5, 0.5, 0.25, 0.5)

	res := Step(s, rng)

	assert.Equal(t, 5, rng.Draws())
	assert.Equal(t, int64(1), s.Clock.ElapsedSeconds)
	assert.True(t, res.BlockFound)
	assert.Equal(t, int64(1), s.Counters.BlocksFound)
	assert.InDelta(t, 6.25*45000*0.985, s.Counters.TotalEarningsUSD, 1e-6)

	sample := res.Sample
	assert.Equal(t, int64(1), sample.TimeSeconds)
	assert.InDelta(t, 100, sample.Hashrate, 1e-9)
	assert.InDelta(t, 3250, sample.PowerWatts, 1e-9)
	assert.InDelta(t, 70, sample.TemperatureC, 1e-9)
	assert.InDelta(t, res.Economics.HourlyRevenueUSD(), sample.HourlyRevenueUSD, 1e-9)
	assert.InDelta(t, res.Economics.HourlyProfitUSD(), sample.HourlyProfitUSD, 1e-9)
	assert.Equal(t, 30.77, sample.Efficiency)

	require.Equal(t, 1, s.History.Len())
	latest, _ := s.History.Latest()
	assert.Equal(t, sample, latest)

	// u=0.5 leaves the price unchanged
	assert.InDelta(t, 45000, s.Market.CoinPriceUSD, 1e-9)
	assert.False(t, res.DifficultyRetargeted)
}

func TestStep_JitterBounds(t *testing.T) {
	s := newBTCSession(t)

	low := Step(s, NewSequenceSource(0.9, 0, 0, 0, 0.5))
	assert.InDelta(t, 97.5, low.Sample.Hashrate, 1e-9)
	assert.InDelta(t, 3200, low.Sample.PowerWatts, 1e-9)
	assert.InDelta(t, 65, low.Sample.TemperatureC, 1e-9)

	high := Step(s, NewSequenceSource(0.9, 0.999, 0.999, 0.999, 0.5))
	assert.Less(t, high.Sample.Hashrate, 102.5)
	assert.Less(t, high.Sample.PowerWatts, 3300.0)
	assert.Less(t, high.Sample.TemperatureC, 85.0)
}

func TestStep_NoBlockWhenDrawAboveProbability(t *testing.T) {
	s := newBTCSession(t)
	s.Market.NetworkDifficulty = 1e30

	res := Step(s, NewSequenceSource(0.3, 0.5, 0.5, 0.5, 0.5))

	assert.False(t, res.BlockFound)
	assert.Equal(t, int64(0), s.Counters.BlocksFound)
	assert.Equal(t, 0.0, s.Counters.TotalEarningsUSD)
	assert.Equal(t, int64(1), s.Clock.ElapsedSeconds)
}

func TestStep_ZeroDifficultyNeverFinds(t *testing.T) {
	s := newBTCSession(t)
	s.Market.NetworkDifficulty = 0

	res := Step(s, NewSequenceSource(0))

	assert.False(t, res.BlockFound)
	assert.Equal(t, 0.0, res.Economics.ProbabilityPerSecond)
}

func TestStep_SixtyTicksKeepsLastFifty(t *testing.T) {
	s := newBTCSession(t)
	rng := NewSeededSource(1)

	for i := 0; i < 60; i++ {
		Step(s, rng)
	}

	samples := s.History.Samples()
	require.Len(t, samples, 50)
	for i, sample := range samples {
		assert.Equal(t, int64(11+i), sample.TimeSeconds)
	}
}

func TestStep_DifficultyOnlyMovesAtHundred(t *testing.T) {
	s := newBTCSession(t)
	rng := NewSeededSource(7)
	initial := s.Market.NetworkDifficulty

	for i := 1; i <= 99; i++ {
		res := Step(s, rng)
		if res.DifficultyRetargeted {
			t.Fatalf("retarget flagged at tick %d", i)
		}
		if s.Market.NetworkDifficulty != initial {
			t.Fatalf("difficulty changed at tick %d: %v", i, s.Market.NetworkDifficulty)
		}
	}

	res := Step(s, rng)
	assert.True(t, res.DifficultyRetargeted)
	assert.NotEqual(t, initial, s.Market.NetworkDifficulty)
	assert.GreaterOrEqual(t, s.Market.NetworkDifficulty, initial*0.98)
	assert.Less(t, s.Market.NetworkDifficulty, initial*1.02)
}

func TestStep_CountersMonotonic(t *testing.T) {
	s := newBTCSession(t)
	rng := NewSeededSource(3)

	var prev domain.Counters
	var prevClock int64
	for i := 0; i < 500; i++ {
		Step(s, rng)
		if s.Clock.ElapsedSeconds != prevClock+1 {
			t.Fatalf("clock jumped from %d to %d", prevClock, s.Clock.ElapsedSeconds)
		}
		if s.Counters.BlocksFound < prev.BlocksFound || s.Counters.TotalEarningsUSD < prev.TotalEarningsUSD {
			t.Fatalf("counters decreased at tick %d: %+v -> %+v", i+1, prev, s.Counters)
		}
		prev = s.Counters
		prevClock = s.Clock.ElapsedSeconds
	}
}

func TestStep_SameSeedSameRun(t *testing.T) {
	a := newBTCSession(t)
	b := newBTCSession(t)
	ra := NewSeededSource(99)
	rb := NewSeededSource(99)

	for i := 0; i < 150; i++ {
		Step(a, ra)
		Step(b, rb)
	}

	assert.Equal(t, a.Snapshot(), b.Snapshot())
	assert.Equal(t, a.History.Samples(), b.History.Samples())
}

func TestSession_Reset(t *testing.T) {
	s := newBTCSession(t)
	rng := NewSeededSource(5)
	for i := 0; i < 120; i++ {
		Step(s, rng)
	}
	params := s.Parameters

	s.Reset()

	assert.Equal(t, int64(0), s.Clock.ElapsedSeconds)
	assert.Equal(t, domain.Counters{}, s.Counters)
	assert.Equal(t, 0, s.History.Len())
	assert.Equal(t, mustCoin(t, domain.CoinBTC).Market(), s.Market)
	assert.Equal(t, params, s.Parameters)
}

func TestSession_SelectCoinKeepsClock(t *testing.T) {
	s := newBTCSession(t)
	Step(s, NewSequenceSource(0.5))
	params := s.Parameters

	s.SelectCoin(mustCoin(t, domain.CoinETH))

	assert.Equal(t, domain.MarketState{CoinPriceUSD: 2800, NetworkDifficulty: 1.5e16, BlockRewardCoins: 2}, s.Market)
	assert.Equal(t, params, s.Parameters)
	assert.Equal(t, int64(1), s.Clock.ElapsedSeconds)
	assert.Equal(t, 1, s.History.Len())
}
