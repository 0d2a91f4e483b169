package simulation

import (
	"mining-sim-lab/internal/domain"
	"mining-sim-lab/internal/drift"
	"mining-sim-lab/internal/history"
	"mining-sim-lab/internal/probability"
)

// Sample jitter and temperature model.
const (
	hashrateJitter  = 5.0   // total width, ±2.5 TH/s
	powerJitter     = 100.0 // total width, ±50 W
	baseTemperature = 65.0
	temperatureSpan = 20.0
)

// Session bundles all mutable state of one simulation run.
type Session struct {
	Coin       domain.Coin
	Parameters domain.MiningParameters
	Market     domain.MarketState
	Clock      domain.Clock
	Counters   domain.Counters
	History    *history.Buffer
}

// NewSession creates a session at t=0 with the coin's canonical market.
func NewSession(coin domain.Coin, params domain.MiningParameters, historySize int) *Session {
	return &Session{
		Coin:       coin,
		Parameters: params,
		Market:     coin.Market(),
		History:    history.NewBuffer(historySize),
	}
}

// Reset zeroes the clock, counters and history and reseeds the market.
// Parameters are kept.
func (s *Session) Reset() {
	s.Clock = domain.Clock{}
	s.Counters = domain.Counters{}
	s.History.Reset()
	s.Market = s.Coin.Market()
}

// SelectCoin switches coin and reseeds the market only.
func (s *Session) SelectCoin(coin domain.Coin) {
	s.Coin = coin
	s.Market = coin.Market()
}

// Snapshot copies the session state.
func (s *Session) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Coin:       s.Coin.Symbol,
		Parameters: s.Parameters,
		Market:     s.Market,
		Clock:      s.Clock,
		Counters:   s.Counters,
	}
}

// TickResult describes what a single step did.
type TickResult struct {
	Coin                 string
	Sample               domain.MetricsSample
	Economics            probability.Economics
	BlockFound           bool
	DifficultyRetargeted bool
	Clock                domain.Clock
	Counters             domain.Counters
	Market               domain.MarketState
}

// Step advances s by one simulated second. Draw order from rng is fixed:
// discovery, hashrate jitter, power jitter, temperature, then the drift draws.
func Step(s *Session, rng RandomSource) TickResult {
	// 1. Advance the clock
	s.Clock.ElapsedSeconds++
	elapsed := s.Clock.ElapsedSeconds

	// 2. Probability and economics for the current state
	econ := probability.Compute(s.Parameters, s.Market)

	// 3. Bernoulli trial for a block
	found := rng.Float64() < econ.ProbabilityPerSecond
	if found {
		s.Counters.BlocksFound++
		s.Counters.TotalEarningsUSD += probability.BlockPayoutUSD(s.Parameters, s.Market)
	}

	// 4. Record a sample
	hashrateNoise := (rng.Float64() - 0.5) * hashrateJitter
	powerNoise := (rng.Float64() - 0.5) * powerJitter
	temperature := baseTemperature + rng.Float64()*temperatureSpan

	sample := domain.MetricsSample{
		TimeSeconds:      elapsed,
		Hashrate:         s.Parameters.Hashrate + hashrateNoise,
		PowerWatts:       s.Parameters.PowerWatts + powerNoise,
		TemperatureC:     temperature,
		HourlyProfitUSD:  econ.HourlyProfitUSD(),
		HourlyRevenueUSD: econ.HourlyRevenueUSD(),
		Efficiency:       probability.Efficiency(s.Parameters.Hashrate, s.Parameters.PowerWatts),
	}
	s.History.Append(sample)

	// 5-6. Difficulty retarget and price noise
	market, retargeted := drift.Apply(s.Market, elapsed, rng)
	s.Market = market

	return TickResult{
		Coin:                 s.Coin.Symbol,
		Sample:               sample,
		Economics:            econ,
		BlockFound:           found,
		DifficultyRetargeted: retargeted,
		Clock:                s.Clock,
		Counters:             s.Counters,
		Market:               s.Market,
	}
}
