// Package probability turns hashrate and network difficulty into block
// discovery odds and the daily/hourly economics derived from them.
package probability

import (
	"math"

	"github.com/shopspring/decimal"

	"mining-sim-lab/internal/domain"
)

// Model constants.
const (
	DefaultBlockTimeSeconds = 600
	SecondsPerDay           = 86400
	HoursPerDay             = 24
	hashesPerTerahash       = 1e12
)

// TickProbability returns the chance of finding a block in one second.
//
// The network hashrate is approximated as difficulty / blockTime, which is a toy
// simplification of proof-of-work difficulty. The result is not capped at 1.
// Degenerate inputs (non-positive difficulty, hashrate or block time) yield 0.
func TickProbability(hashrate, difficulty, blockTimeSeconds float64) float64 {
	if difficulty <= 0 || hashrate <= 0 || blockTimeSeconds <= 0 {
		return 0
	}
	networkHashrate := difficulty / blockTimeSeconds
	myHashrateHz := hashrate * hashesPerTerahash
	p := myHashrateHz / networkHashrate / blockTimeSeconds
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return p
}

// Economics is the expected-value view of the current parameters and market.
type Economics struct {
	ProbabilityPerSecond float64 `json:"probability_per_second"`
	ExpectedBlocksPerDay float64 `json:"expected_blocks_per_day"`
	DailyRevenueUSD      float64 `json:"daily_revenue_usd"`
	DailyPowerCostUSD    float64 `json:"daily_power_cost_usd"`
	DailyPoolFeeUSD      float64 `json:"daily_pool_fee_usd"`
	DailyProfitUSD       float64 `json:"daily_profit_usd"`
}

// Compute derives the economics for params and market. It keeps no state.
func Compute(params domain.MiningParameters, market domain.MarketState) Economics {
	p := TickProbability(params.Hashrate, market.NetworkDifficulty, DefaultBlockTimeSeconds)
	blocksPerDay := p * SecondsPerDay
	revenue := blocksPerDay * market.BlockRewardCoins * market.CoinPriceUSD
	powerCost := DailyPowerCost(params.PowerWatts, params.ElectricityRate)
	feeFraction := params.PoolFeePercent / 100

	return Economics{
		ProbabilityPerSecond: p,
		ExpectedBlocksPerDay: blocksPerDay,
		DailyRevenueUSD:      revenue,
		DailyPowerCostUSD:    powerCost,
		DailyPoolFeeUSD:      revenue * feeFraction,
		DailyProfitUSD:       revenue*(1-feeFraction) - powerCost,
	}
}

// HourlyRevenueUSD is the daily revenue spread over 24 hours.
func (e Economics) HourlyRevenueUSD() float64 {
	return e.DailyRevenueUSD / HoursPerDay
}

// HourlyProfitUSD is the daily profit spread over 24 hours.
func (e Economics) HourlyProfitUSD() float64 {
	return e.DailyProfitUSD / HoursPerDay
}

// DailyPowerCost returns the cost of running powerWatts for a day at ratePerKWh.
func DailyPowerCost(powerWatts, ratePerKWh float64) float64 {
	return (powerWatts / 1000) * HoursPerDay * ratePerKWh
}

// BlockPayoutUSD is what the miner keeps when a block is found.
func BlockPayoutUSD(params domain.MiningParameters, market domain.MarketState) float64 {
	return market.BlockRewardCoins * market.CoinPriceUSD * (1 - params.PoolFeePercent/100)
}

// Efficiency returns TH/s per kW rounded to two decimals, or 0 without power.
func Efficiency(hashrate, powerWatts float64) float64 {
	if powerWatts <= 0 {
		return 0
	}
	v, _ := decimal.NewFromFloat(hashrate / (powerWatts / 1000)).Round(2).Float64()
	return v
}

// Breakdown splits the daily economics into the display lines.
// Net profit is floored at zero and every line is rounded to cents.
func Breakdown(e Economics) domain.ProfitBreakdown {
	return domain.ProfitBreakdown{
		Revenue:         cents(e.DailyRevenueUSD),
		ElectricityCost: cents(e.DailyPowerCostUSD),
		PoolFeeCost:     cents(e.DailyPoolFeeUSD),
		NetProfit:       cents(math.Max(0, e.DailyProfitUSD)),
	}
}

func cents(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
