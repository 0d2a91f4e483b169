// Package drift perturbs market state between ticks: a multiplicative price
// walk every tick and a difficulty retarget every RetargetInterval ticks.
package drift

import "mining-sim-lab/internal/domain"

// Drift constants.
const (
	RetargetInterval = 100

	difficultyFloor = 0.98
	difficultySpan  = 0.04
	priceFloor      = 0.995
	priceSpan       = 0.01
)

// Uniform yields values in [0,1).
type Uniform interface {
	Float64() float64
}

// ShouldRetarget reports whether difficulty moves at this elapsed second.
func ShouldRetarget(elapsedSeconds int64) bool {
	return elapsedSeconds > 0 && elapsedSeconds%RetargetInterval == 0
}

// RetargetDifficulty scales difficulty by a factor in [0.98, 1.02) chosen by u.
func RetargetDifficulty(difficulty, u float64) float64 {
	return difficulty * (difficultyFloor + u*difficultySpan)
}

// PerturbPrice scales price by a factor in [0.995, 1.005) chosen by u.
func PerturbPrice(price, u float64) float64 {
	return price * (priceFloor + u*priceSpan)
}

// Apply drifts market for the tick that just reached elapsedSeconds.
// Difficulty draws first (only on retarget ticks), then price.
func Apply(market domain.MarketState, elapsedSeconds int64, rng Uniform) (domain.MarketState, bool) {
	retargeted := false
	if ShouldRetarget(elapsedSeconds) {
		market.NetworkDifficulty = RetargetDifficulty(market.NetworkDifficulty, rng.Float64())
		retargeted = true
	}
	market.CoinPriceUSD = PerturbPrice(market.CoinPriceUSD, rng.Float64())
	return market, retargeted
}
