package domain

// MiningParameters holds the user-tunable hardware and cost configuration.
// Read-only to the engine within a tick.
type MiningParameters struct {
	Hashrate        float64 `json:"hashrate"`         // TH/s
	PowerWatts      float64 `json:"power_watts"`      // W
	ElectricityRate float64 `json:"electricity_rate"` // USD per kWh
	PoolFeePercent  float64 `json:"pool_fee_percent"` // 0..100
}

// DefaultMiningParameters returns the configuration a fresh session starts with.
func DefaultMiningParameters() MiningParameters {
	return MiningParameters{
		Hashrate:        100,
		PowerWatts:      3250,
		ElectricityRate: 0.08,
		PoolFeePercent:  1.5,
	}
}

// MarketState holds the network and market values that drift during a run.
type MarketState struct {
	CoinPriceUSD      float64 `json:"coin_price_usd"`
	NetworkDifficulty float64 `json:"network_difficulty"`
	BlockRewardCoins  float64 `json:"block_reward_coins"`
}

// Clock counts simulated seconds.
type Clock struct {
	ElapsedSeconds int64 `json:"elapsed_seconds"`
}

// Counters accumulate results over a run. Both fields only grow while running.
type Counters struct {
	TotalEarningsUSD float64 `json:"total_earnings_usd"`
	BlocksFound      int64   `json:"blocks_found"`
}

// ProfitBreakdown is the daily profitability split shown next to the charts.
type ProfitBreakdown struct {
	Revenue         float64 `json:"revenue"`
	ElectricityCost float64 `json:"electricity_cost"`
	PoolFeeCost     float64 `json:"pool_fee_cost"`
	NetProfit       float64 `json:"net_profit"`
}

// Snapshot is a point-in-time copy of a session for status output and archives.
type Snapshot struct {
	RunID      string           `json:"run_id"`
	Coin       string           `json:"coin"`
	Running    bool             `json:"running"`
	Parameters MiningParameters `json:"parameters"`
	Market     MarketState      `json:"market"`
	Clock      Clock            `json:"clock"`
	Counters   Counters         `json:"counters"`
}
