package domain

// MetricsSample is one point of the live feed, recorded once per tick.
// Values are never modified after creation.
type MetricsSample struct {
	TimeSeconds      int64   `json:"time"`
	Hashrate         float64 `json:"hashrate"`
	PowerWatts       float64 `json:"power"`
	TemperatureC     float64 `json:"temperature"`
	HourlyProfitUSD  float64 `json:"profit"`
	HourlyRevenueUSD float64 `json:"revenue"`
	Efficiency       float64 `json:"efficiency"` // TH/s per kW
}
