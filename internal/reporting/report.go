package reporting

import (
	"time"

	"mining-sim-lab/internal/domain"
)

// Report summarizes one simulation run.
type Report struct {
	GeneratedAt time.Time
	Snapshot    domain.Snapshot
	Breakdown   domain.ProfitBreakdown

	// Derived from the retained samples
	SampleCount     int
	AvgHashrate     float64
	AvgPowerWatts   float64
	MaxTemperatureC float64
	AvgHourlyProfit float64
}

// Generator builds reports with an injectable clock.
type Generator struct {
	now func() time.Time
}

// NewGenerator creates a generator using the wall clock in UTC.
func NewGenerator() *Generator {
	return &Generator{now: func() time.Time { return time.Now().UTC() }}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report from a session snapshot and its retained samples.
func (g *Generator) Generate(snap domain.Snapshot, breakdown domain.ProfitBreakdown, samples []domain.MetricsSample) *Report {
	r := &Report{
		GeneratedAt: g.now(),
		Snapshot:    snap,
		Breakdown:   breakdown,
		SampleCount: len(samples),
	}
	if len(samples) == 0 {
		return r
	}

	var hashrate, power, profit float64
	for i, s := range samples {
		hashrate += s.Hashrate
		power += s.PowerWatts
		profit += s.HourlyProfitUSD
		if i == 0 || s.TemperatureC > r.MaxTemperatureC {
			r.MaxTemperatureC = s.TemperatureC
		}
	}
	n := float64(len(samples))
	r.AvgHashrate = hashrate / n
	r.AvgPowerWatts = power / n
	r.AvgHourlyProfit = profit / n

	return r
}
