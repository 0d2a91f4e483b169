package config

import (
	"fmt"
	"math"

	"mining-sim-lab/internal/domain"
)

// Range is an inclusive input range with a step size.
type Range struct {
	Min  float64
	Max  float64
	Step float64
}

// Input ranges accepted from the configuration surface.
var (
	HashrateRange        = Range{Min: 1, Max: 200, Step: 1}
	PowerWattsRange      = Range{Min: 300, Max: 5000, Step: 50}
	ElectricityRateRange = Range{Min: 0.02, Max: 0.30, Step: 0.01}
	PoolFeePercentRange  = Range{Min: 0, Max: 5, Step: 0.1}
)

// Clamp pulls v into [Min, Max] and snaps it to the nearest step counted from Min.
// NaN maps to Min.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) || v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	if r.Step <= 0 {
		return v
	}
	steps := math.Round((v - r.Min) / r.Step)
	snapped := r.Min + steps*r.Step
	// Strip the float noise that step multiplication leaves behind (0.1*3 etc).
	snapped = math.Round(snapped*1e9) / 1e9
	if snapped > r.Max {
		return r.Max
	}
	return snapped
}

// Contains reports whether v lies in [Min, Max]. NaN is never contained.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// CheckHardware rejects presets whose hashrate or power falls outside the
// configurable ranges. In-range values still snap to the range step when applied.
func CheckHardware(hw domain.Hardware) error {
	if !HashrateRange.Contains(hw.Hashrate) {
		return fmt.Errorf("%s: hashrate %g TH/s not in [%g, %g]: %w",
			hw.Name, hw.Hashrate, HashrateRange.Min, HashrateRange.Max, domain.ErrPresetOutOfRange)
	}
	if !PowerWattsRange.Contains(hw.PowerWatts) {
		return fmt.Errorf("%s: power %g W not in [%g, %g]: %w",
			hw.Name, hw.PowerWatts, PowerWattsRange.Min, PowerWattsRange.Max, domain.ErrPresetOutOfRange)
	}
	return nil
}

// ClampParameters brings every field of p into its documented range.
// Out-of-range input is corrected here and never reported as an error.
func ClampParameters(p domain.MiningParameters) domain.MiningParameters {
	return domain.MiningParameters{
		Hashrate:        HashrateRange.Clamp(p.Hashrate),
		PowerWatts:      PowerWattsRange.Clamp(p.PowerWatts),
		ElectricityRate: ElectricityRateRange.Clamp(p.ElectricityRate),
		PoolFeePercent:  PoolFeePercentRange.Clamp(p.PoolFeePercent),
	}
}
