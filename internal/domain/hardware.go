package domain

import (
	"errors"
	"strings"
)

var (
	// ErrUnknownHardware is returned when a preset name is not in the hardware catalog.
	ErrUnknownHardware = errors.New("unknown hardware")

	// ErrPresetOutOfRange is returned when a preset's hashrate or power lies
	// outside the configurable parameter ranges and cannot be applied as listed.
	ErrPresetOutOfRange = errors.New("hardware preset outside configurable range")
)

// Hardware is a mining rig preset.
type Hardware struct {
	Name       string  `json:"name"`
	Hashrate   float64 `json:"hashrate"`    // TH/s
	PowerWatts float64 `json:"power_watts"` // W
	PriceUSD   float64 `json:"price_usd"`
	Efficiency float64 `json:"efficiency"` // J/TH as advertised
}

var hardwareCatalog = []Hardware{
	{Name: "Antminer S19 Pro", Hashrate: 110, PowerWatts: 3250, PriceUSD: 8000, Efficiency: 29.5},
	{Name: "Whatsminer M30S++", Hashrate: 112, PowerWatts: 3472, PriceUSD: 7500, Efficiency: 31},
	{Name: "RTX 4090", Hashrate: 0.13, PowerWatts: 450, PriceUSD: 1600, Efficiency: 3461},
	{Name: "RTX 3080", Hashrate: 0.1, PowerWatts: 320, PriceUSD: 800, Efficiency: 3200},
}

// HardwarePresets returns a copy of the hardware catalog in display order.
func HardwarePresets() []Hardware {
	out := make([]Hardware, len(hardwareCatalog))
	copy(out, hardwareCatalog)
	return out
}

// LookupHardware finds a preset by name (case-insensitive).
func LookupHardware(name string) (Hardware, error) {
	name = strings.TrimSpace(name)
	for _, h := range hardwareCatalog {
		if strings.EqualFold(h.Name, name) {
			return h, nil
		}
	}
	return Hardware{}, ErrUnknownHardware
}

// Apply copies the preset's hashrate and power into p, leaving rate and fee alone.
func (h Hardware) Apply(p MiningParameters) MiningParameters {
	p.Hashrate = h.Hashrate
	p.PowerWatts = h.PowerWatts
	return p
}
