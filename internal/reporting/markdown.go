package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ReportFilename is the name of the Markdown run report.
const ReportFilename = "mining_simulation_report.md"

// WriteMarkdownFile renders r into dir/ReportFilename and returns the path.
func WriteMarkdownFile(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, ReportFilename)
	if err := os.WriteFile(path, []byte(RenderMarkdown(r)), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// RenderMarkdown renders a run report as Markdown.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	s := r.Snapshot

	sb.WriteString("# Mining Simulation Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if s.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run: %s | Coin: %s\n\n", s.RunID, s.Coin))
	} else {
		sb.WriteString(fmt.Sprintf("Coin: %s\n\n", s.Coin))
	}

	// Run
	sb.WriteString("## Run\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Elapsed (s) | %d |\n", s.Clock.ElapsedSeconds))
	sb.WriteString(fmt.Sprintf("| Blocks Found | %d |\n", s.Counters.BlocksFound))
	sb.WriteString(fmt.Sprintf("| Total Earnings ($) | %.2f |\n", s.Counters.TotalEarningsUSD))
	sb.WriteString("\n")

	// Configuration
	sb.WriteString("## Configuration\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Hashrate (TH/s) | %g |\n", s.Parameters.Hashrate))
	sb.WriteString(fmt.Sprintf("| Power (W) | %g |\n", s.Parameters.PowerWatts))
	sb.WriteString(fmt.Sprintf("| Electricity ($/kWh) | %g |\n", s.Parameters.ElectricityRate))
	sb.WriteString(fmt.Sprintf("| Pool Fee (%%) | %g |\n", s.Parameters.PoolFeePercent))
	sb.WriteString("\n")

	// Market
	sb.WriteString("## Market\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Coin Price ($) | %.4f |\n", s.Market.CoinPriceUSD))
	sb.WriteString(fmt.Sprintf("| Network Difficulty | %g |\n", s.Market.NetworkDifficulty))
	sb.WriteString(fmt.Sprintf("| Block Reward | %g |\n", s.Market.BlockRewardCoins))
	sb.WriteString("\n")

	// Daily profitability
	sb.WriteString("## Daily Profitability\n\n")
	sb.WriteString("| Line | USD |\n")
	sb.WriteString("|------|-----|\n")
	sb.WriteString(fmt.Sprintf("| Revenue | %.2f |\n", r.Breakdown.Revenue))
	sb.WriteString(fmt.Sprintf("| Electricity | %.2f |\n", r.Breakdown.ElectricityCost))
	sb.WriteString(fmt.Sprintf("| Pool Fee | %.2f |\n", r.Breakdown.PoolFeeCost))
	sb.WriteString(fmt.Sprintf("| Net Profit | %.2f |\n", r.Breakdown.NetProfit))
	sb.WriteString("\n")

	// Samples
	sb.WriteString("## Recent Samples\n\n")
	if r.SampleCount == 0 {
		sb.WriteString("No samples recorded.\n")
		return sb.String()
	}
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Samples | %d |\n", r.SampleCount))
	sb.WriteString(fmt.Sprintf("| Avg Hashrate (TH/s) | %.2f |\n", r.AvgHashrate))
	sb.WriteString(fmt.Sprintf("| Avg Power (W) | %.2f |\n", r.AvgPowerWatts))
	sb.WriteString(fmt.Sprintf("| Max Temperature (C) | %.2f |\n", r.MaxTemperatureC))
	sb.WriteString(fmt.Sprintf("| Avg Hourly Profit ($) | %.2f |\n", r.AvgHourlyProfit))

	return sb.String()
}
