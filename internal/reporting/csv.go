package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mining-sim-lab/internal/domain"
)

// ExportFilename is the name of the exported sample file.
const ExportFilename = "mining_simulation_data.csv"

// CSVHeader is the first line of every export.
const CSVHeader = "Time,Hashrate(TH/s),Power(W),Temperature(C),Hourly_Profit($),Revenue($)"

// RenderCSV renders samples as CSV, oldest first. Rows are separated by
// newlines with no trailing newline; an empty slice yields the header alone.
func RenderCSV(samples []domain.MetricsSample) string {
	var sb strings.Builder

	sb.WriteString(CSVHeader)
	for _, s := range samples {
		sb.WriteString("\n")
		sb.WriteString(strconv.FormatInt(s.TimeSeconds, 10))
		sb.WriteString(",")
		sb.WriteString(formatNumber(s.Hashrate))
		sb.WriteString(",")
		sb.WriteString(formatNumber(s.PowerWatts))
		sb.WriteString(",")
		sb.WriteString(formatNumber(s.TemperatureC))
		sb.WriteString(",")
		sb.WriteString(formatNumber(s.HourlyProfitUSD))
		sb.WriteString(",")
		sb.WriteString(formatNumber(s.HourlyRevenueUSD))
	}

	return sb.String()
}

// WriteCSVFile writes samples to dir/ExportFilename and returns the path.
func WriteCSVFile(dir string, samples []domain.MetricsSample) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, ExportFilename)
	if err := os.WriteFile(path, []byte(RenderCSV(samples)), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// formatNumber prints the shortest decimal that round-trips: 70, 1.1, 3250.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
