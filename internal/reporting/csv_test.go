package reporting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mining-sim-lab/internal/domain"
)

func TestRenderCSV_TwoSamples(t *testing.T) {
	samples := []domain.MetricsSample{
		{TimeSeconds: 0, Hashrate: 100, PowerWatts: 3250, TemperatureC: 70.0, HourlyProfitUSD: 1.0, HourlyRevenueUSD: 2.0},
		{TimeSeconds: 1, Hashrate: 101, PowerWatts: 3200, TemperatureC: 68.0, HourlyProfitUSD: 1.1, HourlyRevenueUSD: 2.1},
	}

	want := "Time,Hashrate(TH/s),Power(W),Temperature(C),Hourly_Profit($),Revenue($)\n" +
		"0,100,3250,70,1,2\n" +
		"1,101,3200,68,1.1,2.1"

	assert.Equal(t, want, RenderCSV(samples))
}

func TestRenderCSV_Empty(t *testing.T) {
	assert.Equal(t, CSVHeader, RenderCSV(nil))
}

func TestRenderCSV_FractionalAndNegative(t *testing.T) {
	samples := []domain.MetricsSample{
		{TimeSeconds: 12, Hashrate: 99.125, PowerWatts: 3249.5, TemperatureC: 84.75, HourlyProfitUSD: -0.26, HourlyRevenueUSD: 0},
	}

	lines := strings.Split(RenderCSV(samples), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "12,99.125,3249.5,84.75,-0.26,0", lines[1])
}

func TestRenderCSV_DoesNotMutateInput(t *testing.T) {
	samples := []domain.MetricsSample{{TimeSeconds: 3, Hashrate: 1}}
	_ = RenderCSV(samples)
	assert.Equal(t, int64(3), samples[0].TimeSeconds)
}

func TestWriteCSVFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	samples := []domain.MetricsSample{{TimeSeconds: 1, Hashrate: 100, PowerWatts: 3250, TemperatureC: 70, HourlyProfitUSD: 1, HourlyRevenueUSD: 2}}

	path, err := WriteCSVFile(dir, samples)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ExportFilename), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, RenderCSV(samples), string(data))
}
