// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Engine metrics
	TicksTotal          prometheus.Counter
	BlocksFoundTotal    *prometheus.CounterVec
	DifficultyRetargets prometheus.Counter
	EngineTransitions   *prometheus.CounterVec

	// Session gauges
	ElapsedSeconds       prometheus.Gauge
	TotalEarningsUSD     prometheus.Gauge
	ProbabilityPerSecond prometheus.Gauge
	HourlyProfitUSD      prometheus.Gauge
	CoinPriceUSD         prometheus.Gauge
	NetworkDifficulty    prometheus.Gauge
	HistorySize          prometheus.Gauge

	// Feed metrics
	FeedClients      prometheus.Gauge
	FeedDroppedTotal prometheus.Counter
	ExportsTotal     prometheus.Counter

	// Archive metrics
	ArchiveWriteDuration *prometheus.HistogramVec
	ArchiveErrors        *prometheus.CounterVec
	ArchiveDroppedTotal  prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "mining_sim"
	}

	return &Metrics{
		// Engine metrics
		TicksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "ticks_total",
			Help:      "Total number of simulation ticks executed",
		}),
		BlocksFoundTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "blocks_found_total",
			Help:      "Total number of simulated blocks found by coin",
		}, []string{"coin"}),
		DifficultyRetargets: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "difficulty_retargets_total",
			Help:      "Total number of difficulty retargets applied",
		}),
		EngineTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "transitions_total",
			Help:      "Engine commands applied by type",
		}, []string{"command"}),

		// Session gauges
		ElapsedSeconds: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "elapsed_seconds",
			Help:      "Simulated seconds elapsed in the current run",
		}),
		TotalEarningsUSD: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "total_earnings_usd",
			Help:      "Cumulative simulated earnings in USD",
		}),
		ProbabilityPerSecond: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "block_probability_per_second",
			Help:      "Block discovery probability used by the last tick",
		}),
		HourlyProfitUSD: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "hourly_profit_usd",
			Help:      "Expected hourly profit at the last tick",
		}),
		CoinPriceUSD: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "coin_price_usd",
			Help:      "Current simulated coin price",
		}),
		NetworkDifficulty: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "network_difficulty",
			Help:      "Current simulated network difficulty",
		}),
		HistorySize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "history_samples",
			Help:      "Samples currently held in the history window",
		}),

		// Feed metrics
		FeedClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "clients",
			Help:      "Connected live feed clients",
		}),
		FeedDroppedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "dropped_messages_total",
			Help:      "Feed messages dropped for slow clients",
		}),
		ExportsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "csv_exports_total",
			Help:      "Total number of CSV exports served",
		}),

		// Archive metrics
		ArchiveWriteDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "write_duration_seconds",
			Help:      "Archive write duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		ArchiveErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "errors_total",
			Help:      "Total number of archive write errors",
		}, []string{"database", "operation"}),
		ArchiveDroppedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "dropped_samples_total",
			Help:      "Samples dropped because the archive queue was full",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// TickObservation carries the values recorded after each tick.
type TickObservation struct {
	Coin                 string
	BlockFound           bool
	Retargeted           bool
	ElapsedSeconds       int64
	TotalEarningsUSD     float64
	ProbabilityPerSecond float64
	HourlyProfitUSD      float64
	CoinPriceUSD         float64
	NetworkDifficulty    float64
	HistorySize          int
}

// RecordTick updates engine and session metrics for one tick.
func RecordTick(o TickObservation) {
	DefaultMetrics.TicksTotal.Inc()
	if o.BlockFound {
		DefaultMetrics.BlocksFoundTotal.WithLabelValues(o.Coin).Inc()
	}
	if o.Retargeted {
		DefaultMetrics.DifficultyRetargets.Inc()
	}
	DefaultMetrics.ElapsedSeconds.Set(float64(o.ElapsedSeconds))
	DefaultMetrics.TotalEarningsUSD.Set(o.TotalEarningsUSD)
	DefaultMetrics.ProbabilityPerSecond.Set(o.ProbabilityPerSecond)
	DefaultMetrics.HourlyProfitUSD.Set(o.HourlyProfitUSD)
	DefaultMetrics.CoinPriceUSD.Set(o.CoinPriceUSD)
	DefaultMetrics.NetworkDifficulty.Set(o.NetworkDifficulty)
	DefaultMetrics.HistorySize.Set(float64(o.HistorySize))
}

// RecordTransition counts an engine command (start, stop, reset, coin, params).
func RecordTransition(command string) {
	DefaultMetrics.EngineTransitions.WithLabelValues(command).Inc()
}

// SetFeedClients updates the connected feed client gauge.
func SetFeedClients(n int) {
	DefaultMetrics.FeedClients.Set(float64(n))
}

// RecordFeedDrop counts a message dropped for a slow client.
func RecordFeedDrop() {
	DefaultMetrics.FeedDroppedTotal.Inc()
}

// RecordExport counts a served CSV export.
func RecordExport() {
	DefaultMetrics.ExportsTotal.Inc()
}

// RecordArchiveWrite records archive write metrics.
func RecordArchiveWrite(database, operation string, seconds float64, err error) {
	DefaultMetrics.ArchiveWriteDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.ArchiveErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordArchiveDrop counts a sample dropped by a full archive queue.
func RecordArchiveDrop() {
	DefaultMetrics.ArchiveDroppedTotal.Inc()
}
