package clickhouse

import (
	"context"
	"fmt"

	"mining-sim-lab/internal/domain"
	"mining-sim-lab/internal/storage"
)

// SampleArchive implements storage.SampleArchive using ClickHouse.
type SampleArchive struct {
	conn *Conn
}

// NewSampleArchive creates a new SampleArchive.
func NewSampleArchive(conn *Conn) *SampleArchive {
	return &SampleArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.SampleArchive = (*SampleArchive)(nil)

// InsertBulk adds multiple samples. Fails entire batch on duplicate (run_id, time_seconds).
// MergeTree does not enforce uniqueness, so duplicates are checked before insert.
func (s *SampleArchive) InsertBulk(ctx context.Context, samples []*domain.ArchivedSample) error {
	if len(samples) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		runID       string
		timeSeconds int64
	}
	seen := make(map[key]struct{}, len(samples))
	minTime := make(map[string]int64)
	maxTime := make(map[string]int64)
	for _, a := range samples {
		if a == nil || a.RunID == "" {
			return storage.ErrInvalidInput
		}
		k := key{a.RunID, a.TimeSeconds}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}

		if lo, ok := minTime[a.RunID]; !ok || a.TimeSeconds < lo {
			minTime[a.RunID] = a.TimeSeconds
		}
		if hi, ok := maxTime[a.RunID]; !ok || a.TimeSeconds > hi {
			maxTime[a.RunID] = a.TimeSeconds
		}
	}

	// Check for duplicates against existing rows, one range query per run
	for runID, lo := range minTime {
		existing, err := s.timesInRange(ctx, runID, lo, maxTime[runID])
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for _, ts := range existing {
			if _, dup := seen[key{runID, ts}]; dup {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO mining_samples (
			run_id, coin, time_seconds, hashrate, power_watts, temperature_c,
			hourly_profit_usd, hourly_revenue_usd, efficiency
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, a := range samples {
		err = batch.Append(
			a.RunID, a.Coin, a.TimeSeconds, a.Hashrate, a.PowerWatts, a.TemperatureC,
			a.HourlyProfitUSD, a.HourlyRevenueUSD, a.Efficiency,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves all samples for a run, ordered by time ASC.
func (s *SampleArchive) GetByRunID(ctx context.Context, runID string) ([]*domain.ArchivedSample, error) {
	query := `
		SELECT run_id, coin, time_seconds, hashrate, power_watts, temperature_c,
			hourly_profit_usd, hourly_revenue_usd, efficiency
		FROM mining_samples
		WHERE run_id = ?
		ORDER BY time_seconds ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

// GetByTimeRange retrieves samples for a run within [start, end] seconds (inclusive).
func (s *SampleArchive) GetByTimeRange(ctx context.Context, runID string, start, end int64) ([]*domain.ArchivedSample, error) {
	query := `
		SELECT run_id, coin, time_seconds, hashrate, power_watts, temperature_c,
			hourly_profit_usd, hourly_revenue_usd, efficiency
		FROM mining_samples
		WHERE run_id = ? AND time_seconds >= ? AND time_seconds <= ?
		ORDER BY time_seconds ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

// timesInRange returns the stored sample times for a run within [start, end].
func (s *SampleArchive) timesInRange(ctx context.Context, runID string, start, end int64) ([]int64, error) {
	query := `
		SELECT time_seconds FROM mining_samples
		WHERE run_id = ? AND time_seconds >= ? AND time_seconds <= ?
	`

	rows, err := s.conn.Query(ctx, query, runID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []int64
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		times = append(times, ts)
	}
	return times, rows.Err()
}

// scanSamples scans multiple rows.
func scanSamples(rows rowScanner) ([]*domain.ArchivedSample, error) {
	var samples []*domain.ArchivedSample

	for rows.Next() {
		var a domain.ArchivedSample
		err := rows.Scan(
			&a.RunID, &a.Coin, &a.TimeSeconds, &a.Hashrate, &a.PowerWatts, &a.TemperatureC,
			&a.HourlyProfitUSD, &a.HourlyRevenueUSD, &a.Efficiency,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}

	return samples, nil
}
