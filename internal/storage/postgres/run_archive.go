package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mining-sim-lab/internal/domain"
	"mining-sim-lab/internal/storage"
)

// RunArchive implements storage.RunArchive using PostgreSQL.
type RunArchive struct {
	pool *Pool
}

// NewRunArchive creates a new RunArchive.
func NewRunArchive(pool *Pool) *RunArchive {
	return &RunArchive{pool: pool}
}

// Compile-time interface check.
var _ storage.RunArchive = (*RunArchive)(nil)

const runSummaryColumns = `
	run_id, elapsed_seconds, coin, reason, blocks_found, total_earnings_usd,
	hashrate, power_watts, electricity_rate, pool_fee_percent,
	coin_price_usd, network_difficulty, block_reward_coins, recorded_at_ms
`

// Insert adds a checkpoint. Returns ErrDuplicateKey if (run_id, elapsed_seconds) exists.
func (s *RunArchive) Insert(ctx context.Context, r *domain.RunSummary) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO run_summaries (` + runSummaryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RunID, r.ElapsedSeconds, r.Coin, r.Reason, r.BlocksFound, r.TotalEarningsUSD,
		r.Parameters.Hashrate, r.Parameters.PowerWatts, r.Parameters.ElectricityRate, r.Parameters.PoolFeePercent,
		r.Market.CoinPriceUSD, r.Market.NetworkDifficulty, r.Market.BlockRewardCoins, r.RecordedAtMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run summary: %w", err)
	}
	return nil
}

// GetByRunID retrieves all checkpoints for a run, ordered by elapsed_seconds ASC.
func (s *RunArchive) GetByRunID(ctx context.Context, runID string) ([]*domain.RunSummary, error) {
	query := `
		SELECT ` + runSummaryColumns + `
		FROM run_summaries
		WHERE run_id = $1
		ORDER BY elapsed_seconds ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query run summaries: %w", err)
	}
	defer rows.Close()

	return scanRunSummaries(rows)
}

// ListRecent retrieves up to limit checkpoints, most recently recorded first.
func (s *RunArchive) ListRecent(ctx context.Context, limit int) ([]*domain.RunSummary, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT ` + runSummaryColumns + `
		FROM run_summaries
		ORDER BY recorded_at_ms DESC, run_id ASC, elapsed_seconds DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent run summaries: %w", err)
	}
	defer rows.Close()

	return scanRunSummaries(rows)
}

// scanRunSummaries scans multiple rows into a slice.
func scanRunSummaries(rows pgx.Rows) ([]*domain.RunSummary, error) {
	var result []*domain.RunSummary

	for rows.Next() {
		var r domain.RunSummary
		err := rows.Scan(
			&r.RunID, &r.ElapsedSeconds, &r.Coin, &r.Reason, &r.BlocksFound, &r.TotalEarningsUSD,
			&r.Parameters.Hashrate, &r.Parameters.PowerWatts, &r.Parameters.ElectricityRate, &r.Parameters.PoolFeePercent,
			&r.Market.CoinPriceUSD, &r.Market.NetworkDifficulty, &r.Market.BlockRewardCoins, &r.RecordedAtMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run summaries: %w", err)
	}

	return result, nil
}
