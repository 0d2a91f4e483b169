package storage

import (
	"context"

	"mining-sim-lab/internal/domain"
)

// SampleArchive provides access to archived per-tick samples.
// Archives are write-only from the engine's point of view; reads serve
// reporting and tests.
type SampleArchive interface {
	// InsertBulk adds multiple samples. Fails entire batch on duplicate (run_id, time_seconds).
	InsertBulk(ctx context.Context, samples []*domain.ArchivedSample) error

	// GetByRunID retrieves all samples for a run, ordered by time ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.ArchivedSample, error)

	// GetByTimeRange retrieves samples for a run within [start, end] seconds (inclusive).
	GetByTimeRange(ctx context.Context, runID string, start, end int64) ([]*domain.ArchivedSample, error)
}

// RunArchive provides access to run_summaries storage.
type RunArchive interface {
	// Insert adds a checkpoint. Returns ErrDuplicateKey if (run_id, elapsed_seconds) exists.
	Insert(ctx context.Context, s *domain.RunSummary) error

	// GetByRunID retrieves all checkpoints for a run, ordered by elapsed_seconds ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.RunSummary, error)

	// ListRecent retrieves up to limit checkpoints, most recently recorded first.
	ListRecent(ctx context.Context, limit int) ([]*domain.RunSummary, error)
}
