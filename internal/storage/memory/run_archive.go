package memory

import (
	"context"
	"sort"
	"sync"

	"mining-sim-lab/internal/domain"
	"mining-sim-lab/internal/storage"
)

// RunArchive is an in-memory implementation of storage.RunArchive.
type RunArchive struct {
	mu   sync.RWMutex
	data []*domain.RunSummary
	keys map[runKey]struct{}
}

type runKey struct {
	runID   string
	elapsed int64
}

// NewRunArchive creates a new in-memory run archive.
func NewRunArchive() *RunArchive {
	return &RunArchive{
		keys: make(map[runKey]struct{}),
	}
}

// Compile-time interface check.
var _ storage.RunArchive = (*RunArchive)(nil)

// Insert adds a checkpoint. Returns ErrDuplicateKey if (run_id, elapsed_seconds) exists.
func (s *RunArchive) Insert(_ context.Context, r *domain.RunSummary) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	k := runKey{r.RunID, r.ElapsedSeconds}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[k]; exists {
		return storage.ErrDuplicateKey
	}

	runCopy := *r
	s.data = append(s.data, &runCopy)
	s.keys[k] = struct{}{}
	return nil
}

// GetByRunID retrieves all checkpoints for a run, ordered by elapsed_seconds ASC.
func (s *RunArchive) GetByRunID(_ context.Context, runID string) ([]*domain.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RunSummary
	for _, r := range s.data {
		if r.RunID == runID {
			runCopy := *r
			result = append(result, &runCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ElapsedSeconds < result[j].ElapsedSeconds
	})
	return result, nil
}

// ListRecent retrieves up to limit checkpoints, most recently recorded first.
func (s *RunArchive) ListRecent(_ context.Context, limit int) ([]*domain.RunSummary, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RunSummary, 0, len(s.data))
	for _, r := range s.data {
		runCopy := *r
		result = append(result, &runCopy)
	}

	// Newest first; insertion order breaks ties
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].RecordedAtMs > result[j].RecordedAtMs
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
