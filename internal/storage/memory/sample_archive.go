package memory

import (
	"context"
	"sort"
	"sync"

	"mining-sim-lab/internal/domain"
	"mining-sim-lab/internal/storage"
)

// SampleArchive is an in-memory implementation of storage.SampleArchive.
type SampleArchive struct {
	mu   sync.RWMutex
	data map[string][]*domain.ArchivedSample // keyed by run_id
	keys map[sampleKey]struct{}
}

type sampleKey struct {
	runID       string
	timeSeconds int64
}

// NewSampleArchive creates a new in-memory sample archive.
func NewSampleArchive() *SampleArchive {
	return &SampleArchive{
		data: make(map[string][]*domain.ArchivedSample),
		keys: make(map[sampleKey]struct{}),
	}
}

// Compile-time interface check.
var _ storage.SampleArchive = (*SampleArchive)(nil)

// InsertBulk adds multiple samples atomically. Fails entire batch on any duplicate.
func (s *SampleArchive) InsertBulk(_ context.Context, samples []*domain.ArchivedSample) error {
	if len(samples) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: validate and check duplicates (existing + intra-batch)
	batchKeys := make(map[sampleKey]struct{}, len(samples))
	for _, a := range samples {
		if a == nil || a.RunID == "" {
			return storage.ErrInvalidInput
		}
		k := sampleKey{a.RunID, a.TimeSeconds}
		if _, exists := s.keys[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[k]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[k] = struct{}{}
	}

	// Second pass: insert copies
	for _, a := range samples {
		sampleCopy := *a
		s.data[a.RunID] = append(s.data[a.RunID], &sampleCopy)
		s.keys[sampleKey{a.RunID, a.TimeSeconds}] = struct{}{}
	}

	return nil
}

// GetByRunID retrieves all samples for a run, ordered by time ASC.
func (s *SampleArchive) GetByRunID(_ context.Context, runID string) ([]*domain.ArchivedSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(runID, func(*domain.ArchivedSample) bool { return true }), nil
}

// GetByTimeRange retrieves samples for a run within [start, end] seconds (inclusive).
func (s *SampleArchive) GetByTimeRange(_ context.Context, runID string, start, end int64) ([]*domain.ArchivedSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(runID, func(a *domain.ArchivedSample) bool {
		return a.TimeSeconds >= start && a.TimeSeconds <= end
	}), nil
}

func (s *SampleArchive) collect(runID string, keep func(*domain.ArchivedSample) bool) []*domain.ArchivedSample {
	var result []*domain.ArchivedSample
	for _, a := range s.data[runID] {
		if keep(a) {
			sampleCopy := *a
			result = append(result, &sampleCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimeSeconds < result[j].TimeSeconds
	})
	return result
}
