// Package history keeps the sliding window of recent metrics samples.
package history

import (
	"sync"

	"mining-sim-lab/internal/domain"
)

// DefaultCapacity is the number of samples kept for charts and export.
const DefaultCapacity = 50

// Buffer is a fixed-capacity ring of samples in chronological order.
// Appending to a full buffer evicts the oldest sample.
type Buffer struct {
	mu    sync.RWMutex
	data  []domain.MetricsSample
	start int // index of the oldest sample
	size  int
}

// NewBuffer creates a buffer holding at most capacity samples.
// A non-positive capacity falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{data: make([]domain.MetricsSample, capacity)}
}

// Append adds s as the newest sample.
func (b *Buffer) Append(s domain.MetricsSample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size < len(b.data) {
		b.data[(b.start+b.size)%len(b.data)] = s
		b.size++
		return
	}
	b.data[b.start] = s
	b.start = (b.start + 1) % len(b.data)
}

// Samples returns a copy of the retained samples, oldest first.
func (b *Buffer) Samples() []domain.MetricsSample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]domain.MetricsSample, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.data[(b.start+i)%len(b.data)]
	}
	return out
}

// Latest returns the newest sample, or false when empty.
func (b *Buffer) Latest() (domain.MetricsSample, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return domain.MetricsSample{}, false
	}
	return b.data[(b.start+b.size-1)%len(b.data)], true
}

// Len returns the number of retained samples.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Cap returns the maximum number of samples.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Reset drops all samples.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	clear(b.data)
	b.start = 0
	b.size = 0
}
