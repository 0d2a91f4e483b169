package simulation

import (
	"math/rand"
	"time"
)

// RandomSource yields uniform values in [0,1). Every draw the engine makes
// goes through it so runs can be replayed from a seed.
type RandomSource interface {
	Float64() float64
}

// NewSeededSource returns a math/rand backed source.
// A zero seed is replaced by the current time.
func NewSeededSource(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// SequenceSource replays a fixed list of values, cycling when exhausted.
type SequenceSource struct {
	values []float64
	next   int
}

// NewSequenceSource creates a source that returns values in order.
func NewSequenceSource(values ...float64) *SequenceSource {
	if len(values) == 0 {
		values = []float64{0}
	}
	return &SequenceSource{values: values}
}

// Float64 returns the next value in the sequence.
func (s *SequenceSource) Float64() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// Draws reports how many values have been taken.
func (s *SequenceSource) Draws() int {
	return s.next
}
