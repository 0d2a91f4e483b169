package simulation

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs fn periodically until the returned cancel func is called
// or ctx is done.
type Scheduler interface {
	Schedule(ctx context.Context, interval time.Duration, fn func()) (cancel func())
}

// TickerScheduler fires on a time.Ticker.
type TickerScheduler struct{}

// Schedule starts a goroutine that calls fn every interval.
func (TickerScheduler) Schedule(ctx context.Context, interval time.Duration, fn func()) func() {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	return cancel
}

// ManualScheduler fires scheduled jobs only when Advance is called.
type ManualScheduler struct {
	mu   sync.Mutex
	jobs map[int]manualJob
	next int
}

type manualJob struct {
	ctx context.Context
	fn  func()
}

// NewManualScheduler creates a scheduler driven by Advance.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{jobs: make(map[int]manualJob)}
}

// Schedule registers fn; interval is ignored.
func (m *ManualScheduler) Schedule(ctx context.Context, _ time.Duration, fn func()) func() {
	m.mu.Lock()
	id := m.next
	m.next++
	m.jobs[id] = manualJob{ctx: ctx, fn: fn}
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.jobs, id)
		m.mu.Unlock()
	}
}

// Advance fires every live job n times.
func (m *ManualScheduler) Advance(n int) {
	for i := 0; i < n; i++ {
		m.mu.Lock()
		fns := make([]func(), 0, len(m.jobs))
		for id, job := range m.jobs {
			if job.ctx.Err() != nil {
				delete(m.jobs, id)
				continue
			}
			fns = append(fns, job.fn)
		}
		m.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	}
}

// Active returns the number of registered jobs.
func (m *ManualScheduler) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}
