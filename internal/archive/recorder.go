// Package archive copies engine output into the sample and run archives.
// It only writes; sessions are never restored from archived data.
package archive

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"mining-sim-lab/internal/domain"
	"mining-sim-lab/internal/observability"
	"mining-sim-lab/internal/simulation"
	"mining-sim-lab/internal/storage"
)

// Defaults for RecorderOptions.
const (
	DefaultBatchSize     = 60
	DefaultQueueSize     = 1024
	DefaultFlushInterval = 5 * time.Second
	writeTimeout         = 10 * time.Second
)

// Recorder batches tick samples into a SampleArchive and writes run
// checkpoints into a RunArchive. Either archive may be nil.
type Recorder struct {
	samples       storage.SampleArchive
	runs          storage.RunArchive
	sampleDB      string
	runDB         string
	batchSize     int
	flushInterval time.Duration
	queue         chan *domain.ArchivedSample
	logger        *logrus.Entry
	now           func() time.Time
}

// RecorderOptions contains configuration for creating a Recorder.
type RecorderOptions struct {
	Samples storage.SampleArchive
	Runs    storage.RunArchive

	// Metric labels for the backing databases
	SampleDatabase string // default "memory"
	RunDatabase    string // default "memory"

	BatchSize     int
	QueueSize     int
	FlushInterval time.Duration
	Logger        *logrus.Entry
	Now           func() time.Time
}

// NewRecorder creates a Recorder. Call Run to start flushing samples.
func NewRecorder(opts RecorderOptions) *Recorder {
	r := &Recorder{
		samples:       opts.Samples,
		runs:          opts.Runs,
		sampleDB:      opts.SampleDatabase,
		runDB:         opts.RunDatabase,
		batchSize:     opts.BatchSize,
		flushInterval: opts.FlushInterval,
		logger:        opts.Logger,
		now:           opts.Now,
	}
	if r.sampleDB == "" {
		r.sampleDB = "memory"
	}
	if r.runDB == "" {
		r.runDB = "memory"
	}
	if r.batchSize <= 0 {
		r.batchSize = DefaultBatchSize
	}
	if r.flushInterval <= 0 {
		r.flushInterval = DefaultFlushInterval
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	r.queue = make(chan *domain.ArchivedSample, queueSize)
	if r.logger == nil {
		r.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	r.logger = r.logger.WithField("component", "archive")
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// ObserveTick enqueues the tick's sample. It never blocks the engine:
// when the queue is full the sample is dropped and counted.
func (r *Recorder) ObserveTick(runID string, res simulation.TickResult) {
	if r.samples == nil {
		return
	}

	a := &domain.ArchivedSample{RunID: runID, Coin: res.Coin, MetricsSample: res.Sample}
	select {
	case r.queue <- a:
	default:
		observability.RecordArchiveDrop()
		r.logger.WithFields(logrus.Fields{
			"run_id": runID,
			"time":   res.Sample.TimeSeconds,
		}).Warn("archive queue full, sample dropped")
	}
}

// Checkpoint writes a run summary. A checkpoint already stored for the same
// run and elapsed time is skipped.
func (r *Recorder) Checkpoint(snap domain.Snapshot, reason string) {
	if r.runs == nil {
		return
	}

	summary := domain.NewRunSummary(snap, reason, r.now().UnixMilli())

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	start := time.Now()
	err := r.runs.Insert(ctx, summary)
	if errors.Is(err, storage.ErrDuplicateKey) {
		r.logger.WithField("run_id", snap.RunID).Debug("checkpoint already archived")
		return
	}
	observability.RecordArchiveWrite(r.runDB, "insert_run", time.Since(start).Seconds(), err)

	fields := logrus.Fields{
		"run_id":  summary.RunID,
		"reason":  reason,
		"elapsed": summary.ElapsedSeconds,
		"blocks":  summary.BlocksFound,
	}
	if err != nil {
		r.logger.WithFields(fields).WithError(err).Error("archive checkpoint failed")
		return
	}
	r.logger.WithFields(fields).Info("run checkpoint archived")
}

// Run flushes queued samples every batch or flush interval until ctx is
// done, then drains the queue and flushes once more.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	pending := make([]*domain.ArchivedSample, 0, r.batchSize)
	for {
		select {
		case <-ctx.Done():
			pending = r.drain(pending)
			r.flush(pending)
			return
		case a := <-r.queue:
			pending = append(pending, a)
			if len(pending) >= r.batchSize {
				r.flush(pending)
				pending = pending[:0]
			}
		case <-ticker.C:
			r.flush(pending)
			pending = pending[:0]
		}
	}
}

func (r *Recorder) drain(pending []*domain.ArchivedSample) []*domain.ArchivedSample {
	for {
		select {
		case a := <-r.queue:
			pending = append(pending, a)
		default:
			return pending
		}
	}
}

// flush writes one batch. Failed batches are logged and discarded.
func (r *Recorder) flush(batch []*domain.ArchivedSample) {
	if len(batch) == 0 || r.samples == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	start := time.Now()
	err := r.samples.InsertBulk(ctx, batch)
	observability.RecordArchiveWrite(r.sampleDB, "insert_samples", time.Since(start).Seconds(), err)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"samples": len(batch),
			"run_id":  batch[0].RunID,
		}).WithError(err).Error("archive samples failed")
		return
	}
	r.logger.WithField("samples", len(batch)).Debug("samples archived")
}

// Attach registers the recorder as a tick and checkpoint observer on e.
func (r *Recorder) Attach(e *simulation.Engine) {
	e.OnTick(r.ObserveTick)
	e.OnCheckpoint(r.Checkpoint)
}
