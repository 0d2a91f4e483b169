package simulation

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"mining-sim-lab/internal/config"
	"mining-sim-lab/internal/domain"
	"mining-sim-lab/internal/history"
	"mining-sim-lab/internal/idhash"
	"mining-sim-lab/internal/observability"
	"mining-sim-lab/internal/probability"
	"mining-sim-lab/internal/reporting"
)

// State is the engine lifecycle state.
type State int

// Engine states.
const (
	StateIdle State = iota
	StateRunning
)

// String returns the lowercase state name.
func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Observer receives every tick result after the engine lock is released.
type Observer func(runID string, res TickResult)

// CheckpointObserver receives the session state when a run is stopped,
// reset or shut down.
type CheckpointObserver func(snap domain.Snapshot, reason string)

// EngineOptions contains configuration for creating an Engine.
type EngineOptions struct {
	Coin        string                   // default domain.DefaultCoin
	Parameters  *domain.MiningParameters // default domain.DefaultMiningParameters
	Random      RandomSource             // default seeded from the clock
	Scheduler   Scheduler                // default TickerScheduler
	Interval    time.Duration            // default one second
	HistorySize int                      // default history.DefaultCapacity
	Logger      *logrus.Entry
	Now         func() time.Time // Injectable clock for run IDs
}

// Engine owns one simulation session and drives it on a schedule.
// All session access goes through the engine mutex, so configuration changes
// always land between ticks.
type Engine struct {
	mu         sync.Mutex
	session    *Session
	state      State
	rng        RandomSource
	scheduler  Scheduler
	interval   time.Duration
	cancel     func()
	generation uint64
	runSeq     uint64
	runID      string
	observers  []Observer
	onStop     []CheckpointObserver
	logger     *logrus.Entry
	now        func() time.Time
}

// NewEngine creates an idle engine. Unknown coins return domain.ErrUnknownCoin.
func NewEngine(opts EngineOptions) (*Engine, error) {
	symbol := opts.Coin
	if symbol == "" {
		symbol = domain.DefaultCoin
	}
	coin, err := domain.LookupCoin(symbol)
	if err != nil {
		return nil, err
	}

	params := domain.DefaultMiningParameters()
	if opts.Parameters != nil {
		params = config.ClampParameters(*opts.Parameters)
	}

	e := &Engine{
		session:   NewSession(coin, params, opts.HistorySize),
		rng:       opts.Random,
		scheduler: opts.Scheduler,
		interval:  opts.Interval,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if e.rng == nil {
		e.rng = NewSeededSource(0)
	}
	if e.scheduler == nil {
		e.scheduler = TickerScheduler{}
	}
	if e.interval <= 0 {
		e.interval = time.Second
	}
	if e.logger == nil {
		e.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	e.logger = e.logger.WithField("component", "engine")
	if e.now == nil {
		e.now = time.Now
	}
	e.newRunLocked()

	return e, nil
}

// OnTick registers an observer. Register observers before Start.
func (e *Engine) OnTick(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// OnCheckpoint registers a checkpoint observer. Register before Start.
func (e *Engine) OnCheckpoint(c CheckpointObserver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onStop = append(e.onStop, c)
}

func (e *Engine) checkpointObservers() []CheckpointObserver {
	out := make([]CheckpointObserver, len(e.onStop))
	copy(out, e.onStop)
	return out
}

// Start moves Idle to Running and schedules ticks. Starting a running engine is a no-op.
// When ctx ends the engine returns to Idle as if Stop had been called.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateRunning {
		return
	}
	e.state = StateRunning
	e.generation++
	gen := e.generation

	runCtx, runCancel := context.WithCancel(ctx)
	cancelSchedule := e.scheduler.Schedule(runCtx, e.interval, func() {
		e.tick(gen)
	})
	e.cancel = func() {
		cancelSchedule()
		runCancel()
	}
	go func() {
		<-runCtx.Done()
		e.haltGeneration(domain.CheckpointStop, gen)
	}()

	observability.RecordTransition("start")
	e.logger.WithFields(logrus.Fields{
		"run_id":  e.runID,
		"coin":    e.session.Coin.Symbol,
		"elapsed": e.session.Clock.ElapsedSeconds,
	}).Info("simulation started")
}

// Stop moves Running to Idle, keeping clock and counters.
// No tick mutates the session after Stop returns.
func (e *Engine) Stop() {
	e.halt(domain.CheckpointStop)
}

// Shutdown stops the engine and emits a shutdown checkpoint.
func (e *Engine) Shutdown() {
	e.halt(domain.CheckpointShutdown)
}

func (e *Engine) halt(reason string) {
	e.haltGeneration(reason, 0)
}

// haltGeneration stops the engine. A non-zero gen only stops that run
// generation, so a context ending after Stop or a restart changes nothing.
func (e *Engine) haltGeneration(reason string, gen uint64) {
	e.mu.Lock()
	if gen != 0 && gen != e.generation {
		e.mu.Unlock()
		return
	}
	cancel := e.stopLocked()
	var snap domain.Snapshot
	if cancel != nil {
		snap = e.snapshotLocked()
	}
	checkpoints := e.checkpointObservers()
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	observability.RecordTransition(reason)
	for _, c := range checkpoints {
		c(snap, reason)
	}
}

// stopLocked flips state and invalidates the current generation. The caller
// runs the returned cancel func after releasing the lock.
func (e *Engine) stopLocked() func() {
	if e.state != StateRunning {
		return nil
	}
	e.state = StateIdle
	e.generation++
	cancel := e.cancel
	e.cancel = nil

	e.logger.WithFields(logrus.Fields{
		"run_id":  e.runID,
		"elapsed": e.session.Clock.ElapsedSeconds,
		"blocks":  e.session.Counters.BlocksFound,
	}).Info("simulation stopped")
	return cancel
}

// Reset stops the engine, zeroes clock, counters and history, and reseeds
// the market from the selected coin. It starts a new run ID. A run that
// advanced at least one tick is checkpointed before it is cleared.
func (e *Engine) Reset() {
	e.mu.Lock()
	cancel := e.stopLocked()
	before := e.snapshotLocked()
	checkpoints := e.checkpointObservers()
	e.session.Reset()
	e.newRunLocked()
	runID := e.runID
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if before.Clock.ElapsedSeconds > 0 {
		for _, c := range checkpoints {
			c(before, domain.CheckpointReset)
		}
	}
	observability.RecordTransition("reset")
	e.logger.WithField("run_id", runID).Info("simulation reset")
}

// SelectCoin switches coin and reseeds the market. Clock and counters are kept.
func (e *Engine) SelectCoin(symbol string) (domain.Coin, error) {
	coin, err := domain.LookupCoin(symbol)
	if err != nil {
		return domain.Coin{}, err
	}

	e.mu.Lock()
	e.session.SelectCoin(coin)
	e.mu.Unlock()

	observability.RecordTransition("coin")
	e.logger.WithField("coin", coin.Symbol).Info("coin selected")
	return coin, nil
}

// SetParameters clamps p into range, applies it and returns the applied values.
func (e *Engine) SetParameters(p domain.MiningParameters) domain.MiningParameters {
	applied := config.ClampParameters(p)

	e.mu.Lock()
	e.session.Parameters = applied
	e.mu.Unlock()

	observability.RecordTransition("params")
	e.logger.WithFields(logrus.Fields{
		"hashrate":         applied.Hashrate,
		"power_watts":      applied.PowerWatts,
		"electricity_rate": applied.ElectricityRate,
		"pool_fee_percent": applied.PoolFeePercent,
	}).Debug("parameters applied")
	return applied
}

// ApplyHardware loads a hardware preset's hashrate and power. Presets outside
// the configurable ranges return domain.ErrPresetOutOfRange and change nothing.
func (e *Engine) ApplyHardware(name string) (domain.MiningParameters, error) {
	hw, err := domain.LookupHardware(name)
	if err != nil {
		return domain.MiningParameters{}, err
	}
	if err := config.CheckHardware(hw); err != nil {
		return domain.MiningParameters{}, err
	}

	e.mu.Lock()
	current := e.session.Parameters
	e.mu.Unlock()

	return e.SetParameters(hw.Apply(current)), nil
}

// Tick runs one step if the engine is running. It reports whether a step ran.
func (e *Engine) Tick() (TickResult, bool) {
	e.mu.Lock()
	gen := e.generation
	e.mu.Unlock()
	return e.tick(gen)
}

func (e *Engine) tick(gen uint64) (TickResult, bool) {
	e.mu.Lock()
	if e.state != StateRunning || gen != e.generation {
		e.mu.Unlock()
		return TickResult{}, false
	}
	res := Step(e.session, e.rng)
	runID := e.runID
	historySize := e.session.History.Len()
	observers := make([]Observer, len(e.observers))
	copy(observers, e.observers)
	e.mu.Unlock()

	observability.RecordTick(observability.TickObservation{
		Coin:                 res.Coin,
		BlockFound:           res.BlockFound,
		Retargeted:           res.DifficultyRetargeted,
		ElapsedSeconds:       res.Clock.ElapsedSeconds,
		TotalEarningsUSD:     res.Counters.TotalEarningsUSD,
		ProbabilityPerSecond: res.Economics.ProbabilityPerSecond,
		HourlyProfitUSD:      res.Economics.HourlyProfitUSD(),
		CoinPriceUSD:         res.Market.CoinPriceUSD,
		NetworkDifficulty:    res.Market.NetworkDifficulty,
		HistorySize:          historySize,
	})
	if res.DifficultyRetargeted {
		e.logger.WithFields(logrus.Fields{
			"run_id":     runID,
			"elapsed":    res.Clock.ElapsedSeconds,
			"difficulty": res.Market.NetworkDifficulty,
		}).Debug("difficulty retargeted")
	}

	for _, o := range observers {
		o(runID, res)
	}
	return res, true
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// RunID returns the identifier of the current run.
func (e *Engine) RunID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runID
}

// Snapshot returns a copy of the session state.
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() domain.Snapshot {
	snap := e.session.Snapshot()
	snap.RunID = e.runID
	snap.Running = e.state == StateRunning
	return snap
}

// Samples returns the retained samples, oldest first.
func (e *Engine) Samples() []domain.MetricsSample {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.History.Samples()
}

// ExportCSV renders the retained samples as CSV. It has no effect on the session.
func (e *Engine) ExportCSV() string {
	return reporting.RenderCSV(e.Samples())
}

// Economics returns the expected economics for the current instant.
func (e *Engine) Economics() probability.Economics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return probability.Compute(e.session.Parameters, e.session.Market)
}

// Breakdown returns the daily profitability split for the current instant.
func (e *Engine) Breakdown() domain.ProfitBreakdown {
	return probability.Breakdown(e.Economics())
}

// HistoryCapacity returns the size of the sample window.
func (e *Engine) HistoryCapacity() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.History == nil {
		return history.DefaultCapacity
	}
	return e.session.History.Cap()
}

func (e *Engine) newRunLocked() {
	e.runSeq++
	e.runID = idhash.ComputeRunID(e.session.Coin.Symbol, e.now().UnixNano(), e.runSeq)
}
