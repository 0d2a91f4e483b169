package domain

// Checkpoint reasons recorded in run summaries.
const (
	CheckpointStop     = "stop"
	CheckpointReset    = "reset"
	CheckpointShutdown = "shutdown"
)

// RunSummary is an archived checkpoint of a run, written when the engine
// stops, resets or the process shuts down. (RunID, ElapsedSeconds) is unique.
type RunSummary struct {
	RunID            string           `json:"run_id"`
	Coin             string           `json:"coin"`
	Reason           string           `json:"reason"`
	ElapsedSeconds   int64            `json:"elapsed_seconds"`
	BlocksFound      int64            `json:"blocks_found"`
	TotalEarningsUSD float64          `json:"total_earnings_usd"`
	Parameters       MiningParameters `json:"parameters"`
	Market           MarketState      `json:"market"`
	RecordedAtMs     int64            `json:"recorded_at_ms"`
}

// NewRunSummary builds a checkpoint from a snapshot.
func NewRunSummary(snap Snapshot, reason string, recordedAtMs int64) *RunSummary {
	return &RunSummary{
		RunID:            snap.RunID,
		Coin:             snap.Coin,
		Reason:           reason,
		ElapsedSeconds:   snap.Clock.ElapsedSeconds,
		BlocksFound:      snap.Counters.BlocksFound,
		TotalEarningsUSD: snap.Counters.TotalEarningsUSD,
		Parameters:       snap.Parameters,
		Market:           snap.Market,
		RecordedAtMs:     recordedAtMs,
	}
}

// ArchivedSample is a metrics sample tagged with the run that produced it.
// (RunID, TimeSeconds) is unique.
type ArchivedSample struct {
	RunID string `json:"run_id"`
	Coin  string `json:"coin"`
	MetricsSample
}
