// Package journal keeps a record of the actionable signals an engine run produced.
package journal

import (
	"time"

	"github.com/surgelove/vibe-trader/internal/engine"
	"github.com/surgelove/vibe-trader/internal/signal"
)

// Entry is one actionable signal as it left the engine.
type Entry struct {
	RunID    string        `json:"run_id"`
	Strategy string        `json:"strategy"`
	Signal   signal.Signal `json:"signal"`
	Symbol   string        `json:"symbol,omitempty"`
	Price    float64       `json:"price"`
	Time     time.Time     `json:"time"`
}

// NewEntry captures sig for obs as produced by strategy during run runID.
func NewEntry(runID string, sig signal.Signal, obs signal.Observation, strategy string) Entry {
	return Entry{
		RunID:    runID,
		Strategy: strategy,
		Signal:   sig,
		Symbol:   obs.Symbol,
		Price:    obs.Price,
		Time:     obs.Time,
	}
}

// Recorder stores entries.
type Recorder interface {
	Record(Entry) error
}

// Hook adapts rec into an engine execution hook. runID is read on every call so
// the hook can be built before the engine assigns its id.
func Hook(runID func() string, rec Recorder) engine.ExecutionHook {
	return func(sig signal.Signal, obs signal.Observation, strategy string) error {
		if !sig.Actionable() {
			return nil
		}
		id := ""
		if runID != nil {
			id = runID()
		}
		return rec.Record(NewEntry(id, sig, obs, strategy))
	}
}
