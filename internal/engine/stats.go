package engine

import (
	"time"

	"github.com/surgelove/vibe-trader/internal/signal"
)

// State is the engine lifecycle position. Stopped is terminal.
type State int

const (
	// Idle engines accept Start.
	Idle State = iota
	// Running engines are inside Start.
	Running
	// Stopped engines are done and cannot be restarted.
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only copy of the engine counters.
type Snapshot struct {
	RunID      string
	State      State
	Total      int
	Buy        int
	Sell       int
	Hold       int // only actionable signals are counted, so this stays zero
	LastSignal signal.Signal
	LastPrice  float64
	HasPrice   bool
	StartedAt  time.Time
	Elapsed    time.Duration
	HistoryLen int
	Strategies []string
}

// stats is owned by the engine and guarded by its mutex.
type stats struct {
	total      int
	buy        int
	sell       int
	hold       int
	lastSignal signal.Signal
	lastPrice  float64
	hasPrice   bool
	startedAt  time.Time
	stoppedAt  time.Time
	historyLen int
}

func (s *stats) record(sig signal.Signal) {
	s.total++
	s.lastSignal = sig
	switch sig {
	case signal.Buy:
		s.buy++
	case signal.Sell:
		s.sell++
	default:
		s.hold++
	}
}

func (s *stats) elapsed(state State, now time.Time) time.Duration {
	switch {
	case s.startedAt.IsZero():
		return 0
	case state == Stopped && !s.stoppedAt.IsZero():
		return s.stoppedAt.Sub(s.startedAt)
	default:
		return now.Sub(s.startedAt)
	}
}
