package strategy

import (
	"fmt"

	"github.com/surgelove/vibe-trader/internal/signal"
)

// Momentum emits signals when the relative price change over a lookback exceeds a threshold.
type Momentum struct {
	lookback  int
	threshold float64
}

// NewMomentum builds a momentum strategy. A non-positive lookback falls back to 10 and a negative
// threshold to 0.02; a zero threshold is kept, so any move signals.
func NewMomentum(lookback int, threshold float64) *Momentum {
	if lookback <= 0 {
		lookback = defaultLookback
	}
	if threshold < 0 {
		threshold = defaultThreshold
	}
	return &Momentum{lookback: lookback, threshold: threshold}
}

// Name returns the identifier used in logs, metrics and stats.
func (s *Momentum) Name() string {
	return fmt.Sprintf("Momentum(%d,%g)", s.lookback, s.threshold)
}

// Analyze compares current against the observation lookback positions from the tail.
func (s *Momentum) Analyze(current signal.Observation, h History) signal.Signal {
	if h.Len() < s.lookback {
		return signal.Hold
	}
	past := h.At(-s.lookback).Price
	if past == 0 {
		return signal.Hold
	}
	momentum := (current.Price - past) / past
	switch {
	case momentum > s.threshold:
		return signal.Buy
	case momentum < -s.threshold:
		return signal.Sell
	default:
		return signal.Hold
	}
}
