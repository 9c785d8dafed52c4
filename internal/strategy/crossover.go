package strategy

import (
	"fmt"

	"github.com/surgelove/vibe-trader/internal/signal"
)

// MovingAverageCrossover compares a short and a long simple moving average with the previous tick's pair.
type MovingAverageCrossover struct {
	short int
	long  int
}

// NewMovingAverageCrossover builds the strategy; non-positive windows fall back to 5/20 and short is capped at long.
func NewMovingAverageCrossover(shortWindow, longWindow int) *MovingAverageCrossover {
	if shortWindow <= 0 {
		shortWindow = 5
	}
	if longWindow <= 0 {
		longWindow = 20
	}
	if shortWindow > longWindow {
		shortWindow = longWindow
	}
	return &MovingAverageCrossover{short: shortWindow, long: longWindow}
}

// Name returns the identifier used in logs, metrics and stats.
func (s *MovingAverageCrossover) Name() string {
	return fmt.Sprintf("MovingAverageCrossover(%d,%d)", s.short, s.long)
}

// Windows reports the configured short and long windows.
func (s *MovingAverageCrossover) Windows() (int, int) { return s.short, s.long }

// Analyze emits BUY when the short average moves above the long one and SELL when it moves below.
//
// The previous snapshot uses the window shifted back by one tick: prevShort is the mean of its
// last short prices and prevLong the mean of the whole shifted window. Only that single prior
// snapshot is consulted, so a cross is reported on the tick it happens and not afterwards.
func (s *MovingAverageCrossover) Analyze(current signal.Observation, h History) signal.Signal {
	if h.Len() < s.long {
		return signal.Hold
	}
	shortMA := meanTail(h, 0, s.short)
	longMA := meanTail(h, 0, s.long)

	if h.Len() < s.long+1 {
		return signal.Hold
	}
	prevShortMA := meanTail(h, 1, s.short)
	prevLongMA := meanTail(h, 1, s.long)

	switch {
	case shortMA > longMA && prevShortMA <= prevLongMA:
		return signal.Buy
	case shortMA < longMA && prevShortMA >= prevLongMA:
		return signal.Sell
	default:
		return signal.Hold
	}
}
