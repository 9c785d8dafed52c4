package strategy

import (
	"fmt"

	"github.com/surgelove/vibe-trader/internal/signal"
)

// RelativeStrengthIndex signals oversold/overbought conditions from simple-mean gains and losses.
type RelativeStrengthIndex struct {
	period     int
	oversold   float64
	overbought float64
}

// NewRelativeStrengthIndex builds the strategy. A non-positive period falls back to 14 and negative
// levels to 30/70; zero levels are kept as given (oversold 0 never buys).
func NewRelativeStrengthIndex(period int, oversold, overbought float64) *RelativeStrengthIndex {
	if period <= 0 {
		period = defaultPeriod
	}
	if oversold < 0 {
		oversold = defaultOversold
	}
	if overbought < 0 {
		overbought = defaultOverbought
	}
	return &RelativeStrengthIndex{period: period, oversold: oversold, overbought: overbought}
}

// Name returns the identifier used in logs, metrics and stats.
func (s *RelativeStrengthIndex) Name() string {
	return fmt.Sprintf("RelativeStrengthIndex(%d,%g,%g)", s.period, s.oversold, s.overbought)
}

// Value computes the RSI over the last period+1 prices. ok is false during warm-up.
func (s *RelativeStrengthIndex) Value(h History) (rsi float64, ok bool) {
	if h.Len() < s.period+1 {
		return 0, false
	}
	first := h.Len() - s.period - 1
	var gains, losses float64
	prev := h.At(first).Price
	for i := first + 1; i < h.Len(); i++ {
		px := h.At(i).Price
		change := px - prev
		if change > 0 {
			gains += change
		} else if change < 0 {
			losses += -change
		}
		prev = px
	}
	avgGain := gains / float64(s.period)
	avgLoss := losses / float64(s.period)
	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// Analyze returns BUY below the oversold level and SELL above the overbought level.
func (s *RelativeStrengthIndex) Analyze(_ signal.Observation, h History) signal.Signal {
	rsi, ok := s.Value(h)
	if !ok {
		return signal.Hold
	}
	switch {
	case rsi < s.oversold:
		return signal.Buy
	case rsi > s.overbought:
		return signal.Sell
	default:
		return signal.Hold
	}
}
