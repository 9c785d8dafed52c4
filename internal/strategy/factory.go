package strategy

import (
	"fmt"
	"strings"
)

const (
	defaultPeriod     = 14
	defaultOversold   = 30.0
	defaultOverbought = 70.0
	defaultLookback   = 10
	defaultThreshold  = 0.02
)

// Params expresses tunable knobs required by strategy constructors. Zero windows and nil levels
// select defaults; a non-nil level is used as given, including 0.
type Params struct {
	ShortWindow int
	LongWindow  int
	Period      int
	Oversold    *float64
	Overbought  *float64
	Lookback    int
	Threshold   *float64
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Build returns a strategy implementation matching the configured mode.
func Build(mode string, params Params) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "ma", "sma", "ma_crossover", "moving_average":
		if params.ShortWindow > 0 && params.LongWindow > 0 && params.ShortWindow > params.LongWindow {
			return nil, fmt.Errorf("short window %d exceeds long window %d", params.ShortWindow, params.LongWindow)
		}
		return NewMovingAverageCrossover(params.ShortWindow, params.LongWindow), nil
	case "rsi":
		oversold := valueOr(params.Oversold, defaultOversold)
		overbought := valueOr(params.Overbought, defaultOverbought)
		if oversold < 0 || overbought > 100 || oversold >= overbought {
			return nil, fmt.Errorf("rsi levels %.2f/%.2f must satisfy 0 <= oversold < overbought <= 100", oversold, overbought)
		}
		return NewRelativeStrengthIndex(params.Period, oversold, overbought), nil
	case "momentum":
		threshold := valueOr(params.Threshold, defaultThreshold)
		if threshold < 0 {
			return nil, fmt.Errorf("momentum threshold %.4f must not be negative", threshold)
		}
		return NewMomentum(params.Lookback, threshold), nil
	default:
		return nil, fmt.Errorf("unknown strategy mode %q", mode)
	}
}
