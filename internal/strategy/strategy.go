// Package strategy contains trading signal generation logic evaluated against the rolling history.
package strategy

import "github.com/surgelove/vibe-trader/internal/signal"

// History is the read-only view strategies get of the rolling buffer.
// At accepts negative indexes counted from the newest observation.
type History interface {
	Len() int
	At(i int) signal.Observation
}

// Strategy defines behaviour shared by strategy implementations used by the engine.
// Implementations hold only their parameters; Analyze must be deterministic and free of side effects.
// The history passed to Analyze already ends with current.
type Strategy interface {
	Analyze(current signal.Observation, h History) signal.Signal
	Name() string
}

// meanTail averages n prices that end skip observations before the newest one.
func meanTail(h History, skip, n int) float64 {
	first := h.Len() - skip - n
	var sum float64
	for i := 0; i < n; i++ {
		sum += h.At(first + i).Price
	}
	return sum / float64(n)
}
