// Package signal standardizes payloads shared between data ingestion and strategy layers.
package signal

import (
	"fmt"
	"time"
)

// Observation models one price sample consumed by strategies. Values are never mutated after construction.
type Observation struct {
	Time   time.Time
	Price  float64
	Symbol string // empty when the source did not provide one
}

// String renders the observation for log lines.
func (o Observation) String() string {
	sym := o.Symbol
	if sym == "" {
		sym = "-"
	}
	return fmt.Sprintf("%s %s %g", o.Time.Format(time.RFC3339), sym, o.Price)
}

// Signal expresses the trading bias produced by a strategy evaluation.
type Signal string

const (
	// Buy indicates a long bias.
	Buy Signal = "BUY"
	// Sell indicates a short bias.
	Sell Signal = "SELL"
	// Hold is the neutral, no-action outcome.
	Hold Signal = "HOLD"
)

// Actionable reports whether the signal should reach the execution hook.
func (s Signal) Actionable() bool { return s == Buy || s == Sell }
