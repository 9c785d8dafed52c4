// Package execution turns actionable signals into (stubbed) order submissions.
package execution

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/surgelove/vibe-trader/internal/metrics"
	"github.com/surgelove/vibe-trader/internal/signal"
)

// Side enumerates order directions used by the executor.
type Side string

const (
	// Buy indicates a long order.
	Buy Side = "BUY"
	// Sell indicates a short order.
	Sell Side = "SELL"
)

// unknownSymbol labels observations that carried no symbol.
const unknownSymbol = "UNKNOWN"

// Order represents a placement request derived from a signal.
type Order struct {
	Symbol   string
	Side     Side
	Price    float64
	Time     time.Time
	Strategy string
}

// OrderFor maps an actionable signal onto an order; ok is false for HOLD.
func OrderFor(sig signal.Signal, obs signal.Observation, strategy string) (Order, bool) {
	var side Side
	switch sig {
	case signal.Buy:
		side = Buy
	case signal.Sell:
		side = Sell
	default:
		return Order{}, false
	}
	sym := obs.Symbol
	if sym == "" {
		sym = unknownSymbol
	}
	return Order{Symbol: sym, Side: side, Price: obs.Price, Time: obs.Time, Strategy: strategy}, true
}

// Executor implements a logger-backed submitter for orders.
type Executor struct{ log zerolog.Logger }

// NewExecutor wraps a zerolog logger for order submissions.
func NewExecutor(log zerolog.Logger) *Executor { return &Executor{log: log} }

// Execute is the default execution hook: it converts the signal and submits it.
func (executor *Executor) Execute(sig signal.Signal, obs signal.Observation, strategy string) error {
	order, ok := OrderFor(sig, obs, strategy)
	if !ok {
		return nil
	}
	return executor.Submit(order)
}

// Submit only logs the order; no venue is contacted.
func (executor *Executor) Submit(order Order) error {
	if order.Side != Buy && order.Side != Sell {
		return fmt.Errorf("unknown order side %q", order.Side)
	}
	metrics.OrdersTotal.WithLabelValues(order.Symbol, string(order.Side)).Inc()
	executor.log.Info().
		Str("sym", order.Symbol).
		Str("side", string(order.Side)).
		Float64("px", order.Price).
		Str("ts", order.Time.Format("2006-01-02 15:04:05")).
		Str("strategy", order.Strategy).
		Msgf("EXECUTE %s", order.Side)
	return nil
}
