// Package engine wires one source to the registered strategies: it owns the rolling history,
// dispatches every observation to each strategy and forwards actionable signals to the execution hook.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/surgelove/vibe-trader/internal/exchange"
	"github.com/surgelove/vibe-trader/internal/execution"
	"github.com/surgelove/vibe-trader/internal/history"
	"github.com/surgelove/vibe-trader/internal/metrics"
	"github.com/surgelove/vibe-trader/internal/signal"
	"github.com/surgelove/vibe-trader/internal/strategy"
)

const defaultMaxHistory = 1000

var (
	// ErrNoSource is returned by Start when no source was attached.
	ErrNoSource = errors.New("no data source configured")
	// ErrNotIdle is returned by Start on an engine that already ran; create a new one instead.
	ErrNotIdle = errors.New("engine is not idle")
)

// ExecutionHook receives every actionable signal. Errors are logged, never fatal.
type ExecutionHook func(sig signal.Signal, obs signal.Observation, strategy string) error

// Chain runs every hook in order and joins their errors.
func Chain(hooks ...ExecutionHook) ExecutionHook {
	return func(sig signal.Signal, obs signal.Observation, name string) error {
		var errs []error
		for _, hook := range hooks {
			if hook == nil {
				continue
			}
			if err := hook(sig, obs, name); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

// Option configures Engine construction parameters.
type Option func(*Engine)

// WithHook replaces the default logging executor.
func WithHook(hook ExecutionHook) Option {
	return func(e *Engine) {
		if hook != nil {
			e.hook = hook
		}
	}
}

// WithClock overrides the time source used for start time and elapsed time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine is the orchestrator. One observation is processed to completion before the next.
type Engine struct {
	log     zerolog.Logger
	now     func() time.Time
	history *history.Ring

	// process serializes OnObservation; history is only touched while it is held.
	process sync.Mutex

	mu         sync.Mutex
	state      State
	cancel     context.CancelFunc
	runID      string
	source     exchange.Source
	strategies []strategy.Strategy
	hook       ExecutionHook
	stats      stats
}

// New builds an idle engine keeping at most maxHistory observations (1000 when non-positive).
func New(maxHistory int, log zerolog.Logger, opts ...Option) *Engine {
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	e := &Engine{
		log:     log,
		now:     time.Now,
		history: history.New(maxHistory),
	}
	e.hook = execution.NewExecutor(log).Execute
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddStrategy registers a strategy; strategies run in registration order.
func (e *Engine) AddStrategy(s strategy.Strategy) {
	e.mu.Lock()
	e.strategies = append(e.strategies, s)
	e.mu.Unlock()
	e.log.Info().Str("strategy", s.Name()).Msg("added strategy")
}

// SetSource attaches the observation source.
func (e *Engine) SetSource(src exchange.Source) {
	e.mu.Lock()
	e.source = src
	e.mu.Unlock()
	if src != nil {
		e.log.Info().Str("source", src.Name()).Msg("set data source")
	}
}

// SetHook replaces the execution hook.
func (e *Engine) SetHook(hook ExecutionHook) {
	if hook == nil {
		return
	}
	e.mu.Lock()
	e.hook = hook
	e.mu.Unlock()
}

// State reports the lifecycle position.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start runs the source until it stops or is exhausted, then stops the engine.
// Cancellation of ctx is an orderly shutdown and yields a nil error. The source runs under a
// context that Stop cancels, so a Stop racing the source's own startup still ends the run.
func (e *Engine) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	if e.source == nil {
		e.mu.Unlock()
		return ErrNoSource
	}
	if e.state != Idle {
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotIdle, state)
	}
	e.state = Running
	e.cancel = cancel
	e.runID = uuid.NewString()
	e.stats.startedAt = e.now()
	src := e.source
	count := len(e.strategies)
	runID := e.runID
	e.mu.Unlock()

	e.log.Info().Str("run_id", runID).Str("source", src.Name()).Int("strategies", count).Msg("starting trading assistant")

	err := src.Start(ctx, e.OnObservation)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		e.log.Error().Err(err).Msg("data source failed")
	}
	e.Stop()
	return err
}

// Stop moves the engine to Stopped, asks the source to stop and logs the final counters.
// It is idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state == Stopped {
		e.mu.Unlock()
		return
	}
	e.state = Stopped
	e.stats.stoppedAt = e.now()
	src := e.source
	cancel := e.cancel
	e.mu.Unlock()

	e.log.Info().Msg("stopping trading assistant")
	if cancel != nil {
		cancel()
	}
	if src != nil {
		src.Stop()
	}
	snap := e.Stats()
	e.log.Info().
		Str("run_id", snap.RunID).
		Int("total", snap.Total).
		Int("buy", snap.Buy).
		Int("sell", snap.Sell).
		Float64("last_price", snap.LastPrice).
		Dur("elapsed", snap.Elapsed).
		Msg("final stats")
}

// RunID returns the identifier assigned when the engine started; empty before Start.
func (e *Engine) RunID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runID
}

// Stats returns a copy of the counters; safe to call from any goroutine.
func (e *Engine) Stats() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return Snapshot{
		RunID:      e.runID,
		State:      e.state,
		Total:      e.stats.total,
		Buy:        e.stats.buy,
		Sell:       e.stats.sell,
		Hold:       e.stats.hold,
		LastSignal: e.stats.lastSignal,
		LastPrice:  e.stats.lastPrice,
		HasPrice:   e.stats.hasPrice,
		StartedAt:  e.stats.startedAt,
		Elapsed:    e.stats.elapsed(e.state, e.now()),
		HistoryLen: e.stats.historyLen,
		Strategies: names,
	}
}

// OnObservation appends obs to the history and evaluates every strategy against it.
// It is the DeliverFunc handed to the source; failures inside are logged, not returned.
// Observations arriving after Stop are dropped.
func (e *Engine) OnObservation(obs signal.Observation) error {
	e.process.Lock()
	defer e.process.Unlock()

	e.mu.Lock()
	if e.state == Stopped {
		e.mu.Unlock()
		e.log.Debug().Stringer("obs", obs).Msg("dropped observation after stop")
		return nil
	}
	e.history.Push(obs)
	e.stats.lastPrice = obs.Price
	e.stats.hasPrice = true
	e.stats.historyLen = e.history.Len()
	strategies := append([]strategy.Strategy(nil), e.strategies...)
	hook := e.hook
	e.mu.Unlock()
	metrics.HistoryLength.Set(float64(e.history.Len()))

	e.log.Info().Stringer("obs", obs).Msg("received")

	for _, s := range strategies {
		sig, ok := e.evaluate(s, obs)
		if !ok || !sig.Actionable() {
			continue
		}
		name := s.Name()
		e.mu.Lock()
		e.stats.record(sig)
		e.mu.Unlock()
		metrics.SignalsTotal.WithLabelValues(name, string(sig)).Inc()
		e.log.Info().Str("strategy", name).Str("signal", string(sig)).Float64("px", obs.Price).Msg("signal")
		e.execute(hook, sig, obs, name)
	}
	return nil
}

func (e *Engine) evaluate(s strategy.Strategy, obs signal.Observation) (sig signal.Signal, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			metrics.StrategyErrorsTotal.WithLabelValues(s.Name()).Inc()
			e.log.Error().Str("strategy", s.Name()).Interface("panic", r).Msg("strategy failed")
			sig, ok = signal.Hold, false
		}
	}()
	return s.Analyze(obs, e.history), true
}

func (e *Engine) execute(hook ExecutionHook, sig signal.Signal, obs signal.Observation, name string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("strategy", name).Interface("panic", r).Msg("execution hook panicked")
		}
	}()
	if err := hook(sig, obs, name); err != nil {
		e.log.Error().Err(err).Str("strategy", name).Msg("execution hook failed")
	}
}
