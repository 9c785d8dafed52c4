package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/surgelove/vibe-trader/internal/exchange"
	"github.com/surgelove/vibe-trader/internal/signal"
	"github.com/surgelove/vibe-trader/internal/strategy"
)

// sliceSource delivers a fixed list of observations and then returns.
type sliceSource struct {
	obs     []signal.Observation
	mu      sync.Mutex
	stopped int
}

func (s *sliceSource) Name() string { return "slice" }

func (s *sliceSource) Start(_ context.Context, deliver exchange.DeliverFunc) error {
	for _, o := range s.obs {
		_ = deliver(o)
	}
	return nil
}

func (s *sliceSource) Stop() {
	s.mu.Lock()
	s.stopped++
	s.mu.Unlock()
}

func prices(ps ...float64) []signal.Observation {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]signal.Observation, len(ps))
	for i, p := range ps {
		out[i] = signal.Observation{Time: start.Add(time.Duration(i) * time.Minute), Price: p, Symbol: "BTC-USD"}
	}
	return out
}

// tracing records the signal its inner strategy returned on every tick.
type tracing struct {
	strategy.Strategy
	signals []signal.Signal
	lens    []int
	lasts   []float64
}

func (t *tracing) Analyze(current signal.Observation, h strategy.History) signal.Signal {
	sig := t.Strategy.Analyze(current, h)
	t.signals = append(t.signals, sig)
	t.lens = append(t.lens, h.Len())
	t.lasts = append(t.lasts, h.At(-1).Price)
	return sig
}

type panicking struct{}

func (panicking) Name() string { return "panicking" }

func (panicking) Analyze(signal.Observation, strategy.History) signal.Signal { panic("boom") }

type call struct {
	sig      signal.Signal
	price    float64
	strategy string
}

func recordingHook(calls *[]call) ExecutionHook {
	return func(sig signal.Signal, obs signal.Observation, name string) error {
		*calls = append(*calls, call{sig: sig, price: obs.Price, strategy: name})
		return nil
	}
}

func TestStartWithoutSource(t *testing.T) {
	e := New(10, zerolog.Nop())
	if err := e.Start(context.Background()); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
	if e.State() != Idle {
		t.Fatalf("expected engine to remain idle, got %s", e.State())
	}
}

func TestCrossoverEndToEnd(t *testing.T) {
	var calls []call
	e := New(100, zerolog.Nop(), WithHook(recordingHook(&calls)))
	trace := &tracing{Strategy: strategy.NewMovingAverageCrossover(2, 4)}
	e.AddStrategy(trace)
	src := &sliceSource{obs: prices(10, 10, 10, 10, 20, 20)}
	e.SetSource(src)

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	// tick 5: short (10+20)/2=15 > long 12.5, previous 10 <= 10 -> BUY
	// tick 6: short 20 > long 15 but previous short 15 > previous long 12.5 -> HOLD
	want := []signal.Signal{signal.Hold, signal.Hold, signal.Hold, signal.Hold, signal.Buy, signal.Hold}
	if len(trace.signals) != len(want) {
		t.Fatalf("expected %d evaluations, got %d", len(want), len(trace.signals))
	}
	for i := range want {
		if trace.signals[i] != want[i] {
			t.Fatalf("tick %d: expected %s got %s", i+1, want[i], trace.signals[i])
		}
	}
	if len(calls) != 1 || calls[0].sig != signal.Buy || calls[0].price != 20 {
		t.Fatalf("unexpected hook calls %+v", calls)
	}
	if calls[0].strategy != "MovingAverageCrossover(2,4)" {
		t.Fatalf("unexpected strategy identity %q", calls[0].strategy)
	}

	snap := e.Stats()
	if snap.Total != 1 || snap.Buy != 1 || snap.Sell != 0 || snap.Hold != 0 {
		t.Fatalf("unexpected counters %+v", snap)
	}
	if snap.LastSignal != signal.Buy || snap.LastPrice != 20 || !snap.HasPrice {
		t.Fatalf("unexpected last values %+v", snap)
	}
	if snap.State != Stopped || src.stopped != 1 {
		t.Fatalf("expected engine stopped and source stopped once, got %s/%d", snap.State, src.stopped)
	}
	if snap.RunID == "" || snap.HistoryLen != 6 || len(snap.Strategies) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestHistoryBoundedAndIncludesCurrent(t *testing.T) {
	e := New(3, zerolog.Nop(), WithHook(func(signal.Signal, signal.Observation, string) error { return nil }))
	trace := &tracing{Strategy: strategy.NewMomentum(2, 0.5)}
	e.AddStrategy(trace)
	for _, o := range prices(1, 2, 3, 4, 5) {
		if err := e.OnObservation(o); err != nil {
			t.Fatalf("OnObservation returned error: %v", err)
		}
	}
	wantLens := []int{1, 2, 3, 3, 3}
	for i, l := range trace.lens {
		if l != wantLens[i] {
			t.Fatalf("tick %d: expected history len %d got %d", i+1, wantLens[i], l)
		}
		if trace.lasts[i] != float64(i+1) {
			t.Fatalf("tick %d: history does not end with current", i+1)
		}
	}
	if e.Stats().HistoryLen != 3 {
		t.Fatalf("expected history capped at 3")
	}
}

func TestStrategyPanicIsIsolated(t *testing.T) {
	var calls []call
	e := New(10, zerolog.Nop(), WithHook(recordingHook(&calls)))
	e.AddStrategy(panicking{})
	e.AddStrategy(strategy.NewMomentum(2, 0.02))

	for _, o := range prices(100, 110) {
		_ = e.OnObservation(o)
	}
	if len(calls) != 1 || calls[0].sig != signal.Buy || calls[0].strategy != "Momentum(2,0.02)" {
		t.Fatalf("expected momentum BUY despite panicking strategy, got %+v", calls)
	}
}

func TestHookFailuresAreLogged(t *testing.T) {
	var buf bytes.Buffer
	n := 0
	hook := func(signal.Signal, signal.Observation, string) error {
		n++
		if n == 1 {
			return errors.New("venue down")
		}
		panic("hook exploded")
	}
	e := New(10, zerolog.New(&buf), WithHook(hook))
	e.AddStrategy(constant(signal.Sell))
	e.AddStrategy(constant(signal.Buy))
	if err := e.OnObservation(prices(100)[0]); err != nil {
		t.Fatalf("OnObservation returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected hook to run for both strategies, ran %d times", n)
	}
	out := buf.String()
	if !strings.Contains(out, "venue down") || !strings.Contains(out, "hook exploded") {
		t.Fatalf("expected hook failures in log: %s", out)
	}
	snap := e.Stats()
	if snap.Total != 2 || snap.Buy != 1 || snap.Sell != 1 || snap.LastSignal != signal.Buy {
		t.Fatalf("unexpected counters %+v", snap)
	}
}

type constant signal.Signal

func (c constant) Name() string { return "constant-" + string(c) }

func (c constant) Analyze(signal.Observation, strategy.History) signal.Signal { return signal.Signal(c) }

func TestNoStrategiesStillTracksPrice(t *testing.T) {
	e := New(0, zerolog.Nop())
	_ = e.OnObservation(prices(42)[0])
	snap := e.Stats()
	if !snap.HasPrice || snap.LastPrice != 42 || snap.Total != 0 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestEngineNotRestartable(t *testing.T) {
	e := New(10, zerolog.Nop())
	e.SetSource(&sliceSource{obs: prices(1)})
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := e.Start(context.Background()); !errors.Is(err, ErrNotIdle) {
		t.Fatalf("expected ErrNotIdle, got %v", err)
	}
}

func TestStopBeforeStartIsTerminal(t *testing.T) {
	e := New(10, zerolog.Nop())
	src := &sliceSource{}
	e.SetSource(src)
	e.Stop()
	e.Stop()
	if e.State() != Stopped || src.stopped != 1 {
		t.Fatalf("expected single transition to stopped, got %s/%d", e.State(), src.stopped)
	}
	if err := e.Start(context.Background()); !errors.Is(err, ErrNotIdle) {
		t.Fatalf("expected ErrNotIdle, got %v", err)
	}
}

func TestStopWhileRunningSynthetic(t *testing.T) {
	e := New(50, zerolog.Nop(), WithHook(func(signal.Signal, signal.Observation, string) error { return nil }))
	e.AddStrategy(strategy.NewMomentum(3, 0.001))
	e.SetSource(exchange.NewSyntheticSource("TEST-USD", 5*time.Millisecond, 1000, zerolog.Nop()))

	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(context.Background()) }()

	deadline := time.After(2 * time.Second)
	for e.Stats().HistoryLen < 5 {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for observations")
		case <-time.After(5 * time.Millisecond):
		}
	}
	e.Stop()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Start returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("engine did not stop")
	}
	snap := e.Stats()
	if snap.State != Stopped || snap.Elapsed <= 0 {
		t.Fatalf("unexpected final snapshot %+v", snap)
	}
}

func TestContextCancelIsOrderly(t *testing.T) {
	e := New(10, zerolog.Nop())
	e.SetSource(exchange.NewSyntheticSource("X", time.Hour, 10, zerolog.Nop()))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("expected nil on cancellation, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("engine did not stop on cancel")
	}
}

func TestReplayFileThroughEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.jsonl")
	lines := []string{
		"bad json",
		`{"date":"2024-01-01T00:00:00Z","price":100,"symbol":"BTC-USD"}`,
		`{"date":"2024-01-01T00:01:00Z","price":103,"symbol":"BTC-USD"}`,
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	var calls []call
	e := New(10, zerolog.Nop(), WithHook(recordingHook(&calls)))
	e.AddStrategy(strategy.NewMomentum(2, 0.02))
	e.SetSource(exchange.NewReplaySource(path, 0, zerolog.Nop()))
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if len(calls) != 1 || calls[0].sig != signal.Buy || calls[0].price != 103 {
		t.Fatalf("unexpected hook calls %+v", calls)
	}
	if e.Stats().HistoryLen != 2 {
		t.Fatalf("expected 2 observations in history")
	}
}

func TestElapsedUsesClock(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	e := New(10, zerolog.Nop(), WithClock(clock))
	if e.Stats().Elapsed != 0 {
		t.Fatalf("expected zero elapsed before start")
	}
	src := &sliceSource{obs: prices(1, 2)}
	e.SetSource(src)
	e.AddStrategy(&advance{now: &now})
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	now = now.Add(time.Hour)
	if got := e.Stats().Elapsed; got != 2*time.Minute {
		t.Fatalf("expected elapsed frozen at 2m after stop, got %s", got)
	}
}

// advance moves the fake clock one minute per evaluation.
type advance struct{ now *time.Time }

func (a *advance) Name() string { return "advance" }

func (a *advance) Analyze(signal.Observation, strategy.History) signal.Signal {
	*a.now = a.now.Add(time.Minute)
	return signal.Hold
}

func TestChainJoinsErrors(t *testing.T) {
	var order []string
	hook := Chain(
		func(signal.Signal, signal.Observation, string) error { order = append(order, "a"); return errors.New("a failed") },
		nil,
		func(signal.Signal, signal.Observation, string) error { order = append(order, "b"); return nil },
	)
	err := hook(signal.Buy, signal.Observation{}, "s")
	if err == nil || !strings.Contains(err.Error(), "a failed") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if strings.Join(order, ",") != "a,b" {
		t.Fatalf("expected both hooks to run, got %v", order)
	}
}

// deafSource ignores Stop and only ends when its context is canceled, the way a source behaves
// when Stop lands before its run has begun.
type deafSource struct {
	started chan struct{}
	deliver exchange.DeliverFunc
}

func (s *deafSource) Name() string { return "deaf" }

func (s *deafSource) Start(ctx context.Context, deliver exchange.DeliverFunc) error {
	s.deliver = deliver
	close(s.started)
	<-ctx.Done()
	return ctx.Err()
}

func (s *deafSource) Stop() {}

func TestStopEndsRunEvenWhenSourceMissesStop(t *testing.T) {
	var calls []call
	e := New(10, zerolog.Nop(), WithHook(recordingHook(&calls)))
	e.AddStrategy(constant(signal.Buy))
	src := &deafSource{started: make(chan struct{})}
	e.SetSource(src)

	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(context.Background()) }()
	<-src.started
	e.Stop()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Start returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("engine stopped but source kept running")
	}

	// a late delivery from the source is ignored
	if err := src.deliver(prices(5)[0]); err != nil {
		t.Fatalf("late delivery returned error: %v", err)
	}
	if snap := e.Stats(); snap.HistoryLen != 0 || snap.HasPrice || len(calls) != 0 {
		t.Fatalf("observation processed after stop: %+v calls=%v", snap, calls)
	}
}

func TestParentContextErrorsOtherThanCancelSurface(t *testing.T) {
	e := New(10, zerolog.Nop())
	e.SetSource(&deafSource{started: make(chan struct{})})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := e.Start(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if e.State() != Stopped {
		t.Fatalf("expected stopped engine")
	}
}
