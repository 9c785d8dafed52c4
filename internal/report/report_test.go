package report

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/surgelove/vibe-trader/internal/engine"
	"github.com/surgelove/vibe-trader/internal/journal"
	"github.com/surgelove/vibe-trader/internal/signal"
)

func TestFormat(t *testing.T) {
	snap := engine.Snapshot{
		RunID:      "run-1",
		State:      engine.Stopped,
		Total:      3,
		Buy:        2,
		Sell:       1,
		LastSignal: signal.Sell,
		LastPrice:  50123.456,
		HasPrice:   true,
		StartedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Elapsed:    90 * time.Second,
		HistoryLen: 42,
		Strategies: []string{"MovingAverageCrossover(5,20)", "Momentum(10,0.015)"},
	}
	out := Format(snap)
	for _, want := range []string{
		"Run: run-1 (stopped)",
		"Running time: 1m30s",
		"Price history: 42 data points",
		"Last price: $50123.46",
		"Total signals: 3",
		"  - Buy signals: 2",
		"  - Sell signals: 1",
		"  - Hold signals: 0",
		"Last signal: SELL",
		"Active strategies: 2",
		"  2. Momentum(10,0.015)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatRecentSignals(t *testing.T) {
	recent := []journal.Entry{
		{Strategy: "Momentum(10,0.02)", Signal: signal.Buy, Symbol: "BTC-USD", Price: 100.5, Time: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)},
		{Strategy: "Momentum(10,0.02)", Signal: signal.Sell, Price: 99, Time: time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC)},
	}
	out := Format(engine.Snapshot{}, recent...)
	for _, want := range []string{
		"Recent signals: 2",
		"2024-01-01 09:00:00 BUY BTC-USD $100.50 Momentum(10,0.02)",
		"2024-01-01 09:05:00 SELL UNKNOWN $99.00 Momentum(10,0.02)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(Format(engine.Snapshot{}), "Recent signals") {
		t.Fatalf("recent section must be omitted without entries")
	}
}

func TestFormatBeforeStart(t *testing.T) {
	out := Format(engine.Snapshot{})
	if !strings.Contains(out, "Running time: Not started") || !strings.Contains(out, "Last price: n/a") || !strings.Contains(out, "Last signal: none") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestReporterSchedule(t *testing.T) {
	var out syncBuffer
	calls := make(chan struct{}, 10)
	stats := func() engine.Snapshot {
		select {
		case calls <- struct{}{}:
		default:
		}
		return engine.Snapshot{RunID: "run-9", LastPrice: 10, HasPrice: true}
	}
	r, err := NewReporter("@every 1s", stats, zerolog.New(&out))
	if err != nil {
		t.Fatalf("NewReporter error: %v", err)
	}
	r.Start()
	select {
	case <-calls:
	case <-time.After(3 * time.Second):
		t.Fatalf("reporter never fired")
	}
	r.Stop()
	if !strings.Contains(out.String(), `"run_id":"run-9"`) {
		t.Fatalf("expected snapshot in log: %s", out.String())
	}
}

func TestReporterRejectsBadSchedule(t *testing.T) {
	if _, err := NewReporter("every now and then", func() engine.Snapshot { return engine.Snapshot{} }, zerolog.Nop()); err == nil {
		t.Fatalf("expected schedule error")
	}
}
