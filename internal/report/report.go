// Package report renders engine counters for humans and logs them on a schedule.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/surgelove/vibe-trader/internal/engine"
	"github.com/surgelove/vibe-trader/internal/journal"
)

const rule = "=================================================="

// Format renders snap as the multi-line statistics block printed at shutdown, followed by the
// recent signals when any are given.
func Format(snap engine.Snapshot, recent ...journal.Entry) string {
	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("Trading Assistant Statistics\n")
	b.WriteString(rule + "\n")
	if snap.RunID != "" {
		fmt.Fprintf(&b, "Run: %s (%s)\n", snap.RunID, snap.State)
	}
	if snap.StartedAt.IsZero() {
		b.WriteString("Running time: Not started\n")
	} else {
		fmt.Fprintf(&b, "Running time: %s\n", snap.Elapsed.Round(time.Millisecond))
	}
	fmt.Fprintf(&b, "Price history: %d data points\n", snap.HistoryLen)
	fmt.Fprintf(&b, "Last price: %s\n", Price(snap))
	fmt.Fprintf(&b, "Total signals: %d\n", snap.Total)
	fmt.Fprintf(&b, "  - Buy signals: %d\n", snap.Buy)
	fmt.Fprintf(&b, "  - Sell signals: %d\n", snap.Sell)
	fmt.Fprintf(&b, "  - Hold signals: %d\n", snap.Hold)
	last := "none"
	if snap.LastSignal != "" {
		last = string(snap.LastSignal)
	}
	fmt.Fprintf(&b, "Last signal: %s\n", last)
	fmt.Fprintf(&b, "Active strategies: %d\n", len(snap.Strategies))
	for i, name := range snap.Strategies {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, name)
	}
	if len(recent) > 0 {
		fmt.Fprintf(&b, "Recent signals: %d\n", len(recent))
		for _, e := range recent {
			fmt.Fprintf(&b, "  %s %s %s $%s %s\n",
				e.Time.Format("2006-01-02 15:04:05"), e.Signal, orUnknown(e.Symbol),
				decimal.NewFromFloat(e.Price).StringFixed(2), e.Strategy)
		}
	}
	b.WriteString(rule + "\n")
	return b.String()
}

func orUnknown(symbol string) string {
	if symbol == "" {
		return "UNKNOWN"
	}
	return symbol
}

// Price renders the last price with two decimals, or "n/a" when none was seen.
func Price(snap engine.Snapshot) string {
	if !snap.HasPrice {
		return "n/a"
	}
	return "$" + decimal.NewFromFloat(snap.LastPrice).StringFixed(2)
}
