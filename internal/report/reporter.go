package report

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/surgelove/vibe-trader/internal/engine"
)

// Reporter logs a stats snapshot on a cron schedule.
type Reporter struct {
	cron  *cron.Cron
	stats func() engine.Snapshot
	log   zerolog.Logger
}

// NewReporter logs stats on schedule, a cron expression or descriptor such as "@every 30s".
func NewReporter(schedule string, stats func() engine.Snapshot, log zerolog.Logger) (*Reporter, error) {
	r := &Reporter{cron: cron.New(), stats: stats, log: log}
	if _, err := r.cron.AddFunc(schedule, r.Log); err != nil {
		return nil, fmt.Errorf("report schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Log writes one snapshot.
func (r *Reporter) Log() {
	snap := r.stats()
	r.log.Info().
		Str("run_id", snap.RunID).
		Str("state", snap.State.String()).
		Int("history", snap.HistoryLen).
		Str("last_price", Price(snap)).
		Int("total", snap.Total).
		Int("buy", snap.Buy).
		Int("sell", snap.Sell).
		Str("last_signal", string(snap.LastSignal)).
		Dur("elapsed", snap.Elapsed).
		Msg("stats")
}

// Start runs the schedule in the background.
func (r *Reporter) Start() {
	r.log.Info().Msg("reporter started")
	r.cron.Start()
}

// Stop waits for a running report to finish.
func (r *Reporter) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info().Msg("reporter stopped")
}
