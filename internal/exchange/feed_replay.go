package exchange

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/surgelove/vibe-trader/internal/signal"
)

// ReplaySource plays a JSON-lines file back, pausing interval after every delivered record.
type ReplaySource struct {
	path     string
	interval time.Duration
	log      zerolog.Logger
	lc       lifecycle
}

// NewReplaySource reads path; a zero interval replays as fast as the consumer allows.
func NewReplaySource(path string, interval time.Duration, log zerolog.Logger) *ReplaySource {
	if interval < 0 {
		interval = 0
	}
	return &ReplaySource{path: path, interval: interval, log: log}
}

// Name identifies the source in logs and metrics.
func (r *ReplaySource) Name() string { return ProviderReplay }

// Start replays the file. Reaching EOF ends the run with a nil error; a missing or unreadable
// file is logged and also ends the run without an error.
func (r *ReplaySource) Start(ctx context.Context, deliver DeliverFunc) error {
	stop := r.lc.begin()
	defer r.lc.end(stop)

	file, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.log.Error().Str("path", r.path).Msg("file not found")
		} else {
			r.log.Error().Err(err).Str("path", r.path).Msg("open replay file")
		}
		return nil
	}
	defer file.Close()
	r.log.Info().Str("path", r.path).Msg("reading data from file")

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	delivered := 0
	for scanner.Scan() {
		if ended, err := done(ctx, stop); ended {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		obs, err := signal.ParseObservation([]byte(line))
		if err != nil {
			malformed(r.log, ProviderReplay, err)
			continue
		}
		r.log.Debug().Stringer("obs", obs).Msg("file data")
		safeDeliver(r.log, ProviderReplay, deliver, obs)
		delivered++

		if !sleep(ctx, stop, r.interval) {
			_, err := done(ctx, stop)
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		r.log.Error().Err(err).Str("path", r.path).Msg("file reading error")
		return nil
	}
	r.log.Info().Int("delivered", delivered).Msg("replay finished")
	return nil
}

// Stop ends the replay after the current delivery or wait.
func (r *ReplaySource) Stop() {
	r.log.Info().Msg("stopping file listener")
	r.lc.halt()
}
