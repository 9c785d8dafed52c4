// Package exchange hosts the observation sources: live socket feeds, file replay and a synthetic walk.
package exchange

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/surgelove/vibe-trader/internal/config"
	"github.com/surgelove/vibe-trader/internal/metrics"
	"github.com/surgelove/vibe-trader/internal/signal"
)

const (
	// ProviderSynthetic emits a multiplicative random walk (useful for demos/offline work).
	ProviderSynthetic = config.SourceSynthetic
	// ProviderReplay plays a JSON-lines file back at a fixed cadence.
	ProviderReplay = config.SourceReplay
	// ProviderSocket streams records from a websocket endpoint, reconnecting forever.
	ProviderSocket = config.SourceSocket
)

const (
	defaultInterval          = time.Second
	defaultReconnectInterval = 5 * time.Second
)

// DeliverFunc receives each observation. It runs on the source's goroutine and the source
// waits for it to return before reading or sleeping again.
type DeliverFunc func(signal.Observation) error

// Source produces observations for exactly one consumer.
//
// Start blocks until the source is stopped, exhausted or ctx is canceled. Stop may be called at
// any time, from any goroutine; before Start it has no effect and a later Start runs normally.
// A stop request is observed at the next loop head or inside the wait in progress.
type Source interface {
	Start(ctx context.Context, deliver DeliverFunc) error
	Stop()
	Name() string
}

// lifecycle tracks the stop channel of the current run.
type lifecycle struct {
	mu      sync.Mutex
	stop    chan struct{}
	running bool
}

func (l *lifecycle) begin() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stop = make(chan struct{})
	l.running = true
	return l.stop
}

func (l *lifecycle) halt() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	close(l.stop)
	l.running = false
}

func (l *lifecycle) end(stop <-chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running && l.stop == stop {
		close(l.stop)
		l.running = false
	}
}

// done reports whether the run should end; err is ctx.Err() on cancellation and nil on Stop.
func done(ctx context.Context, stop <-chan struct{}) (bool, error) {
	select {
	case <-ctx.Done():
		return true, ctx.Err()
	case <-stop:
		return true, nil
	default:
		return false, nil
	}
}

// sleep waits d and returns false if the run was stopped first.
func sleep(ctx context.Context, stop <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		ended, _ := done(ctx, stop)
		return !ended
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-stop:
		return false
	case <-timer.C:
		return true
	}
}

// safeDeliver shields the source loop from consumer errors and panics.
func safeDeliver(log zerolog.Logger, source string, deliver DeliverFunc, obs signal.Observation) {
	metrics.ObservationsTotal.WithLabelValues(source).Inc()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("source", source).Interface("panic", r).Msg("consumer callback panicked")
		}
	}()
	if err := deliver(obs); err != nil {
		log.Error().Err(err).Str("source", source).Msg("consumer callback failed")
	}
}

func malformed(log zerolog.Logger, source string, err error) {
	metrics.MalformedTotal.WithLabelValues(source).Inc()
	log.Warn().Err(err).Str("source", source).Msg("skipping malformed record")
}

func millis(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// NewSource constructs the source selected by cfg.Kind.
func NewSource(cfg config.Source, log zerolog.Logger) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", ProviderSynthetic:
		return NewSyntheticSource(cfg.Symbol, millis(cfg.IntervalMs, defaultInterval), cfg.BasePrice, log), nil
	case ProviderReplay:
		return NewReplaySource(cfg.Path, millis(cfg.IntervalMs, defaultInterval), log), nil
	case ProviderSocket:
		return NewSocketSource(cfg.URI, millis(cfg.ReconnectIntervalMs, defaultReconnectInterval), log), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}
