package exchange

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/surgelove/vibe-trader/internal/signal"
)

// maxStep bounds the per-tick relative move of the synthetic walk.
const maxStep = 0.02

// SyntheticSource generates a multiplicative random walk: each tick price *= 1+U(-2%, +2%).
// Emitted prices are rounded to cents; the walk itself keeps full precision.
type SyntheticSource struct {
	symbol    string
	interval  time.Duration
	basePrice float64
	log       zerolog.Logger
	rng       *rand.Rand
	now       func() time.Time
	lc        lifecycle
}

// SyntheticOption customizes a SyntheticSource.
type SyntheticOption func(*SyntheticSource)

// WithRand injects the random generator, e.g. a seeded one for reproducible runs.
func WithRand(rng *rand.Rand) SyntheticOption {
	return func(s *SyntheticSource) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) SyntheticOption {
	return func(s *SyntheticSource) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSyntheticSource builds a generator; defaults are BTC-USD, 1s and 50000.
func NewSyntheticSource(symbol string, interval time.Duration, basePrice float64, log zerolog.Logger, opts ...SyntheticOption) *SyntheticSource {
	if symbol == "" {
		symbol = "BTC-USD"
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	if basePrice <= 0 {
		basePrice = 50000
	}
	s := &SyntheticSource{
		symbol:    symbol,
		interval:  interval,
		basePrice: basePrice,
		log:       log,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name identifies the source in logs and metrics.
func (s *SyntheticSource) Name() string { return ProviderSynthetic }

// Start runs until Stop is called or ctx is canceled; it has no natural end.
func (s *SyntheticSource) Start(ctx context.Context, deliver DeliverFunc) error {
	stop := s.lc.begin()
	defer s.lc.end(stop)

	s.log.Info().Str("symbol", s.symbol).Float64("base_price", s.basePrice).Msg("starting synthetic data generation")
	price := s.basePrice
	for {
		if ended, err := done(ctx, stop); ended {
			return err
		}
		price = Step(price, s.rng.Float64())
		obs := signal.Observation{
			Time:   s.now(),
			Price:  RoundCents(price),
			Symbol: s.symbol,
		}
		s.log.Debug().Stringer("obs", obs).Msg("generated observation")
		safeDeliver(s.log, ProviderSynthetic, deliver, obs)

		if !sleep(ctx, stop, s.interval) {
			_, err := done(ctx, stop)
			return err
		}
	}
}

// Stop ends the walk after the current wait.
func (s *SyntheticSource) Stop() {
	s.log.Info().Msg("stopping synthetic data generation")
	s.lc.halt()
}

// Step applies one walk move; u in [0,1) maps to a relative change in [-2%, +2%).
func Step(price, u float64) float64 {
	change := u*2*maxStep - maxStep
	return price * (1 + change)
}

// RoundCents rounds a price to two decimals.
func RoundCents(price float64) float64 {
	return decimal.NewFromFloat(price).Round(2).InexactFloat64()
}
